// workers/notification_dispatch_worker.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"academy-reward-system/models"
	"gorm.io/gorm"
)

// notificationPayload is the contract with the external notification service.
type notificationPayload struct {
	UserID  string `json:"userId"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Read    bool   `json:"read"`
}

const dispatchBatchSize = 100

// NotificationDispatchWorker pushes undelivered notification rows to the
// external notification service. Delivery mechanics (email, push) live there;
// this worker only hands over the payload records.
type NotificationDispatchWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string
	endpointPath string
	serviceToken string
	httpClient   *http.Client
}

func NewNotificationDispatchWorker(db *gorm.DB, baseURL, endpointPath, serviceToken string) *NotificationDispatchWorker {
	return &NotificationDispatchWorker{
		db:           db,
		interval:     30 * time.Second,
		baseURL:      baseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (w *NotificationDispatchWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Notification Dispatch Worker…")
	go w.run(ctx)
}

func (w *NotificationDispatchWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.dispatchBatch(ctx); err != nil {
				log.Printf("❌ [NOTIFY] Dispatch batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Notification Dispatch Worker stopped")
			return
		}
	}
}

// dispatchBatch sends pending notifications one by one and marks each row as
// dispatched only after the sink accepted it, so a crash re-delivers rather
// than drops.
func (w *NotificationDispatchWorker) dispatchBatch(ctx context.Context) error {
	var pending []models.Notification
	if err := w.db.Where("dispatched = ?", false).
		Order("created_at ASC").
		Limit(dispatchBatchSize).
		Find(&pending).Error; err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid notification service URL '%s': %w", w.baseURL, err)
	}
	endpoint := base.JoinPath(w.endpointPath).String()

	var sent, failed int
	for _, n := range pending {
		if err := w.push(ctx, endpoint, n); err != nil {
			failed++
			log.Printf("⚠️ [NOTIFY] Failed to dispatch notification %s: %v", n.ID, err)
			continue
		}
		now := time.Now()
		if err := w.db.Model(&models.Notification{}).Where("id = ?", n.ID).
			Updates(map[string]interface{}{
				"dispatched":    true,
				"dispatched_at": now,
			}).Error; err != nil {
			log.Printf("⚠️ [NOTIFY] Failed to mark notification %s dispatched: %v", n.ID, err)
			continue
		}
		sent++
	}

	log.Printf("✅ [NOTIFY] Dispatched %d notification(s), %d failed", sent, failed)
	return nil
}

func (w *NotificationDispatchWorker) push(ctx context.Context, endpoint string, n models.Notification) error {
	payload := notificationPayload{
		UserID:  n.UserID,
		Type:    n.Type,
		Message: n.Message,
		Read:    n.Read,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("notification service returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
