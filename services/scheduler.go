// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartWeeklyRollover schedules the Monday 00:00 UTC reset of the
// last_week_point_count cache.
func (s *RewardService) StartWeeklyRollover() {
	sched, _ := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	sched.Start()

	_, _ = sched.NewJob(
		gocron.WeeklyJob(1,
			gocron.NewWeekdays(time.Monday),
			gocron.NewAtTimes(gocron.NewAtTime(0, 0, 0)),
		),
		gocron.NewTask(func() {
			if err := s.RolloverWeeklyPoints(); err != nil {
				log.Printf("[Scheduler] Weekly point rollover failed: %v", err)
			}
		}),
	)
}
