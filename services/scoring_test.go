package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAwardedXP(t *testing.T) {
	tests := []struct {
		name        string
		totalXP     uint
		secondsLeft int
		want        uint
	}{
		{"full credit above grace window", 100, 26, 100},
		{"full credit well above window", 100, 60, 100},
		{"boundary: window just entered, nothing elapsed", 100, 25, 100},
		{"mid-window drains linearly", 100, 20, 85},
		{"late in window", 100, 5, 40},
		{"last second", 100, 1, 28},
		{"time up hits the floor", 100, 0, 25},
		{"negative clamps to the floor", 100, -5, 25},
		{"zero xp stays zero", 0, 10, 0},
		{"odd xp floors every step", 97, 13, 62},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AwardedXP(tt.totalXP, tt.secondsLeft))
		})
	}
}

// Awards must never increase as the clock runs down.
func TestAwardedXPMonotonic(t *testing.T) {
	for _, totalXP := range []uint{1, 25, 100, 997} {
		prev := AwardedXP(totalXP, 60)
		for secondsLeft := 59; secondsLeft >= -10; secondsLeft-- {
			cur := AwardedXP(totalXP, secondsLeft)
			assert.LessOrEqual(t, cur, prev, "totalXP=%d secondsLeft=%d", totalXP, secondsLeft)
			prev = cur
		}
	}
}

func TestAwardedXPFloorIsQuarter(t *testing.T) {
	assert.Equal(t, uint(25), AwardedXP(100, -1000))
	assert.Equal(t, uint(0), AwardedXP(3, 0)) // 3/4 floors to 0
}
