package services

// Quiz answers earn full XP while more than GraceSeconds remain on the timer.
// After that the non-base 75% drains linearly over the decay window, bottoming
// out at the 25% floor once time runs out.
const (
	GraceSeconds = 25

	decayWindowSeconds = 25
	baseShareDivisor   = 4 // floor reward = totalXP / 4
)

// AwardedXP converts the XP allocated to a question plus the seconds left on
// the clock into the XP actually credited. Pure and deterministic — the UI
// preview and the authoritative server award both call this, so every step
// floors via integer division; do not replace with a single float rounding.
func AwardedXP(totalXP uint, secondsLeft int) uint {
	if secondsLeft > GraceSeconds {
		return totalXP
	}

	base := totalXP / baseShareDivisor
	if secondsLeft <= 0 {
		return base
	}

	remaining := totalXP - base
	elapsed := uint(decayWindowSeconds - secondsLeft)
	deducted := remaining * elapsed / decayWindowSeconds
	return totalXP - deducted
}
