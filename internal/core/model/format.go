package model

import (
	"fmt"
	"math"
)

// FormatHours renders fractional hours as HH:MM:SS, truncating each part.
func FormatHours(h float64) string {
	if h <= 0 || math.IsNaN(h) || math.IsInf(h, 0) {
		h = 0
	}
	hrs := math.Floor(h)
	minutesFloat := (h - hrs) * 60
	mins := math.Floor(minutesFloat)
	secs := math.Floor((minutesFloat - mins) * 60)
	return fmt.Sprintf("%02d:%02d:%02d", int(hrs), int(mins), int(secs))
}
