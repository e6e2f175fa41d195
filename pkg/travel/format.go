package travel

import (
	"fmt"
	"math"
)

// FormatDistance renders distances under 1 km in whole meters and longer
// ones in kilometers to one decimal.
func FormatDistance(km float64) string {
	if km < 1 {
		return fmt.Sprintf("%.0f m", km*1000)
	}
	return fmt.Sprintf("%.1f km", km)
}

// FormatDuration renders durations under an hour as whole minutes (never
// below 1) and longer ones as hours and minutes, omitting minutes when
// they are zero.
func FormatDuration(min float64) string {
	whole := int(math.Round(min))
	if whole < 60 {
		if whole < 1 {
			whole = 1
		}
		return fmt.Sprintf("%d min", whole)
	}
	h, m := whole/60, whole%60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
