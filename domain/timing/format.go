package timing

import (
	"fmt"
	"math"
	"strconv"
)

// FormatMinutes renders a duration in minutes for display:
//
//	0            -> "0m"
//	under 1m     -> whole seconds, e.g. "30s"
//	1h and up    -> "{h}h {m}m" with minutes rounded to an integer
//	1m..59m      -> minutes with up to two decimals, trailing zeros stripped
func FormatMinutes(minutes float64) string {
	if minutes <= 0 {
		return "0m"
	}
	if minutes < 1 {
		return fmt.Sprintf("%ds", int(math.Round(minutes*60)))
	}
	if minutes >= 60 {
		hours := int(minutes / 60)
		rem := int(math.Round(minutes - float64(hours)*60))
		return fmt.Sprintf("%dh %dm", hours, rem)
	}
	return strconv.FormatFloat(Round2(minutes), 'f', -1, 64) + "m"
}
