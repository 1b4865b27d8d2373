// Package humanize formats byte sizes and timestamps for display.
package humanize

import (
	"fmt"
	"math"
	"time"
)

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatSize renders bytes with one decimal place in powers of 1024:
// 0 → "0 B", 1024 → "1.0 KB", 1536 → "1.5 KB".
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}

	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}

	v := float64(bytes) / math.Pow(1024, float64(i))
	// rounding may push 1023.96 KB to "1024.0 KB"; roll over to the next unit
	if math.Round(v*10)/10 >= 1024 && i < len(sizeUnits)-1 {
		i++
		v = float64(bytes) / math.Pow(1024, float64(i))
	}
	return fmt.Sprintf("%.1f %s", v, sizeUnits[i])
}

// FormatDate renders t as "Jan 2, 2006". The zero time renders as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}
