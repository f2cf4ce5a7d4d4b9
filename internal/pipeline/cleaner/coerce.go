// internal/pipeline/cleaner/coerce.go
package cleaner

import (
	"math"
	"strconv"
	"strings"
)

// parseNumber coerces a raw cell to a finite float. Blank, non-numeric and
// non-finite values report ok=false and are treated as missing.
func parseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseAge converts an integer or decimal age to an int, truncating toward
// zero. Bucketed values such as "25-34" or ">74" do not convert.
func parseAge(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, ok := parseNumber(s)
	if !ok || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
