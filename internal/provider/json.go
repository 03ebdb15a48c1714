package provider

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// NumericMap keeps the numeric entries of a JSON object. Numeric strings are
// accepted; NaN and infinities are dropped since they cannot be re-encoded.
func NumericMap(r gjson.Result) map[string]float64 {
	if !r.IsObject() {
		return nil
	}
	out := map[string]float64{}
	r.ForEach(func(key, value gjson.Result) bool {
		switch value.Type {
		case gjson.Number:
			if f := value.Float(); finite(f) {
				out[key.String()] = f
			}
		case gjson.String:
			if f, ok := ParseNumber(value.String()); ok {
				out[key.String()] = f
			}
		}
		return true
	})
	if len(out) == 0 {
		return nil
	}
	return out
}

// ParseNumber parses s as a finite float.
func ParseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !finite(f) {
		return 0, false
	}
	return f, true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
