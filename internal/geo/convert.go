// Package geo turns a resolved GPS tag block into decimal coordinates,
// altitude, timestamps and map links.
package geo

import (
	"fmt"
	"math"
	"strings"
)

const precision = 1e8

// DMSToDecimal converts a degrees/minutes/seconds triple into signed decimal
// degrees rounded to 8 places. S and W references are negative. It reports
// false when dms is not a triple of finite numbers.
func DMSToDecimal(dms []float64, ref string) (float64, bool) {
	if len(dms) != 3 {
		return 0, false
	}
	for _, v := range dms {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
	}

	decimal := dms[0] + dms[1]/60.0 + dms[2]/3600.0
	switch strings.ToUpper(strings.TrimSpace(ref)) {
	case "S", "W":
		if decimal != 0 {
			decimal = -decimal
		}
	}
	return math.Round(decimal*precision) / precision, true
}

// Altitude applies the altitude reference: 0 means above sea level, anything
// else means below and negates the value.
func Altitude(value float64, ref int64) (float64, string) {
	if ref == 0 {
		return value, "above sea level"
	}
	return -value, "below sea level"
}

// FormatGPSTime renders hours, minutes and seconds as HH:MM:SS. Any other
// arity is rejected.
func FormatGPSTime(parts []float64) (string, bool) {
	if len(parts) != 3 {
		return "", false
	}
	for _, v := range parts {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", false
		}
	}
	return fmt.Sprintf("%02d:%02d:%02d", int(parts[0]), int(parts[1]), int(parts[2])), true
}
