// Small helpers for fast, consistent numeric formatting in headers.
// Avoids pulling fmt for trivial conversions and keeps floats out of
// scientific notation for common values.

package ratelimit

import "strconv"

func formatInt(v int) string { return strconv.Itoa(v) }

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
