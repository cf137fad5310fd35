package scoring

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Number decodes a model-reported score leniently. Models occasionally emit
// scores as quoted strings ("3.5"), null, or drop the field altogether; all
// of those decode to zero or the parsed value instead of failing the whole
// report.
type Number float64

// UnmarshalJSON never returns an error: anything that is not a number or a
// numeric string becomes 0.
func (n *Number) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = Number(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*n = Number(f)
			return nil
		}
	}
	*n = 0
	return nil
}

// Float returns the plain float64 value.
func (n Number) Float() float64 {
	return float64(n)
}
