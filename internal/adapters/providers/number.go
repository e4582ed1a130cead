package providers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// degrees accepts a JSON number or a numeric string.
type degrees float64

func (d *degrees) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("coordinate is null")
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("coordinate %q: %w", s, err)
		}
		*d = degrees(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*d = degrees(f)
	return nil
}
