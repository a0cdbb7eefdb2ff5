package utils

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// FlexTime unmarshals either an RFC3339 string or a unix epoch in
// milliseconds, the two timestamp shapes accepted for deadlines.
type FlexTime struct {
	time.Time
}

func (t *FlexTime) UnmarshalJSON(data []byte) error {
	var millis int64
	if err := json.Unmarshal(data, &millis); err == nil {
		t.Time = time.UnixMilli(millis).UTC()
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string or a number")
	}

	// Epoch millis also arrive quoted.
	if millis, err := strconv.ParseInt(s, 10, 64); err == nil {
		t.Time = time.UnixMilli(millis).UTC()
		return nil
	}

	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q", s)
	}
	t.Time = parsed
	return nil
}

func (t FlexTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time)
}
