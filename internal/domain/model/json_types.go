package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FlexibleTime decodes either a calendar date ("2025-01-31") or an RFC 3339 timestamp.
type FlexibleTime struct {
	time.Time
}

func (t *FlexibleTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("expected a date string: %w", err)
	}
	parsed, err := ParseFlexibleTime(raw)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func ParseFlexibleTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return parsed.UTC(), nil
	}
	if parsed, err := time.Parse("2006-01-02", raw); err == nil {
		return parsed.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC 3339", raw)
}

// IDList decodes a JSON array whose elements are integers or numeric strings.
type IDList []int64

func (l *IDList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("expected an array of ids: %w", err)
	}
	out := make(IDList, 0, len(raw))
	for _, item := range raw {
		id, err := parseRawID(item)
		if err != nil {
			return err
		}
		out = append(out, id)
	}
	*l = out
	return nil
}

// OptionalID distinguishes an absent key from an explicit null.
type OptionalID struct {
	Set   bool
	Value *int64
}

func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	id, err := parseRawID(data)
	if err != nil {
		return err
	}
	o.Value = &id
	return nil
}

func parseRawID(data json.RawMessage) (int64, error) {
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return 0, fmt.Errorf("invalid id: %w", err)
	}
	switch t := v.(type) {
	case json.Number:
		n = t
	case string:
		n = json.Number(strings.TrimSpace(t))
	default:
		return 0, fmt.Errorf("invalid id %s: expected an integer", string(data))
	}
	id, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %s: expected a positive integer", string(data))
	}
	return id, nil
}
