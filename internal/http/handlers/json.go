package handlers

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/yungbote/storybook-backend/internal/domain"
)

// flexInt accepts 6 as well as "6", as sent by form-backed clients.
type flexInt struct {
	set   bool
	value int
	valid bool
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	f.set = true
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		f.set = false
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return nil
	}
	if i, err := n.Int64(); err == nil && i >= math.MinInt32 && i <= math.MaxInt32 {
		f.value, f.valid = int(i), true
		return nil
	}
	if fl, err := n.Float64(); err == nil && fl == math.Trunc(fl) && math.Abs(fl) <= math.MaxInt32 {
		f.value, f.valid = int(fl), true
	}
	return nil
}

// stringList accepts ["a","b"] as well as "a, b".
type stringList struct {
	set    bool
	values []string
}

func (s *stringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	s.set = true
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		s.values = []string{}
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				s.values = append(s.values, part)
			}
		}
		return nil
	}
	return json.Unmarshal(data, &s.values)
}

func invalidInput(op, msg string) error {
	return domain.NewError(domain.CodeInvalidInput, op, msg, nil)
}
