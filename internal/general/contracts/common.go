package contracts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Envelope adds cross-cutting headers all broker messages carry.
type Envelope struct {
	CorrelationID string    `json:"correlation_id,omitempty"` // request id of the triggering action
	Producer      string    `json:"producer,omitempty"`       // e.g. "portal-terminal"
	SentAt        time.Time `json:"sent_at,omitempty"`        // UTC
}

// Result is the common head of every backend response.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Text accepts a JSON string or number and keeps its textual form.
// The backend sends ids and balances in either shape.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	*t = Text(b)
	return nil
}

func (t Text) String() string { return string(t) }

// Int accepts a JSON number or a numeric string.
type Int int

func (n *Int) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*n = 0
			return nil
		}
		b = []byte(s)
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("contracts: not a number: %q", b)
	}
	*n = Int(f)
	return nil
}
