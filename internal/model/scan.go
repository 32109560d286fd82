package model

import (
	"encoding/json"
	"time"
)

// Verdict is the backend classification of a scanned food label.
type Verdict string

const (
	VerdictHalal     Verdict = "halal"
	VerdictHaram     Verdict = "haram"
	VerdictWarning   Verdict = "warning"
	VerdictNeedsInfo Verdict = "needs_info"
	VerdictUnknown   Verdict = "unknown"
)

// ParseVerdict maps any backend value onto the known set.
func ParseVerdict(s string) Verdict {
	switch v := Verdict(s); v {
	case VerdictHalal, VerdictHaram, VerdictWarning, VerdictNeedsInfo:
		return v
	default:
		return VerdictUnknown
	}
}

func (v *Verdict) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*v = VerdictUnknown
		return nil
	}
	*v = ParseVerdict(s)
	return nil
}

type Ingredient struct {
	Name    string  `json:"name"`
	Verdict Verdict `json:"verdict"`
	Reason  string  `json:"reason,omitempty"`
}

type ScanResult struct {
	ID          string       `json:"id"`
	Verdict     Verdict      `json:"verdict"`
	Summary     string       `json:"summary"`
	Ingredients []Ingredient `json:"ingredients"`
	Questions   []string     `json:"questions,omitempty"` // filled for needs_info
	ImageURL    string       `json:"image_url,omitempty"`
}

type HistoryItem struct {
	ID        string    `json:"id"`
	Verdict   Verdict   `json:"verdict"`
	Summary   string    `json:"summary"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type QAAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
