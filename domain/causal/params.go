package causal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gocausal/domain/core"
)

// Limit is a non-negative bound, or Unlimited.
type Limit int

// Unlimited disables a bound.
const Unlimited Limit = -1

// ParseLimit accepts a non-negative integer, "-1", "unlimited" or the empty string.
func ParseLimit(s string) (Limit, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "unlimited" || s == "-1" {
		return Unlimited, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer or \"unlimited\"", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("%d is negative", n)
	}
	return Limit(n), nil
}

// IsUnlimited reports whether the bound is disabled
func (l Limit) IsUnlimited() bool { return l < 0 }

// Allows reports whether n is within the bound
func (l Limit) Allows(n int) bool { return l < 0 || n <= int(l) }

func (l Limit) String() string {
	if l.IsUnlimited() {
		return "unlimited"
	}
	return strconv.Itoa(int(l))
}

// MarshalJSON writes integers as numbers and Unlimited as "unlimited"
func (l Limit) MarshalJSON() ([]byte, error) {
	if l.IsUnlimited() {
		return []byte(`"unlimited"`), nil
	}
	return []byte(strconv.Itoa(int(l))), nil
}

// UnmarshalJSON accepts an integral number or a string ParseLimit understands.
// Fractional numbers are rejected.
func (l *Limit) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseLimit(s)
		if err != nil {
			return err
		}
		*l = parsed
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("limit must be an integer or \"unlimited\": %w", err)
	}
	if f != math.Trunc(f) {
		return fmt.Errorf("limit %v is not an integer", f)
	}
	if f < -1 {
		return fmt.Errorf("limit %v is negative", f)
	}
	*l = Limit(int(f))
	return nil
}

// DefaultAlpha is the significance level used when none is given
const DefaultAlpha = 0.05

// Params configures one discovery run.
//
// Alpha is the significance level of every independence test; a test judges
// independence when p >= Alpha. Alpha == 0 is accepted and means no test ever judges
// independence, so the skeleton stays complete.
type Params struct {
	Alpha         float64              `json:"alpha"`
	Depth         Limit                `json:"depth"`
	MaxPathLength Limit                `json:"max_path_length"`
	Knowledge     *BackgroundKnowledge `json:"knowledge,omitempty"`
	Verbose       bool                 `json:"verbose"`
	Workers       int                  `json:"workers"`
}

// DefaultParams returns alpha 0.05, unlimited depth and path length, one worker
func DefaultParams() Params {
	return Params{
		Alpha:         DefaultAlpha,
		Depth:         Unlimited,
		MaxPathLength: Unlimited,
		Workers:       1,
	}
}

// Validate rejects malformed parameters before any computation starts. names are the
// matrix's variable names, used to check background knowledge.
func (p Params) Validate(names []string) error {
	if math.IsNaN(p.Alpha) || p.Alpha < 0 || p.Alpha >= 1 {
		return core.NewParameterError("alpha", fmt.Sprintf("%v is outside [0, 1)", p.Alpha))
	}
	if p.Depth < Unlimited {
		return core.NewParameterError("depth", fmt.Sprintf("%d is below -1", int(p.Depth)))
	}
	if p.MaxPathLength < Unlimited {
		return core.NewParameterError("max_path_length", fmt.Sprintf("%d is below -1", int(p.MaxPathLength)))
	}
	if p.Workers < 0 {
		return core.NewParameterError("workers", fmt.Sprintf("%d is negative", p.Workers))
	}
	if p.Knowledge != nil {
		if _, err := p.Knowledge.Compile(names); err != nil {
			return err
		}
	}
	return nil
}

// Independent applies the run's decision rule to a p-value
func (p Params) Independent(pValue float64) bool {
	return p.Alpha > 0 && pValue >= p.Alpha
}
