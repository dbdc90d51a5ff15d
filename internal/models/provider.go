package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/pkg/errors"
)

type stageKind uint8

const (
	stageAbsent stageKind = iota
	stageInt
	stageString
)

// StageCode is the provider's stage value. Older API versions send integers
// (0, 10, 30, ...), newer ones send enum strings ("InTransit", ...).
// The zero value means the provider sent nothing.
type StageCode struct {
	kind stageKind
	num  int
	str  string
}

func IntStage(n int) StageCode       { return StageCode{kind: stageInt, num: n} }
func StringStage(s string) StageCode { return StageCode{kind: stageString, str: s} }

func (c StageCode) IsAbsent() bool { return c.kind == stageAbsent }

// Int returns the numeric code and whether the stage was sent as a number.
func (c StageCode) Int() (int, bool) { return c.num, c.kind == stageInt }

func (c StageCode) String() string {
	switch c.kind {
	case stageInt:
		return strconv.Itoa(c.num)
	case stageString:
		return c.str
	default:
		return ""
	}
}

func (c *StageCode) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*c = StageCode{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return errors.Wrap(err, "stage string")
		}
		if s == "" {
			*c = StageCode{}
			return nil
		}
		// Some revisions send numeric codes as strings.
		if n, err := strconv.Atoi(s); err == nil {
			*c = IntStage(n)
			return nil
		}
		*c = StringStage(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return errors.Wrap(err, "stage number")
	}
	*c = numberStage(num)
	return nil
}

// maxExactStage is the largest magnitude a float64 holds without losing integers.
const maxExactStage = 1 << 53

// numberStage keeps integral codes numeric. Fractional or out-of-range values
// become string stages carrying the raw text, which no mapping entry matches.
func numberStage(num json.Number) StageCode {
	if n, err := num.Int64(); err == nil && n >= -maxExactStage && n <= maxExactStage {
		return IntStage(int(n))
	}
	if f, err := num.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) <= maxExactStage {
		return IntStage(int(f))
	}
	return StringStage(num.String())
}

func (c StageCode) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case stageInt:
		return []byte(strconv.Itoa(c.num)), nil
	case stageString:
		return json.Marshal(c.str)
	default:
		return []byte("null"), nil
	}
}

// ProviderStatusRecord is one entry of a tracking provider batch response,
// flattened to the fields the normalizer looks at.
type ProviderStatusRecord struct {
	Number      string    `json:"number"`
	Stage       StageCode `json:"stage"`
	SubStage    string    `json:"sub_stage,omitempty"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
}
