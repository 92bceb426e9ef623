// Package bowling implements the rules of the simplified two-slot bowling
// model: roll parsing, frame-transition validation, and scoring.
package bowling

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

const (
	// MaxPins is the number of pins standing at the start of a frame.
	MaxPins = 10

	// FirstBall is the position of the opening roll of a frame.
	FirstBall = 1
	// SecondBall is the position of the roll that completes a frame.
	SecondBall = 2
)

// Roll is a single ball: the slot it occupies within its frame and the
// number of pins it knocked down.
type Roll struct {
	Position int `json:"position"`
	Pins     int `json:"pins"`
}

// NoRoll stands in for the previous roll of a game that has none yet.
var NoRoll = Roll{}

// IsStrike reports whether the roll is a first ball clearing every pin.
func (r Roll) IsStrike() bool {
	return r.Position == FirstBall && r.Pins == MaxPins
}

func (r Roll) String() string {
	return fmt.Sprintf("[%d, %d]", r.Position, r.Pins)
}

// MarshalJSON encodes the roll in its wire form, [position, pins].
func (r Roll) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{r.Position, r.Pins})
}

// UnmarshalJSON decodes the wire form and applies the same structural
// checks as ParseRoll.
func (r *Roll) UnmarshalJSON(data []byte) error {
	parsed, err := ParseRoll(data)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRoll turns the raw JSON value supplied by a client into a Roll. The
// value must be an array of exactly two integers with a position of 1 or 2
// and a pin count between 0 and 10. Anything else is rejected with
// ReasonInvalidInput.
func ParseRoll(raw json.RawMessage) (Roll, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil || len(parts) != 2 {
		return Roll{}, errInvalidInput
	}

	position, ok := parseInt(parts[0])
	if !ok || (position != FirstBall && position != SecondBall) {
		return Roll{}, errInvalidInput
	}
	pins, ok := parseInt(parts[1])
	if !ok || pins < 0 || pins > MaxPins {
		return Roll{}, errInvalidInput
	}

	return Roll{Position: position, Pins: pins}, nil
}

// parseInt accepts only bare JSON integer literals; strings, booleans,
// null and fractional or exponent forms are refused.
func parseInt(raw json.RawMessage) (int, bool) {
	n, err := strconv.ParseInt(string(bytes.TrimSpace(raw)), 10, 32)
	if err != nil {
		return 0, false
	}
	return int(n), true
}
