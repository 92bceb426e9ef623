package bowling

import (
	"encoding/json"
	"fmt"
)

// FrameLabel names how a frame was completed.
type FrameLabel string

const (
	LabelStrike FrameLabel = "Strike"
	LabelSpare  FrameLabel = "Spare"
	LabelOpen   FrameLabel = "Open frame"
)

// FrameScore is one frame as seen by the calculator walk.
type FrameScore struct {
	Frame        int        `json:"frame"`
	RollIndex    int        `json:"roll_index"`
	RunningTotal int        `json:"running_total"`
	Label        FrameLabel `json:"label"`
}

// BreakdownEntry is the [running total, label] pair stored in a breakdown.
type BreakdownEntry struct {
	Total int
	Label FrameLabel
}

// MarshalJSON encodes the entry as a two-element array.
func (e BreakdownEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Total, e.Label})
}

// UnmarshalJSON decodes the two-element array form.
func (e *BreakdownEntry) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("bowling: breakdown entry must have 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &e.Total); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &e.Label)
}

// Scorecard is the result of scoring a roll history.
//
// Breakdown holds a single entry keyed by the roll index the walk stopped at
// ("frame_<index>") carrying the final total and the label of the last frame.
// It is empty for an empty history. Frames lists every frame in order.
type Scorecard struct {
	Total     int                       `json:"total"`
	Breakdown map[string]BreakdownEntry `json:"breakdown"`
	Frames    []FrameScore              `json:"frames"`
}

// LastFrame returns the most recently scored frame, if any.
func (s Scorecard) LastFrame() (FrameScore, bool) {
	if len(s.Frames) == 0 {
		return FrameScore{}, false
	}
	return s.Frames[len(s.Frames)-1], true
}

// ComputeScore scores rolls, which are assumed to have been accepted one by
// one by ValidateRoll. Bonus rolls that have not been thrown yet count as
// zero, so a trailing strike is worth 10 and a trailing spare 10.
func ComputeScore(rolls []Roll) Scorecard {
	card := Scorecard{
		Breakdown: make(map[string]BreakdownEntry),
		Frames:    []FrameScore{},
	}

	pins := func(i int) int {
		if i < len(rolls) {
			return rolls[i].Pins
		}
		return 0
	}

	i := 0
	for i < len(rolls) {
		var label FrameLabel
		switch {
		case pins(i) == MaxPins:
			card.Total += MaxPins + pins(i+1) + pins(i+2)
			label = LabelStrike
			i++
		case i+1 < len(rolls) && pins(i)+pins(i+1) == MaxPins:
			card.Total += MaxPins + pins(i+2)
			label = LabelSpare
			i += 2
		default:
			card.Total += pins(i) + pins(i+1)
			label = LabelOpen
			i += 2
		}
		card.Frames = append(card.Frames, FrameScore{
			Frame:        len(card.Frames) + 1,
			RollIndex:    i,
			RunningTotal: card.Total,
			Label:        label,
		})
	}

	if last, ok := card.LastFrame(); ok {
		card.Breakdown[BreakdownKey(i)] = BreakdownEntry{Total: card.Total, Label: last.Label}
	}
	return card
}

// BreakdownKey formats the breakdown map key for a roll index.
func BreakdownKey(index int) string {
	return fmt.Sprintf("frame_%d", index)
}
