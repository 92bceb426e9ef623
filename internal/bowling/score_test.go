package bowling

import (
	"encoding/json"
	"testing"

	"github.com/smartystreets/assertions"
)

func TestScoreScenarios(t *testing.T) {
	tests := []struct {
		name      string
		rolls     []Roll
		total     int
		breakdown map[string]BreakdownEntry
	}{
		{
			name:      "empty game",
			rolls:     nil,
			total:     0,
			breakdown: map[string]BreakdownEntry{},
		},
		{
			name:      "open frame",
			rolls:     []Roll{{1, 9}, {2, 0}},
			total:     9,
			breakdown: map[string]BreakdownEntry{"frame_2": {9, LabelOpen}},
		},
		{
			name:      "strike awaiting bonus rolls",
			rolls:     []Roll{{1, 9}, {2, 0}, {1, 10}},
			total:     19,
			breakdown: map[string]BreakdownEntry{"frame_3": {19, LabelStrike}},
		},
		{
			name:      "single strike",
			rolls:     []Roll{{1, 10}},
			total:     10,
			breakdown: map[string]BreakdownEntry{"frame_1": {10, LabelStrike}},
		},
		{
			name:      "strike spare open",
			rolls:     []Roll{{1, 10}, {1, 5}, {2, 5}, {1, 9}, {2, 0}},
			total:     48,
			breakdown: map[string]BreakdownEntry{"frame_5": {48, LabelOpen}},
		},
		{
			name:      "trailing first ball",
			rolls:     []Roll{{1, 4}},
			total:     4,
			breakdown: map[string]BreakdownEntry{"frame_2": {4, LabelOpen}},
		},
		{
			name:      "trailing spare",
			rolls:     []Roll{{1, 3}, {2, 7}},
			total:     10,
			breakdown: map[string]BreakdownEntry{"frame_2": {10, LabelSpare}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := ComputeScore(tt.rolls)
			so(t, card.Total, assertions.ShouldEqual, tt.total)
			so(t, card.Breakdown, assertions.ShouldResemble, tt.breakdown)
		})
	}
}

func TestOpenFramesScoreTheirPins(t *testing.T) {
	var rolls []Roll
	sum := 0
	for frame := 0; frame < 10; frame++ {
		first := frame % 6
		second := (frame * 7) % (MaxPins - first)
		rolls = append(rolls, Roll{1, first}, Roll{2, second})
		sum += first + second

		so(t, ComputeScore(rolls).Total, assertions.ShouldEqual, sum)
	}
	so(t, ValidateHistory(rolls), assertions.ShouldBeNil)
	so(t, ComputeScore(rolls).Frames, assertions.ShouldHaveLength, 10)
}

func TestStrikeBonus(t *testing.T) {
	card := ComputeScore([]Roll{{1, 10}, {1, 3}, {2, 4}})
	so(t, card.Frames[0].RunningTotal, assertions.ShouldEqual, 17)
	so(t, card.Total, assertions.ShouldEqual, 24)

	card = ComputeScore([]Roll{{1, 10}, {1, 3}})
	so(t, card.Frames[0].RunningTotal, assertions.ShouldEqual, 13)
	so(t, card.Total, assertions.ShouldEqual, 16)

	card = ComputeScore([]Roll{{1, 3}, {2, 4}, {1, 10}})
	so(t, card.Total, assertions.ShouldEqual, 17)
}

func TestSpareBonus(t *testing.T) {
	card := ComputeScore([]Roll{{1, 3}, {2, 7}, {1, 4}})
	so(t, card.Frames[0].RunningTotal, assertions.ShouldEqual, 14)
	so(t, card.Frames[0].Label, assertions.ShouldEqual, LabelSpare)
	so(t, card.Total, assertions.ShouldEqual, 18)

	card = ComputeScore([]Roll{{1, 0}, {2, 10}})
	so(t, card.Frames[0].Label, assertions.ShouldEqual, LabelSpare)
	so(t, card.Total, assertions.ShouldEqual, 10)
}

func TestFramesRecordEveryStep(t *testing.T) {
	card := ComputeScore([]Roll{{1, 10}, {1, 5}, {2, 5}, {1, 9}, {2, 0}})
	so(t, card.Frames, assertions.ShouldResemble, []FrameScore{
		{Frame: 1, RollIndex: 1, RunningTotal: 20, Label: LabelStrike},
		{Frame: 2, RollIndex: 3, RunningTotal: 39, Label: LabelSpare},
		{Frame: 3, RollIndex: 5, RunningTotal: 48, Label: LabelOpen},
	})
	last, ok := card.LastFrame()
	so(t, ok, assertions.ShouldBeTrue)
	so(t, last.Label, assertions.ShouldEqual, LabelOpen)

	_, ok = ComputeScore(nil).LastFrame()
	so(t, ok, assertions.ShouldBeFalse)
}

func TestComputeScoreIsIdempotent(t *testing.T) {
	rolls := []Roll{{1, 10}, {1, 10}, {1, 4}, {2, 6}, {1, 2}}
	snapshot := append([]Roll(nil), rolls...)

	first := ComputeScore(rolls)
	second := ComputeScore(rolls)
	so(t, second, assertions.ShouldResemble, first)
	so(t, rolls, assertions.ShouldResemble, snapshot)
}

func TestBreakdownJSON(t *testing.T) {
	card := ComputeScore([]Roll{{1, 9}, {2, 0}})
	data, err := json.Marshal(card.Breakdown)
	so(t, err, assertions.ShouldBeNil)
	so(t, string(data), assertions.ShouldEqual, `{"frame_2":[9,"Open frame"]}`)

	var decoded map[string]BreakdownEntry
	so(t, json.Unmarshal(data, &decoded), assertions.ShouldBeNil)
	so(t, decoded, assertions.ShouldResemble, card.Breakdown)
}

func TestComputeStats(t *testing.T) {
	st := ComputeStats([]Roll{{1, 10}, {1, 5}, {2, 5}, {1, 9}, {2, 0}})
	so(t, st.Frames, assertions.ShouldEqual, 3)
	so(t, st.Strikes, assertions.ShouldEqual, 1)
	so(t, st.Spares, assertions.ShouldEqual, 1)
	so(t, st.OpenFrames, assertions.ShouldEqual, 1)
	so(t, st.PinsKnocked, assertions.ShouldEqual, 29)
	so(t, st.Score, assertions.ShouldEqual, 48)
	so(t, st.AveragePerFrame.StringFixed(2), assertions.ShouldEqual, "16.00")

	st = ComputeStats([]Roll{{1, 1}, {2, 0}, {1, 1}, {2, 0}, {1, 0}, {2, 0}})
	so(t, st.AveragePerFrame.StringFixed(2), assertions.ShouldEqual, "0.67")

	st = ComputeStats(nil)
	so(t, st.Frames, assertions.ShouldEqual, 0)
	so(t, st.AveragePerFrame.StringFixed(2), assertions.ShouldEqual, "0.00")
}
