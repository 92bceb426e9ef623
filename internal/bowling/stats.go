package bowling

import "github.com/shopspring/decimal"

// Stats aggregates a game's frames.
type Stats struct {
	Frames          int
	Strikes         int
	Spares          int
	OpenFrames      int
	PinsKnocked     int
	Score           int
	AveragePerFrame decimal.Decimal
}

// ComputeStats scores rolls and tallies the result. AveragePerFrame is the
// score divided by the number of frames, rounded half away from zero to two
// places; it is zero for an empty game.
func ComputeStats(rolls []Roll) Stats {
	card := ComputeScore(rolls)
	st := Stats{
		Frames:          len(card.Frames),
		Score:           card.Total,
		AveragePerFrame: decimal.Zero,
	}
	for _, r := range rolls {
		st.PinsKnocked += r.Pins
	}
	for _, f := range card.Frames {
		switch f.Label {
		case LabelStrike:
			st.Strikes++
		case LabelSpare:
			st.Spares++
		default:
			st.OpenFrames++
		}
	}
	if st.Frames > 0 {
		st.AveragePerFrame = decimal.NewFromInt(int64(st.Score)).
			DivRound(decimal.NewFromInt(int64(st.Frames)), 2)
	}
	return st
}
