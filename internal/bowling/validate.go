package bowling

import "fmt"

// Reason codes carried by RejectError.
const (
	ReasonInvalidInput      = "invalid_input"
	ReasonInvalidRollNumber = "invalid_roll_number"
	ReasonFrameOverflow     = "frame_overflow"
)

// RejectError explains why a roll was refused. Code is stable and machine
// readable; Message is the text returned to API clients.
type RejectError struct {
	Code    string
	Message string
}

func (e *RejectError) Error() string {
	return e.Message
}

var (
	errInvalidInput = &RejectError{Code: ReasonInvalidInput, Message: "Invalid roll input"}
	errOverflow     = &RejectError{Code: ReasonFrameOverflow, Message: "Roll points cannot be greater than 10 in a frame"}
)

func invalidRollNumber(position int) *RejectError {
	return &RejectError{
		Code:    ReasonInvalidRollNumber,
		Message: fmt.Sprintf("roll number %d invalid", position),
	}
}

// ValidateRoll decides whether candidate may follow last in the same game.
// last is NoRoll when the game is empty. candidate must already have passed
// ParseRoll. A nil result means the roll may be appended.
func ValidateRoll(last, candidate Roll) error {
	switch {
	case last.Position == SecondBall && candidate.Position == SecondBall:
		return invalidRollNumber(candidate.Position)
	case last.Position == FirstBall && last.Pins < MaxPins && candidate.Position == FirstBall:
		return invalidRollNumber(candidate.Position)
	case last.Position == 0 && candidate.Position == SecondBall:
		return invalidRollNumber(candidate.Position)
	case last.Position == FirstBall && last.Pins == MaxPins && candidate.Position == SecondBall:
		return invalidRollNumber(candidate.Position)
	}

	if last.Position == FirstBall && candidate.Position == SecondBall && last.Pins+candidate.Pins > MaxPins {
		return errOverflow
	}
	return nil
}

// ValidateHistory replays ValidateRoll over rolls in order and returns the
// first rejection, wrapped with the offending index.
func ValidateHistory(rolls []Roll) error {
	last := NoRoll
	for i, r := range rolls {
		if (r.Position != FirstBall && r.Position != SecondBall) || r.Pins < 0 || r.Pins > MaxPins {
			return fmt.Errorf("roll %d: %w", i, errInvalidInput)
		}
		if err := ValidateRoll(last, r); err != nil {
			return fmt.Errorf("roll %d: %w", i, err)
		}
		last = r
	}
	return nil
}

// LastRoll returns the final roll of a history, or NoRoll when it is empty.
func LastRoll(rolls []Roll) Roll {
	if len(rolls) == 0 {
		return NoRoll
	}
	return rolls[len(rolls)-1]
}
