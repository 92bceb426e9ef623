package api

import (
	"encoding/json"
	"time"

	"github.com/MJE43/bowling-score-go/internal/bowling"
	"github.com/MJE43/bowling-score-go/internal/store"
)

// APIError is the JSON body of every error response. The human readable
// message lives under "error" so plain clients can keep reading just that key.
type APIError struct {
	Message   string                 `json:"error"`
	Type      string                 `json:"type"`
	Context   map[string]interface{} `json:"context,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp string                 `json:"timestamp,omitempty"`
}

// Error implements the error interface
func (e APIError) Error() string {
	return e.Message
}

// Error types
const (
	// Roll rejections share their codes with bowling.RejectError
	ErrTypeInvalidInput      = bowling.ReasonInvalidInput
	ErrTypeInvalidRollNumber = bowling.ReasonInvalidRollNumber
	ErrTypeFrameOverflow     = bowling.ReasonFrameOverflow
	ErrTypeInvalidParams     = "invalid_params"

	ErrTypeGameNotFound = "game_not_found"

	ErrTypeSummaryUnavailable = "summary_unavailable"
	ErrTypeTimeout            = "timeout"
	ErrTypeInternal           = "internal_error"
	ErrTypeRateLimit          = "rate_limit_exceeded"
)

// ErrorCategory groups error types for logs and headers
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryGame       ErrorCategory = "game"
	CategoryUpstream   ErrorCategory = "upstream"
	CategorySystem     ErrorCategory = "system"
)

// GetErrorCategory returns the category for an error type
func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeInvalidInput, ErrTypeInvalidRollNumber, ErrTypeFrameOverflow, ErrTypeInvalidParams, ErrTypeRateLimit:
		return CategoryValidation
	case ErrTypeGameNotFound:
		return CategoryGame
	case ErrTypeSummaryUnavailable:
		return CategoryUpstream
	default:
		return CategorySystem
	}
}

// VersionInfo contains service version information
type VersionInfo struct {
	ServiceVersion string `json:"service_version"`
	GitCommit      string `json:"git_commit,omitempty"`
	BuildTime      string `json:"build_time,omitempty"`
}

// CreateGameResponse is returned by POST /games
type CreateGameResponse struct {
	Message string `json:"message"`
	GameID  int64  `json:"game_id"`
}

// RollRequest is the body of POST /games/{id}/rolls. Roll is kept raw so
// that the game lookup happens before the payload is judged.
type RollRequest struct {
	Roll json.RawMessage `json:"roll"`
}

// RollResponse is returned when a roll is accepted
type RollResponse struct {
	Message string         `json:"message"`
	Records []bowling.Roll `json:"records"`
}

// ScoreResponse is returned by GET /games/{id}/score
type ScoreResponse struct {
	Records      []bowling.Roll                    `json:"records"`
	CurrentScore int                               `json:"current score"`
	ScoreList    map[string]bowling.BreakdownEntry `json:"score_list"`
	Frames       []bowling.FrameScore              `json:"frames"`
}

// StatsResponse is returned by GET /games/{id}/stats
type StatsResponse struct {
	GameID          int64  `json:"game_id"`
	FramesPlayed    int    `json:"frames_played"`
	Strikes         int    `json:"strikes"`
	Spares          int    `json:"spares"`
	OpenFrames      int    `json:"open_frames"`
	PinsKnocked     int    `json:"pins_knocked"`
	CurrentScore    int    `json:"current_score"`
	AveragePerFrame string `json:"average_per_frame"`
}

// SummaryResponse is returned by GET /games/{id}/summary
type SummaryResponse struct {
	Summary     string    `json:"summary"`
	SummaryID   string    `json:"summary_id"`
	Model       string    `json:"model"`
	RollCount   int       `json:"roll_count"`
	GeneratedAt time.Time `json:"generated_at"`
}

// GamesResponse is returned by GET /games
type GamesResponse struct {
	Games  []store.Game `json:"games"`
	Count  int          `json:"count"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}
