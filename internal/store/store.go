package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/MJE43/bowling-score-go/internal/bowling"
)

var (
	// ErrGameNotFound is returned for any operation on an unknown game id.
	ErrGameNotFound = errors.New("store: game not found")
	// ErrSummaryNotFound is returned when no summary was recorded for a game.
	ErrSummaryNotFound = errors.New("store: summary not found")
)

// Store owns the roll history of every game. Implementations must be safe
// for concurrent use and must hand out copies of histories, never slices
// they keep appending to.
//
// Store does not validate rolls; callers serialize validate-then-append per
// game id.
type Store interface {
	Close() error
	Ping(ctx context.Context) error

	CreateGame(ctx context.Context) (int64, error)
	AppendRoll(ctx context.Context, gameID int64, roll bowling.Roll) error
	GetRolls(ctx context.Context, gameID int64) ([]bowling.Roll, error)
	ListGames(ctx context.Context, limit, offset int) (*GamesPage, error)

	SaveSummary(ctx context.Context, rec SummaryRecord) error
	LatestSummary(ctx context.Context, gameID int64) (SummaryRecord, error)
}

// Game is a listing row.
type Game struct {
	ID        int64     `json:"game_id"`
	RollCount int       `json:"roll_count"`
	CreatedAt time.Time `json:"created_at"`
}

// GamesPage is a page of games ordered by id.
type GamesPage struct {
	Games      []Game `json:"games"`
	TotalCount int    `json:"total_count"`
	Limit      int    `json:"limit"`
	Offset     int    `json:"offset"`
}

// SummaryRecord is a generated game summary together with the history
// length it describes.
type SummaryRecord struct {
	ID        uuid.UUID `json:"id"`
	GameID    int64     `json:"game_id"`
	RollCount int       `json:"roll_count"`
	Model     string    `json:"model"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 500
)

// NormalizePage clamps listing parameters to sane bounds.
func NormalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
