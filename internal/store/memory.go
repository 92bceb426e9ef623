package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MJE43/bowling-score-go/internal/bowling"
)

type memGame struct {
	createdAt time.Time
	rolls     []bowling.Roll
}

// Memory keeps games in a process-local map. Game ids start at 1.
type Memory struct {
	mu        sync.RWMutex
	nextID    int64
	games     map[int64]*memGame
	summaries map[int64]SummaryRecord
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		nextID:    1,
		games:     make(map[int64]*memGame),
		summaries: make(map[int64]SummaryRecord),
	}
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

// Ping only fails once ctx is done.
func (m *Memory) Ping(ctx context.Context) error { return ctx.Err() }

// CreateGame inserts an empty game and returns its id.
func (m *Memory) CreateGame(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.games[id] = &memGame{createdAt: time.Now().UTC(), rolls: []bowling.Roll{}}
	return id, nil
}

// AppendRoll adds roll at the end of the game's history.
func (m *Memory) AppendRoll(ctx context.Context, gameID int64, roll bowling.Roll) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games[gameID]
	if !ok {
		return ErrGameNotFound
	}
	g.rolls = append(g.rolls, roll)
	return nil
}

// GetRolls returns a copy of the game's history in play order.
func (m *Memory) GetRolls(ctx context.Context, gameID int64) ([]bowling.Roll, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.games[gameID]
	if !ok {
		return nil, ErrGameNotFound
	}
	out := make([]bowling.Roll, len(g.rolls))
	copy(out, g.rolls)
	return out, nil
}

// ListGames returns a page of games ordered by id with their roll counts.
func (m *Memory) ListGames(ctx context.Context, limit, offset int) (*GamesPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit, offset = NormalizePage(limit, offset)

	m.mu.RLock()
	defer m.mu.RUnlock()

	page := &GamesPage{Games: []Game{}, TotalCount: len(m.games), Limit: limit, Offset: offset}
	// ids are dense and ascending
	skipped := 0
	for id := int64(1); id < m.nextID && len(page.Games) < limit; id++ {
		g, ok := m.games[id]
		if !ok {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		page.Games = append(page.Games, Game{ID: id, RollCount: len(g.rolls), CreatedAt: g.createdAt})
	}
	return page, nil
}

// SaveSummary records a generated summary, keeping only the newest per game.
func (m *Memory) SaveSummary(ctx context.Context, rec SummaryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.games[rec.GameID]; !ok {
		return ErrGameNotFound
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if prev, ok := m.summaries[rec.GameID]; ok && prev.CreatedAt.After(rec.CreatedAt) {
		return nil
	}
	m.summaries[rec.GameID] = rec
	return nil
}

// LatestSummary returns the most recently recorded summary for a game.
func (m *Memory) LatestSummary(ctx context.Context, gameID int64) (SummaryRecord, error) {
	if err := ctx.Err(); err != nil {
		return SummaryRecord{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.games[gameID]; !ok {
		return SummaryRecord{}, ErrGameNotFound
	}
	rec, ok := m.summaries[gameID]
	if !ok {
		return SummaryRecord{}, ErrSummaryNotFound
	}
	return rec, nil
}
