// Package games coordinates the roll history store, the rule checks and the
// summary generator behind the HTTP layer.
package games

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MJE43/bowling-score-go/internal/bowling"
	"github.com/MJE43/bowling-score-go/internal/store"
	"github.com/MJE43/bowling-score-go/internal/summary"
)

var (
	// ErrGameNotFound is returned for ids the store does not know.
	ErrGameNotFound = store.ErrGameNotFound

	// ErrSummaryUnavailable wraps any failure of the summary generator.
	ErrSummaryUnavailable = errors.New("games: summary unavailable")
)

// Snapshot is a game's history together with its score.
type Snapshot struct {
	GameID int64
	Rolls  []bowling.Roll
	Card   bowling.Scorecard
}

// Service implements the game operations. Roll submissions for the same game
// are serialized so the validate-then-append step sees the latest history.
type Service struct {
	store     store.Store
	generator summary.Generator
	metrics   *Metrics
	logger    *log.Logger

	mu           sync.Mutex
	locks        map[int64]*sync.Mutex // serializes roll appends
	summaryLocks map[int64]*sync.Mutex // serializes summary generation
}

// Option configures a Service.
type Option func(*Service)

// WithLogger replaces the default "[GAMES] " stdout logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics attaches prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewService wires a service over st. gen may be nil, in which case every
// summary request fails with ErrSummaryUnavailable.
func NewService(st store.Store, gen summary.Generator, opts ...Option) *Service {
	s := &Service{
		store:     st,
		generator: gen,
		logger:    log.New(os.Stdout, "[GAMES] ", log.LstdFlags|log.LUTC),
		locks:        make(map[int64]*sync.Mutex),
		summaryLocks: make(map[int64]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	return s
}

// DiscardLogger is a logger that drops everything; handy in tests.
func DiscardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// gameLock returns the mutex for gameID from locks. Entries are only added
// for games the store knows, so unknown ids never grow the map. Games are
// never deleted, so an existing entry proves the game exists.
func (s *Service) gameLock(ctx context.Context, locks map[int64]*sync.Mutex, gameID int64) (*sync.Mutex, error) {
	s.mu.Lock()
	l, ok := locks[gameID]
	s.mu.Unlock()
	if ok {
		return l, nil
	}

	if _, err := s.store.GetRolls(ctx, gameID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok = locks[gameID]; !ok {
		l = &sync.Mutex{}
		locks[gameID] = l
	}
	return l, nil
}

// Ping checks the underlying store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// SummariesEnabled reports whether a configured generator is attached.
func (s *Service) SummariesEnabled() bool {
	return s.generator != nil && s.generator.Configured()
}

// CreateGame starts a new game with an empty history.
func (s *Service) CreateGame(ctx context.Context) (int64, error) {
	id, err := s.store.CreateGame(ctx)
	if err != nil {
		return 0, err
	}
	s.metrics.gamesCreated.Inc()
	s.logger.Printf("game_created game_id=%d", id)
	return id, nil
}

// RecordRoll parses raw, checks it against the game's last roll and appends
// it. On success the accepted roll and the full updated history are
// returned. Rule violations come back as *bowling.RejectError.
func (s *Service) RecordRoll(ctx context.Context, gameID int64, raw json.RawMessage) (bowling.Roll, []bowling.Roll, error) {
	l, err := s.gameLock(ctx, s.locks, gameID)
	if err != nil {
		return bowling.Roll{}, nil, err
	}
	l.Lock()
	defer l.Unlock()

	rolls, err := s.store.GetRolls(ctx, gameID)
	if err != nil {
		return bowling.Roll{}, nil, err
	}

	roll, err := bowling.ParseRoll(raw)
	if err == nil {
		err = bowling.ValidateRoll(bowling.LastRoll(rolls), roll)
	}
	if err != nil {
		var rej *bowling.RejectError
		if errors.As(err, &rej) {
			s.metrics.rolls.WithLabelValues(rej.Code).Inc()
			s.logger.Printf("roll_rejected game_id=%d reason=%s message=%q", gameID, rej.Code, rej.Message)
		}
		return bowling.Roll{}, nil, err
	}

	if err := s.store.AppendRoll(ctx, gameID, roll); err != nil {
		return bowling.Roll{}, nil, err
	}
	s.metrics.rolls.WithLabelValues("accepted").Inc()
	s.logger.Printf("roll_recorded game_id=%d roll=%s rolls=%d", gameID, roll, len(rolls)+1)

	return roll, append(rolls, roll), nil
}

// Score returns the game's history and scorecard.
func (s *Service) Score(ctx context.Context, gameID int64) (Snapshot, error) {
	rolls, err := s.store.GetRolls(ctx, gameID)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{GameID: gameID, Rolls: rolls, Card: bowling.ComputeScore(rolls)}, nil
}

// Stats returns frame-level statistics for the game.
func (s *Service) Stats(ctx context.Context, gameID int64) (bowling.Stats, error) {
	rolls, err := s.store.GetRolls(ctx, gameID)
	if err != nil {
		return bowling.Stats{}, err
	}
	return bowling.ComputeStats(rolls), nil
}

// ListGames returns a page of games.
func (s *Service) ListGames(ctx context.Context, limit, offset int) (*store.GamesPage, error) {
	return s.store.ListGames(ctx, limit, offset)
}

// Summary returns a description of the game. A stored summary is reused
// while the history has not grown since it was generated; otherwise the
// generator is asked for a new one. Requests for the same game are
// serialized, so a burst triggers at most one generation per history.
// Generator failures are wrapped in ErrSummaryUnavailable and leave the
// game untouched.
func (s *Service) Summary(ctx context.Context, gameID int64) (store.SummaryRecord, error) {
	l, err := s.gameLock(ctx, s.summaryLocks, gameID)
	if err != nil {
		return store.SummaryRecord{}, err
	}
	l.Lock()
	defer l.Unlock()

	rolls, err := s.store.GetRolls(ctx, gameID)
	if err != nil {
		return store.SummaryRecord{}, err
	}

	if s.generator == nil {
		s.metrics.summaries.WithLabelValues("failed").Inc()
		return store.SummaryRecord{}, fmt.Errorf("%w: %v", ErrSummaryUnavailable, summary.ErrNotConfigured)
	}

	cached, err := s.store.LatestSummary(ctx, gameID)
	switch {
	case err == nil && cached.RollCount == len(rolls) && cached.Model == s.generator.Model():
		s.metrics.summaries.WithLabelValues("cached").Inc()
		return cached, nil
	case err != nil && !errors.Is(err, store.ErrSummaryNotFound):
		s.logger.Printf("summary_cache_error game_id=%d error=%q", gameID, err)
	}

	start := time.Now()
	text, err := s.generator.Generate(ctx, bowling.ComputeScore(rolls))
	s.metrics.summaryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.summaries.WithLabelValues("failed").Inc()
		s.logger.Printf("summary_failed game_id=%d model=%s error=%q", gameID, s.generator.Model(), err)
		return store.SummaryRecord{}, fmt.Errorf("%w: %v", ErrSummaryUnavailable, err)
	}

	rec := store.SummaryRecord{
		ID:        uuid.New(),
		GameID:    gameID,
		RollCount: len(rolls),
		Model:     s.generator.Model(),
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.SaveSummary(ctx, rec); err != nil {
		s.logger.Printf("summary_save_failed game_id=%d summary_id=%s error=%q", gameID, rec.ID, err)
	}
	s.metrics.summaries.WithLabelValues("generated").Inc()
	s.logger.Printf("summary_generated game_id=%d summary_id=%s rolls=%d duration=%v", gameID, rec.ID, rec.RollCount, time.Since(start))
	return rec, nil
}
