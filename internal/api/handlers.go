package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const maxRollBodyBytes = 1 << 16

// parseGameID reads the {id} path parameter. Anything that is not a base-10
// integer is treated as an unknown game.
func parseGameID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// handleCreateGame handles POST /games
func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	id, err := s.games.CreateGame(r.Context())
	if err != nil {
		s.errorHandler.HandleError(w, r, 0, err)
		return
	}

	s.audit.LogGameCreated(middleware.GetReqID(r.Context()), id, r.RemoteAddr)
	s.writeJSON(w, http.StatusCreated, CreateGameResponse{
		Message: "Game created",
		GameID:  id,
	})
}

// handleListGames handles GET /games
func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit")
	if !ok {
		s.errorHandler.HandleValidationError(w, r, "limit", msgInvalidPagination)
		return
	}
	offset, ok := queryInt(r, "offset")
	if !ok {
		s.errorHandler.HandleValidationError(w, r, "offset", msgInvalidPagination)
		return
	}

	page, err := s.games.ListGames(r.Context(), limit, offset)
	if err != nil {
		s.errorHandler.HandleError(w, r, 0, err)
		return
	}

	s.writeJSON(w, http.StatusOK, GamesResponse{
		Games:  page.Games,
		Count:  len(page.Games),
		Total:  page.TotalCount,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
}

// handleRecordRoll handles POST /games/{id}/rolls
func (s *Server) handleRecordRoll(w http.ResponseWriter, r *http.Request) {
	id, ok := parseGameID(r)
	if !ok {
		s.errorHandler.HandleNotFound(w, r)
		return
	}

	// A body that does not decode leaves Roll empty; the service reports it
	// as invalid input once the game is known to exist.
	var req RollRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRollBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req.Roll = nil
	}

	roll, rolls, err := s.games.RecordRoll(r.Context(), id, req.Roll)
	if err != nil {
		s.errorHandler.HandleError(w, r, id, err)
		return
	}

	s.audit.LogRollRecorded(middleware.GetReqID(r.Context()), id, roll.String(), len(rolls), r.RemoteAddr)
	s.writeJSON(w, http.StatusOK, RollResponse{
		Message: fmt.Sprintf("Roll %s recorded", roll),
		Records: rolls,
	})
}

// handleScore handles GET /games/{id}/score
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	id, ok := parseGameID(r)
	if !ok {
		s.errorHandler.HandleNotFound(w, r)
		return
	}

	snap, err := s.games.Score(r.Context(), id)
	if err != nil {
		s.errorHandler.HandleError(w, r, id, err)
		return
	}

	s.writeJSON(w, http.StatusOK, ScoreResponse{
		Records:      snap.Rolls,
		CurrentScore: snap.Card.Total,
		ScoreList:    snap.Card.Breakdown,
		Frames:       snap.Card.Frames,
	})
}

// handleStats handles GET /games/{id}/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	id, ok := parseGameID(r)
	if !ok {
		s.errorHandler.HandleNotFound(w, r)
		return
	}

	st, err := s.games.Stats(r.Context(), id)
	if err != nil {
		s.errorHandler.HandleError(w, r, id, err)
		return
	}

	s.writeJSON(w, http.StatusOK, StatsResponse{
		GameID:          id,
		FramesPlayed:    st.Frames,
		Strikes:         st.Strikes,
		Spares:          st.Spares,
		OpenFrames:      st.OpenFrames,
		PinsKnocked:     st.PinsKnocked,
		CurrentScore:    st.Score,
		AveragePerFrame: st.AveragePerFrame.StringFixed(2),
	})
}

// handleSummary handles GET /games/{id}/summary
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := parseGameID(r)
	if !ok {
		s.errorHandler.HandleNotFound(w, r)
		return
	}

	rec, err := s.games.Summary(r.Context(), id)
	if err != nil {
		s.errorHandler.HandleError(w, r, id, err)
		return
	}

	s.audit.LogSummaryServed(middleware.GetReqID(r.Context()), id, rec.ID.String(), rec.Model, rec.RollCount)
	s.writeJSON(w, http.StatusOK, SummaryResponse{
		Summary:     rec.Text,
		SummaryID:   rec.ID.String(),
		Model:       rec.Model,
		RollCount:   rec.RollCount,
		GeneratedAt: rec.CreatedAt,
	})
}

// queryInt reads an optional integer query parameter; absent means 0.
func queryInt(r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
