package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"legal-battle-service/internal/app"
	"legal-battle-service/internal/domain"
)

// RESTHandler exposes the battle use cases as JSON endpoints.
type RESTHandler struct {
	service *app.BattleService
}

func NewRESTHandler(service *app.BattleService) *RESTHandler {
	return &RESTHandler{service: service}
}

type startRequest struct {
	DeckID     string `json:"deckId"`
	Difficulty string `json:"difficulty"`
}

type profileResponse struct {
	domain.Profile
	BattlesPlayed int `json:"battlesPlayed"`
	Rank          int `json:"rank"`
}

// StartBattle handles POST /v1/battles
func (h *RESTHandler) StartBattle(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DeckID == "" {
		writeError(w, errInvalidBody)
		return
	}
	snap, err := h.service.StartBattle(r.Context(), UserID(r.Context()), app.StartOptions{
		DeckID:     req.DeckID,
		Difficulty: req.Difficulty,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// GetBattle handles GET /v1/battles/{id}
func (h *RESTHandler) GetBattle(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Snapshot(r.Context(), mux.Vars(r)["id"], UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// SubmitAnswer handles POST /v1/battles/{id}/answers
func (h *RESTHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var sub domain.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, errInvalidBody)
		return
	}
	report, err := h.service.SubmitAnswer(r.Context(), mux.Vars(r)["id"], UserID(r.Context()), sub)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ExitBattle handles DELETE /v1/battles/{id}
func (h *RESTHandler) ExitBattle(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Exit(r.Context(), mux.Vars(r)["id"], UserID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetProfile handles GET /v1/profiles/{userId}
func (h *RESTHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	profile, err := h.service.Profile(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	rank, err := h.service.Rank(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{Profile: profile, BattlesPlayed: profile.BattlesPlayed(), Rank: rank})
}

// GetHistory handles GET /v1/profiles/{userId}/battles
func (h *RESTHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.History(r.Context(), mux.Vars(r)["userId"], queryInt(r, "limit"))
	if err != nil {
		writeError(w, err)
		return
	}
	if history == nil {
		history = []domain.BattleRecord{}
	}
	writeJSON(w, http.StatusOK, history)
}

// GetLeaderboard handles GET /v1/leaderboard
func (h *RESTHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Leaderboard(r.Context(), queryInt(r, "limit"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// ListAchievements handles GET /v1/achievements
func (h *RESTHandler) ListAchievements(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Achievements())
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}
