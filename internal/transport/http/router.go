package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"legal-battle-service/internal/app"
)

// NewRouter wires the REST API, the battle websocket and the health check.
func NewRouter(service *app.BattleService, identity *Identity) http.Handler {
	rest := NewRESTHandler(service)
	ws := NewWSHandler(service)

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.Handle("/ws", identity.Require(http.HandlerFunc(ws.ServeWS))).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/profiles/{userId}", rest.GetProfile).Methods(http.MethodGet)
	v1.HandleFunc("/profiles/{userId}/battles", rest.GetHistory).Methods(http.MethodGet)
	v1.HandleFunc("/leaderboard", rest.GetLeaderboard).Methods(http.MethodGet)
	v1.HandleFunc("/achievements", rest.ListAchievements).Methods(http.MethodGet)

	battles := v1.PathPrefix("/battles").Subrouter()
	battles.Use(identity.Require)
	battles.HandleFunc("", rest.StartBattle).Methods(http.MethodPost)
	battles.HandleFunc("/{id}", rest.GetBattle).Methods(http.MethodGet)
	battles.HandleFunc("/{id}/answers", rest.SubmitAnswer).Methods(http.MethodPost)
	battles.HandleFunc("/{id}", rest.ExitBattle).Methods(http.MethodDelete)

	return r
}
