package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"legal-battle-service/internal/app"
	"legal-battle-service/internal/domain"
	"legal-battle-service/internal/logging"
)

type WSHandler struct {
	service  *app.BattleService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.BattleService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS starts a battle for the connected user and streams it. Outbound
// "battle" messages carry a snapshot on every phase change and "round" the
// result of an answer; inbound messages are "answer" and "exit". Closing the
// socket abandons the battle.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	deckID := r.URL.Query().Get("deckId")
	if deckID == "" {
		http.Error(w, "missing deckId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("ws upgrade failed", logging.Fields{"error": err.Error()})
		return
	}
	defer conn.Close()

	// The request context ends with the handler; battle I/O must not.
	ctx := context.WithoutCancel(r.Context())

	snap, err := h.service.StartBattle(ctx, userID, app.StartOptions{
		DeckID:     deckID,
		Difficulty: r.URL.Query().Get("difficulty"),
	})
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorFor(err)})
		return
	}
	battleID := snap.BattleID

	updates, cancel, err := h.service.Subscribe(ctx, battleID, userID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorFor(err)})
		return
	}
	defer cancel()
	defer func() { _ = h.service.Exit(ctx, battleID, userID) }()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer: gorilla connections support one concurrent writer
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				logging.Warn("ws write error", logging.Fields{"battleId": battleID, "error": err.Error()})
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "battle", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// Sent from this goroutine so an error never races the close below.
	reply := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}

read:
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var sub domain.Submission
			if err := json.Unmarshal(inbound.Payload, &sub); err != nil {
				reply(outboundMessage[any]{Type: "error", Payload: errorFor(errInvalidBody)})
				continue
			}
			report, err := h.service.SubmitAnswer(ctx, battleID, userID, sub)
			if err != nil {
				reply(outboundMessage[any]{Type: "error", Payload: errorFor(err)})
				continue
			}
			reply(outboundMessage[any]{Type: "round", Payload: report})
		case "exit":
			break read
		default:
			reply(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type", Status: http.StatusBadRequest}})
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
