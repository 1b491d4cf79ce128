package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"nextgen-quiz-service/internal/app"
	"nextgen-quiz-service/internal/attempt"

	"github.com/gorilla/websocket"
)

// WSHandler drives one quiz attempt per websocket connection. All intents
// (select, start, answer, submit, reveal, restart) arrive as JSON messages
// and the handler pushes pure state back; the 1-second timer cadence lives
// here, not in the engine.
type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
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

type selectPayload struct {
	Title string `json:"title"`
}

type startPayload struct {
	TimeLimitMinutes int `json:"timeLimitMinutes"`
}

type answerPayload struct {
	Position int `json:"position"`
	Option   int `json:"option"`
}

type scorePayload struct {
	Correct      int  `json:"correct"`
	Total        int  `json:"total"`
	Percent      int  `json:"percent"`
	TimerExpired bool `json:"timerExpired"`
}

type reviewPayload struct {
	Revealed bool                 `json:"revealed"`
	Items    []attempt.ReviewItem `json:"items,omitempty"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and wires the connection into the attempt
// use cases. The session is scoped to the connection and dropped when it
// closes.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, "missing sessionId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	defer h.service.EndSession(sessionID)

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	tickerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(tickerDone)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				status, expiredNow, err := h.service.TickAttempt(sessionID)
				if err != nil {
					continue // no session yet
				}
				switch {
				case expiredNow:
					snap, err := h.service.Snapshot(sessionID)
					if err != nil {
						continue
					}
					payload := scorePayload{TimerExpired: true, Percent: snap.Percent}
					if snap.Score != nil {
						payload.Correct = snap.Score.Correct
						payload.Total = snap.Score.Total
					}
					h.trySend(send, closeSignals, outboundMessage[any]{Type: "score", Payload: payload})
				case status.State == attempt.TimerRunning:
					h.trySend(send, closeSignals, outboundMessage[any]{Type: "timer", Payload: status})
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.handle(r, sessionID, inbound, send)
	}

	close(closeSignals)
	<-tickerDone
	close(send)
	<-writerDone
}

func (h *WSHandler) handle(r *http.Request, sessionID string, inbound inboundMessage, send chan<- outboundMessage[any]) {
	fail := func(err error) {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
	}

	switch inbound.Type {
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errors.New("invalid select payload"))
			return
		}
		snap, err := h.service.SelectQuiz(r.Context(), sessionID, payload.Title)
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "quiz", Payload: snap}
	case "start":
		var payload startPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errors.New("invalid start payload"))
			return
		}
		snap, err := h.service.StartAttempt(sessionID, payload.TimeLimitMinutes)
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "started", Payload: snap}
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errors.New("invalid answer payload"))
			return
		}
		if _, err := h.service.Answer(sessionID, payload.Position, payload.Option); err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "answered", Payload: payload}
	case "submit":
		snap, err := h.service.SubmitAttempt(sessionID)
		if err != nil {
			fail(err)
			return
		}
		payload := scorePayload{Percent: snap.Percent}
		if snap.Score != nil {
			payload.Correct = snap.Score.Correct
			payload.Total = snap.Score.Total
		}
		send <- outboundMessage[any]{Type: "score", Payload: payload}
	case "reveal":
		revealed, items, err := h.service.ToggleReveal(sessionID)
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "review", Payload: reviewPayload{Revealed: revealed, Items: items}}
	case "restart":
		snap, err := h.service.RestartAttempt(sessionID)
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "quiz", Payload: snap}
	default:
		fail(errors.New("unsupported message type"))
	}
}

func (h *WSHandler) trySend(send chan<- outboundMessage[any], closeSignals <-chan struct{}, msg outboundMessage[any]) {
	select {
	case send <- msg:
	case <-closeSignals:
	}
}
