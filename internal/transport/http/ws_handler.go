package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"emotech-quiz-service/internal/app"
	"emotech-quiz-service/internal/domain"
	"emotech-quiz-service/internal/realtime"
)

// WSHandler upgrades HTTP requests to websockets and dispatches the inbound
// envelopes to session use cases. Each socket is registered under a fresh
// connection ID; room membership is decided by the service, never here.
type WSHandler struct {
	service  *app.SessionService
	rooms    *realtime.Registry
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.SessionService, rooms *realtime.Registry) *WSHandler {
	return &WSHandler{
		service: service,
		rooms:   rooms,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type joinGamePayload struct {
	GameCode string `json:"game_code"`
	Name     string `json:"name"`
}

type joinAdminPayload struct {
	GameCode    string `json:"game_code"`
	OrganizerID string `json:"organizer_id"`
}

type joinLivePayload struct {
	GameCode string `json:"game_code"`
}

type submitAnswerPayload struct {
	ParticipantID string `json:"participant_id"`
	QuestionID    string `json:"question_id"`
	Answer        string `json:"answer"`
	TimeTaken     int    `json:"time_taken"`
	UsedHint      bool   `json:"used_hint"`
}

type reportCheatPayload struct {
	ParticipantID string         `json:"participant_id"`
	Type          string         `json:"type"`
	Details       map[string]any `json:"details"`
}

type gameControlPayload struct {
	GameCode    string `json:"game_code"`
	OrganizerID string `json:"organizer_id"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs the read loop until the peer goes away.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}

	connID := uuid.NewString()
	wc := newWSConn(conn)
	h.rooms.Register(connID, wc)

	// Disconnect releases rooms, deactivates any bound participant, and
	// closes the handle; the read loop exiting for any reason lands here.
	defer h.service.Disconnect(connID)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		h.dispatch(r, connID, wc, inbound)
	}
}

func (h *WSHandler) dispatch(r *http.Request, connID string, wc *wsConn, inbound inboundMessage) {
	ctx := r.Context()

	switch inbound.Type {
	case "join_game":
		var p joinGamePayload
		if err := json.Unmarshal(inbound.Data, &p); err != nil {
			h.sendError(wc, domain.NewError(domain.KindInvalidInput, "invalid join_game payload"))
			return
		}
		participant, game, err := h.service.JoinGame(ctx, connID, p.GameCode, p.Name)
		if err != nil {
			h.sendError(wc, err)
			return
		}
		h.send(wc, "joined", map[string]any{"participant": participant, "game": game})

	case "join_admin":
		var p joinAdminPayload
		if err := json.Unmarshal(inbound.Data, &p); err != nil {
			h.sendError(wc, domain.NewError(domain.KindInvalidInput, "invalid join_admin payload"))
			return
		}
		game, participants, err := h.service.JoinAdmin(ctx, connID, p.GameCode, p.OrganizerID)
		if err != nil {
			h.sendError(wc, err)
			return
		}
		h.send(wc, "admin_joined", map[string]any{"game": game, "participants": participants})

	case "join_live":
		var p joinLivePayload
		if err := json.Unmarshal(inbound.Data, &p); err != nil {
			h.sendError(wc, domain.NewError(domain.KindInvalidInput, "invalid join_live payload"))
			return
		}
		game, board, err := h.service.JoinLive(ctx, connID, p.GameCode)
		if err != nil {
			h.sendError(wc, err)
			return
		}
		h.send(wc, "live_joined", map[string]any{"game": game, "leaderboard": board})

	case "submit_answer":
		var p submitAnswerPayload
		if err := json.Unmarshal(inbound.Data, &p); err != nil {
			h.sendError(wc, domain.NewError(domain.KindInvalidInput, "invalid submit_answer payload"))
			return
		}
		result, err := h.service.SubmitAnswer(ctx, p.ParticipantID, p.QuestionID, p.Answer, p.TimeTaken, p.UsedHint)
		if err != nil {
			h.sendError(wc, err)
			return
		}
		h.send(wc, "answer_result", result)

	case "report_cheat":
		var p reportCheatPayload
		if err := json.Unmarshal(inbound.Data, &p); err != nil {
			h.sendError(wc, domain.NewError(domain.KindInvalidInput, "invalid report_cheat payload"))
			return
		}
		// Fire and forget: the reporter gets no acknowledgement, the admin
		// room gets the event.
		if _, err := h.service.ReportCheat(ctx, p.ParticipantID, domain.CheatType(p.Type), p.Details); err != nil {
			h.sendError(wc, err)
		}

	case "start_game":
		var p gameControlPayload
		if err := json.Unmarshal(inbound.Data, &p); err != nil {
			h.sendError(wc, domain.NewError(domain.KindInvalidInput, "invalid start_game payload"))
			return
		}
		if err := h.requireOrganizer(ctx, p.GameCode, p.OrganizerID); err != nil {
			h.sendError(wc, err)
			return
		}
		game, err := h.service.StartGame(ctx, p.GameCode)
		if err != nil {
			h.sendError(wc, err)
			return
		}
		h.send(wc, "game_started", game)

	case "end_game":
		var p gameControlPayload
		if err := json.Unmarshal(inbound.Data, &p); err != nil {
			h.sendError(wc, domain.NewError(domain.KindInvalidInput, "invalid end_game payload"))
			return
		}
		if err := h.requireOrganizer(ctx, p.GameCode, p.OrganizerID); err != nil {
			h.sendError(wc, err)
			return
		}
		game, err := h.service.EndGame(ctx, p.GameCode)
		if err != nil {
			h.sendError(wc, err)
			return
		}
		h.send(wc, "game_ended", game)

	default:
		h.sendError(wc, domain.NewError(domain.KindInvalidInput, "unsupported message type"))
	}
}

func (h *WSHandler) requireOrganizer(ctx context.Context, gameCode, organizerID string) error {
	game, err := h.service.GetGame(ctx, gameCode)
	if err != nil {
		return err
	}
	if game.OrganizerID != organizerID {
		return domain.ErrNotOrganizer
	}
	return nil
}

func (h *WSHandler) send(wc *wsConn, msgType string, data any) {
	if err := wc.Send(realtime.Message{Type: msgType, Data: data}); err != nil {
		log.Printf("ws send %s: %v", msgType, err)
	}
}

func (h *WSHandler) sendError(wc *wsConn, err error) {
	h.send(wc, "error", errorPayload{Code: kindCode(domain.KindOf(err)), Message: err.Error()})
}

func kindCode(kind domain.ErrorKind) string {
	switch kind {
	case domain.KindInvalidInput:
		return "invalid_input"
	case domain.KindUnauthorized:
		return "unauthorized"
	case domain.KindNotFound:
		return "not_found"
	case domain.KindConflict:
		return "conflict"
	case domain.KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// errConnClosed marks sends that lost the race with connection teardown.
var errConnClosed = errors.New("connection closed")

// wsConn adapts a gorilla connection to the broadcaster's Conn. All writes go
// through a single writer goroutine; Send only hands the message over, so it
// is safe from any goroutine.
type wsConn struct {
	conn *websocket.Conn
	send chan realtime.Message
	done chan struct{}
	once sync.Once
}

func newWSConn(conn *websocket.Conn) *wsConn {
	wc := &wsConn{
		conn: conn,
		send: make(chan realtime.Message, 16),
		done: make(chan struct{}),
	}
	go wc.writeLoop()
	return wc
}

func (c *wsConn) writeLoop() {
	for {
		select {
		case msg := <-c.send:
			if err := c.conn.WriteJSON(msg); err != nil {
				_ = c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *wsConn) Send(msg realtime.Message) error {
	select {
	case <-c.done:
		return errConnClosed
	default:
	}
	select {
	case c.send <- msg:
		return nil
	case <-c.done:
		return errConnClosed
	}
}

func (c *wsConn) Close() error {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
	return nil
}
