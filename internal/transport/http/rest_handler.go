package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"emotech-quiz-service/internal/app"
	"emotech-quiz-service/internal/domain"
)

// RESTHandler exposes the request/response surface: organizer tooling, game
// setup, and a pollable event feed for clients that cannot hold a socket.
type RESTHandler struct {
	service *app.SessionService
}

func NewRESTHandler(service *app.SessionService) *RESTHandler {
	return &RESTHandler{service: service}
}

// Register mounts all routes on the mux.
func (h *RESTHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/organizer/login", h.organizerLogin)
	mux.HandleFunc("POST /api/games", h.createGame)
	mux.HandleFunc("GET /api/games/{code}", h.getGame)
	mux.HandleFunc("POST /api/games/{code}/questions", h.addQuestion)
	mux.HandleFunc("GET /api/games/{code}/questions", h.listQuestions)
	mux.HandleFunc("POST /api/games/{code}/start", h.startGame)
	mux.HandleFunc("POST /api/games/{code}/end", h.endGame)
	mux.HandleFunc("GET /api/games/{code}/participants", h.listParticipants)
	mux.HandleFunc("GET /api/games/{code}/leaderboard", h.leaderboard)
	mux.HandleFunc("GET /api/games/{code}/cheat-logs", h.listCheatLogs)
	mux.HandleFunc("GET /api/games/{code}/events", h.events)
	mux.HandleFunc("POST /api/participants", h.joinGame)
	mux.HandleFunc("POST /api/answers", h.submitAnswer)
	mux.HandleFunc("POST /api/cheat-detected", h.reportCheat)
}

func (h *RESTHandler) organizerLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewError(domain.KindInvalidInput, "invalid request body"))
		return
	}
	if req.Name == "" {
		writeError(w, domain.NewError(domain.KindInvalidInput, "name required"))
		return
	}
	// There is no account system; a login simply mints the identity the
	// organizer presents on later calls.
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"organizer_id": uuid.NewString(),
		"name":         req.Name,
	})
}

func (h *RESTHandler) createGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrganizerID string `json:"organizer_id"`
		Title       string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewError(domain.KindInvalidInput, "invalid request body"))
		return
	}
	game, err := h.service.CreateGame(r.Context(), req.OrganizerID, req.Title)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "game": game})
}

func (h *RESTHandler) getGame(w http.ResponseWriter, r *http.Request) {
	game, err := h.service.GetGame(r.Context(), r.PathValue("code"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "game": game})
}

func (h *RESTHandler) addQuestion(w http.ResponseWriter, r *http.Request) {
	var req domain.Question
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewError(domain.KindInvalidInput, "invalid request body"))
		return
	}
	question, err := h.service.AddQuestion(r.Context(), r.PathValue("code"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "question": question})
}

func (h *RESTHandler) listQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.service.ListQuestions(r.Context(), r.PathValue("code"))
	if err != nil {
		writeError(w, err)
		return
	}
	if questions == nil {
		questions = []domain.Question{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "questions": questions})
}

func (h *RESTHandler) startGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrganizerID string `json:"organizer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewError(domain.KindInvalidInput, "invalid request body"))
		return
	}
	code := r.PathValue("code")
	if err := h.requireOrganizer(r, code, req.OrganizerID); err != nil {
		writeError(w, err)
		return
	}
	game, err := h.service.StartGame(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "game": game})
}

func (h *RESTHandler) endGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrganizerID string `json:"organizer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewError(domain.KindInvalidInput, "invalid request body"))
		return
	}
	code := r.PathValue("code")
	if err := h.requireOrganizer(r, code, req.OrganizerID); err != nil {
		writeError(w, err)
		return
	}
	game, err := h.service.EndGame(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "game": game})
}

func (h *RESTHandler) listParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := h.service.ListParticipants(r.Context(), r.PathValue("code"))
	if err != nil {
		writeError(w, err)
		return
	}
	if participants == nil {
		participants = []domain.Participant{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "participants": participants})
}

func (h *RESTHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.service.Leaderboard(r.Context(), r.PathValue("code"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "leaderboard": board})
}

func (h *RESTHandler) listCheatLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.service.ListCheatLogs(r.Context(), r.PathValue("code"))
	if err != nil {
		writeError(w, err)
		return
	}
	if logs == nil {
		logs = []domain.CheatLog{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "cheat_logs": logs})
}

func (h *RESTHandler) events(w http.ResponseWriter, r *http.Request) {
	var cursor int64
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			writeError(w, domain.NewError(domain.KindInvalidInput, "cursor must be a non-negative integer"))
			return
		}
		cursor = parsed
	}
	events, next, err := h.service.EventsSince(r.Context(), r.PathValue("code"), cursor)
	if err != nil {
		writeError(w, err)
		return
	}
	if events == nil {
		events = []domain.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "events": events, "cursor": next})
}

func (h *RESTHandler) joinGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GameCode string `json:"game_code"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewError(domain.KindInvalidInput, "invalid request body"))
		return
	}
	// REST joins carry no connection; the participant exists but holds no
	// room membership until a socket join binds one.
	participant, game, err := h.service.JoinGame(r.Context(), "", req.GameCode, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "participant": participant, "game": game})
}

func (h *RESTHandler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req submitAnswerPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewError(domain.KindInvalidInput, "invalid request body"))
		return
	}
	result, err := h.service.SubmitAnswer(r.Context(), req.ParticipantID, req.QuestionID, req.Answer, req.TimeTaken, req.UsedHint)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "result": result})
}

func (h *RESTHandler) reportCheat(w http.ResponseWriter, r *http.Request) {
	var req reportCheatPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewError(domain.KindInvalidInput, "invalid request body"))
		return
	}
	penalty, err := h.service.ReportCheat(r.Context(), req.ParticipantID, domain.CheatType(req.Type), req.Details)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "penalty": penalty})
}

func (h *RESTHandler) requireOrganizer(r *http.Request, gameCode, organizerID string) error {
	game, err := h.service.GetGame(r.Context(), gameCode)
	if err != nil {
		return err
	}
	if game.OrganizerID != organizerID {
		return domain.ErrNotOrganizer
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(domain.KindOf(err)), map[string]any{
		"success": false,
		"error": map[string]string{
			"code":    kindCode(domain.KindOf(err)),
			"message": err.Error(),
		},
	})
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
