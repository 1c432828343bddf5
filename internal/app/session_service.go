package app

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"emotech-quiz-service/internal/anticheat"
	"emotech-quiz-service/internal/domain"
	"emotech-quiz-service/internal/realtime"
	"emotech-quiz-service/internal/scoring"
)

// Event types pushed to rooms and mirrored into the journal.
const (
	EventGameStarted       = "game_started"
	EventGameEnded         = "game_ended"
	EventParticipantJoined = "participant_joined"
	EventLeaderboardUpdate = "leaderboard_update"
	EventAnswerReceived    = "answer_received"
	EventCheatDetected     = "cheat_detected"
)

// DefaultSettings are applied to new games unless overridden.
var DefaultSettings = domain.GameSettings{
	QuestionTimeLimit: scoring.DefaultTimeLimit,
	HintPenalty:       scoring.DefaultHintPenalty,
	CheatPenalty:      10,
}

// SessionService orchestrates game sessions: it validates incoming operations
// against store state, applies the scoring and anti-cheat engines, commits
// store mutations, and fans out notifications. It is the only component that
// requests multi-record mutations, and it requests them as single store-level
// atomic operations.
type SessionService struct {
	games        GameStore
	questions    QuestionStore
	participants ParticipantStore
	journal      EventJournal
	rooms        *realtime.Registry
	settings     domain.GameSettings
	now          func() time.Time

	mu       sync.Mutex
	bindings map[string]string // connID -> participantID
}

// Config wires the session service's collaborators.
type Config struct {
	Games        GameStore
	Questions    QuestionStore
	Participants ParticipantStore
	Journal      EventJournal
	Rooms        *realtime.Registry
	Settings     domain.GameSettings
}

func NewSessionService(c Config) *SessionService {
	settings := c.Settings
	if settings == (domain.GameSettings{}) {
		settings = DefaultSettings
	}
	return &SessionService{
		games:        c.Games,
		questions:    c.Questions,
		participants: c.Participants,
		journal:      c.Journal,
		rooms:        c.Rooms,
		settings:     settings,
		now:          time.Now,
		bindings:     make(map[string]string),
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.now = now
	return s
}

// CreateGame registers a new game in waiting state under a fresh 6-character code.
func (s *SessionService) CreateGame(ctx context.Context, organizerID, title string) (domain.Game, error) {
	if organizerID == "" {
		return domain.Game{}, domain.NewError(domain.KindInvalidInput, "organizer id required")
	}
	if title == "" {
		title = "Quiz Game"
	}

	game := domain.Game{
		Title:       title,
		OrganizerID: organizerID,
		Status:      domain.GameWaiting,
		Settings:    s.settings,
		CreatedAt:   s.now(),
	}

	// Codes are short, so collisions are possible; retry with a fresh code.
	for attempt := 0; attempt < 5; attempt++ {
		game.Code = newGameCode()
		err := s.games.Create(ctx, game)
		if err == nil {
			return game, nil
		}
		if domain.KindOf(err) != domain.KindConflict {
			return domain.Game{}, err
		}
	}
	return domain.Game{}, fmt.Errorf("create game: exhausted code attempts")
}

// AddQuestion appends a question to a waiting or running game.
func (s *SessionService) AddQuestion(ctx context.Context, gameCode string, q domain.Question) (domain.Question, error) {
	if !domain.ValidQuestionType(q.Type) {
		return domain.Question{}, domain.NewError(domain.KindInvalidInput, fmt.Sprintf("unsupported question type %q", q.Type))
	}
	if q.Text == "" || q.CorrectAnswer == "" {
		return domain.Question{}, domain.NewError(domain.KindInvalidInput, "question text and correct answer required")
	}
	if q.Type == domain.QuestionMCQ && len(q.Options) < 2 {
		return domain.Question{}, domain.NewError(domain.KindInvalidInput, "mcq questions need at least two options")
	}

	if _, err := s.games.Get(ctx, gameCode); err != nil {
		return domain.Question{}, err
	}

	q.ID = uuid.NewString()
	q.GameCode = gameCode
	q.CreatedAt = s.now()
	if q.Order == 0 {
		q.Order = 1
	}
	if err := s.questions.Add(ctx, q); err != nil {
		return domain.Question{}, err
	}
	return q, nil
}

func (s *SessionService) GetGame(ctx context.Context, gameCode string) (domain.Game, error) {
	return s.games.Get(ctx, gameCode)
}

func (s *SessionService) ListQuestions(ctx context.Context, gameCode string) ([]domain.Question, error) {
	if _, err := s.games.Get(ctx, gameCode); err != nil {
		return nil, err
	}
	return s.questions.ListByGame(ctx, gameCode)
}

func (s *SessionService) ListParticipants(ctx context.Context, gameCode string) ([]domain.Participant, error) {
	if _, err := s.games.Get(ctx, gameCode); err != nil {
		return nil, err
	}
	return s.participants.ListByGame(ctx, gameCode)
}

func (s *SessionService) ListCheatLogs(ctx context.Context, gameCode string) ([]domain.CheatLog, error) {
	if _, err := s.games.Get(ctx, gameCode); err != nil {
		return nil, err
	}
	return s.participants.ListCheatLogs(ctx, gameCode)
}

// StartGame moves a waiting game to in_progress and notifies players and
// live viewers. It is the only operation that performs this transition.
func (s *SessionService) StartGame(ctx context.Context, gameCode string) (domain.Game, error) {
	game, err := s.games.Transition(ctx, gameCode, domain.GameWaiting, domain.GameInProgress, s.now())
	if err != nil {
		return domain.Game{}, err
	}

	s.notify(ctx, gameCode, []realtime.RoomKind{realtime.RoomGame, realtime.RoomLive}, EventGameStarted, game)
	return game, nil
}

// EndGame moves a running game to its terminal completed state.
func (s *SessionService) EndGame(ctx context.Context, gameCode string) (domain.Game, error) {
	game, err := s.games.Transition(ctx, gameCode, domain.GameInProgress, domain.GameCompleted, s.now())
	if err != nil {
		return domain.Game{}, err
	}

	s.notify(ctx, gameCode, []realtime.RoomKind{realtime.RoomGame, realtime.RoomAdmin, realtime.RoomLive}, EventGameEnded, game)
	return game, nil
}

// JoinGame creates a participant and, when a connection is supplied, enters it
// into the game room. The admin room is told about the new participant.
func (s *SessionService) JoinGame(ctx context.Context, connID, gameCode, name string) (domain.Participant, domain.Game, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Participant{}, domain.Game{}, domain.NewError(domain.KindInvalidInput, "name required")
	}

	game, err := s.games.Get(ctx, gameCode)
	if err != nil {
		return domain.Participant{}, domain.Game{}, err
	}

	participant := domain.Participant{
		ID:       uuid.NewString(),
		GameCode: gameCode,
		Name:     name,
		Avatar:   "https://api.dicebear.com/7.x/avataaars/svg?seed=" + name,
		JoinedAt: s.now(),
		Answers:  []domain.AnswerRecord{},
		IsActive: true,
	}
	if err := s.participants.Create(ctx, participant); err != nil {
		return domain.Participant{}, domain.Game{}, err
	}

	if connID != "" {
		s.bind(connID, participant.ID)
		s.rooms.Join(connID, realtime.RoomGame, gameCode)
	}

	s.notify(ctx, gameCode, []realtime.RoomKind{realtime.RoomAdmin}, EventParticipantJoined, participant)
	return participant, game, nil
}

// JoinAdmin verifies the organizer and enters the connection into the admin room.
func (s *SessionService) JoinAdmin(ctx context.Context, connID, gameCode, organizerID string) (domain.Game, []domain.Participant, error) {
	game, err := s.games.Get(ctx, gameCode)
	if err != nil {
		return domain.Game{}, nil, err
	}
	if game.OrganizerID != organizerID {
		return domain.Game{}, nil, domain.ErrNotOrganizer
	}

	participants, err := s.participants.ListByGame(ctx, gameCode)
	if err != nil {
		return domain.Game{}, nil, err
	}

	if connID != "" {
		s.rooms.Join(connID, realtime.RoomAdmin, gameCode)
	}
	return game, participants, nil
}

// JoinLive enters the connection into the public live room and returns the
// current standings.
func (s *SessionService) JoinLive(ctx context.Context, connID, gameCode string) (domain.Game, domain.Leaderboard, error) {
	game, err := s.games.Get(ctx, gameCode)
	if err != nil {
		return domain.Game{}, domain.Leaderboard{}, err
	}

	board, err := s.Leaderboard(ctx, gameCode)
	if err != nil {
		return domain.Game{}, domain.Leaderboard{}, err
	}

	if connID != "" {
		s.rooms.Join(connID, realtime.RoomLive, gameCode)
	}
	return game, board, nil
}

// Leaderboard returns participants ordered by score descending; ties keep
// join order.
func (s *SessionService) Leaderboard(ctx context.Context, gameCode string) (domain.Leaderboard, error) {
	participants, err := s.participants.ListByGame(ctx, gameCode)
	if err != nil {
		return domain.Leaderboard{}, err
	}

	entries := make([]domain.LeaderboardEntry, 0, len(participants))
	for _, p := range participants {
		entries = append(entries, domain.LeaderboardEntry{
			ParticipantID: p.ID,
			Name:          p.Name,
			Avatar:        p.Avatar,
			Score:         p.TotalScore,
			IsActive:      p.IsActive,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})

	return domain.Leaderboard{GameCode: gameCode, Entries: entries, UpdatedAt: s.now()}, nil
}

// SubmitAnswer grades a submission and commits it. The append of the answer
// record and the score increment happen as one store-level atomic operation,
// so concurrent duplicates resolve to exactly one success and the rest
// conflict without double-applying the score.
func (s *SessionService) SubmitAnswer(ctx context.Context, participantID, questionID, answer string, timeTaken int, usedHint bool) (domain.AnswerResult, error) {
	if participantID == "" || questionID == "" {
		return domain.AnswerResult{}, domain.NewError(domain.KindInvalidInput, "participant id and question id required")
	}

	participant, err := s.participants.Get(ctx, participantID)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	question, err := s.questions.Get(ctx, questionID)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	if question.GameCode != participant.GameCode {
		return domain.AnswerResult{}, domain.ErrQuestionNotFound
	}

	settings := scoring.DefaultSettings()
	if game, err := s.games.Get(ctx, participant.GameCode); err == nil {
		settings = scoring.Settings{
			TimeLimit:   game.Settings.QuestionTimeLimit,
			HintPenalty: game.Settings.HintPenalty,
		}
	}

	graded := scoring.Grade(question, answer, timeTaken, usedHint, settings)

	total, err := s.participants.RecordAnswer(ctx, participantID, domain.AnswerRecord{
		QuestionID:  questionID,
		Answer:      answer,
		IsCorrect:   graded.Correct,
		Score:       graded.Score,
		TimeTaken:   timeTaken,
		UsedHint:    usedHint,
		SubmittedAt: s.now(),
	})
	if err != nil {
		return domain.AnswerResult{}, err
	}

	if board, err := s.Leaderboard(ctx, participant.GameCode); err == nil {
		s.notify(ctx, participant.GameCode, []realtime.RoomKind{realtime.RoomLive}, EventLeaderboardUpdate, board)
	} else {
		log.Printf("leaderboard after submit %s: %v", participantID, err)
	}
	s.notify(ctx, participant.GameCode, []realtime.RoomKind{realtime.RoomAdmin}, EventAnswerReceived, map[string]any{
		"participant_id": participantID,
		"name":           participant.Name,
		"question_id":    questionID,
		"answer":         answer,
		"is_correct":     graded.Correct,
		"score":          graded.Score,
	})

	return domain.AnswerResult{
		QuestionID: questionID,
		IsCorrect:  graded.Correct,
		Score:      graded.Score,
		TotalScore: total,
	}, nil
}

// ReportCheat applies the anti-cheat penalty and tells the admin room. An
// unknown participant is deliberately a silent no-op: surfacing an error here
// would let an attacker probe for valid participant IDs.
func (s *SessionService) ReportCheat(ctx context.Context, participantID string, cheatType domain.CheatType, details map[string]any) (int, error) {
	participant, err := s.participants.Get(ctx, participantID)
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			return 0, nil
		}
		return 0, err
	}

	penalty := anticheat.Assess(cheatType)
	entry := domain.CheatLog{
		ID:            uuid.NewString(),
		ParticipantID: participantID,
		GameCode:      participant.GameCode,
		Type:          cheatType,
		Details:       details,
		CreatedAt:     s.now(),
	}
	total, err := s.participants.RecordCheat(ctx, entry, penalty.Counter, penalty.Points)
	if err != nil {
		return 0, err
	}

	s.notify(ctx, participant.GameCode, []realtime.RoomKind{realtime.RoomAdmin}, EventCheatDetected, map[string]any{
		"participant_id": participantID,
		"name":           participant.Name,
		"type":           cheatType,
		"penalty":        penalty.Points,
		"total_score":    total,
	})
	return penalty.Points, nil
}

// Disconnect releases the connection's room memberships and marks the bound
// participant inactive. It never errors and repeated calls are no-ops.
func (s *SessionService) Disconnect(connID string) {
	s.rooms.Disconnect(connID)

	s.mu.Lock()
	participantID, ok := s.bindings[connID]
	delete(s.bindings, connID)
	s.mu.Unlock()

	if ok {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.participants.SetActive(ctx, participantID, false); err != nil {
			log.Printf("deactivate participant %s: %v", participantID, err)
		}
	}
}

// EventsSince is the pollable feed for request/response clients: every
// broadcast for the game with Seq greater than cursor.
func (s *SessionService) EventsSince(ctx context.Context, gameCode string, cursor int64) ([]domain.Event, int64, error) {
	if _, err := s.games.Get(ctx, gameCode); err != nil {
		return nil, 0, err
	}
	return s.journal.Since(ctx, gameCode, cursor)
}

func (s *SessionService) bind(connID, participantID string) {
	s.mu.Lock()
	s.bindings[connID] = participantID
	s.mu.Unlock()
}

// notify fans a message out to the given rooms and mirrors it into the
// journal. Delivery failures stay inside the broadcaster; journal failures
// are logged and never fail the triggering operation.
func (s *SessionService) notify(ctx context.Context, gameCode string, kinds []realtime.RoomKind, eventType string, data any) {
	at := s.now()
	for _, kind := range kinds {
		s.rooms.Broadcast(kind, gameCode, realtime.Message{Type: eventType, Data: data})
		if err := s.journal.Append(ctx, gameCode, domain.Event{
			Room: string(kind),
			Type: eventType,
			Data: data,
			At:   at,
		}); err != nil {
			log.Printf("journal %s/%s: %v", gameCode, eventType, err)
		}
	}
}

// newGameCode derives a 6-character uppercase code from a fresh UUID.
func newGameCode() string {
	return strings.ToUpper(uuid.NewString()[:6])
}
