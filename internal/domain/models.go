package domain

import "time"

// GameStatus is the lifecycle state of a game. Transitions are strictly
// forward: waiting -> in_progress -> completed.
type GameStatus string

const (
	GameWaiting    GameStatus = "waiting"
	GameInProgress GameStatus = "in_progress"
	GameCompleted  GameStatus = "completed"
)

// QuestionType selects the answer-comparison strategy used when grading.
type QuestionType string

const (
	QuestionMCQ       QuestionType = "MCQ"
	QuestionTrueFalse QuestionType = "TRUE_FALSE"
	QuestionInput     QuestionType = "INPUT"
	QuestionScrambled QuestionType = "SCRAMBLED"
)

// ValidQuestionType reports whether t is one of the supported question types.
func ValidQuestionType(t QuestionType) bool {
	switch t {
	case QuestionMCQ, QuestionTrueFalse, QuestionInput, QuestionScrambled:
		return true
	}
	return false
}

// CheatType classifies a reported cheat event.
type CheatType string

const (
	CheatTabSwitch   CheatType = "TAB_SWITCH"
	CheatCopyAttempt CheatType = "COPY_ATTEMPT"
	CheatDevTools    CheatType = "DEV_TOOLS"
)

// GameSettings holds the per-game tuning knobs applied during grading.
type GameSettings struct {
	QuestionTimeLimit int `json:"question_time_limit"`
	HintPenalty       int `json:"hint_penalty"`
	CheatPenalty      int `json:"cheat_penalty"`
}

// Game is one quiz session, identified by its 6-character code.
type Game struct {
	Code        string       `json:"code"`
	Title       string       `json:"title"`
	OrganizerID string       `json:"organizer_id"`
	Status      GameStatus   `json:"status"`
	Settings    GameSettings `json:"settings"`
	CreatedAt   time.Time    `json:"created_at"`
	StartedAt   *time.Time   `json:"started_at,omitempty"`
	EndedAt     *time.Time   `json:"ended_at,omitempty"`
}

// Question belongs to a game. Order is a sort key and need not be unique.
type Question struct {
	ID            string       `json:"id"`
	GameCode      string       `json:"game_code"`
	Type          QuestionType `json:"type"`
	Text          string       `json:"text"`
	Options       []string     `json:"options"`
	CorrectAnswer string       `json:"correct_answer"`
	ImageURL      string       `json:"image_url,omitempty"`
	Hint          string       `json:"hint,omitempty"`
	Order         int          `json:"order"`
	CreatedAt     time.Time    `json:"created_at"`
}

// AnswerRecord is the durable record of one participant's graded response to
// one question. At most one exists per (participant, question) pair.
type AnswerRecord struct {
	QuestionID  string    `json:"question_id"`
	Answer      string    `json:"answer"`
	IsCorrect   bool      `json:"is_correct"`
	Score       int       `json:"score"`
	TimeTaken   int       `json:"time_taken"`
	UsedHint    bool      `json:"used_hint"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// CheatFlags counts recorded cheat events per category.
type CheatFlags struct {
	TabSwitches      int `json:"tab_switches"`
	CopyAttempts     int `json:"copy_attempts"`
	DevToolsAttempts int `json:"dev_tools_attempts"`
}

// Participant is a player in a game. TotalScore is signed; cheat penalties may
// push it negative.
type Participant struct {
	ID         string         `json:"id"`
	GameCode   string         `json:"game_code"`
	Name       string         `json:"name"`
	Avatar     string         `json:"avatar,omitempty"`
	JoinedAt   time.Time      `json:"joined_at"`
	TotalScore int            `json:"total_score"`
	Answers    []AnswerRecord `json:"answers"`
	CheatFlags CheatFlags     `json:"cheat_flags"`
	IsActive   bool           `json:"is_active"`
}

// CheatLog is an append-only audit entry for one cheat event.
type CheatLog struct {
	ID            string         `json:"id"`
	ParticipantID string         `json:"participant_id"`
	GameCode      string         `json:"game_code"`
	Type          CheatType      `json:"type"`
	Details       map[string]any `json:"details,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// LeaderboardEntry is a snapshot-friendly view of a participant's standing.
type LeaderboardEntry struct {
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name"`
	Avatar        string `json:"avatar,omitempty"`
	Score         int    `json:"score"`
	IsActive      bool   `json:"is_active"`
}

// Leaderboard captures the ordered scoreboard for a game: score descending,
// join order preserved for ties.
type Leaderboard struct {
	GameCode  string             `json:"game_code"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// AnswerResult summarizes the outcome of a submission for the submitter.
type AnswerResult struct {
	QuestionID string `json:"question_id"`
	IsCorrect  bool   `json:"is_correct"`
	Score      int    `json:"score"`
	TotalScore int    `json:"total_score"`
}

// Event is one journaled broadcast, exposed through the pollable feed so
// request/response clients keep parity with socket clients.
type Event struct {
	Seq  int64     `json:"seq"`
	Room string    `json:"room"`
	Type string    `json:"type"`
	Data any       `json:"data"`
	At   time.Time `json:"at"`
}
