package domain

import "time"

// QuizStatus is the lifecycle stage of a live quiz.
type QuizStatus string

const (
	QuizCreated  QuizStatus = "created"
	QuizWaiting  QuizStatus = "waiting"
	QuizActive   QuizStatus = "active"
	QuizFinished QuizStatus = "finished"
)

// ParticipantState tracks a participant through the quiz.
type ParticipantState string

const (
	ParticipantJoined    ParticipantState = "joined"
	ParticipantAnswering ParticipantState = "answering"
	ParticipantFinished  ParticipantState = "finished"
)

// QuizSettings are the teacher-chosen options for a new quiz.
type QuizSettings struct {
	TimePerQuestion  int  `json:"timePerQuestion"` // seconds, 0 uses the configured default
	ShuffleQuestions bool `json:"shuffleQuestions"`
	ShuffleOptions   bool `json:"shuffleOptions"`
}

// Quiz is a teacher-owned live session.
type Quiz struct {
	ID                   string     `json:"id"`
	TeacherID            string     `json:"teacherId"`
	Title                string     `json:"title"`
	JoinCode             string     `json:"joinCode,omitempty"`
	Status               QuizStatus `json:"status"`
	TimePerQuestion      int        `json:"timePerQuestion"`
	ShuffleQuestions     bool       `json:"shuffleQuestions"`
	ShuffleOptions       bool       `json:"shuffleOptions"`
	MaxParticipants      int        `json:"maxParticipants"`
	CurrentQuestionIndex int        `json:"currentQuestionIndex"`
	CreatedAt            time.Time  `json:"createdAt"`
	StartedAt            *time.Time `json:"startedAt,omitempty"`
	EndedAt              *time.Time `json:"endedAt,omitempty"`
}

// QuestionInput is what a teacher submits when adding questions.
type QuestionInput struct {
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correctOptionIndex"`
	Points             int      `json:"points"`    // 0 uses the configured default
	TimeLimit          int      `json:"timeLimit"` // seconds, 0 uses the quiz time per question
}

// Question belongs to exactly one quiz and is immutable once the quiz leaves created.
type Question struct {
	ID                 string   `json:"id"`
	QuizID             string   `json:"quizId"`
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correctOptionIndex"`
	Points             int      `json:"points"`
	TimeLimit          int      `json:"timeLimit"`
	Order              int      `json:"order"`
}

// QuestionView is the participant-facing projection of the current question.
type QuestionView struct {
	QuizID     string   `json:"quizId"`
	QuestionID string   `json:"questionId"`
	Index      int      `json:"index"`
	Total      int      `json:"total"`
	Text       string   `json:"text"`
	Options    []string `json:"options"`
	Points     int      `json:"points"`
	TimeLimit  int      `json:"timeLimit"`
}

// Participant joins a quiz and a resolved student identity.
type Participant struct {
	ID            string           `json:"id"`
	QuizID        string           `json:"quizId"`
	StudentID     string           `json:"studentId"`
	DisplayName   string           `json:"displayName"`
	AvatarToken   string           `json:"avatarToken,omitempty"`
	State         ParticipantState `json:"state"`
	TotalScore    int              `json:"totalScore"`
	CorrectCount  int              `json:"correctCount"`
	WrongCount    int              `json:"wrongCount"`
	CurrentStreak int              `json:"currentStreak"`
	BestStreak    int              `json:"bestStreak"`
	Rank          int              `json:"rank,omitempty"`
	CoinsEarned   int64            `json:"coinsEarned"`
	JoinedAt      time.Time        `json:"joinedAt"`
}

// Answer is one submission by one participant for one question.
type Answer struct {
	ID                string    `json:"id"`
	QuizID            string    `json:"quizId"`
	ParticipantID     string    `json:"participantId"`
	QuestionID        string    `json:"questionId"`
	SelectedOption    int       `json:"selectedOption"`
	IsCorrect         bool      `json:"isCorrect"`
	PointsEarned      int       `json:"pointsEarned"`
	ResponseLatencyMS int64     `json:"responseLatencyMs"`
	CreatedAt         time.Time `json:"createdAt"`
}

// AnswerResult summarizes the outcome of a submission.
type AnswerResult struct {
	QuestionID   string `json:"questionId"`
	IsCorrect    bool   `json:"isCorrect"`
	PointsEarned int    `json:"pointsEarned"`
	TotalScore   int    `json:"totalScore"`
	Streak       int    `json:"streak"`
}

// LeaderboardEntry is a snapshot-friendly view of a participant.
type LeaderboardEntry struct {
	Position      int    `json:"position"`
	ParticipantID string `json:"participantId"`
	StudentID     string `json:"studentId"`
	DisplayName   string `json:"displayName"`
	AvatarToken   string `json:"avatarToken,omitempty"`
	TotalScore    int    `json:"totalScore"`
	CorrectCount  int    `json:"correctCount"`
	BestStreak    int    `json:"bestStreak"`
	Rank          int    `json:"rank,omitempty"`
	CoinsEarned   int64  `json:"coinsEarned"`
}

// Leaderboard captures the ordered scoreboard for a quiz.
type Leaderboard struct {
	QuizID    string             `json:"quizId"`
	Status    QuizStatus         `json:"status"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Final reports whether the leaderboard can no longer change.
func (l Leaderboard) Final() bool {
	return l.Status == QuizFinished
}
