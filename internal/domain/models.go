package domain

import "time"

// Participant is one connected user inside a room, keyed by the socket
// identifier the transport assigned to their connection.
type Participant struct {
	SocketID string `json:"socketId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

// LeaderboardEntry is a snapshot of a participant's name and score taken when
// the leaderboard was last recomputed.
type LeaderboardEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Question is one scored prompt. Answers are matched byte-exact against
// CorrectAnswer; no normalization happens at this layer.
type Question struct {
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correctAnswer"`
	Points        int      `json:"points"`
}

// QuestionSet is a named collection of questions a room can be created from.
type QuestionSet struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
}

// Session is a point-in-time snapshot of one trivia room. The registry hands
// out copies only, so mutating a snapshot never touches the live room.
type Session struct {
	RoomID               string                 `json:"roomId"`
	Participants         map[string]Participant `json:"participants"`
	Questions            []Question             `json:"questions"`
	CurrentQuestionIndex int                    `json:"currentQuestionIndex"`
	Leaderboard          []LeaderboardEntry     `json:"leaderboard"`
	Active               bool                   `json:"isActive"`
	CreatedAt            time.Time              `json:"createdAt"`
}
