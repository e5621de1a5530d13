package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a room id has no live session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrQuestionSetNotFound indicates the question content could not be loaded.
	ErrQuestionSetNotFound = errors.New("question set not found")
)
