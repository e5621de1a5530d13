package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"trivia-room-service/internal/domain"
)

func TestQuestionBankCaches(t *testing.T) {
	loader := &countingLoader{
		SetLoader: NewStaticSetLoader(map[string]domain.QuestionSet{
			"general": sampleSet(),
		}),
	}
	bank := NewQuestionBank(loader, time.Minute)

	if _, err := bank.GetQuestionSet(context.Background(), "general"); err != nil {
		t.Fatalf("get set: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := bank.GetQuestionSet(context.Background(), "general"); err != nil {
		t.Fatalf("get set 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuestionBankUnknownSet(t *testing.T) {
	bank := NewQuestionBank(NewStaticSetLoader(nil), time.Minute)

	_, err := bank.GetQuestionSet(context.Background(), "missing")
	if !errors.Is(err, domain.ErrQuestionSetNotFound) {
		t.Fatalf("expected ErrQuestionSetNotFound, got %v", err)
	}
}

type countingLoader struct {
	SetLoader
	calls int
}

func (l *countingLoader) LoadQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	l.calls++
	return l.SetLoader.LoadQuestionSet(ctx, setID)
}

func sampleSet() domain.QuestionSet {
	return domain.QuestionSet{
		ID: "general",
		Questions: []domain.Question{
			{
				Prompt:        "What is 2 + 2?",
				Options:       []string{"3", "4", "5"},
				CorrectAnswer: "4",
				Points:        10,
			},
		},
	}
}
