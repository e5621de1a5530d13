package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"trivia-room-service/internal/domain"
	"trivia-room-service/internal/infra/memory"
)

func TestQuestionBankCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		SetLoader: memory.NewStaticSetLoader(map[string]domain.QuestionSet{
			"general": sampleSet(),
		}),
	}
	bank := NewQuestionBank(client, loader, time.Minute)

	set, err := bank.GetQuestionSet(context.Background(), "general")
	if err != nil {
		t.Fatalf("get set: %v", err)
	}
	if len(set.Questions) != 1 || set.Questions[0].CorrectAnswer != "4" {
		t.Fatalf("unexpected set from loader: %+v", set)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("qset:general") {
		t.Fatalf("expected set cached in redis")
	}

	// Second call should hit cache, loader not incremented.
	set, _ = bank.GetQuestionSet(context.Background(), "general")
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if set.Questions[0].Points != 10 {
		t.Fatalf("cached set lost data: %+v", set.Questions[0])
	}
}

func TestRoomPresenceSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	presence := NewRoomPresence(newClient(mr), time.Minute)

	presence.MarkAlive("AB12CD")
	if !mr.Exists("room:presence:AB12CD") {
		t.Fatalf("expected presence key to be set")
	}

	presence.Clear("AB12CD")
	if mr.Exists("room:presence:AB12CD") {
		t.Fatalf("expected presence key to be removed")
	}
}

type countingLoader struct {
	memory.SetLoader
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

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
