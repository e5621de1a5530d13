package app

import (
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"trivia-room-service/internal/domain"
)

const (
	roomIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	roomIDLength   = 6

	// DefaultInactiveTTL is how long an inactive room survives before the
	// cleanup pass removes it.
	DefaultInactiveTTL = time.Hour
)

// PresenceMarker publishes best-effort room liveness signals (e.g. to Redis)
// so operators can see which rooms exist. Failures are the implementation's
// problem; the registry never depends on these markers.
type PresenceMarker interface {
	MarkAlive(roomID string)
	Clear(roomID string)
}

// Config tunes a Registry. The zero value is usable: real clock, seeded
// random source, one-hour inactive TTL, no presence marker.
type Config struct {
	Now         func() time.Time
	Rand        rand.Source
	InactiveTTL time.Duration
	Presence    PresenceMarker
}

// Registry owns every live trivia room in the process. All access goes
// through its mutex; callers only ever receive snapshots, never live state.
type Registry struct {
	now         func() time.Time
	rnd         *rand.Rand
	inactiveTTL time.Duration
	presence    PresenceMarker

	mu    sync.RWMutex
	rooms map[string]*room
}

// room is the live, mutable state behind a Session snapshot.
type room struct {
	id           string
	participants map[string]*participant
	questions    []domain.Question
	currentIndex int
	leaderboard  []domain.LeaderboardEntry
	active       bool
	createdAt    time.Time
}

// participant tracks join order alongside the public fields so leaderboard
// ties resolve in first-join order. Re-joins keep the original ordinal.
type participant struct {
	domain.Participant
	joined int
}

func NewRegistry(cfg Config) *Registry {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.NewSource(time.Now().UnixNano())
	}
	if cfg.InactiveTTL <= 0 {
		cfg.InactiveTTL = DefaultInactiveTTL
	}
	return &Registry{
		now:         cfg.Now,
		rnd:         rand.New(cfg.Rand),
		inactiveTTL: cfg.InactiveTTL,
		presence:    cfg.Presence,
		rooms:       make(map[string]*room),
	}
}

// CreateRoom registers a new room holding the given questions and returns its
// shareable id. The room starts with no participants, no current question
// (index -1) and the active flag down; the quiz driver flips it later.
func (r *Registry) CreateRoom(questions []domain.Question) string {
	r.mu.Lock()
	roomID := r.newRoomIDLocked()
	r.rooms[roomID] = &room{
		id:           roomID,
		participants: make(map[string]*participant),
		questions:    questions,
		currentIndex: -1,
		leaderboard:  []domain.LeaderboardEntry{},
		createdAt:    r.now(),
	}
	r.mu.Unlock()

	if r.presence != nil {
		r.presence.MarkAlive(roomID)
	}
	return roomID
}

// Join adds the participant to the room, overwriting any prior entry with the
// same socket id. A re-join therefore replaces the stored participant
// wholesale, accumulated score included. The leaderboard is not recomputed
// here; a fresh joiner shows up after the next scoring event.
func (r *Registry) Join(roomID string, p domain.Participant) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}

	joined := len(rm.participants)
	if prev, ok := rm.participants[p.SocketID]; ok {
		joined = prev.joined
	}
	rm.participants[p.SocketID] = &participant{Participant: p, joined: joined}
	return rm.snapshot(), nil
}

// SubmitAnswer scores a participant's answer against the room's current
// question and returns the room's leaderboard. A wrong answer, an unknown
// participant key or an out-of-range question index leaves all scores
// untouched. An unknown room is logged and yields an empty leaderboard
// rather than an error so a live game never trips over a stray submission.
//
// Scoring is deliberately repeatable: submitting the same correct answer
// twice scores twice. Deduplication belongs to the quiz driver.
func (r *Registry) SubmitAnswer(roomID, participantKey, answer string) []domain.LeaderboardEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		log.Printf("submit answer for room %s: %v", roomID, domain.ErrSessionNotFound)
		return []domain.LeaderboardEntry{}
	}

	p, ok := rm.participants[participantKey]
	if ok && rm.currentIndex >= 0 && rm.currentIndex < len(rm.questions) {
		q := rm.questions[rm.currentIndex]
		if answer == q.CorrectAnswer {
			p.Score += q.Points
			rm.leaderboard = rm.recomputeLeaderboard()
		}
	}
	return append([]domain.LeaderboardEntry(nil), rm.leaderboard...)
}

// Room returns a snapshot of the room's current state.
func (r *Registry) Room(roomID string) (domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return rm.snapshot(), nil
}

// EndRoom removes the room. Ending an unknown or already-ended room is a
// no-op.
func (r *Registry) EndRoom(roomID string) {
	r.mu.Lock()
	_, ok := r.rooms[roomID]
	delete(r.rooms, roomID)
	r.mu.Unlock()

	if ok && r.presence != nil {
		r.presence.Clear(roomID)
	}
}

// AdvanceQuestion moves the room to its next question on behalf of the quiz
// driver and returns the new index plus the question at it. Advancing past
// the last question is allowed and reports ok=false; scoring then treats the
// room as having no current question.
func (r *Registry) AdvanceQuestion(roomID string) (int, domain.Question, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return 0, domain.Question{}, false, domain.ErrSessionNotFound
	}
	rm.currentIndex++
	if rm.currentIndex < len(rm.questions) {
		return rm.currentIndex, rm.questions[rm.currentIndex], true, nil
	}
	return rm.currentIndex, domain.Question{}, false, nil
}

// SetActive flips the room's active flag on behalf of the quiz driver. Only
// cleanup reads it.
func (r *Registry) SetActive(roomID string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	rm.active = active
	return nil
}

// CleanupInactiveRooms drops every room that is not active and older than the
// inactive TTL. Active rooms are kept regardless of age. The caller schedules
// this (the serve command runs it on a ticker); the registry only provides
// the check-and-delete pass.
func (r *Registry) CleanupInactiveRooms() {
	now := r.now()

	r.mu.Lock()
	var removed []string
	for roomID, rm := range r.rooms {
		if !rm.active && now.Sub(rm.createdAt) > r.inactiveTTL {
			delete(r.rooms, roomID)
			removed = append(removed, roomID)
		}
	}
	r.mu.Unlock()

	if r.presence != nil {
		for _, roomID := range removed {
			r.presence.Clear(roomID)
		}
	}
	if len(removed) > 0 {
		log.Printf("cleanup removed %d inactive room(s)", len(removed))
	}
}

// newRoomIDLocked generates a 6-character upper-case base-36 room code,
// regenerating until it does not collide with a live room.
func (r *Registry) newRoomIDLocked() string {
	buf := make([]byte, roomIDLength)
	for {
		for i := range buf {
			buf[i] = roomIDAlphabet[r.rnd.Intn(len(roomIDAlphabet))]
		}
		id := string(buf)
		if _, exists := r.rooms[id]; !exists {
			return id
		}
	}
}

// recomputeLeaderboard builds a fresh snapshot of every participant sorted by
// score descending. Ties keep first-join order via the stable sort.
func (rm *room) recomputeLeaderboard() []domain.LeaderboardEntry {
	ordered := make([]*participant, 0, len(rm.participants))
	for _, p := range rm.participants {
		ordered = append(ordered, p)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].joined < ordered[j].joined
	})
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score > ordered[j].Score
	})

	entries := make([]domain.LeaderboardEntry, 0, len(ordered))
	for _, p := range ordered {
		entries = append(entries, domain.LeaderboardEntry{Name: p.Name, Score: p.Score})
	}
	return entries
}

func (rm *room) snapshot() domain.Session {
	parts := make(map[string]domain.Participant, len(rm.participants))
	for socketID, p := range rm.participants {
		parts[socketID] = p.Participant
	}
	return domain.Session{
		RoomID:               rm.id,
		Participants:         parts,
		Questions:            append([]domain.Question(nil), rm.questions...),
		CurrentQuestionIndex: rm.currentIndex,
		Leaderboard:          append([]domain.LeaderboardEntry(nil), rm.leaderboard...),
		Active:               rm.active,
		CreatedAt:            rm.createdAt,
	}
}
