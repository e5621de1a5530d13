package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"trivia-room-service/internal/app"
	"trivia-room-service/internal/domain"
)

// QuestionBank provides the question content rooms are created from.
type QuestionBank interface {
	GetQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error)
}

// Handler exposes the registry to its external collaborators: the room
// lifecycle endpoints, the quiz-driver endpoints and the websocket entry
// point for participants.
type Handler struct {
	registry *app.Registry
	bank     QuestionBank
}

func NewHandler(registry *app.Registry, bank QuestionBank) *Handler {
	return &Handler{registry: registry, bank: bank}
}

// Register wires all routes into the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /rooms", h.createRoom)
	mux.HandleFunc("GET /rooms/{id}", h.getRoom)
	mux.HandleFunc("DELETE /rooms/{id}", h.endRoom)
	mux.HandleFunc("POST /rooms/{id}/advance", h.advanceQuestion)
	mux.HandleFunc("POST /rooms/{id}/active", h.setActive)
	mux.HandleFunc("GET /ws", h.ServeWS)
}

type createRoomRequest struct {
	QuestionSetID string `json:"questionSetId"`
}

type createRoomResponse struct {
	RoomID string `json:"roomId"`
}

func (h *Handler) createRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QuestionSetID == "" {
		http.Error(w, "missing questionSetId", http.StatusBadRequest)
		return
	}

	set, err := h.bank.GetQuestionSet(r.Context(), req.QuestionSetID)
	if errors.Is(err, domain.ErrQuestionSetNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("load question set %s: %v", req.QuestionSetID, err)
		http.Error(w, "failed to load question set", http.StatusInternalServerError)
		return
	}

	roomID := h.registry.CreateRoom(set.Questions)
	writeJSON(w, http.StatusCreated, createRoomResponse{RoomID: roomID})
}

func (h *Handler) getRoom(w http.ResponseWriter, r *http.Request) {
	session, err := h.registry.Room(r.PathValue("id"))
	if errors.Is(err, domain.ErrSessionNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) endRoom(w http.ResponseWriter, r *http.Request) {
	h.registry.EndRoom(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

type advanceResponse struct {
	Index    int             `json:"index"`
	Question domain.Question `json:"question"`
	Finished bool            `json:"finished"`
}

func (h *Handler) advanceQuestion(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	index, question, ok, err := h.registry.AdvanceQuestion(roomID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, advanceResponse{
		Index:    index,
		Question: question,
		Finished: !ok,
	})
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request) {
	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := h.registry.SetActive(r.PathValue("id"), req.Active); errors.Is(err, domain.ErrSessionNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}
