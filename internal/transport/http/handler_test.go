package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"trivia-room-service/internal/app"
	"trivia-room-service/internal/domain"
	"trivia-room-service/internal/infra/memory"
)

func TestRoomLifecycleOverREST(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	roomID := createRoom(t, server, "general")

	resp, err := http.Get(server.URL + "/rooms/" + roomID)
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var session domain.Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if session.CurrentQuestionIndex != -1 || len(session.Questions) != 2 {
		t.Fatalf("unexpected fresh room state: %+v", session)
	}

	req, _ := http.NewRequest(http.MethodDelete, server.URL+"/rooms/"+roomID, nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete room: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", delResp.StatusCode)
	}

	gone, err := http.Get(server.URL + "/rooms/" + roomID)
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	gone.Body.Close()
	if gone.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", gone.StatusCode)
	}
}

func TestCreateRoomUnknownSet(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	body, _ := json.Marshal(map[string]string{"questionSetId": "missing"})
	resp, err := http.Post(server.URL+"/rooms", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown set, got %d", resp.StatusCode)
	}
}

func TestWebSocketAnswerFlow(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	roomID := createRoom(t, server, "general")

	// Driver advances to the first question before anyone answers.
	resp, err := http.Post(server.URL+"/rooms/"+roomID+"/advance", "application/json", nil)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from advance, got %d", resp.StatusCode)
	}

	u := "ws" + server.URL[len("http"):] + "/ws?roomId=" + roomID + "&name=Alice"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	msgType, payload := readNext(conn, t, "joined")
	if msgType != "joined" {
		t.Fatalf("expected joined, got %s", msgType)
	}
	if payload["socketId"] == nil {
		t.Fatalf("expected socketId in joined payload, got %v", payload)
	}

	answer := map[string]any{
		"type":    "answer",
		"payload": map[string]any{"answer": "4"},
	}
	if err := conn.WriteJSON(answer); err != nil {
		t.Fatalf("write answer: %v", err)
	}

	var lb struct {
		Type    string                    `json:"type"`
		Payload []domain.LeaderboardEntry `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&lb); err != nil {
		t.Fatalf("read leaderboard: %v", err)
	}
	if lb.Type != "leaderboard" {
		t.Fatalf("expected leaderboard frame, got %s", lb.Type)
	}
	if len(lb.Payload) != 1 || lb.Payload[0].Name != "Alice" || lb.Payload[0].Score != 10 {
		t.Fatalf("unexpected leaderboard: %+v", lb.Payload)
	}
}

func TestWebSocketUnknownRoom(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?roomId=NOSUCH&name=Alice"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	msgType, payload := readNext(conn, t, "error")
	if msgType != "error" || payload["message"] == nil {
		t.Fatalf("expected error frame, got %s %v", msgType, payload)
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	registry := app.NewRegistry(app.Config{})
	bank := memory.NewQuestionBank(memory.NewStaticSetLoader(sampleSets()), time.Minute)
	handler := NewHandler(registry, bank)

	mux := http.NewServeMux()
	handler.Register(mux)
	return httptest.NewServer(mux)
}

func createRoom(t *testing.T, server *httptest.Server, setID string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"questionSetId": setID})
	resp, err := http.Post(server.URL+"/rooms", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created struct {
		RoomID string `json:"roomId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.RoomID == "" {
		t.Fatalf("expected roomId in response")
	}
	return created.RoomID
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func sampleSets() map[string]domain.QuestionSet {
	return map[string]domain.QuestionSet{
		"general": {
			ID: "general",
			Questions: []domain.Question{
				{
					Prompt:        "What is 2 + 2?",
					Options:       []string{"3", "4", "5"},
					CorrectAnswer: "4",
					Points:        10,
				},
				{
					Prompt:        "Capital of France?",
					Options:       []string{"Paris", "Lyon"},
					CorrectAnswer: "Paris",
					Points:        20,
				},
			},
		},
	}
}
