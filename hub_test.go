/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	t   *testing.T
	srv *httptest.Server
	hub *Hub
}

func newTestServer(t *testing.T) *testServer {
	cfg := &Config{maxMessageSize: 1024}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	mux, hub := newMux(ctx, cfg, make(chan error, 16))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &testServer{t: t, srv: srv, hub: hub}
}

func (ts *testServer) dial() *websocket.Conn {
	ts.t.Helper()

	url := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(ts.t, err)
	ts.t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func (ts *testServer) get(path string) (*http.Response, string) {
	ts.t.Helper()

	resp, err := http.Get(ts.srv.URL + path)
	require.NoError(ts.t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(ts.t, err)

	return resp, string(body)
}

type received struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func emit(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"event": event, "data": data}))
}

// expect reads until event arrives and decodes its payload into v.
func expect(t *testing.T, conn *websocket.Conn, event string, v any) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var msg received
		require.NoError(t, conn.ReadJSON(&msg), "waiting for %s", event)
		if msg.Event != event {
			continue
		}
		if v != nil {
			require.NoError(t, json.Unmarshal(msg.Data, v))
		}
		return
	}
}

type pinPayload struct {
	GamePin string `json:"game_pin"`
}

type playersPayload struct {
	PlayerName string `json:"player_name"`
	Players    []struct {
		Name   string `json:"name"`
		IsHost bool   `json:"is_host"`
		Score  int    `json:"score"`
	} `json:"players"`
}

type questionPayload struct {
	QuestionNumber int      `json:"question_number"`
	TotalQuestions int      `json:"total_questions"`
	Question       string   `json:"question"`
	Options        []string `json:"options"`
	TimeLimit      int      `json:"time_limit"`
	CorrectAnswer  int      `json:"correct_answer"`
}

type answerPayload struct {
	PlayerName string `json:"player_name"`
	Answer     int    `json:"answer"`
	IsCorrect  bool   `json:"is_correct"`
	Score      int    `json:"score"`
}

// startedGame creates a game with one question and one player, and starts it.
func startedGame(t *testing.T, ts *testServer) (host, ada *websocket.Conn, pin string) {
	t.Helper()

	host = ts.dial()
	emit(t, host, "create_game", map[string]any{"host_name": "Grace"})
	var created pinPayload
	expect(t, host, "game_created", &created)
	pin = created.GamePin
	require.Regexp(t, `^[0-9]{6}$`, pin)

	ada = ts.dial()
	emit(t, ada, "join_game", map[string]any{"game_pin": pin, "player_name": "Ada"})
	expect(t, ada, "join_success", nil)

	var joined playersPayload
	expect(t, host, "player_joined", &joined)
	expect(t, host, "player_joined", &joined)
	require.Equal(t, "Ada", joined.PlayerName)
	require.Len(t, joined.Players, 2)

	emit(t, host, "add_question", map[string]any{
		"question":       "Which is B?",
		"options":        []string{"A", "B"},
		"correct_answer": 1,
		"time_limit":     30,
	})
	var added struct {
		QuestionCount int `json:"question_count"`
	}
	expect(t, host, "question_added", &added)
	require.Equal(t, 1, added.QuestionCount)

	emit(t, host, "start_game", nil)
	expect(t, host, "game_started", nil)
	expect(t, ada, "game_started", nil)

	return host, ada, pin
}

func TestWebsocketGame(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)
	host, ada, pin := startedGame(t, ts)

	var q questionPayload
	expect(t, ada, "new_question", &q)
	req.Equal(questionPayload{
		QuestionNumber: 1,
		TotalQuestions: 1,
		Question:       "Which is B?",
		Options:        []string{"A", "B"},
		TimeLimit:      30,
		CorrectAnswer:  1,
	}, q)

	emit(t, ada, "submit_answer", map[string]any{"answer": 1, "question_number": 1})

	var answer answerPayload
	expect(t, host, "answer_received", &answer)
	req.Equal("Ada", answer.PlayerName)
	req.True(answer.IsCorrect)
	// Real clock: the bonus depends on how quickly the test ran.
	req.Greater(answer.Score, 300)
	req.LessOrEqual(answer.Score, 400)

	emit(t, host, "next_question", nil)

	var finished struct {
		FinalScores map[string]int `json:"final_scores"`
	}
	expect(t, ada, "game_finished", &finished)
	req.Equal(map[string]int{"Grace": 0, "Ada": answer.Score}, finished.FinalScores)

	resp, body := ts.get("/leaderboard/" + pin)
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Contains(body, "Ada: ")
	req.Contains(body, "finished")
}

func TestWebsocketJoinError(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial()

	emit(t, conn, "join_game", map[string]any{"game_pin": "abcdef", "player_name": "Ada"})

	var notice struct {
		Message string `json:"message"`
	}
	expect(t, conn, "join_error", &notice)
	require.Equal(t, "Game not found", notice.Message)
}

func TestWebsocketPlayerDisconnect(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)
	host, ada, _ := startedGame(t, ts)

	req.NoError(ada.Close())

	var left playersPayload
	expect(t, host, "player_left", &left)
	req.Equal("Ada", left.PlayerName)
	req.Len(left.Players, 1)
	req.Eventually(func() bool { return ts.hub.count() == 1 }, 3*time.Second, 10*time.Millisecond)
}

func TestWebsocketHostReconnect(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)
	host, ada, pin := startedGame(t, ts)
	expect(t, ada, "new_question", nil)

	req.NoError(host.Close())
	expect(t, ada, "host_disconnected", nil)

	host2 := ts.dial()
	emit(t, host2, "rejoin_game", map[string]any{"game_pin": pin, "player_name": "Grace", "is_host": true})

	var q questionPayload
	expect(t, host2, "new_question", &q)
	req.Equal(1, q.QuestionNumber)

	// The rest of the room sees the host return, not a fresh question
	var joined playersPayload
	expect(t, ada, "player_joined", &joined)
	req.Equal("Grace", joined.PlayerName)
	req.Len(joined.Players, 2)

	emit(t, host2, "next_question", nil)
	expect(t, ada, "game_finished", nil)
}

func TestWebsocketOversizedMessageCloses(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial()

	emit(t, conn, "create_game", map[string]any{"host_name": strings.Repeat("x", 4096)})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
}

func TestViews(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)
	_, _, pin := startedGame(t, ts)

	for _, path := range []string{"/", "/host", "/join", "/lobby/" + pin, "/game/" + pin, "/leaderboard/" + pin} {
		resp, _ := ts.get(path)
		req.Equal(http.StatusOK, resp.StatusCode, path)
		req.Equal("text/html; charset=utf-8", resp.Header.Get("Content-Type"), path)
	}

	for _, path := range []string{"/lobby/abcdef", "/game/abcdef", "/leaderboard/abcdef"} {
		resp, body := ts.get(path)
		req.Equal(http.StatusNotFound, resp.StatusCode, path)
		req.Contains(body, "Game not found")
	}

	_, body := ts.get("/game/" + pin)
	req.Contains(body, pin)
	req.Contains(body, `data-view="game"`)
}

func TestQRCode(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)
	_, _, pin := startedGame(t, ts)

	resp, body := ts.get("/qr/" + pin)
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal("image/png", resp.Header.Get("Content-Type"))
	req.True(strings.HasPrefix(body, "\x89PNG"))

	resp, _ = ts.get("/qr/abcdef")
	req.Equal(http.StatusNotFound, resp.StatusCode)
}

func TestStaticEndpoints(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	resp, body := ts.get("/healthz")
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal("Ok\n", body)

	_, body = ts.get("/version")
	req.Equal("quizbox v"+releaseVersion+"\n", body)

	resp, body = ts.get("/assets/trivia/app.js")
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal("text/javascript; charset=utf-8", resp.Header.Get("Content-Type"))
	req.Contains(body, "submit_answer")

	resp, _ = ts.get("/assets/missing.js")
	req.Equal(http.StatusNotFound, resp.StatusCode)

	resp, _ = ts.get("/robots.txt")
	req.Equal(http.StatusOK, resp.StatusCode)
}
