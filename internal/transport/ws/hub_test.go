package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"feedbacksurvey/internal/cache"
	"feedbacksurvey/internal/config"
	"feedbacksurvey/internal/model"
	"feedbacksurvey/internal/repository"
	"feedbacksurvey/internal/service"
	"feedbacksurvey/internal/survey"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type wsFixture struct {
	hub  *Hub
	auth *service.AuthService
	svc  *service.SessionService
	srv  *httptest.Server
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	log := zap.NewNop()
	q := survey.DefaultQuestionnaire()

	f := &wsFixture{
		hub:  NewHub(log),
		auth: service.NewAuthService(config.AuthConfig{JWTSecret: "ws-test"}, time.Hour),
	}
	responses := service.NewResponseService(repository.NewMemoryResponseRepo(), cache.NewMemoryStatsCache(), q, log)
	f.svc = service.NewSessionService(q, f.auth, responses, cache.NewMemorySessionCache(), service.SessionConfig{
		ResetDelay:     time.Second,
		ToastAutoClose: time.Second,
		ToastPosition:  "top-center",
		ConfirmTimeout: 2 * time.Second,
		IdleTTL:        time.Minute,
	}, log)
	f.svc.SetBroadcaster(f.hub)
	f.svc.SetPrompter(f.hub)

	f.srv = httptest.NewServer(http.HandlerFunc(NewHandler(f.hub, f.auth, f.svc, log).SessionWS))
	t.Cleanup(func() {
		f.svc.Shutdown(context.Background())
		f.hub.Close()
		f.srv.Close()
	})
	return f
}

func (f *wsFixture) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, want MessageType) Message {
	t.Helper()
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == want {
			return msg
		}
	}
}

func answerAll(t *testing.T, svc *service.SessionService, id string) {
	t.Helper()
	ctx := context.Background()
	_, err := svc.Start(ctx, id)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, err = svc.Answer(ctx, id, model.RatingValue(3))
		require.NoError(t, err)
		_, err = svc.Next(ctx, id)
		require.NoError(t, err)
	}
	_, err = svc.Answer(ctx, id, model.TextValue(""))
	require.NoError(t, err)
}

func TestSessionWS_RejectsBadTokens(t *testing.T) {
	f := newWSFixture(t)

	resp, err := http.Get(f.srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(f.srv.URL + "?token=nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := f.auth.GenerateSessionToken("s_gone")
	require.NoError(t, err)
	resp, err = http.Get(f.srv.URL + "?token=" + token)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSessionWS_ConfirmRoundTrip(t *testing.T) {
	f := newWSFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, service.ChannelWeb)
	require.NoError(t, err)
	conn := f.dial(t, created.Token)

	first := readUntil(t, conn, MsgState)
	var view model.SurveyView
	require.NoError(t, json.Unmarshal(first.Payload, &view))
	assert.Equal(t, model.ScreenWelcome, view.Screen)

	require.Eventually(t, func() bool {
		return f.hub.ConnectionCount(created.SessionID) == 1
	}, time.Second, 5*time.Millisecond)

	answerAll(t, f.svc, created.SessionID)

	type result struct {
		res *model.OperationResult
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := f.svc.Submit(ctx, created.SessionID, nil)
		done <- result{res, err}
	}()

	msg := readUntil(t, conn, MsgConfirmRequest)
	var req ConfirmRequest
	require.NoError(t, json.Unmarshal(msg.Payload, &req))
	assert.Equal(t, survey.ConfirmPrompt, req.Prompt)

	payload, _ := json.Marshal(ConfirmResponse{RequestID: req.RequestID, Confirmed: true})
	require.NoError(t, conn.WriteJSON(Message{Type: MsgConfirmResponse, Payload: payload}))

	r := <-done
	require.NoError(t, r.err)
	assert.Equal(t, string(survey.SubmitAccepted), r.res.Outcome)

	note := readUntil(t, conn, MsgNotification)
	var n model.Notification
	require.NoError(t, json.Unmarshal(note.Payload, &n))
	assert.Equal(t, model.NotificationSuccess, n.Kind)

	// closing the session pushes session_closed then a close frame
	require.NoError(t, f.svc.Close(ctx, created.SessionID))
	readUntil(t, conn, MsgSessionClosed)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)

	require.Eventually(t, func() bool {
		return f.hub.ConnectionCount(created.SessionID) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestSessionWS_UnknownInboundGetsError(t *testing.T) {
	f := newWSFixture(t)
	created, err := f.svc.Create(context.Background(), service.ChannelWeb)
	require.NoError(t, err)
	conn := f.dial(t, created.Token)
	readUntil(t, conn, MsgState)

	require.NoError(t, conn.WriteJSON(Message{Type: "start", Payload: json.RawMessage(`{}`)}))
	msg := readUntil(t, conn, MsgError)
	assert.Contains(t, string(msg.Payload), "unsupported")
}

func TestHub_PromptWithoutConnection(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer hub.Close()

	_, err := hub.Prompt(context.Background(), "s_1", "sure?")
	assert.ErrorIs(t, err, service.ErrNoConfirmChannel)
}

func TestHub_DisconnectDeclinesPendingPrompt(t *testing.T) {
	f := newWSFixture(t)
	created, err := f.svc.Create(context.Background(), service.ChannelWeb)
	require.NoError(t, err)
	conn := f.dial(t, created.Token)
	readUntil(t, conn, MsgState)
	require.Eventually(t, func() bool {
		return f.hub.ConnectionCount(created.SessionID) == 1
	}, time.Second, 5*time.Millisecond)

	type answer struct {
		ok  bool
		err error
	}
	done := make(chan answer, 1)
	go func() {
		ok, err := f.hub.Prompt(context.Background(), created.SessionID, "sure?")
		done <- answer{ok, err}
	}()

	readUntil(t, conn, MsgConfirmRequest)
	conn.Close()

	select {
	case a := <-done:
		assert.NoError(t, a.err)
		assert.False(t, a.ok)
	case <-time.After(2 * time.Second):
		t.Fatal("prompt did not resolve after disconnect")
	}
}

func TestHub_ResolveChecksSession(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer hub.Close()

	conn := &Connection{SessionID: "s_1", Send: make(chan []byte, 8), Hub: hub}
	hub.Register(conn)
	require.Eventually(t, func() bool {
		return hub.ConnectionCount("s_1") == 1
	}, time.Second, 5*time.Millisecond)

	done := make(chan bool, 1)
	go func() {
		ok, _ := hub.Prompt(context.Background(), "s_1", "sure?")
		done <- ok
	}()

	var req ConfirmRequest
	select {
	case data := <-conn.Send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		require.Equal(t, MsgConfirmRequest, msg.Type)
		require.NoError(t, json.Unmarshal(msg.Payload, &req))
	case <-time.After(time.Second):
		t.Fatal("no confirm_request")
	}

	assert.False(t, hub.Resolve("s_2", ConfirmResponse{RequestID: req.RequestID, Confirmed: true}))
	assert.True(t, hub.Resolve("s_1", ConfirmResponse{RequestID: req.RequestID, Confirmed: true}))
	assert.True(t, <-done)
	assert.False(t, hub.Resolve("s_1", ConfirmResponse{RequestID: req.RequestID, Confirmed: true}))
}
