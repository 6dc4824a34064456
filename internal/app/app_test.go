package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"feedbacksurvey/internal/config"
	"feedbacksurvey/internal/service"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// go-redis pool reaper
		goleak.IgnoreTopFunction("github.com/redis/go-redis/v9/internal/pool.(*ConnPool).reaper"),
	)
}

func TestNew_MemoryDefaults(t *testing.T) {
	a, err := New(context.Background(), config.Default(), zap.NewNop())
	require.NoError(t, err)
	defer a.Close(context.Background())

	assert.Equal(t, 5, a.Questionnaire.Len())

	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNew_RedisAndQuestionsFile(t *testing.T) {
	mr := miniredis.RunT(t)

	path := filepath.Join(t.TempDir(), "questions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
questions:
  - id: 1
    prompt: Was the checkout easy?
    kind: rating
    options: [1, 2, 3]
  - id: 2
    prompt: Anything else?
    kind: text
`), 0o600))

	cfg := config.Default()
	cfg.Redis.Addr = "redis://" + mr.Addr()
	cfg.Survey.QuestionsFile = path

	ctx := context.Background()
	a, err := New(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close(ctx)

	assert.Equal(t, 2, a.Questionnaire.Len())

	created, err := a.Sessions.Create(ctx, service.ChannelWeb)
	require.NoError(t, err)
	assert.True(t, mr.Exists("session:"+created.SessionID))
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Store = config.StoreMongo

	_, err := New(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestNew_BadQuestionsFile(t *testing.T) {
	cfg := config.Default()
	cfg.Survey.QuestionsFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := New(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
