package appServer

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ds124wfegd/lensmaster/config"
	"github.com/ds124wfegd/lensmaster/internal/entity"
	"github.com/ds124wfegd/lensmaster/internal/notify"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(t *testing.T, sinks ...string) *config.Config {
	t.Helper()

	v, err := config.LoadConfigFrom(t.TempDir())
	require.NoError(t, err)
	cfg, err := config.ParseConfig(v)
	require.NoError(t, err)

	cfg.Notify.Sinks = sinks
	return cfg
}

func placeOrder(t *testing.T, h http.Handler) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(entity.BookingRequest{
		CustomerName: "Asha",
		CameraID:     "canon-r5",
		StartDate:    "2024-01-01",
		EndDate:      "2024-01-04",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestBuildDefaultSinks(t *testing.T) {
	cfg := testConfig(t, notify.SinkLog, notify.SinkFeed)

	app, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, app.Close()) })

	assert.Equal(t, []string{"log", "feed"}, app.Sinks.Names())

	w := placeOrder(t, app.Handler)
	require.Equal(t, http.StatusCreated, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	w = httptest.NewRecorder()
	app.Handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []entity.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, int64(1200), resp.Data[0].TotalPrice)
	assert.Equal(t, "Canon EOS R5", resp.Data[0].CameraName)
}

func TestBuildRejectsBadSinks(t *testing.T) {
	tests := []struct {
		name   string
		sinks  []string
		mutate func(*config.Config)
	}{
		{name: "unknown sink", sinks: []string{"carrier-pigeon"}},
		{name: "telegram without token", sinks: []string{notify.SinkTelegram}},
		{
			name:  "queue with unreachable redis",
			sinks: []string{notify.SinkQueue},
			mutate: func(c *config.Config) {
				c.Redis.Host = "127.0.0.1"
				c.Redis.Port = 1
				c.Redis.MaxRetries = -1
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, tt.sinks...)
			if tt.mutate != nil {
				tt.mutate(cfg)
			}

			app, err := Build(context.Background(), cfg)
			assert.Error(t, err)
			assert.Nil(t, app)
		})
	}
}

func TestBuildQueueDeliversToTelegram(t *testing.T) {
	var delivered atomic.Int32
	tg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delivered.Add(1)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(tg.Close)

	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	cfg := testConfig(t, notify.SinkFeed, notify.SinkQueue)
	cfg.Redis.Host = mr.Host()
	cfg.Redis.Port = port
	cfg.Queue.PollTimeout = 100 * time.Millisecond
	cfg.Queue.DelayedCheck = 50 * time.Millisecond
	cfg.Telegram.BotToken = "token"
	cfg.Telegram.ChatID = "42"
	cfg.Telegram.BaseURL = tg.URL

	ctx, cancel := context.WithCancel(context.Background())
	app, err := Build(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, app.Close())
	})
	app.Start(ctx)

	w := placeOrder(t, app.Handler)
	require.Equal(t, http.StatusCreated, w.Code)

	assert.Eventually(t, func() bool { return delivered.Load() == 1 }, 3*time.Second, 20*time.Millisecond)
}

func TestBuildStreamSink(t *testing.T) {
	cfg := testConfig(t, notify.SinkStream)

	app, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, app.Close()) })

	assert.Equal(t, []string{"stream"}, app.Sinks.Names())
}

func TestWriteTimeout(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Timeout = 30 * time.Second
	cfg.Assistant.Timeout = 5 * time.Minute

	assert.Equal(t, 5*time.Minute+10*time.Second, writeTimeout(cfg))

	cfg.Assistant.Timeout = 0
	assert.Equal(t, 30*time.Second, writeTimeout(cfg))
}

func TestSinkEnabled(t *testing.T) {
	cfg := &config.Config{}
	cfg.Notify.Sinks = []string{" Queue ", "log"}

	assert.True(t, sinkEnabled(cfg, notify.SinkQueue))
	assert.True(t, sinkEnabled(cfg, notify.SinkTelegram, notify.SinkLog))
	assert.False(t, sinkEnabled(cfg, notify.SinkKafka))
}
