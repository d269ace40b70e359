// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photoshoot-api/internal/catalog"
	"photoshoot-api/internal/common/config"
	"photoshoot-api/internal/common/database"
	apperrors "photoshoot-api/internal/common/errors"
	"photoshoot-api/internal/common/gemini"
	httpclient "photoshoot-api/internal/common/http"
	"photoshoot-api/internal/common/logger"
	"photoshoot-api/internal/common/ratelimit"
	"photoshoot-api/internal/models"
	"photoshoot-api/internal/transport"

	generatephotoset "photoshoot-api/internal/workers/generation/generate-photoset"
	recordbatch "photoshoot-api/internal/workers/generation/record-batch"
	renderplaceholder "photoshoot-api/internal/workers/generation/render-placeholder"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ==========================
// 1. Fake Gemini backend
// ==========================

var modelPath = regexp.MustCompile(`/models/([^/:]+):generateContent$`)

// fakeGemini refuses key-1 for quota, rejects the first model as unknown and
// answers every other call with a small PNG.
type fakeGemini struct {
	mu    sync.Mutex
	calls map[string]int
}

func (f *fakeGemini) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m := modelPath.FindStringSubmatch(r.URL.Path)
	if m == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	_, _ = io.Copy(io.Discard, r.Body)

	key := r.Header.Get("x-goog-api-key")
	model := m[1]

	f.mu.Lock()
	f.calls[key+"/"+model]++
	f.mu.Unlock()

	switch {
	case key == "key-1":
		writeJSON(w, http.StatusTooManyRequests, apiError(429, "You exceeded your current quota", "RESOURCE_EXHAUSTED"))
	case model == "gemini-2.5-flash-image-preview":
		writeJSON(w, http.StatusNotFound, apiError(404, "models/gemini-2.5-flash-image-preview is not found", "NOT_FOUND"))
	default:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"candidates": []interface{}{
				map[string]interface{}{
					"content": map[string]interface{}{
						"role": "model",
						"parts": []interface{}{
							map[string]interface{}{"inlineData": map[string]interface{}{
								"mimeType": "image/png",
								"data":     base64.StdEncoding.EncodeToString([]byte("\x89PNG-" + model)),
							}},
						},
					},
				},
			},
		})
	}
}

func (f *fakeGemini) count(key, model string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key+"/"+model]
}

func apiError(code int, msg, status string) map[string]interface{} {
	return map[string]interface{}{"error": map[string]interface{}{"code": code, "message": msg, "status": status}}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ==========================
// 2. Stack assembly
// ==========================

type stack struct {
	server *httptest.Server
	gemini *fakeGemini
}

func loadConfig(t *testing.T, demo bool) *config.Config {
	t.Helper()
	t.Setenv("GEMINI_API_KEY_1", "key-1")
	t.Setenv("GEMINI_API_KEY_2", "key-2")
	t.Setenv("GEMINI_API_KEY_3", "")
	if demo {
		t.Setenv("DEMO_MODE", "1")
	} else {
		t.Setenv("DEMO_MODE", "0")
	}

	cfg, err := config.LoadFromFile("../../configs/config.yaml")
	require.NoError(t, err)
	return cfg
}

func newStack(t *testing.T, cfg *config.Config, limiter ratelimit.Limiter, journal transport.Journal) *stack {
	t.Helper()
	log := logger.NewTestLogger(t)

	fake := &fakeGemini{calls: map[string]int{}}
	backendSrv := httptest.NewServer(fake)
	t.Cleanup(backendSrv.Close)

	cfg.Generation.BaseURL = backendSrv.URL

	styles, err := catalog.New(cfg.Catalog.Path)
	require.NoError(t, err)

	backend := gemini.New(gemini.ConfigFrom(cfg.Generation), httpclient.NewClient(5*time.Second))
	generator := generatephotoset.NewHandler(generatephotoset.ConfigFrom(cfg.Generation), backend, log)
	placeholder := renderplaceholder.NewHandler(renderplaceholder.LoadConfig(), log)

	router := transport.InitRoutes(
		transport.RouterOptions{Limiter: limiter, MetricsEnabled: cfg.Observability.MetricsEnabled},
		transport.NewGenerateHandler(transport.GenerateOptions{
			DemoMode:     cfg.Generation.DemoMode,
			Count:        cfg.Generation.Count,
			MaxFileBytes: cfg.Server.MaxFileBytes,
			MaxBodyBytes: cfg.Server.MaxBodyBytes(),
		}, generator, placeholder, styles, journal, log),
		transport.NewStyleHandler(styles),
		transport.NewHealthHandler(cfg.Generation.DemoMode, nil),
		log,
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &stack{server: srv, gemini: fake}
}

func postGenerate(t *testing.T, baseURL, styleID, clientIP string) (*http.Response, []byte) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, field := range []string{"partner1", "partner2"} {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="%s.jpg"`, field, field))
		h.Set("Content-Type", "image/jpeg")
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(bytes.Repeat([]byte{0xFF, 0xD8}, 1024))
		require.NoError(t, err)
	}
	require.NoError(t, w.WriteField("styleId", styleID))
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/generate", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("X-Forwarded-For", clientIP)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

// ==========================
// 3. Scenarios
// ==========================

func TestE2E_GenerateWithFailover(t *testing.T) {
	cfg := loadConfig(t, false)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO generation_batches")).
		WithArgs(sqlmock.AnyArg(), "prompt-5", "198.51.100.20", false, models.BatchStatusSuccess, 10, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	journal := recordbatch.NewHandler(recordbatch.LoadConfig(), db, logger.NewTestLogger(t))
	s := newStack(t, cfg, ratelimit.NewMemoryLimiter(ratelimit.ConfigFrom(cfg.RateLimit)), journal)

	resp, data := postGenerate(t, s.server.URL, "prompt-5", "198.51.100.20")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	var out models.GenerateResponse
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out.Images, 10)
	for i, img := range out.Images {
		assert.Equal(t, i+1, img.ID)
		assert.True(t, strings.HasPrefix(img.DataURL, "data:image/png;base64,"))
	}

	// key-1 is abandoned after its first model, key-2 falls through to the second model
	assert.GreaterOrEqual(t, s.gemini.count("key-1", "gemini-2.5-flash-image-preview"), 10)
	assert.Zero(t, s.gemini.count("key-1", "gemini-1.5-flash"))
	assert.GreaterOrEqual(t, s.gemini.count("key-2", "gemini-2.5-flash-image-preview"), 10)
	assert.Equal(t, 10, s.gemini.count("key-2", "gemini-1.5-flash"))

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestE2E_QuotaOnEveryKey(t *testing.T) {
	cfg := loadConfig(t, false)
	cfg.Generation.APIKeys = []string{"key-1"}

	s := newStack(t, cfg, nil, nil)

	resp, data := postGenerate(t, s.server.URL, "prompt-1", "198.51.100.21")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	var out models.ErrorResponse
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, apperrors.QuotaAdvice, out.Error)
	assert.Equal(t, string(apperrors.ErrCodeBackendQuota), out.Code)
}

func TestE2E_DemoModeWithRedisLimiter(t *testing.T) {
	cfg := loadConfig(t, true)
	require.True(t, cfg.Generation.DemoMode)

	mr := miniredis.RunT(t)
	cfg.RateLimit.Backend = "redis"
	cfg.Database.Redis.Address = mr.Addr()

	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err)
	defer rdb.Close()
	require.NoError(t, rdb.Ping(context.Background()))

	limiter, err := ratelimit.NewFromConfig(cfg.RateLimit, rdb.GetClient())
	require.NoError(t, err)

	s := newStack(t, cfg, limiter, nil)

	for i := 0; i < 3; i++ {
		resp, data := postGenerate(t, s.server.URL, "prompt-6", "203.0.113.77")
		require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

		var out models.GenerateResponse
		require.NoError(t, json.Unmarshal(data, &out))
		require.Len(t, out.Images, 10)
		assert.True(t, strings.HasPrefix(out.Images[0].DataURL, "data:image/svg+xml;base64,"))
	}

	resp, data := postGenerate(t, s.server.URL, "prompt-6", "203.0.113.77")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, string(data), apperrors.RateLimitedMessage)

	// the window expires and the client is admitted again
	mr.FastForward(11 * time.Second)
	resp, _ = postGenerate(t, s.server.URL, "prompt-6", "203.0.113.77")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// demo mode never reaches the backend
	assert.Zero(t, s.gemini.count("key-2", "gemini-1.5-flash"))
}

func TestE2E_InvalidStyle(t *testing.T) {
	cfg := loadConfig(t, false)
	s := newStack(t, cfg, nil, nil)

	resp, data := postGenerate(t, s.server.URL, "prompt-0", "198.51.100.30")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(data), "Invalid style selected.")
}
