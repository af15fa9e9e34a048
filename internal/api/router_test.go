package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/video-digest/backend/internal/auth"
	"github.com/video-digest/backend/internal/cache"
	"github.com/video-digest/backend/internal/config"
	"github.com/video-digest/backend/internal/extract"
	"github.com/video-digest/backend/internal/summarize"
	"github.com/video-digest/backend/internal/transcript"
)

type stubSummarizer struct{}

func (stubSummarizer) Summarize(ctx context.Context, req summarize.Request) (*summarize.Summary, summarize.Tier, error) {
	return &summarize.Summary{Heading: "H", Summary: "S", Highlights: []string{}}, summarize.ResolveTier(req.Length), nil
}

func (stubSummarizer) FollowUp(ctx context.Context, req summarize.FollowUpRequest) (string, error) {
	return "A", nil
}

func (stubSummarizer) Model() string { return "gemini-flash-latest" }

type stubExtractor struct{}

func (stubExtractor) Extract(ctx context.Context, rawURL string) (*extract.Page, error) {
	return &extract.Page{URL: rawURL, Text: strings.Repeat("x ", 100)}, nil
}

type stubTranscripts struct{}

func (stubTranscripts) Acquire(ctx context.Context, videoURL string) (*transcript.Result, error) {
	return &transcript.Result{Text: strings.Repeat("y ", 100), Provenance: transcript.ProvenanceCaptions}, nil
}

func (stubTranscripts) TranscriberName() string { return "cli" }

func testRouter(jwtSecret string, perMinute int) (http.Handler, *auth.JWTService) {
	jwtService := auth.NewJWTService(jwtSecret)
	cfg := &config.Config{
		CORSOrigins:        []string{"*"},
		CacheBackend:       "memory",
		CachePolicy:        "lru",
		RateLimitPerMinute: perMinute,
		MaxBodyBytes:       1 << 10,
	}
	return NewRouter(Deps{
		Summarizer:      stubSummarizer{},
		Extractor:       stubExtractor{},
		Transcripts:     stubTranscripts{},
		SummaryCache:    cache.NewMemory(10, cache.PolicyLRU),
		TranscriptCache: cache.NewMemory(5, cache.PolicyLRU),
		JWT:             jwtService,
	}, cfg), jwtService
}

func do(h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "10.0.0.1:1234"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouterOpenWhenAuthDisabled(t *testing.T) {
	h, _ := testRouter("", 0)

	rec := do(h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = do(h, http.MethodPost, "/summarize-youtube", `{"url":"https://www.youtube.com/watch?v=abc"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"transcription_method":"captions"`)

	rec = do(h, http.MethodGet, "/cache/stats", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// settings routes exist only with a database
	rec = do(h, http.MethodGet, "/settings", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterRequiresTokenWhenAuthEnabled(t *testing.T) {
	h, jwtService := testRouter("secret", 0)

	rec := do(h, http.MethodPost, "/summarize", `{"text":"long enough text to pass validation"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := jwtService.GenerateToken("web")
	require.NoError(t, err)
	rec = do(h, http.MethodPost, "/summarize", `{"text":"long enough text to pass validation"}`, token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterRateLimitsPosts(t *testing.T) {
	h, _ := testRouter("", 1)

	body := `{"question":"q","context":"c"}`
	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/follow-up", body, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(h, http.MethodPost, "/follow-up", body, "").Code)
	// health is never limited
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/health", "", "").Code)
}

func TestRouterBodyLimit(t *testing.T) {
	h, _ := testRouter("", 0)

	body := `{"text":"` + strings.Repeat("a", 2<<10) + `"}`
	rec := do(h, http.MethodPost, "/summarize", body, "")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
