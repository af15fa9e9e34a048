package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/video-digest/backend/internal/auth"
	"github.com/video-digest/backend/internal/cache"
	"github.com/video-digest/backend/internal/extract"
	"github.com/video-digest/backend/internal/llm"
	"github.com/video-digest/backend/internal/summarize"
	"github.com/video-digest/backend/internal/transcript"
)

type fakeSummarizer struct {
	sum       *summarize.Summary
	err       error
	answer    string
	lastReq   summarize.Request
	lastAsked summarize.FollowUpRequest
}

func (f *fakeSummarizer) Summarize(ctx context.Context, req summarize.Request) (*summarize.Summary, summarize.Tier, error) {
	f.lastReq = req
	tier := summarize.ResolveTier(req.Length)
	if f.err != nil {
		return nil, tier, f.err
	}
	return f.sum, tier, nil
}

func (f *fakeSummarizer) FollowUp(ctx context.Context, req summarize.FollowUpRequest) (string, error) {
	f.lastAsked = req
	if strings.TrimSpace(req.Question) == "" {
		return "", fmt.Errorf("%w: no question provided", summarize.ErrInvalidInput)
	}
	return f.answer, f.err
}

func (f *fakeSummarizer) Model() string { return "gemini-test" }

type fakeExtractor struct {
	page *extract.Page
	err  error
}

func (f *fakeExtractor) Extract(ctx context.Context, rawURL string) (*extract.Page, error) {
	return f.page, f.err
}

type fakeTranscripts struct {
	res   *transcript.Result
	err   error
	calls int
}

func (f *fakeTranscripts) Acquire(ctx context.Context, videoURL string) (*transcript.Result, error) {
	f.calls++
	return f.res, f.err
}

func (f *fakeTranscripts) TranscriberName() string { return "whisper-cli" }

var fixedNow = time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)

func newTestHandler(s *fakeSummarizer, e *fakeExtractor, t *fakeTranscripts) *SummarizeHandler {
	h := NewSummarizeHandler(s, e, t)
	h.now = func() time.Time { return fixedNow }
	return h
}

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

var testSummary = &summarize.Summary{
	Heading:    "Rust Ownership",
	Summary:    "Ownership rules let **Rust** manage memory without a garbage collector.",
	Highlights: []string{"ownership", "borrowing"},
}

func TestSummarizeText(t *testing.T) {
	s := &fakeSummarizer{sum: testSummary}
	h := newTestHandler(s, &fakeExtractor{}, &fakeTranscripts{})

	rec := post(h.Text, `{"text":"Ownership is a set of rules that govern memory.","length":"S"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, "Rust Ownership", out["heading"])
	assert.Equal(t, []interface{}{"ownership", "borrowing"}, out["highlights"])
	assert.NotContains(t, out, "citation")

	meta := out["metadata"].(map[string]interface{})
	assert.Equal(t, "short", meta["length"])
	assert.Equal(t, "gemini-test", meta["model"])
	assert.EqualValues(t, 47, meta["input_length"])
	assert.EqualValues(t, 9, meta["word_count"])
	assert.EqualValues(t, fixedNow.Unix(), meta["timestamp"])
	assert.Equal(t, summarize.ContentText, s.lastReq.ContentType)
}

func TestSummarizeTextValidation(t *testing.T) {
	h := newTestHandler(&fakeSummarizer{sum: testSummary}, &fakeExtractor{}, &fakeTranscripts{})

	rec := post(h.Text, `{"text":"   too short       "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Text must be at least 20 characters"}`, rec.Body.String())

	rec = post(h.Text, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummarizeURL(t *testing.T) {
	s := &fakeSummarizer{sum: testSummary}
	e := &fakeExtractor{page: &extract.Page{URL: "https://example.com/post", Title: "A Post", Text: strings.Repeat("word ", 40)}}
	h := newTestHandler(s, e, &fakeTranscripts{})

	rec := post(h.URL, `{"url":"https://example.com/post"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, `"Ownership rules let **Rust** manage memory without..." example.com, 05 Mar. 2026. Web.`, out["citation"])
	meta := out["metadata"].(map[string]interface{})
	assert.Equal(t, "https://example.com/post", meta["source"])
	assert.Equal(t, "A Post", meta["title"])
	assert.Equal(t, "medium", meta["length"])
	assert.Equal(t, summarize.ContentArticle, s.lastReq.ContentType)
}

func TestSummarizeURLErrors(t *testing.T) {
	h := newTestHandler(&fakeSummarizer{sum: testSummary}, &fakeExtractor{}, &fakeTranscripts{})
	rec := post(h.URL, `{"url":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"No URL provided"}`, rec.Body.String())

	h = newTestHandler(&fakeSummarizer{sum: testSummary}, &fakeExtractor{err: extract.ErrNoContent}, &fakeTranscripts{})
	rec = post(h.URL, `{"url":"https://example.com"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	h = newTestHandler(&fakeSummarizer{sum: testSummary}, &fakeExtractor{err: fmt.Errorf("%w: 15s", extract.ErrFetchTimeout)}, &fakeTranscripts{})
	rec = post(h.URL, `{"url":"https://example.com"}`)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestSummarizeYouTube(t *testing.T) {
	s := &fakeSummarizer{sum: testSummary}
	tr := &fakeTranscripts{res: &transcript.Result{
		Text:       strings.Repeat("spoken words ", 10),
		Provenance: transcript.ProvenanceWhisper,
		Title:      "Talk",
		Duration:   300,
	}}
	h := newTestHandler(s, &fakeExtractor{}, tr)

	rec := post(h.YouTube, `{"url":"https://youtu.be/abc123","length":"long"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	assert.Contains(t, out["citation"], "youtu.be, 05 Mar. 2026. Web.")
	meta := out["metadata"].(map[string]interface{})
	assert.Equal(t, "YouTube", meta["source"])
	assert.Equal(t, "https://youtu.be/abc123", meta["video_url"])
	assert.Equal(t, "whisper", meta["transcription_method"])
	assert.EqualValues(t, 300, meta["duration"])
	assert.Equal(t, "long", meta["length"])
	assert.Equal(t, summarize.ContentVideo, s.lastReq.ContentType)
	assert.Equal(t, tr.res.Text, s.lastReq.Content)
}

func TestSummarizeYouTubeRejectsOtherHosts(t *testing.T) {
	tr := &fakeTranscripts{}
	h := newTestHandler(&fakeSummarizer{sum: testSummary}, &fakeExtractor{}, tr)

	rec := post(h.YouTube, `{"url":"https://vimeo.com/123"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid YouTube URL"}`, rec.Body.String())
	assert.Zero(t, tr.calls)
}

func TestSummarizeYouTubeDurationExceeded(t *testing.T) {
	tr := &fakeTranscripts{err: &transcript.DurationError{Actual: 3600, Limit: 1800}}
	s := &fakeSummarizer{sum: testSummary}
	h := newTestHandler(s, &fakeExtractor{}, tr)

	rec := post(h.YouTube, `{"url":"https://www.youtube.com/watch?v=abc"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"error":"video is 60 minutes long, maximum is 30 minutes"}`, rec.Body.String())
	assert.Empty(t, s.lastReq.Content)
}

func TestFollowUp(t *testing.T) {
	s := &fakeSummarizer{answer: "It means borrowing."}
	h := newTestHandler(s, &fakeExtractor{}, &fakeTranscripts{})

	rec := post(h.FollowUp, `{"question":"What is a borrow?","context":"summary","history":[{"role":"user","content":"hi"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"answer":"It means borrowing."}`, rec.Body.String())
	require.Len(t, s.lastAsked.History, 1)
	assert.Equal(t, "user", s.lastAsked.History[0].Role)

	rec = post(h.FollowUp, `{"question":"","context":"summary"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: x", summarize.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("%w: x", extract.ErrInvalidURL), http.StatusBadRequest},
		{transcript.ErrTranscriptTooShort, http.StatusUnprocessableEntity},
		{transcript.ErrEmptyAudioTrack, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: boom", transcript.ErrMetadataUnavailable), http.StatusBadGateway},
		{fmt.Errorf("%w: boom", transcript.ErrDownloadFailed), http.StatusBadGateway},
		{fmt.Errorf("%w: boom", transcript.ErrCaptionFetchFailed), http.StatusBadGateway},
		{fmt.Errorf("generate summary: %w", &llm.APIError{Status: 503, Body: "overloaded"}), http.StatusBadGateway},
		{fmt.Errorf("generate summary: %w", llm.ErrBlocked), http.StatusBadGateway},
		{transcript.ErrTranscriptionFailed, http.StatusInternalServerError},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, errorStatus(c.err), c.err.Error())
	}
}

func TestHealth(t *testing.T) {
	h := NewHealthHandler(&fakeSummarizer{}, &fakeTranscripts{})
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","model":"gemini-test","backend":"Gemini API","transcriber":"whisper-cli"}`, rec.Body.String())
}

func TestCacheStats(t *testing.T) {
	ctx := context.Background()
	summaries := cache.NewMemory(100, cache.PolicyLRU)
	transcripts := cache.NewMemory(50, cache.PolicyLRU)
	require.NoError(t, summaries.Put(ctx, "a", []byte("1")))
	require.NoError(t, summaries.Put(ctx, "b", []byte("2")))
	require.NoError(t, transcripts.Put(ctx, "c", []byte("3")))

	h := NewCacheHandler(summaries, transcripts, "memory", cache.PolicyLRU)
	rec := httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/cache/stats", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"summary": {"entries": 2, "capacity": 100},
		"transcript": {"entries": 1, "capacity": 50},
		"backend": "memory",
		"policy": "lru"
	}`, rec.Body.String())
}

func TestToken(t *testing.T) {
	hash, err := auth.HashClientKey("s3cret")
	require.NoError(t, err)
	jwtService := auth.NewJWTService("signing-secret")
	h := NewAuthHandler(jwtService, hash)

	rec := post(h.Token, `{"client_key":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(h.Token, `{"client_key":"s3cret","client":"web"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 86400, resp.ExpiresIn)

	claims, err := jwtService.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "web", claims.Client)
}

func TestTokenWhenAuthDisabled(t *testing.T) {
	h := NewAuthHandler(auth.NewJWTService(""), "")
	rec := post(h.Token, `{"client_key":"anything"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type mapSettings map[string]string

func (m mapSettings) GetSetting(key, defaultVal string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return defaultVal
}

func (m mapSettings) SetSetting(key, value string) error {
	m[key] = value
	return nil
}

func TestSettings(t *testing.T) {
	store := mapSettings{}
	h := NewSettingsHandler(store)

	req := httptest.NewRequest(http.MethodPut, "/settings", strings.NewReader(`{"gemini_model":" gemini-2.5-pro "}`))
	rec := httptest.NewRecorder()
	h.UpdateSettings(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "gemini-2.5-pro", store["gemini_model"])

	req = httptest.NewRequest(http.MethodPut, "/settings", strings.NewReader(`{"deepl_api_key":"x"}`))
	rec = httptest.NewRecorder()
	h.UpdateSettings(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.GetSettings(rec, httptest.NewRequest(http.MethodGet, "/settings", nil))
	assert.JSONEq(t, `[{"key":"gemini_model","label":"Gemini Model","group":"summarization","placeholder":"gemini-flash-latest","value":"gemini-2.5-pro","has_value":true}]`, rec.Body.String())
}
