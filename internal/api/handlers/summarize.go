package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/video-digest/backend/internal/extract"
	"github.com/video-digest/backend/internal/summarize"
	"github.com/video-digest/backend/internal/transcript"
	"github.com/video-digest/backend/internal/youtube"
)

// MinTextChars is the shortest text accepted by /summarize.
const MinTextChars = 20

type Summarizer interface {
	Summarize(ctx context.Context, req summarize.Request) (*summarize.Summary, summarize.Tier, error)
	FollowUp(ctx context.Context, req summarize.FollowUpRequest) (string, error)
	Model() string
}

type PageExtractor interface {
	Extract(ctx context.Context, rawURL string) (*extract.Page, error)
}

type TranscriptSource interface {
	Acquire(ctx context.Context, videoURL string) (*transcript.Result, error)
	TranscriberName() string
}

type SummarizeHandler struct {
	summarizer  Summarizer
	extractor   PageExtractor
	transcripts TranscriptSource
	now         func() time.Time
}

func NewSummarizeHandler(s Summarizer, e PageExtractor, t TranscriptSource) *SummarizeHandler {
	return &SummarizeHandler{summarizer: s, extractor: e, transcripts: t, now: time.Now}
}

type summarizeRequest struct {
	Text   string `json:"text"`
	URL    string `json:"url"`
	Length string `json:"length"`
}

type summaryResponse struct {
	*summarize.Summary
	Citation string                 `json:"citation,omitempty"`
	Metadata map[string]interface{} `json:"metadata"`
}

func (h *SummarizeHandler) metadata(tier summarize.Tier) map[string]interface{} {
	return map[string]interface{}{
		"length":    tier.Name,
		"timestamp": float64(h.now().UnixMilli()) / 1000,
		"model":     h.summarizer.Model(),
	}
}

// Text summarizes raw text from the request body.
func (h *SummarizeHandler) Text(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if utf8.RuneCountInString(strings.TrimSpace(req.Text)) < MinTextChars {
		jsonError(w, "Text must be at least 20 characters", http.StatusBadRequest)
		return
	}

	sum, tier, err := h.summarizer.Summarize(r.Context(), summarize.Request{
		Content:     req.Text,
		Length:      req.Length,
		ContentType: summarize.ContentText,
	})
	if err != nil {
		writeFailure(w, "summarize", err)
		return
	}

	meta := h.metadata(tier)
	meta["input_length"] = utf8.RuneCountInString(req.Text)
	meta["word_count"] = len(strings.Fields(req.Text))
	jsonResponse(w, summaryResponse{Summary: sum, Metadata: meta}, http.StatusOK)
}

// URL extracts a web page and summarizes its readable text.
func (h *SummarizeHandler) URL(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	pageURL := strings.TrimSpace(req.URL)
	if pageURL == "" {
		jsonError(w, "No URL provided", http.StatusBadRequest)
		return
	}

	page, err := h.extractor.Extract(r.Context(), pageURL)
	if err != nil {
		writeFailure(w, "summarize-url", err)
		return
	}
	sum, tier, err := h.summarizer.Summarize(r.Context(), summarize.Request{
		Content:     page.Content(),
		Length:      req.Length,
		ContentType: summarize.ContentArticle,
	})
	if err != nil {
		writeFailure(w, "summarize-url", err)
		return
	}

	meta := h.metadata(tier)
	meta["source"] = pageURL
	if page.Title != "" {
		meta["title"] = page.Title
	}
	jsonResponse(w, summaryResponse{
		Summary:  sum,
		Citation: summarize.Citation(pageURL, sum.Summary, h.now()),
		Metadata: meta,
	}, http.StatusOK)
}

// YouTube acquires a video transcript and summarizes it.
func (h *SummarizeHandler) YouTube(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	videoURL := strings.TrimSpace(req.URL)
	if !youtube.IsYouTubeURL(videoURL) {
		jsonError(w, "Invalid YouTube URL", http.StatusBadRequest)
		return
	}

	res, err := h.transcripts.Acquire(r.Context(), videoURL)
	if err != nil {
		writeFailure(w, "summarize-youtube", err)
		return
	}
	sum, tier, err := h.summarizer.Summarize(r.Context(), summarize.Request{
		Content:     res.Text,
		Length:      req.Length,
		ContentType: summarize.ContentVideo,
	})
	if err != nil {
		writeFailure(w, "summarize-youtube", err)
		return
	}

	meta := h.metadata(tier)
	meta["source"] = "YouTube"
	meta["video_url"] = videoURL
	meta["transcription_method"] = string(res.Provenance)
	meta["duration"] = res.Duration
	if res.Title != "" {
		meta["title"] = res.Title
	}
	jsonResponse(w, summaryResponse{
		Summary:  sum,
		Citation: summarize.Citation(videoURL, sum.Summary, h.now()),
		Metadata: meta,
	}, http.StatusOK)
}

type followUpRequest struct {
	Question        string           `json:"question"`
	Context         string           `json:"context"`
	OriginalContent string           `json:"original_content"`
	History         []summarize.Turn `json:"history"`
}

// FollowUp answers a question about a summary the client already holds.
func (h *SummarizeHandler) FollowUp(w http.ResponseWriter, r *http.Request) {
	var req followUpRequest
	if !decodeBody(w, r, &req) {
		return
	}

	answer, err := h.summarizer.FollowUp(r.Context(), summarize.FollowUpRequest{
		Question:        req.Question,
		Context:         req.Context,
		OriginalContent: req.OriginalContent,
		History:         req.History,
	})
	if err != nil {
		writeFailure(w, "follow-up", err)
		return
	}
	jsonResponse(w, map[string]string{"answer": answer}, http.StatusOK)
}
