// Package summarize turns source text into a structured summary with an LLM.
package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/video-digest/backend/internal/cache"
	"github.com/video-digest/backend/internal/llm"
)

// ErrInvalidInput marks requests rejected before any model call.
var ErrInvalidInput = errors.New("invalid input")

// Generation parameters shared by every summary request.
const (
	Temperature = 0.3
	TopP        = 0.9
	TopK        = 40
)

type Summary struct {
	Heading    string   `json:"heading"`
	Summary    string   `json:"summary"`
	Highlights []string `json:"highlights"`
}

type Request struct {
	Content     string
	Length      string
	ContentType ContentType
}

type Service struct {
	llm   llm.Generator
	store cache.Store
}

func NewService(generator llm.Generator, store cache.Store) *Service {
	return &Service{llm: generator, store: store}
}

// Model names the model answering requests.
func (s *Service) Model() string {
	return s.llm.Model()
}

func summaryKey(content string, tier Tier, ct ContentType) string {
	return cache.Key("summary", strings.TrimSpace(content), tier.Name, string(ct))
}

// Summarize returns a cached summary when one exists for the same content,
// tier and content type. Only summaries the model returned as valid JSON
// are cached.
func (s *Service) Summarize(ctx context.Context, req Request) (*Summary, Tier, error) {
	tier := ResolveTier(req.Length)
	if strings.TrimSpace(req.Content) == "" {
		return nil, tier, fmt.Errorf("%w: no content to summarize", ErrInvalidInput)
	}
	ct := req.ContentType
	if ct == "" {
		ct = ContentText
	}

	key := summaryKey(req.Content, tier, ct)
	if sum, ok := s.cached(ctx, key); ok {
		return sum, tier, nil
	}

	raw, err := s.llm.Generate(ctx, BuildPrompt(req.Content, tier, ct), llm.GenerationConfig{
		Temperature:     Temperature,
		TopP:            TopP,
		TopK:            TopK,
		MaxOutputTokens: tier.MaxOutputTokens,
		JSON:            true,
	})
	if err != nil {
		return nil, tier, fmt.Errorf("generate summary: %w", err)
	}

	sum, structured := ParseSummary(raw)
	if structured {
		if data, err := json.Marshal(sum); err == nil {
			if err := s.store.Put(ctx, key, data); err != nil {
				log.Printf("[summarize] cache write failed: %v", err)
			}
		}
	}
	return sum, tier, nil
}

func (s *Service) cached(ctx context.Context, key string) (*Summary, bool) {
	data, ok, err := s.store.Get(ctx, key)
	if err != nil {
		log.Printf("[summarize] cache read failed: %v", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var sum Summary
	if err := json.Unmarshal(data, &sum); err != nil {
		return nil, false
	}
	return &sum, true
}

var fenceRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// ParseSummary decodes the model's JSON answer. When the answer is not JSON it
// falls back to treating a leading heading line as the heading and the rest
// as the body; the bool reports whether JSON decoding succeeded.
func ParseSummary(raw string) (*Summary, bool) {
	raw = strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}

	var sum Summary
	if err := json.Unmarshal([]byte(raw), &sum); err == nil && (sum.Summary != "" || sum.Heading != "") {
		return normalize(&sum), true
	}

	heading, body := splitHeading(raw)
	return normalize(&Summary{Heading: heading, Summary: body}), false
}

// splitHeading takes the first line as a heading when it is marked up as one
// (#, **bold**) or is short and followed by more text.
func splitHeading(raw string) (string, string) {
	first, rest, found := strings.Cut(raw, "\n")
	first = strings.TrimSpace(first)
	rest = strings.TrimSpace(rest)

	marked := strings.HasPrefix(first, "#") || (strings.HasPrefix(first, "**") && strings.HasSuffix(first, "**"))
	if !found || rest == "" || (!marked && len(first) > 100) {
		return "", raw
	}
	heading := strings.TrimSpace(strings.Trim(strings.TrimLeft(first, "#"), "* "))
	return heading, rest
}

func normalize(sum *Summary) *Summary {
	sum.Heading = strings.TrimSpace(sum.Heading)
	if sum.Heading == "" {
		sum.Heading = "Summary"
	}
	sum.Summary = strings.TrimSpace(sum.Summary)
	if sum.Highlights == nil {
		sum.Highlights = []string{}
	}
	return sum
}

type FollowUpRequest struct {
	Question        string
	Context         string
	OriginalContent string
	History         []Turn
}

// FollowUp answers a question about an earlier summary.
func (s *Service) FollowUp(ctx context.Context, req FollowUpRequest) (string, error) {
	if strings.TrimSpace(req.Question) == "" {
		return "", fmt.Errorf("%w: no question provided", ErrInvalidInput)
	}
	if strings.TrimSpace(req.Context) == "" {
		return "", fmt.Errorf("%w: no context available, summarize something first", ErrInvalidInput)
	}

	prompt := BuildFollowUpPrompt(req.Question, req.Context, req.OriginalContent, req.History)
	answer, err := s.llm.Generate(ctx, prompt, llm.GenerationConfig{
		Temperature:     Temperature,
		TopP:            TopP,
		TopK:            TopK,
		MaxOutputTokens: 1024,
	})
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// CitationDateLayout renders dates as "05 Mar. 2026".
const CitationDateLayout = "02 Jan. 2006"

// Citation builds an MLA-style web citation from the summary's opening words.
// It returns "" when rawURL has no host.
func Citation(rawURL, summary string, now time.Time) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	snippet := []rune(strings.ReplaceAll(summary, "\n", " "))
	if len(snippet) > 50 {
		snippet = snippet[:50]
	}
	return fmt.Sprintf("\"%s...\" %s, %s. Web.", string(snippet), u.Host, now.Format(CitationDateLayout))
}
