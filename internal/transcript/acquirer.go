// Package transcript turns a video URL into plain transcript text, preferring
// published captions and falling back to downloading and transcribing audio.
package transcript

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"github.com/video-digest/backend/internal/cache"
	"github.com/video-digest/backend/internal/ffmpeg"
	"github.com/video-digest/backend/internal/whisper"
	"github.com/video-digest/backend/internal/youtube"
)

// MinTranscriptChars is the shortest transcript accepted from any path.
const MinTranscriptChars = 50

type Provenance string

const (
	ProvenanceCached   Provenance = "cached"
	ProvenanceCaptions Provenance = "captions"
	ProvenanceWhisper  Provenance = "whisper"
)

// Platform is the video-hosting collaborator.
type Platform interface {
	Metadata(ctx context.Context, videoURL string) (*youtube.VideoInfo, error)
	DownloadAudio(ctx context.Context, videoURL, dir string) (string, *ffmpeg.AudioInfo, error)
}

// Captioner fetches and parses the best caption track of a video.
type Captioner interface {
	Captions(ctx context.Context, info *youtube.VideoInfo, lang string) (CaptionResult, error)
}

type Result struct {
	Text       string
	Provenance Provenance
	Title      string
	Duration   float64 // seconds; 0 for cached results
}

type Options struct {
	MaxDurationSeconds int
	TempDir            string
	Language           string
	// Coalesce shares one in-flight acquisition between concurrent callers
	// asking for the same URL. Late callers wait for the first one's result.
	Coalesce bool
}

type Acquirer struct {
	platform    Platform
	captions    Captioner
	transcriber whisper.Transcriber
	store       cache.Store

	maxDuration int
	tempDir     string
	language    string
	coalesce    bool
	group       singleflight.Group
}

func NewAcquirer(platform Platform, captions Captioner, transcriber whisper.Transcriber, store cache.Store, opts Options) *Acquirer {
	if opts.MaxDurationSeconds <= 0 {
		opts.MaxDurationSeconds = 1800
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	if opts.Language == "" {
		opts.Language = "en"
	}
	return &Acquirer{
		platform:    platform,
		captions:    captions,
		transcriber: transcriber,
		store:       store,
		maxDuration: opts.MaxDurationSeconds,
		tempDir:     opts.TempDir,
		language:    opts.Language,
		coalesce:    opts.Coalesce,
	}
}

// TranscriberName identifies the audio fallback engine.
func (a *Acquirer) TranscriberName() string {
	return a.transcriber.Name()
}

func cacheKey(videoURL string) string {
	return cache.Key("transcript", strings.TrimSpace(videoURL))
}

// Acquire returns the transcript for videoURL. Once started an acquisition runs
// to completion: cancelling ctx does not abort the download or transcription,
// though each network step keeps its own timeout.
func (a *Acquirer) Acquire(ctx context.Context, videoURL string) (*Result, error) {
	ctx = context.WithoutCancel(ctx)
	key := cacheKey(videoURL)

	if text, ok := a.cached(ctx, key); ok {
		return &Result{Text: text, Provenance: ProvenanceCached}, nil
	}

	if !a.coalesce {
		return a.acquire(ctx, videoURL, key)
	}

	v, err, shared := a.group.Do(key, func() (any, error) {
		// A caller that missed the cache just before the previous flight
		// stored its result must not start a second acquisition.
		if text, ok := a.cached(ctx, key); ok {
			return &Result{Text: text, Provenance: ProvenanceCached}, nil
		}
		return a.acquire(ctx, videoURL, key)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Printf("[transcript] joined in-flight acquisition for %s", videoURL)
	}
	res := *v.(*Result)
	return &res, nil
}

func (a *Acquirer) acquire(ctx context.Context, videoURL, key string) (*Result, error) {
	info, err := a.platform.Metadata(ctx, videoURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMetadataUnavailable, err)
	}

	if info.Duration > float64(a.maxDuration) {
		return nil, &DurationError{Actual: info.Duration, Limit: a.maxDuration}
	}

	res := &Result{Title: info.Title, Duration: info.Duration}

	captions, err := a.captions.Captions(ctx, info, a.language)
	if err != nil {
		return nil, err
	}

	switch captions.Status {
	case CaptionsFound:
		log.Printf("[transcript] using %s captions for %s", captions.Kind, videoURL)
		res.Text = captions.Text
		res.Provenance = ProvenanceCaptions
	case NoUsableCaptions:
		log.Printf("[transcript] no usable captions for %s, falling back to audio", videoURL)
		text, err := a.transcribeAudio(ctx, videoURL)
		if err != nil {
			return nil, err
		}
		res.Text = text
		res.Provenance = ProvenanceWhisper
	}

	res.Text = strings.TrimSpace(res.Text)
	if n := utf8.RuneCountInString(res.Text); n < MinTranscriptChars {
		return nil, fmt.Errorf("%w: %d characters, likely silent or non-speech content", ErrTranscriptTooShort, n)
	}

	if err := a.store.Put(ctx, key, []byte(res.Text)); err != nil {
		log.Printf("[transcript] cache write failed: %v", err)
	}
	return res, nil
}

// cached treats store errors as misses; the transcript is simply recomputed.
func (a *Acquirer) cached(ctx context.Context, key string) (string, bool) {
	val, ok, err := a.store.Get(ctx, key)
	if err != nil {
		log.Printf("[transcript] cache read failed: %v", err)
		return "", false
	}
	if !ok {
		return "", false
	}
	return string(val), true
}
