package transcript

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/video-digest/backend/internal/youtube"
)

// FormatPreference is the fixed order in which caption renditions are tried.
// The first listed format a track offers wins, whatever its quality.
var FormatPreference = []string{"vtt", "srv3", "srv2", "srv1", "json3"}

const maxCaptionBytes = 10 << 20

type TrackKind string

const (
	TrackManual    TrackKind = "manual"
	TrackAutomatic TrackKind = "automatic"
)

// CaptionTrack is every rendition available for one language and kind.
type CaptionTrack struct {
	Language string
	Kind     TrackKind
	Formats  []youtube.CaptionFormat
}

// PickFormat returns the first rendition in FormatPreference order.
func (t CaptionTrack) PickFormat() (youtube.CaptionFormat, bool) {
	for _, ext := range FormatPreference {
		for _, f := range t.Formats {
			if f.Ext == ext && f.URL != "" {
				return f, true
			}
		}
	}
	return youtube.CaptionFormat{}, false
}

// SelectTrack prefers a manual track over an automatic one for lang. Within a
// kind an exact language match beats regional variants ("en-GB").
func SelectTrack(info *youtube.VideoInfo, lang string) (CaptionTrack, bool) {
	if t, ok := findTrack(info.Subtitles, lang, TrackManual); ok {
		return t, true
	}
	return findTrack(info.AutomaticCaptions, lang, TrackAutomatic)
}

func findTrack(tracks map[string][]youtube.CaptionFormat, lang string, kind TrackKind) (CaptionTrack, bool) {
	if formats := tracks[lang]; len(formats) > 0 {
		return CaptionTrack{Language: lang, Kind: kind, Formats: formats}, true
	}
	var variants []string
	for code, formats := range tracks {
		if strings.HasPrefix(code, lang+"-") && len(formats) > 0 {
			variants = append(variants, code)
		}
	}
	if len(variants) == 0 {
		return CaptionTrack{}, false
	}
	sort.Strings(variants)
	return CaptionTrack{Language: variants[0], Kind: kind, Formats: tracks[variants[0]]}, true
}

// CaptionStatus tags the outcome of a caption attempt.
type CaptionStatus int

const (
	// NoUsableCaptions means the caller should fall back to audio.
	NoUsableCaptions CaptionStatus = iota
	CaptionsFound
)

type CaptionResult struct {
	Status CaptionStatus
	Text   string
	Kind   TrackKind
}

// CaptionFetcher downloads caption files over HTTP.
type CaptionFetcher struct {
	httpClient *http.Client
}

func NewCaptionFetcher(timeout time.Duration) *CaptionFetcher {
	return &CaptionFetcher{httpClient: &http.Client{Timeout: timeout}}
}

func (f *CaptionFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("caption server returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCaptionBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Captions tries the selected track. Only a transport failure is an error;
// a missing track, unsupported renditions or an empty parse all come back as
// NoUsableCaptions.
func (f *CaptionFetcher) Captions(ctx context.Context, info *youtube.VideoInfo, lang string) (CaptionResult, error) {
	track, ok := SelectTrack(info, lang)
	if !ok {
		return CaptionResult{Status: NoUsableCaptions}, nil
	}
	format, ok := track.PickFormat()
	if !ok {
		return CaptionResult{Status: NoUsableCaptions}, nil
	}

	raw, err := f.Fetch(ctx, format.URL)
	if err != nil {
		return CaptionResult{}, fmt.Errorf("%w: %w", ErrCaptionFetchFailed, err)
	}

	text := ParseCaptions(raw, format.Ext)
	if text == "" {
		return CaptionResult{Status: NoUsableCaptions}, nil
	}
	return CaptionResult{Status: CaptionsFound, Text: text, Kind: track.Kind}, nil
}
