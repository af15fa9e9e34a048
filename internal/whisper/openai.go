package whisper

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/video-digest/backend/internal/ffmpeg"
)

const openAITranscriptionURL = "https://api.openai.com/v1/audio/transcriptions"
const maxOpenAIFileSize = 25 * 1024 * 1024 // 25MB limit

// OpenAIWhisperClient uses the OpenAI Whisper API
type OpenAIWhisperClient struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	convert    func(ctx context.Context, path string) (string, error)
}

func NewOpenAIWhisperClient(apiKey string) *OpenAIWhisperClient {
	return &OpenAIWhisperClient{
		apiKey:   apiKey,
		endpoint: openAITranscriptionURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Minute,
		},
		convert: ffmpeg.ToMP3,
	}
}

func (c *OpenAIWhisperClient) Name() string {
	return "openai"
}

func (c *OpenAIWhisperClient) Transcribe(ctx context.Context, req TranscribeRequest) (*TranscribeResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not configured")
	}
	lang := languageOrDefault(req.Language)

	// MP3 keeps uploads small
	audioPath, err := c.convert(ctx, req.FilePath)
	if err != nil {
		return nil, fmt.Errorf("extract audio: %w", err)
	}
	defer os.Remove(audioPath)

	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, err
	}

	var text string
	if info.Size() > maxOpenAIFileSize {
		text, err = c.transcribeChunked(ctx, audioPath, lang)
	} else {
		text, err = c.transcribeSingle(ctx, audioPath, lang)
	}
	if err != nil {
		return nil, err
	}

	return &TranscribeResult{Text: normalizeText(text), Language: lang}, nil
}

func (c *OpenAIWhisperClient) transcribeSingle(ctx context.Context, audioPath, language string) (string, error) {
	body, contentType := multipartBody(audioPath, map[string]string{
		"model":           "whisper-1",
		"response_format": "text",
		"language":        language,
	})
	defer body.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	log.Printf("[whisper-openai] uploading %s", filepath.Base(audioPath))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("OpenAI API request: %w", err)
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("OpenAI API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}
	return string(text), nil
}

// transcribeChunked splits audio over the upload limit into 10-minute pieces
// stored beside the source file.
func (c *OpenAIWhisperClient) transcribeChunked(ctx context.Context, audioPath, language string) (string, error) {
	chunkDir, err := os.MkdirTemp(filepath.Dir(audioPath), "chunks-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(chunkDir)

	chunks, err := ffmpeg.SplitMP3(ctx, audioPath, chunkDir, 600)
	if err != nil {
		return "", err
	}

	var all strings.Builder
	for i, chunk := range chunks {
		text, err := c.transcribeSingle(ctx, chunk, language)
		if err != nil {
			return "", fmt.Errorf("chunk %d: %w", i, err)
		}
		all.WriteString(text)
		all.WriteString(" ")
	}
	return all.String(), nil
}
