package whisper

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/video-digest/backend/internal/ffmpeg"
)

// WhisperCppClient talks to the whisper.cpp HTTP server (whisper-server)
type WhisperCppClient struct {
	baseURL    string
	httpClient *http.Client
	convert    func(ctx context.Context, path string) (string, error)
}

// NewWhisperCppClient creates a client for the whisper.cpp server
func NewWhisperCppClient(baseURL string) *WhisperCppClient {
	return &WhisperCppClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Minute},
		convert: ffmpeg.ToWAV16k,
	}
}

func (c *WhisperCppClient) Name() string {
	return "whisper.cpp"
}

// Transcribe converts the input to 16kHz mono WAV and posts it to whisper-server.
func (c *WhisperCppClient) Transcribe(ctx context.Context, req TranscribeRequest) (*TranscribeResult, error) {
	audioPath, err := c.convert(ctx, req.FilePath)
	if err != nil {
		return nil, fmt.Errorf("extract audio: %w", err)
	}
	defer os.Remove(audioPath)

	lang := languageOrDefault(req.Language)

	body, contentType := multipartBody(audioPath, map[string]string{
		"response_format": "text",
		"temperature":     "0.0",
		"language":        lang,
	})
	defer body.Close()

	endpoint := c.baseURL + "/inference"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	log.Printf("[whisper] sending %s to %s", filepath.Base(audioPath), endpoint)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("whisper server request: %w", err)
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whisper server error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}

	return &TranscribeResult{
		Text:     normalizeText(string(text)),
		Language: lang,
	}, nil
}

// multipartBody streams a form with the file at path under "file" followed by
// fields. Write errors surface to the reader of the returned body.
func multipartBody(path string, fields map[string]string) (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeForm(writer, path, fields))
	}()
	return pr, writer.FormDataContentType()
}

func writeForm(writer *multipart.Writer, path string, fields map[string]string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("copy audio data: %w", err)
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return err
		}
	}
	return writer.Close()
}
