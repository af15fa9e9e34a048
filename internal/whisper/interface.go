// Package whisper provides speech-to-text engines behind one interface.
package whisper

import "context"

// TranscribeRequest is the input for a transcription
type TranscribeRequest struct {
	FilePath string // absolute path to the audio file
	Language string // forced decoding language, e.g. "en"
}

// TranscribeResult is the output of a transcription
type TranscribeResult struct {
	Text     string
	Language string
}

// Transcriber is the common interface for all whisper engines
type Transcriber interface {
	Transcribe(ctx context.Context, req TranscribeRequest) (*TranscribeResult, error)
	// Name returns the engine name
	Name() string
}
