package transcript

import (
	"errors"
	"fmt"
)

var (
	ErrMetadataUnavailable = errors.New("video metadata unavailable")
	ErrDurationExceeded    = errors.New("video too long")
	ErrCaptionFetchFailed  = errors.New("failed to fetch captions")
	ErrEmptyAudioTrack     = errors.New("downloaded audio is empty or too small")
	ErrDownloadFailed      = errors.New("audio download failed")
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrTranscriptTooShort  = errors.New("transcript too short")
)

// DurationError reports a video over the configured ceiling. It matches
// ErrDurationExceeded under errors.Is.
type DurationError struct {
	Actual float64 // seconds
	Limit  int     // seconds
}

func (e *DurationError) Error() string {
	return fmt.Sprintf("video is %d minutes long, maximum is %d minutes",
		int(e.Actual)/60, e.Limit/60)
}

func (e *DurationError) Is(target error) bool {
	return target == ErrDurationExceeded
}
