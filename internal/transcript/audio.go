package transcript

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/video-digest/backend/internal/ffmpeg"
	"github.com/video-digest/backend/internal/whisper"
)

// MinAudioBytes is the smallest download treated as a real audio track.
const MinAudioBytes = 100 * 1024

// transcribeAudio downloads the audio track into a directory private to this
// call and transcribes it. The directory and everything in it are removed on
// every return path.
func (a *Acquirer) transcribeAudio(ctx context.Context, videoURL string) (string, error) {
	dir, err := os.MkdirTemp(a.tempDir, "acquire-*")
	if err != nil {
		return "", fmt.Errorf("%w: create temp dir: %w", ErrDownloadFailed, err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Printf("[transcript] failed to remove %s: %v", dir, err)
		}
	}()

	path, _, err := a.platform.DownloadAudio(ctx, videoURL, dir)
	if errors.Is(err, ffmpeg.ErrNoAudioStream) {
		return "", fmt.Errorf("%w: %w", ErrEmptyAudioTrack, err)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}

	st, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEmptyAudioTrack, err)
	}
	if st.Size() < MinAudioBytes {
		return "", fmt.Errorf("%w: %s is %d bytes", ErrEmptyAudioTrack, filepath.Base(path), st.Size())
	}

	log.Printf("[transcript] transcribing %d KB of audio with %s", st.Size()/1024, a.transcriber.Name())
	res, err := a.transcriber.Transcribe(ctx, whisper.TranscribeRequest{
		FilePath: path,
		Language: a.language,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTranscriptionFailed, err)
	}
	return res.Text, nil
}
