package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ToWAV16k converts any audio/video input to 16 kHz mono PCM WAV, the input
// format whisper engines expect. The output file is created next to the input
// and owned by the caller.
func ToWAV16k(ctx context.Context, inputPath string) (string, error) {
	return convert(ctx, inputPath, ".wav",
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
	)
}

// ToMP3 re-encodes to VBR mp3 (~130kbps), used where upload size matters.
func ToMP3(ctx context.Context, inputPath string) (string, error) {
	return convert(ctx, inputPath, ".mp3",
		"-vn",
		"-acodec", "libmp3lame",
		"-q:a", "4",
	)
}

func convert(ctx context.Context, inputPath, ext string, codecArgs ...string) (string, error) {
	out := trimExt(inputPath) + "-conv" + ext

	args := []string{"-hide_banner", "-loglevel", "error", "-i", inputPath}
	args = append(args, codecArgs...)
	args = append(args, "-y", out)

	output, err := exec.CommandContext(ctx, "ffmpeg", args...).CombinedOutput()
	if err != nil {
		os.Remove(out)
		return "", fmt.Errorf("ffmpeg: %s: %w", string(output), err)
	}
	return out, nil
}

func trimExt(p string) string {
	return strings.TrimSuffix(p, filepath.Ext(p))
}

// SplitMP3 cuts inputPath into mp3 segments of segmentSeconds each inside dir
// and returns them in playback order.
func SplitMP3(ctx context.Context, inputPath, dir string, segmentSeconds int) ([]string, error) {
	pattern := filepath.Join(dir, "chunk_%03d.mp3")
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-i", inputPath,
		"-f", "segment",
		"-segment_time", fmt.Sprint(segmentSeconds),
		"-c:a", "libmp3lame",
		"-q:a", "4",
		"-y",
		pattern,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg split: %s: %w", string(output), err)
	}

	chunks, err := filepath.Glob(filepath.Join(dir, "chunk_*.mp3"))
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no audio chunks generated")
	}
	return chunks, nil
}
