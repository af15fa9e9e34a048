// Package youtube wraps the yt-dlp binary for metadata queries and audio downloads.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/video-digest/backend/internal/ffmpeg"
)

// AudioFormat is the container every download is post-processed into.
const AudioFormat = "m4a"

// Client shells out to yt-dlp.
type Client struct {
	bin             string
	prober          ffmpeg.Prober
	metadataTimeout time.Duration
	downloadTimeout time.Duration
}

func NewClient(ytdlpPath string, fetchTimeout time.Duration) *Client {
	if ytdlpPath == "" {
		ytdlpPath = "yt-dlp"
	}
	return &Client{
		bin:             ytdlpPath,
		metadataTimeout: 4 * fetchTimeout,
		downloadTimeout: 10 * time.Minute,
	}
}

// IsYouTubeURL reports whether s points at a YouTube host.
func IsYouTubeURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	return host == "youtu.be" || host == "youtube.com" || strings.HasSuffix(host, ".youtube.com")
}

// Metadata returns duration and caption track listings without downloading media.
func (c *Client) Metadata(ctx context.Context, videoURL string) (*VideoInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.metadataTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.bin,
		"--dump-single-json",
		"--skip-download",
		"--no-playlist",
		"--no-warnings",
		videoURL,
	)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("yt-dlp: %s: %w", strings.TrimSpace(stderr.String()), err)
	}
	return parseVideoInfo(output)
}

func parseVideoInfo(data []byte) (*VideoInfo, error) {
	var info VideoInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse yt-dlp output: %w", err)
	}
	return &info, nil
}

// DownloadAudio fetches the best audio-only stream into dir under a fresh
// random name and converts it to m4a. The caller owns the returned file.
func (c *Client) DownloadAudio(ctx context.Context, videoURL, dir string) (string, *ffmpeg.AudioInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.downloadTimeout)
	defer cancel()

	base := uuid.NewString()
	template := filepath.Join(dir, base+".%(ext)s")

	cmd := exec.CommandContext(ctx, c.bin,
		"-f", "bestaudio/best",
		"--extract-audio",
		"--audio-format", AudioFormat,
		"--no-playlist",
		"--no-progress",
		"--no-warnings",
		"-o", template,
		videoURL,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", nil, fmt.Errorf("yt-dlp: %s: %w", strings.TrimSpace(string(output)), err)
	}

	path := filepath.Join(dir, base+"."+AudioFormat)
	if _, err := os.Stat(path); err != nil {
		// post-processing may have been skipped; take whatever landed
		matches, _ := filepath.Glob(filepath.Join(dir, base+".*"))
		if len(matches) == 0 {
			return "", nil, errors.New("yt-dlp produced no output file")
		}
		path = matches[0]
	}

	info, err := c.prober.ProbeAudio(ctx, path)
	if err != nil {
		if errors.Is(err, ffmpeg.ErrNoAudioStream) {
			return path, nil, err
		}
		log.Printf("[youtube] ffprobe failed for %s: %v", filepath.Base(path), err)
		return path, nil, nil
	}
	return path, info, nil
}
