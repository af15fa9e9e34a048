package whisper

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/video-digest/backend/internal/gpu"
)

// LocalCLIClient runs the openai-whisper command line tool on this host.
type LocalCLIClient struct {
	bin   string
	model string
	gpu   *gpu.GPUInfo
}

func NewLocalCLIClient(bin, model string, gpuInfo *gpu.GPUInfo) *LocalCLIClient {
	if bin == "" {
		bin = "whisper"
	}
	if model == "" {
		model = "base"
	}
	return &LocalCLIClient{bin: bin, model: model, gpu: gpuInfo}
}

func (c *LocalCLIClient) Name() string {
	return "whisper-cli"
}

func (c *LocalCLIClient) Transcribe(ctx context.Context, req TranscribeRequest) (*TranscribeResult, error) {
	outDir, err := os.MkdirTemp("", "whisper-out-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(outDir)

	lang := languageOrDefault(req.Language)
	device, fp16 := c.gpu.WhisperDevice()
	fp16Arg := "False"
	if fp16 {
		fp16Arg = "True"
	}

	cmd := exec.CommandContext(ctx, c.bin,
		req.FilePath,
		"--model", c.model,
		"--language", lang,
		"--task", "transcribe",
		"--device", device,
		"--fp16", fp16Arg,
		"--output_format", "txt",
		"--output_dir", outDir,
		"--verbose", "False",
	)

	log.Printf("[whisper] running %s model=%s device=%s fp16=%s (audio: %s)",
		c.bin, c.model, device, fp16Arg, filepath.Base(req.FilePath))

	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("whisper cli: %s: %w", strings.TrimSpace(string(output)), err)
	}

	name := strings.TrimSuffix(filepath.Base(req.FilePath), filepath.Ext(req.FilePath)) + ".txt"
	data, err := os.ReadFile(filepath.Join(outDir, name))
	if err != nil {
		return nil, fmt.Errorf("read whisper output: %w", err)
	}

	return &TranscribeResult{
		Text:     normalizeText(string(data)),
		Language: lang,
	}, nil
}
