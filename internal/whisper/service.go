package whisper

import (
	"fmt"
	"log"
	"sort"

	"github.com/video-digest/backend/internal/gpu"
)

// Options selects and configures the engine used for audio fallback.
type Options struct {
	Engine       string // cli, whisper.cpp, openai
	CLIPath      string
	Model        string
	WhisperURL   string
	OpenAIAPIKey string
}

// Registry holds every engine that could be configured from the environment.
type Registry struct {
	engines  map[string]Transcriber
	selected string
}

// NewRegistry registers the local CLI engine unconditionally and the remote
// engines when their endpoint or key is configured.
func NewRegistry(opts Options, gpuInfo *gpu.GPUInfo) *Registry {
	selected := opts.Engine
	if selected == "" {
		selected = "cli"
	}
	r := &Registry{engines: make(map[string]Transcriber), selected: selected}

	r.Register("cli", NewLocalCLIClient(opts.CLIPath, opts.Model, gpuInfo))

	if opts.WhisperURL != "" {
		r.Register("whisper.cpp", NewWhisperCppClient(opts.WhisperURL))
	}
	if opts.OpenAIAPIKey != "" {
		r.Register("openai", NewOpenAIWhisperClient(opts.OpenAIAPIKey))
	}
	return r
}

func (r *Registry) Register(name string, engine Transcriber) {
	r.engines[name] = engine
	log.Printf("[whisper] registered %s engine", engine.Name())
}

// Get returns the named engine.
func (r *Registry) Get(name string) (Transcriber, error) {
	engine, ok := r.engines[name]
	if !ok {
		return nil, fmt.Errorf("unknown whisper engine: %s (available: %v)", name, r.Names())
	}
	return engine, nil
}

// Selected returns the engine named by Options.Engine ("cli" when empty). It
// fails when that engine's endpoint or key was not configured.
func (r *Registry) Selected() (Transcriber, error) {
	return r.Get(r.selected)
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
