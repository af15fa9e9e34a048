package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/video-digest/backend/internal/api"
	"github.com/video-digest/backend/internal/auth"
	"github.com/video-digest/backend/internal/cache"
	"github.com/video-digest/backend/internal/config"
	"github.com/video-digest/backend/internal/db"
	"github.com/video-digest/backend/internal/extract"
	"github.com/video-digest/backend/internal/gpu"
	"github.com/video-digest/backend/internal/llm"
	"github.com/video-digest/backend/internal/summarize"
	"github.com/video-digest/backend/internal/transcript"
	"github.com/video-digest/backend/internal/whisper"
	"github.com/video-digest/backend/internal/youtube"
)

type stores struct {
	summaries   cache.Store
	transcripts cache.Store
	database    *db.Database
	closers     []func() error
}

// openStores builds both caches on the configured backend.
func openStores(cfg *config.Config) (*stores, error) {
	policy := cache.ParsePolicy(cfg.CachePolicy)
	s := &stores{}

	switch cfg.CacheBackend {
	case "memory", "":
		s.summaries = cache.NewMemory(cfg.SummaryCacheSize, policy)
		s.transcripts = cache.NewMemory(cfg.TranscriptCacheSize, policy)
	case "redis":
		if cfg.RedisURL == "" {
			return nil, errors.New("REDIS_URL is required when CACHE_BACKEND=redis")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rdb, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, rdb.Close)
		s.summaries = cache.NewRedis(rdb, "digest:summary", cfg.SummaryCacheSize, policy)
		s.transcripts = cache.NewRedis(rdb, "digest:transcript", cfg.TranscriptCacheSize, policy)
	case "sqlite":
		database, err := db.NewSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		s.database = database
		s.closers = append(s.closers, database.Close)
		s.summaries = cache.NewSQLite(database, "summary", cfg.SummaryCacheSize, policy)
		s.transcripts = cache.NewSQLite(database, "transcript", cfg.TranscriptCacheSize, policy)
	default:
		return nil, fmt.Errorf("unknown CACHE_BACKEND %q (memory, redis, sqlite)", cfg.CacheBackend)
	}
	return s, nil
}

func (s *stores) Close() {
	for _, c := range s.closers {
		if err := c(); err != nil {
			log.Printf("close: %v", err)
		}
	}
}

func main() {
	cfg := config.Load()
	if cfg.GeminiAPIKey == "" {
		log.Fatal("GEMINI_API_KEY not set")
	}

	st, err := openStores(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}
	defer st.Close()
	log.Printf("Cache: backend=%s policy=%s summary=%d transcript=%d",
		cfg.CacheBackend, cache.ParsePolicy(cfg.CachePolicy), cfg.SummaryCacheSize, cfg.TranscriptCacheSize)

	// The model can be switched at runtime through /settings when a database is present.
	var resolveModel llm.ModelResolver
	if st.database != nil {
		database := st.database
		resolveModel = func() string { return database.GetSetting("gemini_model", "") }
	}
	gemini := llm.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiAPIBase, cfg.GeminiModel, resolveModel)
	log.Printf("Gemini API configured (%s)", gemini.Model())

	// Detect GPU for the local whisper engine
	gpuInfo := gpu.DetectGPU()
	device, fp16 := gpuInfo.WhisperDevice()
	log.Printf("GPU detection: device=%s fp16=%v", device, fp16)

	registry := whisper.NewRegistry(whisper.Options{
		Engine:       cfg.WhisperEngine,
		CLIPath:      cfg.WhisperPath,
		Model:        cfg.WhisperModel,
		WhisperURL:   cfg.WhisperURL,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
	}, gpuInfo)
	transcriber, err := registry.Selected()
	if err != nil {
		log.Fatalf("Failed to select whisper engine: %v", err)
	}

	acquirer := transcript.NewAcquirer(
		youtube.NewClient(cfg.YtDlpPath, cfg.FetchTimeout),
		transcript.NewCaptionFetcher(cfg.FetchTimeout),
		transcriber,
		st.transcripts,
		transcript.Options{
			MaxDurationSeconds: cfg.MaxVideoSeconds,
			TempDir:            cfg.TempDir,
			Coalesce:           cfg.Coalesce,
		},
	)

	deps := api.Deps{
		Summarizer:      summarize.NewService(gemini, st.summaries),
		Extractor:       extract.New(cfg.FetchTimeout),
		Transcripts:     acquirer,
		SummaryCache:    st.summaries,
		TranscriptCache: st.transcripts,
		JWT:             auth.NewJWTService(cfg.JWTSecret),
	}
	if st.database != nil {
		deps.Settings = st.database
	}
	router := api.NewRouter(deps, cfg)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	idle := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Shutdown: %v", err)
		}
		close(idle)
	}()

	log.Printf("Starting server on %s (transcriber=%s)", addr, transcriber.Name())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
	<-idle
}
