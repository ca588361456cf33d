package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/brdextractor/config"
	"github.com/yoockh/brdextractor/internal/api/handlers"
	"github.com/yoockh/brdextractor/internal/api/middleware"
	"github.com/yoockh/brdextractor/internal/api/routes"
	"github.com/yoockh/brdextractor/internal/cache"
	"github.com/yoockh/brdextractor/internal/providers/llm"
	"github.com/yoockh/brdextractor/internal/providers/stt"
	"github.com/yoockh/brdextractor/internal/repositories"
	"github.com/yoockh/brdextractor/internal/services"
	"github.com/yoockh/brdextractor/internal/storage"
	"github.com/yoockh/brdextractor/internal/transcoder"
	"github.com/yoockh/brdextractor/internal/utils"
	"github.com/yoockh/brdextractor/internal/web"
)

// Factories build the external collaborators. Tests swap them for fakes.
type Factories struct {
	STT        func(ctx context.Context, cfg *config.Config) (stt.Provider, error)
	LLM        func(ctx context.Context, cfg *config.Config) (llm.Provider, error)
	Transcoder func(cfg *config.Config, log *logrus.Logger) transcoder.Transcoder
	Results    func(ctx context.Context, cfg *config.Config) (repositories.ResultRepository, func() error, error)
}

func DefaultFactories() Factories {
	return Factories{
		STT:        newSTT,
		LLM:        newLLM,
		Transcoder: newTranscoder,
		Results:    newResults,
	}
}

func newSTT(_ context.Context, cfg *config.Config) (stt.Provider, error) {
	switch cfg.STTProvider {
	case config.STTWhisper:
		return stt.NewWhisper(cfg.OpenAIAPIKey, ""), nil
	default:
		return stt.NewAssemblyAI(cfg.AssemblyAIAPIKey), nil
	}
}

func newLLM(ctx context.Context, cfg *config.Config) (llm.Provider, error) {
	switch cfg.LLMProvider {
	case config.LLMVertex:
		return llm.NewVertexGemini(ctx, cfg.VertexProjectID, cfg.VertexLocation, cfg.VertexModel)
	default:
		return llm.NewOpenAI(cfg.OpenAIAPIKey, "", cfg.LLMModel), nil
	}
}

func newTranscoder(cfg *config.Config, log *logrus.Logger) transcoder.Transcoder {
	f := transcoder.NewFFmpeg(cfg.FFmpegPath, cfg.TempDir, nil)
	if err := f.Available(); err != nil {
		log.WithError(err).WithField("ffmpeg", cfg.FFmpegPath).Warn("ffmpeg not found; every extraction will fail")
	}
	return f
}

func newResults(ctx context.Context, cfg *config.Config) (repositories.ResultRepository, func() error, error) {
	if cfg.RedisAddr == "" {
		return repositories.NewMemoryResultRepo(cfg.ResultTTL, nil), nil, nil
	}
	rdb, err := config.NewRedisClient(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, nil, err
	}
	return repositories.NewCacheResultRepo(cache.NewRedisCache(rdb, "brd:"), cfg.ResultTTL), rdb.Close, nil
}

type Server struct {
	Engine     *gin.Engine
	Configured bool

	http    *http.Server
	log     *logrus.Logger
	closers []func() error
}

// New validates cfg and wires the application. Missing credentials do not
// fail New: the server comes up unconfigured, shows the error on every
// page, and never constructs a provider.
func New(ctx context.Context, cfg *config.Config, log *logrus.Logger, f Factories) (*Server, error) {
	const op = "server.New"

	s := &Server{log: log}

	var brd *handlers.BRDHandler
	if err := cfg.Validate(); err != nil {
		if utils.KindOf(err) != utils.KindConfiguration {
			return nil, err
		}
		log.WithError(err).Error(utils.MsgMissingCredentials)
		brd = handlers.NewUnconfiguredBRDHandler(err, cfg.AllowedExtensions)
	} else {
		h, err := s.wire(ctx, cfg, log, f)
		if err != nil {
			_ = s.close()
			return nil, utils.E(utils.CodeInternal, op, "failed to initialise providers", err)
		}
		brd = h
		s.Configured = true
	}

	// an unconfigured server may not have reached the mode check
	switch cfg.GinMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.GinMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	r.SetHTMLTemplate(web.Templates())
	r.MaxMultipartMemory = 32 << 20

	routes.RegisterRoutes(r, routes.Deps{
		BRD:            brd,
		RateLimitRPM:   cfg.RateLimitRPM,
		RateLimitBurst: cfg.RateLimitBurst,
		// multipart framing on top of the file itself
		MaxBodyBytes: cfg.MaxUploadBytes() + 1<<20,
	})

	s.Engine = r
	s.http = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) wire(ctx context.Context, cfg *config.Config, log *logrus.Logger, f Factories) (*handlers.BRDHandler, error) {
	sttProvider, err := f.STT(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, sttProvider.Close)

	llmProvider, err := f.LLM(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, llmProvider.Close)

	results, closeResults, err := f.Results(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if closeResults != nil {
		s.closers = append(s.closers, closeResults)
	}

	files := storage.NewTempFiles(cfg.TempDir, cfg.MaxUploadBytes())

	svc, err := services.NewPipelineService(services.PipelineDeps{
		Transcoder:        f.Transcoder(cfg, log),
		STT:               sttProvider,
		LLM:               llmProvider,
		Files:             files,
		Results:           results,
		Logger:            log,
		AllowedExtensions: cfg.AllowedExtensions,
		Timeout:           cfg.PipelineTimeout,
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"stt":   cfg.STTProvider,
		"llm":   cfg.LLMProvider,
		"model": cfg.LLMModel,
		"redis": cfg.RedisAddr != "",
	}).Info("pipeline ready")

	return handlers.NewBRDHandler(svc, files, cfg.AllowedExtensions), nil
}

// Run blocks until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.log.WithField("addr", s.http.Addr).Info("listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	var result *multierror.Error
	if err := s.http.Shutdown(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	if err := s.close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

func (s *Server) close() error {
	var result *multierror.Error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			result = multierror.Append(result, err)
		}
	}
	s.closers = nil
	return result.ErrorOrNil()
}
