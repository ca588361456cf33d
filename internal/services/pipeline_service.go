package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/brdextractor/internal/models"
	"github.com/yoockh/brdextractor/internal/providers/llm"
	"github.com/yoockh/brdextractor/internal/providers/stt"
	"github.com/yoockh/brdextractor/internal/repositories"
	"github.com/yoockh/brdextractor/internal/storage"
	"github.com/yoockh/brdextractor/internal/transcoder"
	"github.com/yoockh/brdextractor/internal/utils"
)

type PipelineService interface {
	// Run takes ownership of in.Upload.Path and removes it. A stage
	// failure returns both a Failed result and a *utils.PipelineError.
	// Cancelling ctx does not stop a run; only the pipeline timeout does.
	Run(ctx context.Context, in RunInput) (*models.Result, error)
	Get(ctx context.Context, id string) (*models.Result, error)
	Allowed(ext string) bool
}

type RunInput struct {
	Upload models.Upload
	Format models.OutputFormat
}

type PipelineDeps struct {
	Transcoder transcoder.Transcoder
	STT        stt.Provider
	LLM        llm.Provider
	Files      storage.TempStore
	Results    repositories.ResultRepository
	Logger     *logrus.Logger

	AllowedExtensions []string
	Timeout           time.Duration
	Now               func() time.Time
}

type pipelineService struct {
	transcoder transcoder.Transcoder
	stt        stt.Provider
	llm        llm.Provider
	files      storage.TempStore
	results    repositories.ResultRepository
	logger     *logrus.Logger

	allowed []string
	timeout time.Duration
	now     func() time.Time
}

func NewPipelineService(d PipelineDeps) (PipelineService, error) {
	const op = "NewPipelineService"

	if d.Transcoder == nil || d.STT == nil || d.LLM == nil || d.Files == nil || d.Results == nil {
		return nil, utils.E(utils.CodeInternal, op, "pipeline missing dependency: Transcoder/STT/LLM/Files/Results must be set", nil)
	}
	if len(d.AllowedExtensions) == 0 {
		return nil, utils.E(utils.CodeInternal, op, "no allowed extensions configured", nil)
	}
	if d.Logger == nil {
		d.Logger = logrus.New()
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	return &pipelineService{
		transcoder: d.Transcoder,
		stt:        d.STT,
		llm:        d.LLM,
		files:      d.Files,
		results:    d.Results,
		logger:     d.Logger,
		allowed:    d.AllowedExtensions,
		timeout:    d.Timeout,
		now:        d.Now,
	}, nil
}

func (s *pipelineService) Allowed(ext string) bool {
	return slices.Contains(s.allowed, strings.ToLower(ext))
}

func (s *pipelineService) Run(ctx context.Context, in RunInput) (*models.Result, error) {
	const op = "PipelineService.Run"

	if !s.Allowed(in.Upload.Ext) {
		s.removeVideo(in.Upload.Path)
		return nil, utils.E(utils.CodeInvalidArgument, op, "unsupported file type "+in.Upload.Ext, nil)
	}
	if _, ok := models.ParseOutputFormat(string(in.Format)); !ok {
		s.removeVideo(in.Upload.Path)
		return nil, utils.E(utils.CodeInvalidArgument, op, "unsupported output format "+string(in.Format), nil)
	}

	ctx = context.WithoutCancel(ctx)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	run := newRun(uuid.NewString(), in, s.now)
	log := s.logger.WithFields(logrus.Fields{
		"run_id": run.id,
		"file":   in.Upload.FileName,
		"format": in.Format,
	})

	// ExtractingAudio
	run.enter(log)
	audioPath, err := s.transcoder.ExtractAudio(ctx, in.Upload.Path)
	s.removeVideo(in.Upload.Path)
	if err != nil {
		var te *transcoder.TranscodeError
		if errors.As(err, &te) && te.Stderr != "" {
			log = log.WithField("stderr", te.Stderr)
		}
		return s.fail(ctx, log, run, utils.Transcoding(op, err))
	}
	defer s.cleanup(log, audioPath)
	run.note("Audio extracted successfully!")
	run.leave()

	// Transcribing
	run.enter(log)
	transcript, err := s.stt.Transcribe(ctx, audioPath)
	if err == nil && strings.TrimSpace(transcript) == "" {
		err = stt.ErrEmptyTranscript
	}
	if err != nil {
		return s.fail(ctx, log, run, utils.Transcription(op, err))
	}
	run.leave()

	// Summarizing
	run.enter(log)
	document, err := s.llm.Complete(ctx, BuildPrompt(transcript))
	if err != nil {
		return s.fail(ctx, log, run, utils.Completion(op, err))
	}
	run.leave()

	res := run.complete(log, transcript, document)
	if err := s.results.Save(ctx, res); err != nil {
		log.WithError(err).Error("failed to store result")
		return nil, utils.E(utils.CodeUnavailable, op, "failed to store result", err)
	}
	return res, nil
}

func (s *pipelineService) Get(ctx context.Context, id string) (*models.Result, error) {
	const op = "PipelineService.Get"

	if id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "result id is required", nil)
	}
	res, err := s.results.Get(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "result not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load result", err)
	}
	return res, nil
}

// fail records the failed result so the result page can be rendered again,
// then returns it together with the stage error.
func (s *pipelineService) fail(ctx context.Context, log *logrus.Entry, run *runRecord, perr error) (*models.Result, error) {
	res := run.failed(perr)
	log.WithError(perr).WithField("stage", res.FailedStage.String()).Error("pipeline failed")

	// ctx may already be past the pipeline timeout
	if err := s.results.Save(context.WithoutCancel(ctx), res); err != nil {
		log.WithError(err).Warn("failed to store failed result")
	}
	return res, perr
}

func (s *pipelineService) removeVideo(path string) {
	if err := s.files.Remove(path); err != nil {
		s.logger.WithError(err).WithField("path", path).Warn("failed to remove video")
	}
}

func (s *pipelineService) cleanup(log *logrus.Entry, path string) {
	if err := s.files.Remove(path); err != nil {
		log.WithError(err).WithField("path", path).Warn("failed to remove audio")
	}
}
