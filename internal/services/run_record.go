package services

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/brdextractor/internal/models"
	"github.com/yoockh/brdextractor/internal/utils"
)

// runRecord accumulates progress for one Run. Only the models.Result it
// produces leaves the service.
type runRecord struct {
	id       string
	in       RunInput
	now      func() time.Time
	created  time.Time
	stage    models.Stage
	started  time.Time
	progress []string
	timings  []models.StageTiming
}

func newRun(id string, in RunInput, now func() time.Time) *runRecord {
	t := now()
	return &runRecord{id: id, in: in, now: now, created: t, stage: models.StageIdle}
}

func (r *runRecord) enter(log *logrus.Entry) {
	r.stage = r.stage.Next()
	r.started = r.now()
	r.note(r.stage.Label())
	log.WithField("stage", r.stage.String()).Info(r.stage.Label())
}

func (r *runRecord) leave() {
	r.timings = append(r.timings, models.StageTiming{
		Stage:  r.stage,
		Millis: r.now().Sub(r.started).Milliseconds(),
	})
}

func (r *runRecord) note(msg string) {
	if msg != "" {
		r.progress = append(r.progress, msg)
	}
}

func (r *runRecord) base() *models.Result {
	return &models.Result{
		ID:         r.id,
		Format:     r.in.Format,
		SourceName: r.in.Upload.FileName,
		Progress:   r.progress,
		Timings:    r.timings,
		CreatedAt:  r.created,
	}
}

// failed drops every intermediate output; a failed run keeps only the
// error and the progress lines.
func (r *runRecord) failed(err error) *models.Result {
	r.leave()
	res := r.base()
	res.Stage = models.StageFailed
	res.FailedStage = r.stage
	res.ErrorKind = string(utils.KindOf(err))
	res.Error = utils.UserMessage(err)
	return res
}

func (r *runRecord) complete(log *logrus.Entry, transcript, document string) *models.Result {
	r.stage = r.stage.Next()
	r.note(r.stage.Label())

	res := r.base()
	res.Stage = r.stage
	res.Transcript = transcript
	res.Document = document

	log.WithFields(logrus.Fields{
		"stage":          res.Stage.String(),
		"transcript_len": len(transcript),
		"document_len":   len(document),
		"total_ms":       r.now().Sub(r.created).Milliseconds(),
	}).Info("pipeline complete")
	return res
}
