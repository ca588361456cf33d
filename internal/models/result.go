package models

import "time"

type StageTiming struct {
	Stage  Stage `json:"stage"`
	Millis int64 `json:"ms"`
}

// Result is the record of one pipeline run. It is built once when the run
// ends and not modified afterwards.
type Result struct {
	ID          string        `json:"id"`
	Stage       Stage         `json:"stage"`
	FailedStage Stage         `json:"failed_stage,omitempty"`
	Format      OutputFormat  `json:"format"`
	SourceName  string        `json:"source_name"`
	Transcript  string        `json:"transcript,omitempty"`
	Document    string        `json:"document,omitempty"`
	ErrorKind   string        `json:"error_kind,omitempty"`
	Error       string        `json:"error,omitempty"`
	Progress    []string      `json:"progress"`
	Timings     []StageTiming `json:"timings,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Downloadable is true only for completed runs.
func (r *Result) Downloadable() bool {
	return r != nil && r.Stage == StageComplete
}

func (r *Result) DownloadName() string { return r.Format.Filename() }

// DownloadBytes is the completion text exactly as returned by the provider.
func (r *Result) DownloadBytes() []byte { return []byte(r.Document) }
