package models

import "fmt"

// Stage is the position of one submission in the extraction pipeline.
// Stages only move forward; Failed and Complete are terminal.
type Stage int

const (
	StageIdle Stage = iota
	StageExtractingAudio
	StageTranscribing
	StageSummarizing
	StageComplete
	StageFailed
)

var stageNames = [...]string{
	StageIdle:            "idle",
	StageExtractingAudio: "extracting_audio",
	StageTranscribing:    "transcribing",
	StageSummarizing:     "summarizing",
	StageComplete:        "complete",
	StageFailed:          "failed",
}

// progress lines shown while a stage runs
var stageLabels = [...]string{
	StageExtractingAudio: "Extracting audio...",
	StageTranscribing:    "Generating transcript...",
	StageSummarizing:     "Analyzing transcript...",
	StageComplete:        "BRD generated.",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

func (s Stage) Label() string {
	if s < 0 || int(s) >= len(stageLabels) {
		return ""
	}
	return stageLabels[s]
}

// Next is the forward transition. Terminal stages return themselves.
func (s Stage) Next() Stage {
	switch s {
	case StageIdle, StageExtractingAudio, StageTranscribing, StageSummarizing:
		return s + 1
	default:
		return s
	}
}

func (s Stage) Terminal() bool { return s == StageComplete || s == StageFailed }

func (s Stage) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Stage) UnmarshalText(b []byte) error {
	for i, name := range stageNames {
		if name == string(b) {
			*s = Stage(i)
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", b)
}
