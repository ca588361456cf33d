package transcoder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
)

// Transcoder turns a local video file into a local compressed audio file.
type Transcoder interface {
	ExtractAudio(ctx context.Context, videoPath string) (audioPath string, err error)
}

// TranscodeError is returned for any extraction failure. Stderr holds the
// ffmpeg diagnostics when the process ran.
type TranscodeError struct {
	Input  string
	Stderr string
	Err    error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("transcode %s: %v", filepath.Base(e.Input), e.Err)
}

func (e *TranscodeError) Unwrap() error { return e.Err }

var ErrNoAudio = errors.New("no audio produced")

type FFmpeg struct {
	bin    string
	outDir string
	exec   Executor
}

func NewFFmpeg(bin, outDir string, ex Executor) *FFmpeg {
	if bin == "" {
		bin = "ffmpeg"
	}
	if outDir == "" {
		outDir = os.TempDir()
	}
	if ex == nil {
		ex = NewExecutor()
	}
	return &FFmpeg{bin: bin, outDir: outDir, exec: ex}
}

// Available reports whether the ffmpeg binary can be found.
func (f *FFmpeg) Available() error {
	_, err := exec.LookPath(f.bin)
	return err
}

// ExtractAudio writes <outDir>/<uuid>.mp3 encoded with libmp3lame. The
// output file is removed again if ffmpeg fails or writes nothing.
func (f *FFmpeg) ExtractAudio(ctx context.Context, videoPath string) (string, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return "", &TranscodeError{Input: videoPath, Err: err}
	}

	out := filepath.Join(f.outDir, uuid.NewString()+".mp3")
	args := []string{"-y", "-i", videoPath, "-acodec", "libmp3lame", out}

	if _, err := f.exec.Execute(ctx, f.bin, args...); err != nil {
		_ = os.Remove(out)
		te := &TranscodeError{Input: videoPath, Err: err}
		var ee *ExecError
		if errors.As(err, &ee) {
			te.Stderr = ee.Stderr
		}
		return "", te
	}

	fi, err := os.Stat(out)
	if err != nil || fi.Size() == 0 {
		_ = os.Remove(out)
		return "", &TranscodeError{Input: videoPath, Err: ErrNoAudio}
	}
	return out, nil
}
