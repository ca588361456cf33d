package transcoder

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

type fakeExecutor struct {
	calls  [][]string
	write  []byte
	err    error
	stderr string
}

func (f *fakeExecutor) Execute(_ context.Context, name string, args ...string) (string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	out := args[len(args)-1]
	if f.write != nil {
		if err := os.WriteFile(out, f.write, 0o600); err != nil {
			return "", err
		}
	}
	if f.err != nil {
		return "", &ExecError{Command: name, Stderr: f.stderr, Err: f.err}
	}
	return "", nil
}

func writeVideo(t *testing.T, dir string) string {
	t.Helper()
	p := filepath.Join(dir, "meeting.mp4")
	if err := os.WriteFile(p, []byte("not really a video"), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestFFmpegExtractAudio(t *testing.T) {
	dir := t.TempDir()
	video := writeVideo(t, dir)

	tests := []struct {
		name       string
		exec       *fakeExecutor
		video      string
		wantErr    error
		wantStderr string
	}{
		{
			name:  "success",
			exec:  &fakeExecutor{write: []byte("ID3")},
			video: video,
		},
		{
			name:       "ffmpeg fails",
			exec:       &fakeExecutor{write: []byte("partial"), err: errors.New("exit status 1"), stderr: "Invalid data found"},
			video:      video,
			wantStderr: "Invalid data found",
		},
		{
			name:    "empty output",
			exec:    &fakeExecutor{write: []byte{}},
			video:   video,
			wantErr: ErrNoAudio,
		},
		{
			name:    "missing input",
			exec:    &fakeExecutor{},
			video:   filepath.Join(dir, "gone.mov"),
			wantErr: os.ErrNotExist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outDir := t.TempDir()
			f := NewFFmpeg("ffmpeg", outDir, tt.exec)

			got, err := f.ExtractAudio(context.Background(), tt.video)

			fail := tt.wantErr != nil || tt.wantStderr != ""
			if fail {
				var te *TranscodeError
				if !errors.As(err, &te) {
					t.Fatalf("error = %v, want *TranscodeError", err)
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				if te.Stderr != tt.wantStderr {
					t.Errorf("Stderr = %q, want %q", te.Stderr, tt.wantStderr)
				}
				if entries, _ := os.ReadDir(outDir); len(entries) != 0 {
					t.Errorf("output dir not cleaned: %d entries", len(entries))
				}
				return
			}

			if err != nil {
				t.Fatalf("ExtractAudio() error = %v", err)
			}
			if filepath.Dir(got) != outDir || filepath.Ext(got) != ".mp3" {
				t.Errorf("audio path = %q", got)
			}
			args := strings.Join(tt.exec.calls[0], " ")
			if !strings.Contains(args, "-acodec libmp3lame") || !strings.Contains(args, "-i "+tt.video) {
				t.Errorf("ffmpeg args = %q", args)
			}
		})
	}
}

func TestExecutorCapturesStderr(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	_, err := NewExecutor().Execute(context.Background(), "sh", "-c", "echo boom >&2; exit 3")

	var ee *ExecError
	if !errors.As(err, &ee) {
		t.Fatalf("error = %v, want *ExecError", err)
	}
	if !strings.Contains(ee.Stderr, "boom") {
		t.Errorf("Stderr = %q, want boom", ee.Stderr)
	}
}
