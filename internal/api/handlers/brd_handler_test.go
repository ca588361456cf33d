package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/brdextractor/internal/api/handlers"
	"github.com/yoockh/brdextractor/internal/api/routes"
	"github.com/yoockh/brdextractor/internal/repositories"
	"github.com/yoockh/brdextractor/internal/services"
	"github.com/yoockh/brdextractor/internal/storage"
	"github.com/yoockh/brdextractor/internal/utils"
	"github.com/yoockh/brdextractor/internal/web"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeTranscoder struct {
	dir   string
	err   error
	calls int
}

func (f *fakeTranscoder) ExtractAudio(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	p := filepath.Join(f.dir, "X.mp3")
	return p, os.WriteFile(p, []byte("ID3"), 0o600)
}

type fakeSTT struct {
	text   string
	err    error
	calls  int
	during func()
}

func (f *fakeSTT) Transcribe(ctx context.Context, _ string) (string, error) {
	f.calls++
	if f.during != nil {
		f.during()
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.text, f.err
}
func (f *fakeSTT) Close() error { return nil }

type fakeLLM struct {
	doc   string
	err   error
	calls int
}

func (f *fakeLLM) Complete(context.Context, string) (string, error) {
	f.calls++
	return f.doc, f.err
}
func (f *fakeLLM) Close() error { return nil }

type env struct {
	router *gin.Engine
	dir    string
	tc     *fakeTranscoder
	stt    *fakeSTT
	llm    *fakeLLM
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	e := &env{
		dir: dir,
		tc:  &fakeTranscoder{dir: dir},
		stt: &fakeSTT{text: "Hello world"},
		llm: &fakeLLM{doc: "# BRD\n..."},
	}

	allowed := []string{".mp4", ".mkv", ".mov"}
	files := storage.NewTempFiles(dir, 1<<20)
	svc, err := services.NewPipelineService(services.PipelineDeps{
		Transcoder:        e.tc,
		STT:               e.stt,
		LLM:               e.llm,
		Files:             files,
		Results:           repositories.NewMemoryResultRepo(time.Hour, nil),
		Logger:            logger,
		AllowedExtensions: allowed,
	})
	if err != nil {
		t.Fatal(err)
	}

	r := gin.New()
	r.SetHTMLTemplate(web.Templates())
	routes.RegisterRoutes(r, routes.Deps{
		BRD:            handlers.NewBRDHandler(svc, files, allowed),
		RateLimitRPM:   600,
		RateLimitBurst: 100,
		MaxBodyBytes:   2 << 20,
	})
	e.router = r
	return e
}

func multipartBody(t *testing.T, filename, content, format string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = fw.Write([]byte(content))
	}
	if format != "" {
		_ = w.WriteField("format", format)
	}
	_ = w.Close()
	return &buf, w.FormDataContentType()
}

func (e *env) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) submitAPI(t *testing.T, filename, format string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	body, ct := multipartBody(t, filename, "fake video bytes", format)
	w := e.do(t, http.MethodPost, "/api/v1/brd", body, ct)
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestSubmitAndDownload(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		format   string
		wantName string
	}{
		{"markdown label", "meeting.mp4", "Markdown", "BRD.markdown"},
		{"json label is not re-encoded", "meeting.mp4", "JSON", "BRD.json"},
		{"default format", "meeting.mkv", "", "BRD.markdown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)

			w, out := e.submitAPI(t, tt.file, tt.format)
			if w.Code != http.StatusOK {
				t.Fatalf("submit status = %d, body %s", w.Code, w.Body)
			}
			if out["transcript"] != "Hello world" || out["download_name"] != tt.wantName {
				t.Fatalf("submit body = %v", out)
			}

			dl := e.do(t, http.MethodGet, out["download_url"].(string), nil, "")
			if dl.Code != http.StatusOK {
				t.Fatalf("download status = %d", dl.Code)
			}
			if got := dl.Header().Get("Content-Disposition"); got != `attachment; filename="`+tt.wantName+`"` {
				t.Errorf("Content-Disposition = %q", got)
			}
			if dl.Body.String() != "# BRD\n..." {
				t.Errorf("download bytes = %q, want raw completion text", dl.Body.String())
			}
		})
	}
}

func TestSubmitHTMLRendersResult(t *testing.T) {
	e := newEnv(t)
	body, ct := multipartBody(t, "meeting.mov", "video", "Markdown")

	w := e.do(t, http.MethodPost, "/brd", body, ct)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	page := w.Body.String()
	for _, want := range []string{"Hello world", "Extracting audio...", "Analyzing transcript...", "<h1>BRD</h1>", "/download", "Download BRD.markdown"} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestSubmitRejections(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		format   string
		wantCode int
		wantMsg  string
	}{
		{"no file", "", "Markdown", http.StatusBadRequest, handlers.MsgNoFile},
		{"unsupported extension", "meeting.avi", "Markdown", http.StatusBadRequest, "unsupported file type"},
		{"unknown format", "meeting.mp4", "YAML", http.StatusBadRequest, "unsupported output format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)

			w, out := e.submitAPI(t, tt.file, tt.format)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantCode, w.Body)
			}
			if msg, _ := out["message"].(string); !strings.Contains(msg, tt.wantMsg) {
				t.Errorf("message = %q, want %q", msg, tt.wantMsg)
			}
			if e.tc.calls != 0 || e.stt.calls != 0 || e.llm.calls != 0 {
				t.Errorf("stages invoked: %d/%d/%d", e.tc.calls, e.stt.calls, e.llm.calls)
			}
			if entries, _ := os.ReadDir(e.dir); len(entries) != 0 {
				t.Errorf("temp dir has %d leftover files", len(entries))
			}
		})
	}
}

func TestSubmitHTMLNoFileShowsForm(t *testing.T) {
	e := newEnv(t)
	body, ct := multipartBody(t, "", "", "JSON")

	w := e.do(t, http.MethodPost, "/brd", body, ct)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), handlers.MsgNoFile) || !strings.Contains(w.Body.String(), `<option value="JSON" selected>`) {
		t.Errorf("form page = %s", w.Body)
	}
}

func TestStageFailureResponses(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(e *env)
		wantKind utils.Kind
		wantMsg  string
	}{
		{
			name:     "transcoding",
			setup:    func(e *env) { e.tc.err = errors.New("exit status 1") },
			wantKind: utils.KindTranscoding,
			wantMsg:  utils.MsgTranscoding,
		},
		{
			name:     "transcription",
			setup:    func(e *env) { e.stt.err = errors.New("upload failed") },
			wantKind: utils.KindTranscription,
			wantMsg:  utils.MsgTranscription,
		},
		{
			name:     "completion",
			setup:    func(e *env) { e.llm.err = errors.New("context length exceeded") },
			wantKind: utils.KindCompletion,
			wantMsg:  utils.MsgCompletion + ": context length exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			tt.setup(e)

			w, out := e.submitAPI(t, "meeting.mp4", "Markdown")
			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d", w.Code)
			}
			if out["error_kind"] != string(tt.wantKind) || out["error"] != tt.wantMsg {
				t.Errorf("body = %v", out)
			}
			if _, ok := out["download_url"]; ok {
				t.Error("failed run offered a download")
			}

			dl := e.do(t, http.MethodGet, "/brd/"+out["id"].(string)+"/download", nil, "")
			if dl.Code != http.StatusConflict {
				t.Errorf("download status = %d, want 409", dl.Code)
			}

			body, ct := multipartBody(t, "meeting.mp4", "video", "Markdown")
			page := e.do(t, http.MethodPost, "/brd", body, ct)
			if page.Code != http.StatusUnprocessableEntity || strings.Contains(page.Body.String(), "/download") {
				t.Errorf("result page status = %d, download link present = %v", page.Code, strings.Contains(page.Body.String(), "/download"))
			}
		})
	}
}

func TestLookupUnknown(t *testing.T) {
	e := newEnv(t)

	for _, path := range []string{"/brd/missing/download", "/api/v1/brd/missing"} {
		if w := e.do(t, http.MethodGet, path, nil, ""); w.Code != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", path, w.Code)
		}
	}
}

func TestAPIGet(t *testing.T) {
	e := newEnv(t)
	_, out := e.submitAPI(t, "meeting.mp4", "JSON")

	w := e.do(t, http.MethodGet, "/api/v1/brd/"+out["id"].(string), nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got["stage"] != "complete" || got["format"] != "JSON" || got["document"] != "# BRD\n..." {
		t.Errorf("body = %v", got)
	}
}

func TestUnconfiguredHandler(t *testing.T) {
	cfgErr := utils.Configuration("test", errors.New("OPENAI_API_KEY is not set"))

	r := gin.New()
	r.SetHTMLTemplate(web.Templates())
	routes.RegisterRoutes(r, routes.Deps{
		BRD:            handlers.NewUnconfiguredBRDHandler(cfgErr, []string{".mp4"}),
		RateLimitRPM:   600,
		RateLimitBurst: 100,
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), "API keys not found!") {
		t.Errorf("form = %d %s", w.Code, w.Body)
	}
	if strings.Contains(w.Body.String(), "<form") {
		t.Error("unconfigured page should not offer the form")
	}

	body, ct := multipartBody(t, "meeting.mp4", "video", "Markdown")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/brd", body)
	req.Header.Set("Content-Type", ct)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("submit = %d, want 503", w.Code)
	}
}

func TestSubmitLeavesNoMultipartSpool(t *testing.T) {
	e := newEnv(t)
	spool := t.TempDir()
	t.Setenv("TMPDIR", spool)
	// force the file part onto disk
	e.router.MaxMultipartMemory = 1 << 10

	var leftover []string
	e.stt.during = func() {
		entries, _ := os.ReadDir(spool)
		for _, ent := range entries {
			if strings.HasPrefix(ent.Name(), "multipart-") {
				leftover = append(leftover, ent.Name())
			}
		}
	}

	body, ct := multipartBody(t, "meeting.mp4", strings.Repeat("v", 64<<10), "Markdown")
	w := e.do(t, http.MethodPost, "/api/v1/brd", body, ct)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d %s", w.Code, w.Body)
	}
	if e.stt.calls != 1 {
		t.Fatalf("stt calls = %d", e.stt.calls)
	}
	if len(leftover) != 0 {
		t.Errorf("video still on disk during transcription: %v", leftover)
	}
}

func TestSubmitSurvivesClientDisconnect(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.stt.during = cancel

	body, ct := multipartBody(t, "meeting.mp4", "video", "Markdown")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/brd", body).WithContext(ctx)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if w.Code != http.StatusOK || out["stage"] != "complete" {
		t.Fatalf("status = %d, body = %v", w.Code, out)
	}
	if e.llm.calls != 1 {
		t.Errorf("llm calls = %d, want 1", e.llm.calls)
	}
}
