package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/brdextractor/internal/models"
	"github.com/yoockh/brdextractor/internal/services"
	"github.com/yoockh/brdextractor/internal/storage"
	"github.com/yoockh/brdextractor/internal/utils"
)

const MsgNoFile = "Please upload a video file first!"

type BRDHandler struct {
	svc       services.PipelineService
	files     storage.TempStore
	allowed   []string
	configErr error
}

func NewBRDHandler(svc services.PipelineService, files storage.TempStore, allowed []string) *BRDHandler {
	return &BRDHandler{svc: svc, files: files, allowed: allowed}
}

// NewUnconfiguredBRDHandler serves the form with configErr and refuses
// every submission. No pipeline exists behind it.
func NewUnconfiguredBRDHandler(configErr error, allowed []string) *BRDHandler {
	return &BRDHandler{allowed: allowed, configErr: configErr}
}

type formView struct {
	Configured  bool
	Error       string
	Formats     []models.OutputFormat
	Selected    models.OutputFormat
	Accept      string
	AcceptLabel string
}

type resultView struct {
	Result *models.Result
}

type ResultResponse struct {
	*models.Result
	DownloadName string `json:"download_name,omitempty"`
	DownloadURL  string `json:"download_url,omitempty"`
}

func newResultResponse(res *models.Result) ResultResponse {
	out := ResultResponse{Result: res}
	if res.Downloadable() {
		out.DownloadName = res.DownloadName()
		out.DownloadURL = downloadURL(res.ID)
	}
	return out
}

func downloadURL(id string) string { return "/brd/" + id + "/download" }

func (h *BRDHandler) Form(c *gin.Context) {
	status := http.StatusOK
	msg := ""
	if h.configErr != nil {
		status = utils.HTTPStatus(h.configErr)
		msg = utils.UserMessage(h.configErr)
	}
	h.renderForm(c, status, msg, models.FormatMarkdown)
}

func (h *BRDHandler) renderForm(c *gin.Context, status int, msg string, selected models.OutputFormat) {
	labels := make([]string, len(h.allowed))
	for i, ext := range h.allowed {
		labels[i] = strings.TrimPrefix(ext, ".")
	}
	c.HTML(status, "form.html", formView{
		Configured:  h.configErr == nil,
		Error:       msg,
		Formats:     models.OutputFormats,
		Selected:    selected,
		Accept:      strings.Join(h.allowed, ","),
		AcceptLabel: strings.Join(labels, ", "),
	})
}

// Submit handles the HTML form and renders the result page.
func (h *BRDHandler) Submit(c *gin.Context) {
	res, err := h.process(c)
	if res == nil {
		selected, ok := models.ParseOutputFormat(c.PostForm("format"))
		if !ok {
			selected = models.FormatMarkdown
		}
		_ = c.Error(err)
		h.renderForm(c, utils.HTTPStatus(err), utils.UserMessage(err), selected)
		return
	}

	status := http.StatusOK
	if err != nil {
		_ = c.Error(err)
		status = utils.HTTPStatus(err)
	}
	c.HTML(status, "result.html", resultView{Result: res})
}

// APISubmit is Submit for scripted clients.
func (h *BRDHandler) APISubmit(c *gin.Context) {
	res, err := h.process(c)
	if res == nil {
		writeError(c, err)
		return
	}

	status := http.StatusOK
	if err != nil {
		_ = c.Error(err)
		status = utils.HTTPStatus(err)
	}
	c.JSON(status, newResultResponse(res))
}

func (h *BRDHandler) APIGet(c *gin.Context) {
	res, err := h.lookup(c)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newResultResponse(res))
}

// Download sends the generated document verbatim as BRD.<format>.
func (h *BRDHandler) Download(c *gin.Context) {
	const op = "BRDHandler.Download"

	res, err := h.lookup(c)
	if err != nil {
		writeError(c, err)
		return
	}
	if !res.Downloadable() {
		writeError(c, utils.E(utils.CodeConflict, op, "no document available for this result", nil))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.DownloadName()))
	c.Data(http.StatusOK, "application/octet-stream", res.DownloadBytes())
}

func (h *BRDHandler) lookup(c *gin.Context) (*models.Result, error) {
	if h.configErr != nil {
		return nil, h.configErr
	}
	return h.svc.Get(c.Request.Context(), c.Param("id"))
}

// process validates the form, stores the upload and runs the pipeline.
// A nil result means nothing ran.
func (h *BRDHandler) process(c *gin.Context) (*models.Result, error) {
	const op = "BRDHandler.Submit"

	if h.configErr != nil {
		return nil, h.configErr
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large") {
			return nil, utils.E(utils.CodeTooLarge, op, "file too large", err)
		}
		return nil, utils.E(utils.CodeInvalidArgument, op, MsgNoFile, err)
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !h.svc.Allowed(ext) {
		releaseForm(c)
		return nil, utils.E(utils.CodeInvalidArgument, op,
			fmt.Sprintf("unsupported file type %q (allowed: %s)", ext, strings.Join(h.allowed, ", ")), nil)
	}

	format := models.FormatMarkdown
	if v := c.PostForm("format"); v != "" {
		f, ok := models.ParseOutputFormat(v)
		if !ok {
			releaseForm(c)
			return nil, utils.E(utils.CodeInvalidArgument, op, fmt.Sprintf("unsupported output format %q", v), nil)
		}
		format = f
	}

	file, err := fh.Open()
	if err != nil {
		releaseForm(c)
		return nil, utils.E(utils.CodeInternal, op, "failed to open upload", err)
	}
	path, size, err := h.files.SaveUpload(file, ext)
	_ = file.Close()
	// Large parts are spooled to $TMPDIR by mime/multipart. That copy must
	// be gone before the pipeline runs so only the saved upload remains.
	releaseForm(c)
	if err != nil {
		return nil, err
	}

	res, err := h.svc.Run(c.Request.Context(), services.RunInput{
		Upload: models.Upload{
			FileName: filepath.Base(fh.Filename),
			Ext:      ext,
			Size:     size,
			Path:     path,
		},
		Format: format,
	})
	if res != nil {
		c.Set("run_id", res.ID)
	}
	return res, err
}

func releaseForm(c *gin.Context) {
	if f := c.Request.MultipartForm; f != nil {
		_ = f.RemoveAll()
	}
}
