package web

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/chaos-io/silhouette/silhouette"
	"github.com/chaos-io/silhouette/util"
)

// ProcessResponse is the JSON body of POST /process.
type ProcessResponse struct {
	Success  bool   `json:"success"`
	ResultID string `json:"result_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

type Handler struct {
	cfg       *Config
	generator *silhouette.Generator
	store     Store
	now       func() time.Time
}

func NewHandler(cfg *Config, generator *silhouette.Generator, store Store) *Handler {
	return &Handler{
		cfg:       cfg,
		generator: generator,
		store:     store,
		now:       time.Now,
	}
}

// ProcessOptions are the pipeline parameters used for uploads.
func ProcessOptions(method silhouette.Method, transparent bool) silhouette.Options {
	opts := silhouette.DefaultOptions()
	opts.Method = method
	opts.Background = silhouette.White
	if transparent {
		opts.Background = silhouette.Transparent
	}
	opts.Smooth = true
	opts.BlurRadius = 1
	opts.VectorStyle = true
	opts.Crop = true
	opts.Padding = 10
	return opts
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, ProcessResponse{Success: false, Error: msg})
}

// Process handles an image upload and renders its silhouette.
func (h *Handler) Process(c *gin.Context) {
	if c.Request.ContentLength > h.cfg.Upload.MaxSize {
		fail(c, http.StatusRequestEntityTooLarge, "File too large")
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.Upload.MaxSize)

	file, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		util.Logger.Warn("failed to get uploaded file", zap.Error(err))
		fail(c, http.StatusBadRequest, "No image file provided")
		return
	}
	if file.Filename == "" {
		fail(c, http.StatusBadRequest, "No file selected")
		return
	}

	method, err := silhouette.ParseMethod(c.DefaultPostForm("method", string(silhouette.MethodAuto)))
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	transparent := c.PostForm("transparent") == "true"

	id := ksuid.New().String()
	input := filepath.Join(h.cfg.Upload.Dir, "input_"+id+filepath.Ext(filepath.Base(file.Filename)))
	output := ResultPath(h.cfg.Upload.Dir, id)

	if err := c.SaveUploadedFile(file, input); err != nil {
		util.Logger.Error("failed to save file", zap.Error(err))
		fail(c, http.StatusInternalServerError, "Failed to save upload")
		return
	}
	defer func() {
		if err := os.Remove(input); err != nil {
			util.Logger.Warn("failed to delete temp file", zap.String("file", input), zap.Error(err))
		}
	}()

	util.Logger.Info("file uploaded",
		zap.String("result_id", id),
		zap.String("filename", file.Filename),
		zap.Int64("size", file.Size),
		zap.String("method", string(method)),
		zap.Bool("transparent", transparent))

	if err := h.generator.Generate(c.Request.Context(), input, output, ProcessOptions(method, transparent)); err != nil {
		util.Logger.Error("failed to create silhouette", zap.String("result_id", id), zap.Error(err))
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.store.Put(c.Request.Context(), Entry{ID: id, Path: output, CreatedAt: h.now()}); err != nil {
		_ = os.Remove(output)
		util.Logger.Error("failed to store result", zap.String("result_id", id), zap.Error(err))
		fail(c, http.StatusInternalServerError, "Failed to store result")
		return
	}

	c.JSON(http.StatusOK, ProcessResponse{Success: true, ResultID: id})
}

// Download sends the result as an attachment.
func (h *Handler) Download(c *gin.Context) {
	id := c.Param("id")
	if path, ok := h.lookup(c, id); ok {
		c.FileAttachment(path, "silhouette_"+id+".png")
	}
}

// Preview sends the result inline.
func (h *Handler) Preview(c *gin.Context) {
	if path, ok := h.lookup(c, c.Param("id")); ok {
		c.File(path)
	}
}

func (h *Handler) lookup(c *gin.Context, id string) (string, bool) {
	e, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrResultNotFound) {
			c.String(http.StatusNotFound, "Result not found")
			return "", false
		}
		util.Logger.Error("failed to get result", zap.String("result_id", id), zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to read result")
		return "", false
	}

	if _, err := os.Stat(e.Path); err != nil {
		c.String(http.StatusNotFound, "File not found")
		return "", false
	}
	return e.Path, true
}

// ResultPath is where the silhouette for id is written.
func ResultPath(dir, id string) string {
	return filepath.Join(dir, "silhouette_"+id+".png")
}
