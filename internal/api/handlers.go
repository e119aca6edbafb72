package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/keshavgujrathi/scholariq/internal/analysis"
	"github.com/keshavgujrathi/scholariq/internal/config"
	"github.com/keshavgujrathi/scholariq/internal/health"
	"github.com/keshavgujrathi/scholariq/internal/store"
)

// Version reported by the service info and health endpoints.
const Version = "1.0.0"

// analysisService is the subset of *analysis.Service the handlers use.
// Declaring it as an interface allows test doubles to be injected.
type analysisService interface {
	AnalyzeText(ctx context.Context, text string, opts analysis.Options) (*store.Analysis, error)
	SubmitFile(ctx context.Context, content []byte, filename, contentType, filePath string) (*store.Analysis, error)
	GetStatus(ctx context.Context, id string) (*store.Analysis, error)
	Capabilities() map[string]any
}

// Handler holds the dependencies shared across all HTTP handlers.
type Handler struct {
	svc     analysisService
	probers map[string]health.Prober
	cfg     *config.Config
}

// NewHandler wires the handler set. probers must at least contain the
// "database" probe; a redis probe is added only when caching is enabled.
func NewHandler(svc analysisService, probers map[string]health.Prober, cfg *config.Config) *Handler {
	return &Handler{svc: svc, probers: probers, cfg: cfg}
}

// Root handles GET /. Service name, version, and pointers to docs.
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":     h.cfg.App.Name,
		"version":     Version,
		"environment": h.cfg.App.Env,
		"docs":        "/docs/index.html",
	})
}

// Health handles GET /health: liveness plus a database connectivity field.
// The endpoint itself always answers 200; a broken database is reported in
// the body, not the status code.
func (h *Handler) Health(c *gin.Context) {
	dbStatus := "connected"
	if p, ok := h.probers["database"]; ok {
		if probe := p.Probe(c.Request.Context()); !probe.OK {
			dbStatus = "disconnected"
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   h.cfg.App.Name,
		"version":   Version,
		"database":  dbStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// DeepHealth handles GET /health/deep: probes every dependency
// concurrently and returns 200 only when all are OK.
func (h *Handler) DeepHealth(c *gin.Context) {
	probes := health.Deep(c.Request.Context(), h.probers)

	status := "healthy"
	code := http.StatusOK
	if !health.AllOK(probes) {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":       status,
		"dependencies": probes,
	})
}

// Ready handles GET /ready: 200 once the database schema is reachable.
func (h *Handler) Ready(c *gin.Context) {
	if p, ok := h.probers["database"]; ok {
		if probe := p.Probe(c.Request.Context()); probe.OK {
			c.JSON(http.StatusOK, gin.H{"ready": true})
			return
		}
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false})
}

// analyzeTextRequest is the POST /api/v1/analyze/text body.
type analyzeTextRequest struct {
	Text    string `json:"text" binding:"required"`
	Options *struct {
		ExtractKeyPhrases bool `json:"extract_key_phrases"`
		AnalyzeSentiment  bool `json:"analyze_sentiment"`
		DetectLanguage    bool `json:"detect_language"`
	} `json:"options"`
}

// AnalyzeText handles POST /api/v1/analyze/text. Analysis is synchronous;
// the response carries the completed task.
func (h *Handler) AnalyzeText(c *gin.Context) {
	var req analyzeTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	opts := analysis.DefaultOptions()
	if req.Options != nil {
		opts = analysis.Options{
			ExtractKeyPhrases: req.Options.ExtractKeyPhrases,
			AnalyzeSentiment:  req.Options.AnalyzeSentiment,
			DetectLanguage:    req.Options.DetectLanguage,
		}
	}

	task, err := h.svc.AnalyzeText(c.Request.Context(), req.Text, opts)
	if err != nil {
		if errors.Is(err, analysis.ErrEmptyText) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("Error analyzing text: %v", err)})
		return
	}
	c.JSON(http.StatusOK, taskResponse(task))
}

// AnalyzeFile handles POST /api/v1/analyze/file. The upload is stored
// under the configured upload directory and analyzed asynchronously;
// the response is 202 with the pending task.
func (h *Handler) AnalyzeFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.Upload.MaxSize)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		code := http.StatusUnprocessableEntity
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			code = http.StatusRequestEntityTooLarge
		}
		c.JSON(code, gin.H{"detail": fmt.Sprintf("reading upload: %v", err)})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("reading upload: %v", err)})
		return
	}

	contentType := header.Header.Get("Content-Type")

	// Validate before touching the upload directory so a rejected
	// content type leaves nothing on disk.
	if _, err := analysis.DetectKind(contentType, header.Filename); err != nil {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"detail": err.Error()})
		return
	}

	storedPath := filepath.Join(h.cfg.Upload.Dir, uuid.NewString()+"_"+filepath.Base(header.Filename))
	if err := os.WriteFile(storedPath, content, 0o644); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("storing upload: %v", err)})
		return
	}

	task, err := h.svc.SubmitFile(c.Request.Context(), content, header.Filename, contentType, storedPath)
	if err != nil {
		os.Remove(storedPath)
		switch {
		case errors.Is(err, analysis.ErrUnsupportedType):
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"detail": err.Error()})
		case errors.Is(err, analysis.ErrQueueFull):
			c.JSON(http.StatusServiceUnavailable, gin.H{"detail": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("Error analyzing file: %v", err)})
		}
		return
	}
	c.JSON(http.StatusAccepted, taskResponse(task))
}

// AnalysisStatus handles GET /api/v1/analyze/status/:id.
func (h *Handler) AnalysisStatus(c *gin.Context) {
	task, err := h.svc.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "analysis task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("Error getting analysis status: %v", err)})
		return
	}
	c.JSON(http.StatusOK, taskResponse(task))
}

// Analyzers handles GET /api/v1/analyze/analyzers: capability report.
func (h *Handler) Analyzers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"analyzers": h.svc.Capabilities()})
}

// taskResponse is the wire shape shared by all analysis endpoints.
func taskResponse(a *store.Analysis) gin.H {
	resp := gin.H{
		"task_id":      a.ID,
		"status":       a.Status,
		"content_type": a.ContentType,
		"file_size":    a.FileSize,
		"created_at":   a.CreatedAt.Format(time.RFC3339),
	}
	if a.Title != "" {
		resp["filename"] = a.Title
	}
	if a.Results != nil {
		resp["results"] = a.Results
	}
	if a.Error != "" {
		resp["error"] = a.Error
	}
	if a.CompletedAt != nil {
		resp["completed_at"] = a.CompletedAt.Format(time.RFC3339)
		resp["duration_seconds"] = a.Duration()
	}
	return resp
}
