package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/goscreener/internal/database"
	"github.com/jonesrussell/goscreener/internal/job"
	"github.com/jonesrussell/goscreener/internal/logger"
)

const defaultExecutionsLimit = 50

// ExecutionLister reads recorded execution history.
type ExecutionLister interface {
	ListRecent(ctx context.Context, limit int) ([]database.Execution, error)
}

// Handler serves the crawl endpoints.
type Handler struct {
	runner   Runner
	registry *Registry
	pool     *Pool
	history  ExecutionLister
	log      logger.Interface
}

// NewHandler creates the API handler.
func NewHandler(runner Runner, registry *Registry, pool *Pool, log logger.Interface) *Handler {
	if log == nil {
		log = logger.NewNoOp()
	}
	return &Handler{
		runner:   runner,
		registry: registry,
		pool:     pool,
		log:      log.WithComponent("api"),
	}
}

// SetHistory enables the execution history endpoint. Without it the
// endpoint reports history as unavailable.
func (h *Handler) SetHistory(history ExecutionLister) {
	h.history = history
}

// RegisterRoutes attaches all endpoints to the engine.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)

	v1 := r.Group("/api/v1")
	v1.POST("/crawl", h.crawl)
	v1.POST("/crawl/submit", h.submit)
	v1.GET("/crawl/jobs/:id", h.jobStatus)
	v1.GET("/crawl/executions", h.executions)
}

// crawlRequest mirrors ExecutionParams. Bool fields are pointers so an
// absent field keeps its default rather than forcing false.
type crawlRequest struct {
	Region          string `json:"region"`
	Out             string `json:"out"`
	MaxPages        int    `json:"max_pages"`
	TimeoutSeconds  int    `json:"timeout_seconds"`
	Headless        *bool  `json:"headless"`
	UseCache        *bool  `json:"use_cache"`
	CacheBackend    string `json:"cache_backend"`
	CacheDir        string `json:"cache_dir"`
	CacheTTLMinutes int    `json:"cache_ttl_minutes"`
	RedisAddr       string `json:"redis_addr"`
	RedisPassword   string `json:"redis_password"`
	RedisDB         int    `json:"redis_db"`
	RedisKeyPrefix  string `json:"redis_key_prefix"`
}

func (req *crawlRequest) params() job.ExecutionParams {
	params := job.NewParams(req.Region)
	if req.Out != "" {
		params.OutputPath = req.Out
	}
	if req.MaxPages > 0 {
		params.MaxPages = req.MaxPages
	}
	if req.TimeoutSeconds > 0 {
		params.Timeout = time.Duration(req.TimeoutSeconds) * time.Second
	}
	if req.Headless != nil {
		params.Headless = *req.Headless
	}
	if req.UseCache != nil {
		params.UseCache = *req.UseCache
	}
	if req.CacheBackend != "" {
		params.CacheBackend = req.CacheBackend
	}
	if req.CacheDir != "" {
		params.CacheDir = req.CacheDir
	}
	if req.CacheTTLMinutes > 0 {
		params.CacheTTL = time.Duration(req.CacheTTLMinutes) * time.Minute
	}
	if req.RedisAddr != "" {
		params.RedisAddr = req.RedisAddr
	}
	if req.RedisPassword != "" {
		params.RedisPassword = req.RedisPassword
	}
	if req.RedisDB != 0 {
		params.RedisDB = req.RedisDB
	}
	if req.RedisKeyPrefix != "" {
		params.RedisKeyPrefix = req.RedisKeyPrefix
	}
	return params
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// crawl handles POST /api/v1/crawl: run the job and block until done.
func (h *Handler) crawl(c *gin.Context) {
	var req crawlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}
	if req.Region == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "region is required"})
		return
	}

	start := time.Now()
	result, err := h.runner.Execute(c.Request.Context(), req.params())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, job.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"source":          result.Source,
		"output_path":     result.OutputPath,
		"total_records":   result.TotalRecords,
		"elapsed_seconds": time.Since(start).Seconds(),
	})
}

// submit handles POST /api/v1/crawl/submit: queue the job and return
// its id immediately.
func (h *Handler) submit(c *gin.Context) {
	var req crawlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"accepted": false, "error": "invalid request body"})
		return
	}
	if req.Region == "" {
		c.JSON(http.StatusBadRequest, gin.H{"accepted": false, "error": "region is required"})
		return
	}

	id := h.registry.Add(req.params())
	h.pool.Submit(id)

	c.JSON(http.StatusAccepted, gin.H{
		"accepted": true,
		"job_id":   id,
		"status":   StatusQueued,
	})
}

// jobStatus handles GET /api/v1/crawl/jobs/:id.
func (h *Handler) jobStatus(c *gin.Context) {
	j, ok := h.registry.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	resp := gin.H{
		"job_id":       j.ID,
		"region":       j.Params.Region,
		"status":       j.Status,
		"submitted_at": j.SubmittedAt.Format(time.RFC3339),
	}
	if j.StartedAt != nil {
		resp["started_at"] = j.StartedAt.Format(time.RFC3339)
	}
	if j.FinishedAt != nil {
		resp["finished_at"] = j.FinishedAt.Format(time.RFC3339)
		if j.StartedAt != nil {
			resp["elapsed_seconds"] = j.FinishedAt.Sub(*j.StartedAt).Seconds()
		}
	}
	if j.Result != nil {
		resp["result"] = j.Result
	}
	if j.Error != "" {
		resp["error"] = j.Error
	}

	c.JSON(http.StatusOK, resp)
}

// executions handles GET /api/v1/crawl/executions: recorded history,
// newest first.
func (h *Handler) executions(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "execution history not enabled"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultExecutionsLimit)))
	if err != nil || limit <= 0 {
		limit = defaultExecutionsLimit
	}

	executions, err := h.history.ListRecent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	items := make([]gin.H, 0, len(executions))
	for _, e := range executions {
		item := gin.H{
			"id":         e.ID,
			"region":     e.Region,
			"status":     e.Status,
			"started_at": e.StartedAt.Format(time.RFC3339),
		}
		if e.Source.Valid {
			item["source"] = e.Source.String
		}
		if e.TotalRecords.Valid {
			item["total_records"] = e.TotalRecords.Int64
		}
		if e.OutputPath.Valid {
			item["output_path"] = e.OutputPath.String
		}
		if e.ErrorMessage.Valid {
			item["error"] = e.ErrorMessage.String
		}
		if e.CompletedAt.Valid {
			item["completed_at"] = e.CompletedAt.Time.Format(time.RFC3339)
		}
		if e.DurationMs.Valid {
			item["duration_ms"] = e.DurationMs.Int64
		}
		items = append(items, item)
	}

	c.JSON(http.StatusOK, gin.H{"executions": items, "count": len(items)})
}
