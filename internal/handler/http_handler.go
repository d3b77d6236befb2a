package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jobradar/search-service/internal/cache"
	"github.com/jobradar/search-service/internal/domain"
	"github.com/jobradar/search-service/internal/history"
	"github.com/jobradar/search-service/internal/scheduler"
	"github.com/jobradar/search-service/internal/searches"
	"github.com/jobradar/search-service/internal/service"
	"github.com/jobradar/search-service/internal/usage"
	"github.com/jobradar/search-service/pkg/log"
	"github.com/jobradar/search-service/pkg/response"
)

// SearchDispatcher is the handler's view of the dispatch layer.
type SearchDispatcher interface {
	RequestSearch(key, title string, req domain.SearchRequest, force bool) cache.Entry
	PollStatus(key string) (cache.Entry, bool)
	CacheStats() cache.Stats
}

// Exporter writes a result set and resolves artifact URLs.
type Exporter interface {
	JobsCSV(ctx context.Context, jobs []domain.Job, baseName string) (string, error)
	JobsJSON(ctx context.Context, jobs []domain.Job, baseName string) (string, error)
	URL(ctx context.Context, key string) (string, error)
}

// HistoryReader lists recent search runs. May be nil.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]history.Record, error)
}

// SchedulerInfo reports the cache-warm scheduler state. May be nil when the
// scheduler is disabled.
type SchedulerInfo interface {
	Status() scheduler.Status
}

// Handler handles HTTP requests for the search service.
type Handler struct {
	dispatcher SearchDispatcher
	jobs       service.JobService
	salary     service.SalaryService
	exporter   Exporter
	usage      usage.Tracker
	history    HistoryReader
	scheduler  SchedulerInfo
}

// NewHandler creates a new HTTP handler.
func NewHandler(
	dispatcher SearchDispatcher,
	jobs service.JobService,
	salary service.SalaryService,
	exporter Exporter,
	tracker usage.Tracker,
	historyReader HistoryReader,
	sched SchedulerInfo,
) *Handler {
	if tracker == nil {
		tracker = usage.Disabled{}
	}
	return &Handler{
		dispatcher: dispatcher,
		jobs:       jobs,
		salary:     salary,
		exporter:   exporter,
		usage:      tracker,
		history:    historyReader,
		scheduler:  sched,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/searches", h.ListSearches)
		api.GET("/search/:id", h.Search)
		api.GET("/search/:id/status", h.SearchStatus)
		api.POST("/search", h.CustomSearch)
		api.POST("/search/:id/export", h.ExportSearch)
		api.GET("/jobs/:id", h.JobDetails)
		api.GET("/salary/:title", h.Salary)
		api.GET("/salary/:title/compare", h.SalaryCompare)
		api.GET("/usage", h.Usage)
		api.GET("/history", h.History)
		api.GET("/stats", h.Stats)
	}
}

// statusBody maps a cache entry to its wire shape. The search and status
// endpoints answer with these shapes directly, unwrapped: clients poll them
// verbatim.
func statusBody(e cache.Entry) gin.H {
	switch e.State {
	case cache.StateSucceeded:
		return gin.H{
			"status": string(cache.StateSucceeded),
			"title":  e.Title,
			"total":  e.ResultCount,
			"jobs":   domain.Views(e.Jobs),
		}
	case cache.StateFailed:
		return gin.H{
			"status": string(cache.StateFailed),
			"error":  e.Err,
		}
	default:
		return gin.H{"status": string(cache.StateRunning)}
	}
}

// ListSearches returns the predefined search catalogue.
func (h *Handler) ListSearches(c *gin.Context) {
	response.Success(c, searches.All())
}

// Search dispatches or polls a predefined search. The response is immediate
// in every branch: running, done with the full payload, or failed.
func (h *Handler) Search(c *gin.Context) {
	id := c.Param("id")
	p, ok := searches.Lookup(id)
	if !ok {
		response.NotFound(c, "unknown search id")
		return
	}

	force := c.Query("force") == "true"
	entry := h.dispatcher.RequestSearch(p.ID, p.Title, p.Request, force)
	c.JSON(http.StatusOK, statusBody(entry))
}

// SearchStatus polls the state of any search key without dispatching.
func (h *Handler) SearchStatus(c *gin.Context) {
	entry, ok := h.dispatcher.PollStatus(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"status": "not_found"})
		return
	}
	c.JSON(http.StatusOK, statusBody(entry))
}

// CustomSearch dispatches a caller-supplied query specification. Identical
// specifications share one cache entry via the derived key.
func (h *Handler) CustomSearch(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid custom search request")
		response.BadRequest(c, err.Error())
		return
	}
	req.Normalize()
	if req.Query == "" {
		response.BadRequest(c, "query is required")
		return
	}

	key := req.CacheKey()
	title := "Custom Search: " + req.Query
	force := c.Query("force") == "true"

	entry := h.dispatcher.RequestSearch(key, title, req, force)

	body := statusBody(entry)
	body["key"] = key
	c.JSON(http.StatusOK, body)
}

// ExportSearch writes a Succeeded entry's payload as CSV or JSON.
func (h *Handler) ExportSearch(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	key := c.Param("id")
	entry, ok := h.dispatcher.PollStatus(key)
	if !ok {
		response.NotFound(c, "unknown search key")
		return
	}
	if entry.State != cache.StateSucceeded {
		response.Conflict(c, "search has no completed results to export")
		return
	}

	format := strings.ToLower(c.DefaultQuery("format", "csv"))

	var artifact string
	var err error
	switch format {
	case "csv":
		artifact, err = h.exporter.JobsCSV(ctx, entry.Jobs, key)
	case "json":
		artifact, err = h.exporter.JobsJSON(ctx, entry.Jobs, key)
	default:
		response.BadRequest(c, "format must be csv or json")
		return
	}
	if err != nil {
		l.Error().Err(err).Str(log.FieldSearchKey, key).Msg("export failed")
		response.InternalError(c, "export failed")
		return
	}

	url, err := h.exporter.URL(ctx, artifact)
	if err != nil {
		l.Warn().Err(err).Str("artifact", artifact).Msg("failed to resolve artifact url")
		url = ""
	}

	response.Success(c, gin.H{"file": artifact, "url": url, "total": entry.ResultCount})
}

// JobDetails fetches one posting synchronously.
func (h *Handler) JobDetails(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	jobID := c.Param("id")
	country := c.DefaultQuery("country", "in")

	job, err := h.jobs.JobDetails(ctx, jobID, country)
	if err != nil {
		if err == service.ErrNoResults {
			response.NotFound(c, "job not found")
			return
		}
		l.Error().Err(err).Str("job_id", jobID).Msg("job details lookup failed")
		response.InternalError(c, "job details lookup failed")
		return
	}

	response.Success(c, job.View())
}

// Salary returns estimated salary observations for a job title.
func (h *Handler) Salary(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	title := c.Param("title")
	location := c.DefaultQuery("location", "india")
	experience := c.DefaultQuery("experience", "ALL")

	estimates, err := h.salary.EstimatedSalary(ctx, title, location, experience)
	if err != nil {
		l.Error().Err(err).Str("job_title", title).Msg("salary lookup failed")
		response.InternalError(c, "salary lookup failed")
		return
	}

	response.Success(c, gin.H{
		"job_title":  title,
		"location":   location,
		"experience": experience,
		"data":       estimates,
	})
}

// SalaryCompare averages median salaries across locations. Locations that
// fail or have no data are simply absent from the result.
func (h *Handler) SalaryCompare(c *gin.Context) {
	ctx := c.Request.Context()

	title := c.Param("title")
	raw := c.Query("locations")
	if raw == "" {
		response.BadRequest(c, "locations is required")
		return
	}

	var locations []string
	for _, loc := range strings.Split(raw, ",") {
		if loc = strings.TrimSpace(loc); loc != "" {
			locations = append(locations, loc)
		}
	}

	experience := c.DefaultQuery("experience", "ALL")
	comparison := h.salary.CompareLocations(ctx, title, locations, experience)

	response.Success(c, gin.H{"job_title": title, "comparison": comparison})
}

// Usage reports the monthly API budget.
func (h *Handler) Usage(c *gin.Context) {
	stats, err := h.usage.Stats(c.Request.Context())
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Msg("usage stats unavailable")
		response.InternalError(c, "usage stats unavailable")
		return
	}
	response.Success(c, stats)
}

// History lists recent search runs.
func (h *Handler) History(c *gin.Context) {
	if h.history == nil {
		response.Success(c, []history.Record{})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	records, err := h.history.Recent(c.Request.Context(), limit)
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Msg("history query failed")
		response.InternalError(c, "history query failed")
		return
	}
	response.Success(c, records)
}

// Stats reports cache state counts, catalogue size and scheduler state.
func (h *Handler) Stats(c *gin.Context) {
	sched := scheduler.Status{}
	if h.scheduler != nil {
		sched = h.scheduler.Status()
	}

	response.Success(c, gin.H{
		"cache":              h.dispatcher.CacheStats(),
		"predefined_queries": len(searches.All()),
		"scheduler":          sched,
	})
}
