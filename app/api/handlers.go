package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/topic-agent/app/database"
	"github.com/lysyi3m/topic-agent/app/topic"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

// NewHandler serves status and history for the given topics. history may be nil when
// run history is disabled; history endpoints then answer 503.
func NewHandler(history database.RunHistory, profiles []*topic.Profile, baseURL, version string) *Handler {
	topics := make(map[string]*topic.Profile, len(profiles))
	topicIDs := make([]string, 0, len(profiles))
	for _, p := range profiles {
		topics[p.ID()] = p
		topicIDs = append(topicIDs, p.ID())
	}

	return &Handler{
		history:   history,
		topics:    topics,
		topicIDs:  topicIDs,
		generator: NewGenerator(version),
		baseURL:   baseURL,
		version:   version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"timestamp":       time.Now().In(time.Local).Format(time.RFC3339),
		"version":         h.version,
		"topics":          len(h.topics),
		"history_enabled": h.history != nil,
	})
}

func (h *Handler) GetStats(c *gin.Context) {
	if !h.requireHistory(c) {
		return
	}

	stats, err := h.history.GetStats(c.Request.Context(), c.Query("topic"))
	if err != nil {
		slog.Error("Database error", "operation", "get_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, statsResponse(stats))
}

// GetTopicFeed renders the topic's most recent replies as RSS.
func (h *Handler) GetTopicFeed(c *gin.Context) {
	profile, ok := h.topics[c.Param("id")]
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	if h.history == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}

	engagements, err := h.history.GetEngagements(c.Request.Context(), profile.ID(), parseLimit(c))
	if err != nil {
		slog.Error("Database error", "operation", "get_engagements", "topic", profile.ID(), "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	baseURL := h.baseURL
	if baseURL == "" {
		baseURL = "http://" + c.Request.Host
	}

	rss, err := h.generator.Run(Channel{
		TopicID:  profile.ID(),
		Title:    profile.Title(),
		SelfLink: baseURL + "/feeds/" + profile.ID(),
	}, engagements)
	if err != nil {
		slog.Error("RSS generation error", "topic", profile.ID(), "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(engagements)))
	c.Header("X-Topic", profile.ID())

	c.String(http.StatusOK, rss)
}

func (h *Handler) APIListTopics(c *gin.Context) {
	topics := make([]gin.H, 0, len(h.topicIDs))

	for _, id := range h.topicIDs {
		profile := h.topics[id]
		settings := profile.Settings()

		info := gin.H{
			"id":             id,
			"title":          profile.Title(),
			"keywords":       len(profile.Keywords()),
			"clearance_mode": settings.Clearance.Mode,
		}

		if h.history != nil {
			if stats, err := h.history.GetStats(c.Request.Context(), id); err == nil {
				info["stats"] = statsResponse(stats)
			}
		}

		topics = append(topics, info)
	}

	c.JSON(http.StatusOK, gin.H{
		"topics": topics,
		"total":  len(topics),
	})
}

func (h *Handler) APIGetTopicRuns(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.topics[id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Topic not found"})
		return
	}
	if !h.requireHistory(c) {
		return
	}

	runs, err := h.history.GetRuns(c.Request.Context(), id, parseLimit(c))
	if err != nil {
		slog.Error("Database error", "operation", "get_runs", "topic", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	out := make([]gin.H, 0, len(runs))
	for _, run := range runs {
		out = append(out, runResponse(run))
	}

	c.JSON(http.StatusOK, gin.H{
		"topic": id,
		"runs":  out,
		"total": len(out),
	})
}

func (h *Handler) APIGetRun(c *gin.Context) {
	if !h.requireHistory(c) {
		return
	}

	runID := c.Param("id")
	detail, err := h.history.GetRun(c.Request.Context(), runID)
	if err != nil {
		slog.Error("Database error", "operation", "get_run", "run", runID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if detail == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}

	response := runResponse(detail.Run)
	response["records"] = detail.Records

	c.JSON(http.StatusOK, response)
}

func (h *Handler) requireHistory(c *gin.Context) bool {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Run history is disabled"})
		return false
	}
	return true
}

func parseLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	return min(limit, maxListLimit)
}

func statsResponse(stats database.Stats) gin.H {
	return gin.H{
		"runs":        stats.Runs,
		"records":     stats.Records,
		"replies":     stats.Replies,
		"last_run_at": stats.LastRunAt,
	}
}

func runResponse(run database.Run) gin.H {
	return gin.H{
		"id":                  run.ID,
		"topic_id":            run.TopicID,
		"mode":                run.Mode,
		"started_at":          run.StartedAt,
		"finished_at":         run.FinishedAt,
		"replies":             run.Replies,
		"interrupted":         run.Interrupted,
		"average_title_words": run.AverageTitleWords,
		"intersection_min":    run.IntersectionMin,
		"record_count":        run.RecordCount,
		"archive_path":        run.ArchivePath,
	}
}
