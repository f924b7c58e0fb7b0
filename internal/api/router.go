// Package api implements the HTTP status API of the fetch service.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/iAnanich/scrapy-ntk/internal/database"
	"github.com/iAnanich/scrapy-ntk/internal/logger"
	"github.com/iAnanich/scrapy-ntk/internal/runner"
)

const defaultRunsLimit = 20

// FetchRunner triggers one fetch run.
type FetchRunner interface {
	RunOnce(ctx context.Context) (*runner.Result, error)
}

// RunStore reads recorded fetch runs.
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]*database.FetchRun, error)
}

// SetupRouter creates the Gin router with all routes.
func SetupRouter(log logger.Interface, fetchRunner FetchRunner, runs RunStore) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")
	v1.POST("/fetch", triggerFetchHandler(log, fetchRunner))
	v1.GET("/runs", listRunsHandler(runs))

	return router
}

// triggerFetchHandler runs one fetch pass synchronously and reports what
// it found.
func triggerFetchHandler(log logger.Interface, fetchRunner FetchRunner) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := fetchRunner.RunOnce(c.Request.Context())
		if err != nil {
			log.Error("Fetch run failed", "error", err)
			respondInternalError(c, "fetch run failed")
			return
		}

		keys := make([]string, 0, len(result.Keys))
		for _, key := range result.Keys {
			keys = append(keys, key.String())
		}
		c.JSON(http.StatusOK, gin.H{
			"run_id":      result.RunID.String(),
			"jobs_found":  len(keys),
			"job_keys":    keys,
			"stop_reason": result.StopReason,
			"duration":    result.Duration.String(),
		})
	}
}

// listRunsHandler returns the most recent fetch runs.
func listRunsHandler(runs RunStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := parseLimit(c, defaultRunsLimit)
		list, err := runs.ListRuns(c.Request.Context(), limit)
		if err != nil {
			respondInternalError(c, "failed to list runs")
			return
		}
		c.JSON(http.StatusOK, gin.H{"runs": list})
	}
}

// parseLimit parses the limit query param with a default.
func parseLimit(c *gin.Context, defaultLimit int) int {
	limitStr := c.DefaultQuery("limit", strconv.Itoa(defaultLimit))
	limit, _ := strconv.Atoi(limitStr)
	if limit <= 0 {
		limit = defaultLimit
	}
	return limit
}

// respondError sends a JSON error response.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// respondInternalError sends a 500 with message.
func respondInternalError(c *gin.Context, message string) {
	respondError(c, http.StatusInternalServerError, message)
}

// loggingMiddleware logs each request with method, path, status and
// latency.
func loggingMiddleware(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}
