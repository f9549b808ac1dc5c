package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/invoice-extractor/config"
	"github.com/feichai0017/invoice-extractor/internal/watcher"
	"github.com/feichai0017/invoice-extractor/pkg/logger"
)

// StatsSource exposes the watcher's progress counters to the ops surface
type StatsSource interface {
	Snapshot() watcher.Stats
}

type Handlers struct {
	stats     StatsSource
	cfg       *config.Config
	logger    logger.Logger
	startedAt time.Time
}

func NewHandlers(stats StatsSource, cfg *config.Config, log logger.Logger) *Handlers {
	return &Handlers{
		stats:     stats,
		cfg:       cfg,
		logger:    log,
		startedAt: time.Now(),
	}
}

// Health reports process liveness
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Status reports the watcher configuration and progress counters
func (h *Handlers) Status(c *gin.Context) {
	stats := h.stats.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"uptimeSeconds": int64(time.Since(h.startedAt).Seconds()),
		"bucket":        h.cfg.Bucket,
		"intakePrefix":  h.cfg.IntakePrefix,
		"donePrefix":    h.cfg.DonePrefix,
		"errorPrefix":   h.cfg.ErrorPrefix,
		"jsonPrefix":    h.cfg.JSONPrefix,
		"pollInterval":  h.cfg.PollInterval.String(),
		"lastPoll":      stats.LastPoll,
		"succeeded":     stats.Succeeded,
		"failed":        stats.Failed,
		"abandoned":     stats.Abandoned,
	})
}
