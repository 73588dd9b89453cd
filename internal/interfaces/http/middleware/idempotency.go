package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/ridewave/dispatch/internal/config"
	"github.com/ridewave/dispatch/pkg/logger"
)

const idempotencyKeyPrefix = "webhook:event:"

// Idempotency deduplicates payment webhook deliveries by their event ID.
// Providers retry deliveries until they see a 2xx, so replays are routine;
// the first delivery claims the event ID with SETNX, replays get an
// immediate 200 without re-processing.
//
// Redis errors fail open: processing a payment twice is recoverable (the
// confirmed transition is idempotent), dropping one is not.
func Idempotency(client redis.UniversalClient, cfg *config.IdempotencyConfig, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		eventID, ok := peekEventID(c)
		if !ok || eventID == "" {
			c.Next()
			return
		}

		claimed, err := client.SetNX(c.Request.Context(), idempotencyKeyPrefix+eventID, "1", cfg.TTL()).Result()
		if err != nil {
			log.Warn(c.Request.Context(), "idempotency check failed, processing anyway",
				logger.String("event_id", eventID),
				logger.Error(err),
			)
			c.Next()
			return
		}
		if !claimed {
			log.Info(c.Request.Context(), "duplicate webhook delivery ignored",
				logger.String("event_id", eventID),
			)
			c.AbortWithStatusJSON(http.StatusOK, gin.H{"status": "duplicate"})
			return
		}
		c.Next()
	}
}

// peekEventID reads the event ID from the JSON body without consuming it.
func peekEventID(c *gin.Context) (string, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", false
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	var probe struct {
		EventID string `json:"event_id"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return "", false
	}
	return probe.EventID, true
}
