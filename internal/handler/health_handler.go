package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"change-intake-service/internal/client"
	"change-intake-service/internal/service"
)

type HealthHandler struct {
	redis       redis.Cmdable
	webhook     client.WebhookClient
	formService service.FormService
}

// NewHealthHandler creates the probe handler. redisClient may be nil when the
// session cache runs in memory.
func NewHealthHandler(redisClient redis.Cmdable, webhook client.WebhookClient, formService service.FormService) *HealthHandler {
	return &HealthHandler{
		redis:       redisClient,
		webhook:     webhook,
		formService: formService,
	}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "change-intake-service",
	})
}

// Ready fails only when the redis cache is down. An unreachable workflow
// engine degrades the service: every operation still answers with a fallback.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	connections := make(map[string]string)

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			connections["redis"] = "error: " + err.Error()
		} else {
			connections["redis"] = "connected"
		}
	} else {
		connections["redis"] = "not configured"
	}

	if h.webhook.URL() == "" {
		connections["workflow_engine"] = "not configured"
	} else if err := h.webhook.Probe(ctx); err != nil {
		connections["workflow_engine"] = "error: " + err.Error()
	} else {
		connections["workflow_engine"] = "connected"
	}

	status := http.StatusOK
	statusText := "ready"
	switch {
	case connections["redis"] != "connected" && connections["redis"] != "not configured":
		status = http.StatusServiceUnavailable
		statusText = "not ready"
	case connections["workflow_engine"] != "connected":
		statusText = "degraded"
	}

	c.JSON(status, gin.H{
		"status":      statusText,
		"connections": connections,
		"rule_table":  h.formService.TableReport().OK(),
	})
}
