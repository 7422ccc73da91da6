package api

import (
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const sseKeepAlive = 30 * time.Second

// streamHazards pushes newly raised hazard alerts as Server-Sent Events.
// ?min_diameter drops alerts for smaller objects.
func (h *Handler) streamHazards(c *gin.Context) {
	var minDiameter float64
	if d := c.Query("min_diameter"); d != "" {
		if v, err := strconv.ParseFloat(d, 64); err == nil {
			minDiameter = v
		}
	}

	id, ch := h.hazards.Subscribe()
	defer h.hazards.Unsubscribe(id)

	h.metrics.StreamSubscribers.Inc()
	defer h.metrics.StreamSubscribers.Dec()

	slog.Info("client subscribed to hazard stream", "subscriber_id", id, "transport", "sse")

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("ready", gin.H{"subscriber_id": id})
	c.Writer.Flush()

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			slog.Info("client disconnected from hazard stream", "subscriber_id", id)
			return false
		case <-keepAlive.C:
			c.SSEvent("ping", h.clock.Now().UTC().Format(time.RFC3339))
			return true
		case alert, ok := <-ch:
			if !ok {
				return false
			}
			if alert.DiameterM < minDiameter {
				return true
			}
			c.SSEvent("hazard", alert)
			return true
		}
	})
}
