package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"linkloop/logger"
	"linkloop/middleware"
	"linkloop/module/messaging"
)

// PresenceReader is the read surface of the presence tracker.
type PresenceReader interface {
	Online(ctx context.Context, userID string) bool
	LastSeen(ctx context.Context, userID string) string
}

type Handlers struct {
	pager    *messaging.Pager
	presence PresenceReader
}

func NewHandlers(pager *messaging.Pager, presence PresenceReader) *Handlers {
	return &Handlers{pager: pager, presence: presence}
}

// RegisterRoutes mounts the pull-side API. Everything here requires a
// resolved session; the live channel is mounted separately.
func (h *Handlers) RegisterRoutes(g *gin.RouterGroup) {
	g.GET("/history", h.getHistory)
	g.GET("/presence/:userID", h.getPresence)
}

// GET /history?counterpartyId=...&cursor=...
func (h *Handlers) getHistory(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)
	counterparty := c.Query("counterpartyId")
	if counterparty == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "counterpartyId is required"})
		return
	}

	page, err := h.pager.GetHistory(c.Request.Context(), userID, counterparty, c.Query("cursor"))
	if err != nil {
		logger.Errorf("history fetch failed user=%s counterparty=%s err=%v", userID, counterparty, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
		return
	}
	c.JSON(http.StatusOK, page)
}

// GET /presence/:userID
func (h *Handlers) getPresence(c *gin.Context) {
	userID := c.Param("userID")
	ctx := c.Request.Context()
	c.JSON(http.StatusOK, gin.H{
		"userId":   userID,
		"online":   h.presence.Online(ctx, userID),
		"lastSeen": h.presence.LastSeen(ctx, userID),
	})
}
