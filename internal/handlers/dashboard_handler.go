package handlers

import (
	"net/http"
	"strconv"

	"loyalty-service/internal/hub"
	"loyalty-service/internal/repository"
	"loyalty-service/internal/services"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
	notificationRepo *repository.NotificationRepository
	wsHub            *hub.Hub
}

func NewDashboardHandler(dashboardService *services.DashboardService, notificationRepo *repository.NotificationRepository, wsHub *hub.Hub) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		notificationRepo: notificationRepo,
		wsHub:            wsHub,
	}
}

func (h *DashboardHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/dashboard/summary", h.GetSummary)
	router.GET("/api/notifications", h.GetNotifications)
	router.POST("/api/notifications/mark-read", h.MarkNotificationsRead)
	router.GET("/ws", h.ServeWS)
	router.GET("/healthz", h.Health)
}

func (h *DashboardHandler) GetSummary(c *gin.Context) {
	summary, err := h.dashboardService.GetSummary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, CreateSuccessResponse(summary))
}

func (h *DashboardHandler) GetNotifications(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, CreateErrorResponse("Bad Request", "limit must be a positive integer"))
			return
		}
		limit = n
	}

	notifications, err := h.notificationRepo.Recent(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, CreateSuccessResponse(notifications))
}

func (h *DashboardHandler) MarkNotificationsRead(c *gin.Context) {
	if err := h.notificationRepo.MarkAllRead(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, CreateSuccessResponse(gin.H{"marked": "all"}))
}

func (h *DashboardHandler) ServeWS(c *gin.Context) {
	hub.ServeWS(h.wsHub, c.Writer, c.Request)
}

func (h *DashboardHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"ws_clients": h.wsHub.ClientCount(),
	})
}
