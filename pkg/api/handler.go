package api

import (
	"time"

	"github.com/labstack/echo"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/Plantigo/plantigo-backend/pkg/storage"
)

// Handler contains all properties to serve the API
type Handler struct {
	nc             *nats.Conn
	store          storage.Interface
	activityWindow time.Duration
}

// NewHandler create a new API handler
func NewHandler(nc *nats.Conn, store storage.Interface, activityWindow time.Duration) *Handler {
	if activityWindow <= 0 {
		activityWindow = 4 * time.Hour
	}

	return &Handler{
		nc:             nc,
		store:          store,
		activityWindow: activityWindow,
	}
}

// RegisterRoutes attaches the handlers to the echo web server
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	log.Debug("Register API routes")
	api := e.Group("/api/v1")

	api.GET("/devices", h.handleFetchDevices)
	api.POST("/devices", h.handleCreateDevice)
	api.GET("/devices/:id", h.handleGetDeviceByID)
	api.DELETE("/devices/:id", h.handleDeleteDevice)

	api.GET("/devices/:id/telemetry", h.handleFetchTelemetry)
	api.GET("/devices/:id/telemetry/latest", h.handleGetLatestTelemetry)
	api.POST("/devices/:id/telemetry", h.handleCreateTelemetry)

	api.GET("/devices/:id/limits", h.handleGetSensorLimits)
	api.PUT("/devices/:id/limits", h.handleUpsertSensorLimits)
	api.DELETE("/devices/:id/limits", h.handleDeleteSensorLimits)

	api.GET("/notifications", h.handleFetchNotifications)
	api.POST("/notifications/:id/read", h.handleMarkNotificationAsRead)

	api.Any("/realtime-events", h.realtimeEventsHandler())
}
