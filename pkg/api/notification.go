package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo"

	"github.com/Plantigo/plantigo-backend/pkg/api/resource"
	"github.com/Plantigo/plantigo-backend/pkg/storage"
)

func (h *Handler) handleFetchNotifications(c echo.Context) error {
	userIDParam := c.QueryParam("userId")
	userID, err := strconv.Atoi(userIDParam)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "userId query parameter is required"})
	}

	unreadOnly := c.QueryParam("unread") == "true"

	ms, err := h.store.Notifications().FetchByUserID(int32(userID), unreadOnly)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, resource.NewNotificationList(ms))
}

func (h *Handler) handleMarkNotificationAsRead(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, err)
	}

	err = h.store.Notifications().MarkAsRead(int32(id), time.Now().UTC())
	if err != nil && err == storage.ErrNotFound {
		return c.JSON(http.StatusNotFound, err)
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}

	m, err := h.store.Notifications().FindByID(int32(id))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, resource.NewNotification(m))
}
