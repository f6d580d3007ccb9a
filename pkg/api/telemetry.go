package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo"

	"github.com/Plantigo/plantigo-backend/pkg/api/resource"
	"github.com/Plantigo/plantigo-backend/pkg/storage"
	"github.com/Plantigo/plantigo-backend/pkg/telemetry"
)

const defaultHistoryLimit = 100

func (h *Handler) handleFetchTelemetry(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, err)
	}

	limit := defaultHistoryLimit
	if limitParam := c.QueryParam("limit"); limitParam != "" {
		limit, err = strconv.Atoi(limitParam)
		if err != nil || limit <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "limit must be a positive integer"})
		}
	}

	if _, err := h.store.Devices().FindByID(int32(id)); err != nil && err == storage.ErrNotFound {
		return c.JSON(http.StatusNotFound, err)
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}

	ms, err := h.store.Telemetry().FetchByDeviceID(int32(id), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, resource.NewTelemetryList(ms))
}

func (h *Handler) handleGetLatestTelemetry(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, err)
	}

	m, err := h.store.Telemetry().LatestByDeviceID(int32(id))
	if err != nil && err == storage.ErrNotFound {
		return c.JSON(http.StatusNotFound, err)
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, resource.NewTelemetry(m))
}

// handleCreateTelemetry stores a single reading bypassing the intake queue.
// The device activity flag is refreshed right after, same as the batch path
// does for its touched devices.
func (h *Handler) handleCreateTelemetry(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, err)
	}

	device, err := h.store.Devices().FindByID(int32(id))
	if err != nil && err == storage.ErrNotFound {
		return c.JSON(http.StatusNotFound, err)
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}

	r := &resource.TelemetryResource{}
	if err := c.Bind(r); err != nil {
		return c.JSON(http.StatusBadRequest, err)
	}

	m, err := resource.ValidateTelemetry(r)
	if err != nil {
		return c.JSON(http.StatusBadRequest, err)
	}
	m.DeviceID = device.ID

	exists, err := h.store.Telemetry().ExistsByDeviceAndTimestamp(device.ID, m.Timestamp)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}
	if exists {
		return c.JSON(http.StatusConflict, echo.Map{"message": "reading already exists for this timestamp"})
	}

	err = h.store.Atomically(func(tx storage.Interface) error {
		if err := tx.Telemetry().Create(m); err != nil {
			return err
		}
		return telemetry.RefreshDeviceActivity(tx, device.ID, h.activityWindow, time.Now())
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusCreated, resource.NewTelemetry(m))
}
