package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo"

	"github.com/Plantigo/plantigo-backend/pkg/api/resource"
	"github.com/Plantigo/plantigo-backend/pkg/storage"
)

func (h *Handler) handleGetSensorLimits(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, err)
	}

	m, err := h.store.SensorLimits().FindByDeviceID(int32(id))
	if err != nil && err == storage.ErrNotFound {
		return c.JSON(http.StatusNotFound, err)
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, resource.NewSensorLimits(m))
}

func (h *Handler) handleUpsertSensorLimits(c echo.Context) error {
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

	r := &resource.SensorLimitsResource{}
	if err := c.Bind(r); err != nil {
		return c.JSON(http.StatusBadRequest, err)
	}

	m, err := resource.ValidateSensorLimits(r)
	if err != nil {
		return c.JSON(http.StatusBadRequest, err)
	}
	m.DeviceID = device.ID

	if err := h.store.SensorLimits().Upsert(m); err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, resource.NewSensorLimits(m))
}

func (h *Handler) handleDeleteSensorLimits(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, err)
	}

	if _, err := h.store.SensorLimits().FindByDeviceID(int32(id)); err != nil && err == storage.ErrNotFound {
		return c.JSON(http.StatusNotFound, err)
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}

	if err := h.store.SensorLimits().Delete(int32(id)); err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusNoContent, nil)
}
