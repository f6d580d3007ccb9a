package resource

import (
	"fmt"
	"time"

	"github.com/Plantigo/plantigo-backend/pkg/model"
)

type SensorLimitsResource struct {
	ID              int32      `json:"id"`
	DeviceID        int32      `json:"deviceId"`
	TempMin         float64    `json:"tempMin"`
	TempMax         float64    `json:"tempMax"`
	HumidityMin     float64    `json:"humidityMin"`
	HumidityMax     float64    `json:"humidityMax"`
	PressureMin     float64    `json:"pressureMin"`
	PressureMax     float64    `json:"pressureMax"`
	SoilMoistureMin int        `json:"soilMoistureMin"`
	SoilMoistureMax int        `json:"soilMoistureMax"`
	CreatedAt       *time.Time `json:"createdAt,omitempty"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty"`
}

func NewSensorLimits(m *model.SensorLimits) (out *SensorLimitsResource) {
	out = &SensorLimitsResource{
		ID:              m.ID,
		DeviceID:        m.DeviceID,
		TempMin:         m.TempMin,
		TempMax:         m.TempMax,
		HumidityMin:     m.HumidityMin,
		HumidityMax:     m.HumidityMax,
		PressureMin:     m.PressureMin,
		PressureMax:     m.PressureMax,
		SoilMoistureMin: m.SoilMoistureMin,
		SoilMoistureMax: m.SoilMoistureMax,
	}

	if !m.CreatedAt.IsZero() {
		out.CreatedAt = &time.Time{}
		*out.CreatedAt = m.CreatedAt.Round(time.Second)
	}
	if !m.UpdatedAt.IsZero() {
		out.UpdatedAt = &time.Time{}
		*out.UpdatedAt = m.UpdatedAt.Round(time.Second)
	}

	return // out
}

func ValidateSensorLimits(r *SensorLimitsResource) (m *model.SensorLimits, err error) {
	if r.TempMin > r.TempMax {
		return nil, fmt.Errorf("tempMin must not exceed tempMax")
	}
	if r.HumidityMin > r.HumidityMax {
		return nil, fmt.Errorf("humidityMin must not exceed humidityMax")
	}
	if r.PressureMin > r.PressureMax {
		return nil, fmt.Errorf("pressureMin must not exceed pressureMax")
	}
	if r.SoilMoistureMin > r.SoilMoistureMax {
		return nil, fmt.Errorf("soilMoistureMin must not exceed soilMoistureMax")
	}

	m = &model.SensorLimits{
		TempMin:         r.TempMin,
		TempMax:         r.TempMax,
		HumidityMin:     r.HumidityMin,
		HumidityMax:     r.HumidityMax,
		PressureMin:     r.PressureMin,
		PressureMax:     r.PressureMax,
		SoilMoistureMin: r.SoilMoistureMin,
		SoilMoistureMax: r.SoilMoistureMax,
	}

	return m, nil
}
