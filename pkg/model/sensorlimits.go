package model

import "time"

// SensorLimits holds the configured per-device bounds. At most one row
// exists per device; a device without limits never violates.
type SensorLimits struct {
	ID              int32
	DeviceID        int32
	TempMin         float64
	TempMax         float64
	HumidityMin     float64
	HumidityMax     float64
	PressureMin     float64
	PressureMax     float64
	SoilMoistureMin int
	SoilMoistureMax int

	CreatedAt time.Time
	UpdatedAt time.Time
}
