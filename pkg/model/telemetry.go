package model

import "time"

// Telemetry is a single environmental reading reported by a device.
// Readings are unique per (DeviceID, Timestamp) and immutable once stored.
type Telemetry struct {
	ID           int32
	DeviceID     int32
	Temperature  float64
	Humidity     float64
	Pressure     float64
	SoilMoisture int
	Timestamp    time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
