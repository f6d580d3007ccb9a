package resource

import (
	"fmt"
	"time"

	"github.com/Plantigo/plantigo-backend/pkg/model"
)

type TelemetryResource struct {
	ID           int32      `json:"id"`
	DeviceID     int32      `json:"deviceId"`
	Temperature  float64    `json:"temperature"`
	Humidity     float64    `json:"humidity"`
	Pressure     float64    `json:"pressure"`
	SoilMoisture int        `json:"soilMoisture"`
	Timestamp    time.Time  `json:"timestamp"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
}

type TelemetryListResource struct {
	Members []*TelemetryResource `json:"members"`
}

func NewTelemetry(m *model.Telemetry) (out *TelemetryResource) {
	out = &TelemetryResource{
		ID:           m.ID,
		DeviceID:     m.DeviceID,
		Temperature:  m.Temperature,
		Humidity:     m.Humidity,
		Pressure:     m.Pressure,
		SoilMoisture: m.SoilMoisture,
		Timestamp:    m.Timestamp,
	}

	if !m.CreatedAt.IsZero() {
		out.CreatedAt = &time.Time{}
		*out.CreatedAt = m.CreatedAt.Round(time.Second)
	}

	return // out
}

func NewTelemetryList(ms []model.Telemetry) (out *TelemetryListResource) {
	out = &TelemetryListResource{
		Members: make([]*TelemetryResource, 0),
	}

	for i := range ms {
		out.Members = append(out.Members, NewTelemetry(&ms[i]))
	}

	return // out
}

func ValidateTelemetry(r *TelemetryResource) (m *model.Telemetry, err error) {
	if r.Timestamp.IsZero() {
		return nil, fmt.Errorf("timestamp is required")
	}

	m = &model.Telemetry{
		Temperature:  r.Temperature,
		Humidity:     r.Humidity,
		Pressure:     r.Pressure,
		SoilMoisture: r.SoilMoisture,
		Timestamp:    r.Timestamp.UTC(),
	}

	return m, nil
}
