package telemetry

import (
	"fmt"

	"github.com/Plantigo/plantigo-backend/pkg/model"
)

// EvaluateLimits checks a reading against the configured per-device bounds
// and returns the list of violation messages plus the derived severity.
// A nil limits configuration never violates. Boundary values are in range;
// only strictly out-of-range values violate. The violation order is
// temperature, humidity, pressure, soil moisture.
func EvaluateLimits(m *model.Telemetry, limits *model.SensorLimits) ([]string, model.Severity) {
	if limits == nil {
		return nil, model.SeverityInfo
	}

	violations := make([]string, 0)

	if m.Temperature < limits.TempMin {
		violations = append(violations, fmt.Sprintf(
			"Temperature %.1f°C is below the minimum limit of %.1f°C", m.Temperature, limits.TempMin))
	} else if m.Temperature > limits.TempMax {
		violations = append(violations, fmt.Sprintf(
			"Temperature %.1f°C is above the maximum limit of %.1f°C", m.Temperature, limits.TempMax))
	}

	if m.Humidity < limits.HumidityMin {
		violations = append(violations, fmt.Sprintf(
			"Humidity %.1f%% is below the minimum limit of %.1f%%", m.Humidity, limits.HumidityMin))
	} else if m.Humidity > limits.HumidityMax {
		violations = append(violations, fmt.Sprintf(
			"Humidity %.1f%% is above the maximum limit of %.1f%%", m.Humidity, limits.HumidityMax))
	}

	if m.Pressure < limits.PressureMin {
		violations = append(violations, fmt.Sprintf(
			"Pressure %.1f hPa is below the minimum limit of %.1f hPa", m.Pressure, limits.PressureMin))
	} else if m.Pressure > limits.PressureMax {
		violations = append(violations, fmt.Sprintf(
			"Pressure %.1f hPa is above the maximum limit of %.1f hPa", m.Pressure, limits.PressureMax))
	}

	if m.SoilMoisture < limits.SoilMoistureMin {
		violations = append(violations, fmt.Sprintf(
			"Soil moisture %d is below the minimum limit of %d", m.SoilMoisture, limits.SoilMoistureMin))
	} else if m.SoilMoisture > limits.SoilMoistureMax {
		violations = append(violations, fmt.Sprintf(
			"Soil moisture %d is above the maximum limit of %d", m.SoilMoisture, limits.SoilMoistureMax))
	}

	return violations, severityFor(len(violations))
}

func severityFor(violations int) model.Severity {
	switch {
	case violations == 0:
		return model.SeverityInfo
	case violations <= 2:
		return model.SeverityWarning
	default:
		return model.SeverityCritical
	}
}
