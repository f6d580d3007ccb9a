package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Plantigo/plantigo-backend/pkg/model"
)

func testLimits() *model.SensorLimits {
	return &model.SensorLimits{
		TempMin:  18.0, TempMax: 25.0,
		HumidityMin: 40.0, HumidityMax: 70.0,
		PressureMin: 990.0, PressureMax: 1030.0,
		SoilMoistureMin: 20, SoilMoistureMax: 80,
	}
}

func inRangeReading() *model.Telemetry {
	return &model.Telemetry{
		Temperature:  22.0,
		Humidity:     55.0,
		Pressure:     1012.0,
		SoilMoisture: 42,
	}
}

func TestEvaluateLimitsNilLimits(t *testing.T) {
	violations, severity := EvaluateLimits(inRangeReading(), nil)
	assert.Empty(t, violations)
	assert.Equal(t, model.SeverityInfo, severity)
}

func TestEvaluateLimitsInRange(t *testing.T) {
	violations, severity := EvaluateLimits(inRangeReading(), testLimits())
	assert.Empty(t, violations)
	assert.Equal(t, model.SeverityInfo, severity)
}

func TestEvaluateLimitsBoundaryValuesAreInRange(t *testing.T) {
	m := &model.Telemetry{
		Temperature:  18.0,
		Humidity:     70.0,
		Pressure:     990.0,
		SoilMoisture: 80,
	}

	violations, severity := EvaluateLimits(m, testLimits())
	assert.Empty(t, violations)
	assert.Equal(t, model.SeverityInfo, severity)
}

func TestEvaluateLimitsSingleViolation(t *testing.T) {
	m := inRangeReading()
	m.Temperature = 15.5

	violations, severity := EvaluateLimits(m, testLimits())
	assert.Len(t, violations, 1)
	assert.Equal(t, model.SeverityWarning, severity)
	assert.Contains(t, violations[0], "15.5")
	assert.Contains(t, violations[0], "18.0")
	assert.Contains(t, violations[0], "below")
}

func TestEvaluateLimitsTwoViolationsAreWarning(t *testing.T) {
	m := inRangeReading()
	m.Temperature = 30.0
	m.Humidity = 10.0

	violations, severity := EvaluateLimits(m, testLimits())
	assert.Len(t, violations, 2)
	assert.Equal(t, model.SeverityWarning, severity)
}

func TestEvaluateLimitsThreeViolationsAreCritical(t *testing.T) {
	m := inRangeReading()
	m.Temperature = 30.0
	m.Humidity = 10.0
	m.SoilMoisture = 5

	violations, severity := EvaluateLimits(m, testLimits())
	assert.Len(t, violations, 3)
	assert.Equal(t, model.SeverityCritical, severity)
}

func TestEvaluateLimitsViolationOrder(t *testing.T) {
	m := &model.Telemetry{
		Temperature:  30.0,
		Humidity:     10.0,
		Pressure:     950.0,
		SoilMoisture: 5,
	}

	violations, severity := EvaluateLimits(m, testLimits())
	assert.Len(t, violations, 4)
	assert.Equal(t, model.SeverityCritical, severity)

	assert.Contains(t, violations[0], "Temperature")
	assert.Contains(t, violations[1], "Humidity")
	assert.Contains(t, violations[2], "Pressure")
	assert.Contains(t, violations[3], "Soil moisture")
}
