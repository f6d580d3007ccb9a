package model

import "time"

// Severity is the violation-count derived alert level of a notification.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Notification informs a user about a sensor limit violation. It references
// the device and the telemetry reading that triggered it.
type Notification struct {
	ID          int32
	UserID      int32
	DeviceID    int32
	TelemetryID int32
	Message     string
	Severity    Severity
	IsRead      bool
	ReadAt      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
