package memory

import (
	"sync"

	"github.com/Plantigo/plantigo-backend/pkg/storage"
)

// store contains all memory-based sub-stores for managing the persistent models
type store struct {
	devices       *deviceStore
	telemetry     *telemetryStore
	sensorLimits  *sensorLimitsStore
	notifications *notificationStore

	txMu sync.Mutex
}

// NewStore creates a new memory-based Storage interface
func NewStore() storage.Interface {
	return &store{
		devices:       newDeviceStore(),
		telemetry:     newTelemetryStore(),
		sensorLimits:  newSensorLimitsStore(),
		notifications: newNotificationStore(),
	}
}

// Devices returns a sub-store for managing the device model
func (s *store) Devices() storage.DeviceStore {
	return s.devices
}

// Telemetry returns a sub-store for managing the telemetry model
func (s *store) Telemetry() storage.TelemetryStore {
	return s.telemetry
}

// SensorLimits returns a sub-store for managing the sensor limits model
func (s *store) SensorLimits() storage.SensorLimitsStore {
	return s.sensorLimits
}

// Notifications returns a sub-store for managing the notification model
func (s *store) Notifications() storage.NotificationStore {
	return s.notifications
}

// Atomically serializes transactions and restores the previous state of all
// sub-stores when fn fails, mirroring a database rollback.
func (s *store) Atomically(fn func(tx storage.Interface) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	devices := s.devices.snapshot()
	telemetry := s.telemetry.snapshot()
	sensorLimits := s.sensorLimits.snapshot()
	notifications := s.notifications.snapshot()

	if err := fn(s); err != nil {
		s.devices.restore(devices)
		s.telemetry.restore(telemetry)
		s.sensorLimits.restore(sensorLimits)
		s.notifications.restore(notifications)
		return err
	}

	return nil
}
