package storage

import (
	"time"

	"github.com/Plantigo/plantigo-backend/pkg/model"
)

// Interface is implemented by the storage
type Interface interface {
	Devices() DeviceStore
	Telemetry() TelemetryStore
	SensorLimits() SensorLimitsStore
	Notifications() NotificationStore

	// Atomically runs fn against a transactional view of the storage.
	// All writes performed by fn are applied together or not at all.
	Atomically(fn func(tx Interface) error) error
}

// DeviceStore is responsible for managing the Device model
type DeviceStore interface {
	FetchAll() (map[int32]model.Device, error)
	FindByID(id int32) (*model.Device, error)
	FindByMACAddress(mac string) (*model.Device, error)
	Create(m *model.Device) error
	Delete(id int32) error
	SetActiveStatus(ids []int32, active bool) error
}

// TelemetryStore is responsible for managing the Telemetry model
type TelemetryStore interface {
	FindByID(id int32) (*model.Telemetry, error)
	FetchByDeviceID(deviceID int32, limit int) ([]model.Telemetry, error)
	LatestByDeviceID(deviceID int32) (*model.Telemetry, error)
	ExistsByDeviceAndTimestamp(deviceID int32, ts time.Time) (bool, error)
	Create(m *model.Telemetry) error
	CreateBatch(ms []*model.Telemetry) error
}

// SensorLimitsStore is responsible for managing the SensorLimits model
type SensorLimitsStore interface {
	FindByDeviceID(deviceID int32) (*model.SensorLimits, error)
	Upsert(m *model.SensorLimits) error
	Delete(deviceID int32) error
}

// NotificationStore is responsible for managing the Notification model
type NotificationStore interface {
	FetchByUserID(userID int32, unreadOnly bool) ([]model.Notification, error)
	FindByID(id int32) (*model.Notification, error)
	Create(m *model.Notification) error
	MarkAsRead(id int32, readAt time.Time) error
}
