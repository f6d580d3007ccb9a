package postgres

import (
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Plantigo/plantigo-backend/pkg/storage"

	// PostgreSQL driver
	_ "github.com/lib/pq"
)

// database is satisfied by both *sqlx.DB and *sqlx.Tx so that the
// sub-stores can run inside or outside of a transaction.
type database interface {
	sqlx.Ext
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	NamedQuery(query string, arg interface{}) (*sqlx.Rows, error)
}

// store contains all PostgreSQL based sub-stores for managing the models
type store struct {
	db *sqlx.DB

	devices       *deviceStore
	telemetry     *telemetryStore
	sensorLimits  *sensorLimitsStore
	notifications *notificationStore
}

// NewStore creates a new PostgreSQL based Storage interface
func NewStore(db *sqlx.DB) storage.Interface {
	return newStore(db, db)
}

func newStore(db *sqlx.DB, ext database) *store {
	return &store{
		db:            db,
		devices:       newDeviceStore(ext),
		telemetry:     newTelemetryStore(ext),
		sensorLimits:  newSensorLimitsStore(ext),
		notifications: newNotificationStore(ext),
	}
}

// Devices returns a sub-store for managing the Device model
func (s *store) Devices() storage.DeviceStore {
	return s.devices
}

// Telemetry returns a sub-store for managing the Telemetry model
func (s *store) Telemetry() storage.TelemetryStore {
	return s.telemetry
}

// SensorLimits returns a sub-store for managing the SensorLimits model
func (s *store) SensorLimits() storage.SensorLimitsStore {
	return s.sensorLimits
}

// Notifications returns a sub-store for managing the Notification model
func (s *store) Notifications() storage.NotificationStore {
	return s.notifications
}

// Atomically runs fn against a store bound to a single database
// transaction. A nested call reuses the surrounding transaction.
func (s *store) Atomically(fn func(tx storage.Interface) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}

	if err := fn(newStore(nil, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrap(rbErr, "failed to rollback transaction")
		}
		return err
	}

	return errors.Wrap(tx.Commit(), "failed to commit transaction")
}
