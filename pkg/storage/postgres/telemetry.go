package postgres

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/Plantigo/plantigo-backend/pkg/model"
	"github.com/Plantigo/plantigo-backend/pkg/storage"
)

func newTelemetryStore(db database) *telemetryStore {
	return &telemetryStore{
		db: db,
	}
}

type telemetryStore struct {
	db database
}

type sqlDataTelemetry struct {
	ID           int32     `db:"id"`
	DeviceID     int32     `db:"device_id"`
	Temperature  float64   `db:"temperature"`
	Humidity     float64   `db:"humidity"`
	Pressure     float64   `db:"pressure"`
	SoilMoisture int       `db:"soil_moisture"`
	Timestamp    time.Time `db:"timestamp"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

var sqlParamsTelemetry = []string{
	"id",
	"device_id",
	"temperature",
	"humidity",
	"pressure",
	"soil_moisture",
	"timestamp",
	"created_at",
	"updated_at",
}

func (d *sqlDataTelemetry) Scan(m *model.Telemetry) error {
	var createdAt, updatedAt = m.CreatedAt, m.UpdatedAt

	if m.CreatedAt.IsZero() {
		createdAt = time.Now().Round(time.Second).UTC()
	}

	if m.UpdatedAt.IsZero() {
		updatedAt = time.Now().Round(time.Second).UTC()
	}

	d.ID = m.ID
	d.DeviceID = m.DeviceID
	d.Temperature = m.Temperature
	d.Humidity = m.Humidity
	d.Pressure = m.Pressure
	d.SoilMoisture = m.SoilMoisture
	d.Timestamp = m.Timestamp.UTC()
	d.CreatedAt = createdAt
	d.UpdatedAt = updatedAt

	return nil
}

func (d *sqlDataTelemetry) Model() (*model.Telemetry, error) {
	m := &model.Telemetry{
		ID:           d.ID,
		DeviceID:     d.DeviceID,
		Temperature:  d.Temperature,
		Humidity:     d.Humidity,
		Pressure:     d.Pressure,
		SoilMoisture: d.SoilMoisture,
		Timestamp:    d.Timestamp,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}

	return m, nil
}

func (s *telemetryStore) FindByID(id int32) (*model.Telemetry, error) {
	return findTelemetryByID(s.db, id)
}

func (s *telemetryStore) FetchByDeviceID(deviceID int32, limit int) ([]model.Telemetry, error) {
	return fetchTelemetryByDeviceID(s.db, deviceID, limit)
}

func (s *telemetryStore) LatestByDeviceID(deviceID int32) (*model.Telemetry, error) {
	return latestTelemetryByDeviceID(s.db, deviceID)
}

func (s *telemetryStore) ExistsByDeviceAndTimestamp(deviceID int32, ts time.Time) (bool, error) {
	return telemetryExists(s.db, deviceID, ts)
}

func (s *telemetryStore) Create(m *model.Telemetry) error {
	return createTelemetry(s.db, m)
}

func (s *telemetryStore) CreateBatch(ms []*model.Telemetry) error {
	for _, m := range ms {
		if err := createTelemetry(s.db, m); err != nil {
			return err
		}
	}

	return nil
}

func findTelemetryByID(db database, id int32) (*model.Telemetry, error) {
	d := sqlDataTelemetry{}
	query := "SELECT * FROM telemetry WHERE id=$1"
	if err := db.Get(&d, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find telemetry")
	}

	return d.Model()
}

func fetchTelemetryByDeviceID(db database, deviceID int32, limit int) ([]model.Telemetry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows := make([]sqlDataTelemetry, 0)
	query := "SELECT * FROM telemetry WHERE device_id=$1 ORDER BY timestamp DESC LIMIT $2"
	if err := db.Select(&rows, query, deviceID, limit); err != nil {
		return nil, errors.Wrap(err, "failed to fetch telemetry")
	}

	models := make([]model.Telemetry, 0, len(rows))
	for _, d := range rows {
		m, err := d.Model()
		if err != nil {
			return nil, errors.Wrap(err, "failed to convert SQL data to telemetry model")
		}

		models = append(models, *m)
	}

	return models, nil
}

func latestTelemetryByDeviceID(db database, deviceID int32) (*model.Telemetry, error) {
	d := sqlDataTelemetry{}
	query := "SELECT * FROM telemetry WHERE device_id=$1 ORDER BY timestamp DESC LIMIT 1"
	if err := db.Get(&d, query, deviceID); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find latest telemetry")
	}

	return d.Model()
}

func telemetryExists(db database, deviceID int32, ts time.Time) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT 1 FROM telemetry WHERE device_id=$1 AND timestamp=$2)"
	if err := db.Get(&exists, query, deviceID, ts.UTC()); err != nil {
		return false, errors.Wrap(err, "failed to check telemetry existence")
	}

	return exists, nil
}

func createTelemetry(db database, m *model.Telemetry) error {
	d := sqlDataTelemetry{}
	if err := d.Scan(m); err != nil {
		return errors.Wrap(err, "failed to convert telemetry model to SQL data")
	}

	// Remove the id column because it's of SQL type serial
	sqlParamsWithoutID := make([]string, 0)
	for _, s := range sqlParamsTelemetry {
		if s != "id" {
			sqlParamsWithoutID = append(sqlParamsWithoutID, s)
		}
	}

	query := fmt.Sprintf(
		"INSERT INTO telemetry (%s) VALUES (%s) RETURNING id",
		strings.Join(sqlParamsWithoutID, ", "),
		":"+strings.Join(sqlParamsWithoutID, ", :"),
	)
	rows, err := db.NamedQuery(query, d)
	if err != nil {
		return errors.Wrap(err, "failed to create telemetry")
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&m.ID)
	}

	return nil
}
