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

func newSensorLimitsStore(db database) *sensorLimitsStore {
	return &sensorLimitsStore{
		db: db,
	}
}

type sensorLimitsStore struct {
	db database
}

type sqlDataSensorLimits struct {
	ID              int32     `db:"id"`
	DeviceID        int32     `db:"device_id"`
	TempMin         float64   `db:"temp_min"`
	TempMax         float64   `db:"temp_max"`
	HumidityMin     float64   `db:"humidity_min"`
	HumidityMax     float64   `db:"humidity_max"`
	PressureMin     float64   `db:"pressure_min"`
	PressureMax     float64   `db:"pressure_max"`
	SoilMoistureMin int       `db:"soil_moisture_min"`
	SoilMoistureMax int       `db:"soil_moisture_max"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

var sqlParamsSensorLimits = []string{
	"id",
	"device_id",
	"temp_min",
	"temp_max",
	"humidity_min",
	"humidity_max",
	"pressure_min",
	"pressure_max",
	"soil_moisture_min",
	"soil_moisture_max",
	"created_at",
	"updated_at",
}

func (d *sqlDataSensorLimits) Scan(m *model.SensorLimits) error {
	var createdAt, updatedAt = m.CreatedAt, m.UpdatedAt

	if m.CreatedAt.IsZero() {
		createdAt = time.Now().Round(time.Second).UTC()
	}

	if m.UpdatedAt.IsZero() {
		updatedAt = time.Now().Round(time.Second).UTC()
	}

	d.ID = m.ID
	d.DeviceID = m.DeviceID
	d.TempMin = m.TempMin
	d.TempMax = m.TempMax
	d.HumidityMin = m.HumidityMin
	d.HumidityMax = m.HumidityMax
	d.PressureMin = m.PressureMin
	d.PressureMax = m.PressureMax
	d.SoilMoistureMin = m.SoilMoistureMin
	d.SoilMoistureMax = m.SoilMoistureMax
	d.CreatedAt = createdAt
	d.UpdatedAt = updatedAt

	return nil
}

func (d *sqlDataSensorLimits) Model() (*model.SensorLimits, error) {
	m := &model.SensorLimits{
		ID:              d.ID,
		DeviceID:        d.DeviceID,
		TempMin:         d.TempMin,
		TempMax:         d.TempMax,
		HumidityMin:     d.HumidityMin,
		HumidityMax:     d.HumidityMax,
		PressureMin:     d.PressureMin,
		PressureMax:     d.PressureMax,
		SoilMoistureMin: d.SoilMoistureMin,
		SoilMoistureMax: d.SoilMoistureMax,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}

	return m, nil
}

func (s *sensorLimitsStore) FindByDeviceID(deviceID int32) (*model.SensorLimits, error) {
	return findSensorLimitsByDeviceID(s.db, deviceID)
}

func (s *sensorLimitsStore) Upsert(m *model.SensorLimits) error {
	return upsertSensorLimits(s.db, m)
}

func (s *sensorLimitsStore) Delete(deviceID int32) error {
	return deleteSensorLimits(s.db, deviceID)
}

func findSensorLimitsByDeviceID(db database, deviceID int32) (*model.SensorLimits, error) {
	d := sqlDataSensorLimits{}
	query := "SELECT * FROM sensor_limits WHERE device_id=$1"
	if err := db.Get(&d, query, deviceID); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find sensor limits")
	}

	return d.Model()
}

func upsertSensorLimits(db database, m *model.SensorLimits) error {
	d := sqlDataSensorLimits{}
	if err := d.Scan(m); err != nil {
		return errors.Wrap(err, "failed to convert sensor limits model to SQL data")
	}

	// Remove the id column because it's of SQL type serial
	sqlParamsWithoutID := make([]string, 0)
	for _, s := range sqlParamsSensorLimits {
		if s != "id" {
			sqlParamsWithoutID = append(sqlParamsWithoutID, s)
		}
	}

	assignments := make([]string, 0)
	for _, s := range sqlParamsWithoutID {
		if s != "device_id" && s != "created_at" {
			assignments = append(assignments, fmt.Sprintf("%s=excluded.%s", s, s))
		}
	}

	query := fmt.Sprintf(
		"INSERT INTO sensor_limits (%s) VALUES (%s) ON CONFLICT (device_id) DO UPDATE SET %s RETURNING id",
		strings.Join(sqlParamsWithoutID, ", "),
		":"+strings.Join(sqlParamsWithoutID, ", :"),
		strings.Join(assignments, ", "),
	)
	rows, err := db.NamedQuery(query, d)
	if err != nil {
		return errors.Wrap(err, "failed to upsert sensor limits")
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&m.ID)
	}

	return nil
}

func deleteSensorLimits(db database, deviceID int32) error {
	query := "DELETE FROM sensor_limits WHERE device_id=$1"
	_, err := db.Exec(query, deviceID)
	if err != nil {
		return errors.Wrap(err, "failed to delete sensor limits")
	}

	return nil
}
