package postgres

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Plantigo/plantigo-backend/pkg/model"
	"github.com/Plantigo/plantigo-backend/pkg/storage"
)

func newDeviceStore(db database) *deviceStore {
	return &deviceStore{
		db: db,
	}
}

type deviceStore struct {
	db database
}

type sqlDataDevice struct {
	ID         int32     `db:"id"`
	Name       string    `db:"name"`
	MACAddress string    `db:"mac_address"`
	UserID     int32     `db:"user_id"`
	IsActive   bool      `db:"is_active"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

var sqlParamsDevice = []string{
	"id",
	"name",
	"mac_address",
	"user_id",
	"is_active",
	"created_at",
	"updated_at",
}

func (d *sqlDataDevice) Scan(m *model.Device) error {
	var createdAt, updatedAt = m.CreatedAt, m.UpdatedAt

	if m.CreatedAt.IsZero() {
		createdAt = time.Now().Round(time.Second).UTC()
	}

	if m.UpdatedAt.IsZero() {
		updatedAt = time.Now().Round(time.Second).UTC()
	}

	d.ID = m.ID
	d.Name = m.Name
	d.MACAddress = m.MACAddress
	d.UserID = m.UserID
	d.IsActive = m.IsActive
	d.CreatedAt = createdAt
	d.UpdatedAt = updatedAt

	return nil
}

func (d *sqlDataDevice) Model() (*model.Device, error) {
	m := &model.Device{
		ID:         d.ID,
		Name:       d.Name,
		MACAddress: d.MACAddress,
		UserID:     d.UserID,
		IsActive:   d.IsActive,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}

	return m, nil
}

func (s *deviceStore) FetchAll() (map[int32]model.Device, error) {
	return fetchAllDevices(s.db)
}

func (s *deviceStore) FindByID(id int32) (*model.Device, error) {
	return findDeviceByID(s.db, id)
}

func (s *deviceStore) FindByMACAddress(mac string) (*model.Device, error) {
	return findDeviceByMACAddress(s.db, mac)
}

func (s *deviceStore) Create(m *model.Device) error {
	return createDevice(s.db, m)
}

func (s *deviceStore) Delete(id int32) error {
	return deleteDevice(s.db, id)
}

func (s *deviceStore) SetActiveStatus(ids []int32, active bool) error {
	return setDeviceActiveStatus(s.db, ids, active)
}

func fetchAllDevices(db database) (map[int32]model.Device, error) {
	rows := make([]sqlDataDevice, 0)
	models := make(map[int32]model.Device)

	query := "SELECT * FROM devices ORDER BY id"
	if err := db.Select(&rows, query); err != nil {
		return nil, errors.Wrap(err, "failed to fetch all devices")
	}

	for _, d := range rows {
		m, err := d.Model()
		if err != nil {
			return nil, errors.Wrap(err, "failed to convert SQL data to device model")
		}

		models[d.ID] = *m
	}

	return models, nil
}

func findDeviceByID(db database, id int32) (*model.Device, error) {
	d := sqlDataDevice{}
	query := "SELECT * FROM devices WHERE id=$1"
	if err := db.Get(&d, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find device")
	}

	return d.Model()
}

func findDeviceByMACAddress(db database, mac string) (*model.Device, error) {
	d := sqlDataDevice{}
	query := "SELECT * FROM devices WHERE mac_address=$1"
	if err := db.Get(&d, query, mac); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find device by MAC address")
	}

	return d.Model()
}

func createDevice(db database, m *model.Device) error {
	d := sqlDataDevice{}
	if err := d.Scan(m); err != nil {
		return errors.Wrap(err, "failed to convert device model to SQL data")
	}

	// Remove the id column because it's of SQL type serial
	sqlParamsWithoutID := make([]string, 0)
	for _, s := range sqlParamsDevice {
		if s != "id" {
			sqlParamsWithoutID = append(sqlParamsWithoutID, s)
		}
	}

	query := fmt.Sprintf(
		"INSERT INTO devices (%s) VALUES (%s) RETURNING id",
		strings.Join(sqlParamsWithoutID, ", "),
		":"+strings.Join(sqlParamsWithoutID, ", :"),
	)
	rows, err := db.NamedQuery(query, d)
	if err != nil {
		return errors.Wrap(err, "failed to create device")
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&m.ID)
	}

	return nil
}

func deleteDevice(db database, id int32) error {
	query := "DELETE FROM devices WHERE id=$1"
	_, err := db.Exec(query, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete device")
	}

	return nil
}

func setDeviceActiveStatus(db database, ids []int32, active bool) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In(
		"UPDATE devices SET is_active=?, updated_at=? WHERE id IN (?)",
		active, time.Now().Round(time.Second).UTC(), ids,
	)
	if err != nil {
		return errors.Wrap(err, "failed to build active status query")
	}

	if _, err := db.Exec(db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "failed to update device active status")
	}

	return nil
}
