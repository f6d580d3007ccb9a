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

func newNotificationStore(db database) *notificationStore {
	return &notificationStore{
		db: db,
	}
}

type notificationStore struct {
	db database
}

type sqlDataNotification struct {
	ID          int32      `db:"id"`
	UserID      int32      `db:"user_id"`
	DeviceID    int32      `db:"device_id"`
	TelemetryID int32      `db:"telemetry_id"`
	Message     string     `db:"message"`
	Severity    string     `db:"severity"`
	IsRead      bool       `db:"is_read"`
	ReadAt      *time.Time `db:"read_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

var sqlParamsNotification = []string{
	"id",
	"user_id",
	"device_id",
	"telemetry_id",
	"message",
	"severity",
	"is_read",
	"read_at",
	"created_at",
	"updated_at",
}

func (d *sqlDataNotification) Scan(m *model.Notification) error {
	var createdAt, updatedAt = m.CreatedAt, m.UpdatedAt

	if m.CreatedAt.IsZero() {
		createdAt = time.Now().Round(time.Second).UTC()
	}

	if m.UpdatedAt.IsZero() {
		updatedAt = time.Now().Round(time.Second).UTC()
	}

	d.ID = m.ID
	d.UserID = m.UserID
	d.DeviceID = m.DeviceID
	d.TelemetryID = m.TelemetryID
	d.Message = m.Message
	d.Severity = string(m.Severity)
	d.IsRead = m.IsRead
	d.ReadAt = m.ReadAt
	d.CreatedAt = createdAt
	d.UpdatedAt = updatedAt

	return nil
}

func (d *sqlDataNotification) Model() (*model.Notification, error) {
	m := &model.Notification{
		ID:          d.ID,
		UserID:      d.UserID,
		DeviceID:    d.DeviceID,
		TelemetryID: d.TelemetryID,
		Message:     d.Message,
		Severity:    model.Severity(d.Severity),
		IsRead:      d.IsRead,
		ReadAt:      d.ReadAt,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}

	return m, nil
}

func (s *notificationStore) FetchByUserID(userID int32, unreadOnly bool) ([]model.Notification, error) {
	return fetchNotificationsByUserID(s.db, userID, unreadOnly)
}

func (s *notificationStore) FindByID(id int32) (*model.Notification, error) {
	return findNotificationByID(s.db, id)
}

func (s *notificationStore) Create(m *model.Notification) error {
	return createNotification(s.db, m)
}

func (s *notificationStore) MarkAsRead(id int32, readAt time.Time) error {
	return markNotificationAsRead(s.db, id, readAt)
}

func fetchNotificationsByUserID(db database, userID int32, unreadOnly bool) ([]model.Notification, error) {
	rows := make([]sqlDataNotification, 0)

	query := "SELECT * FROM notifications WHERE user_id=$1 ORDER BY created_at DESC"
	if unreadOnly {
		query = "SELECT * FROM notifications WHERE user_id=$1 AND is_read=false ORDER BY created_at DESC"
	}

	if err := db.Select(&rows, query, userID); err != nil {
		return nil, errors.Wrap(err, "failed to fetch notifications")
	}

	models := make([]model.Notification, 0, len(rows))
	for _, d := range rows {
		m, err := d.Model()
		if err != nil {
			return nil, errors.Wrap(err, "failed to convert SQL data to notification model")
		}

		models = append(models, *m)
	}

	return models, nil
}

func findNotificationByID(db database, id int32) (*model.Notification, error) {
	d := sqlDataNotification{}
	query := "SELECT * FROM notifications WHERE id=$1"
	if err := db.Get(&d, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find notification")
	}

	return d.Model()
}

func createNotification(db database, m *model.Notification) error {
	d := sqlDataNotification{}
	if err := d.Scan(m); err != nil {
		return errors.Wrap(err, "failed to convert notification model to SQL data")
	}

	// Remove the id column because it's of SQL type serial
	sqlParamsWithoutID := make([]string, 0)
	for _, s := range sqlParamsNotification {
		if s != "id" {
			sqlParamsWithoutID = append(sqlParamsWithoutID, s)
		}
	}

	query := fmt.Sprintf(
		"INSERT INTO notifications (%s) VALUES (%s) RETURNING id",
		strings.Join(sqlParamsWithoutID, ", "),
		":"+strings.Join(sqlParamsWithoutID, ", :"),
	)
	rows, err := db.NamedQuery(query, d)
	if err != nil {
		return errors.Wrap(err, "failed to create notification")
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&m.ID)
	}

	return nil
}

func markNotificationAsRead(db database, id int32, readAt time.Time) error {
	query := "UPDATE notifications SET is_read=true, read_at=$2, updated_at=$3 WHERE id=$1"
	res, err := db.Exec(query, id, readAt.UTC(), time.Now().Round(time.Second).UTC())
	if err != nil {
		return errors.Wrap(err, "failed to mark notification as read")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}

	return nil
}
