package resource

import (
	"time"

	"github.com/Plantigo/plantigo-backend/pkg/model"
)

type NotificationResource struct {
	ID          int32      `json:"id"`
	UserID      int32      `json:"userId"`
	DeviceID    int32      `json:"deviceId"`
	TelemetryID int32      `json:"telemetryId"`
	Message     string     `json:"message"`
	Severity    string     `json:"severity"`
	IsRead      bool       `json:"isRead"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

type NotificationListResource struct {
	Members []*NotificationResource `json:"members"`
}

func NewNotification(m *model.Notification) (out *NotificationResource) {
	out = &NotificationResource{
		ID:          m.ID,
		UserID:      m.UserID,
		DeviceID:    m.DeviceID,
		TelemetryID: m.TelemetryID,
		Message:     m.Message,
		Severity:    string(m.Severity),
		IsRead:      m.IsRead,
		ReadAt:      m.ReadAt,
	}

	if !m.CreatedAt.IsZero() {
		out.CreatedAt = &time.Time{}
		*out.CreatedAt = m.CreatedAt.Round(time.Second)
	}

	return // out
}

func NewNotificationList(ms []model.Notification) (out *NotificationListResource) {
	out = &NotificationListResource{
		Members: make([]*NotificationResource, 0),
	}

	for i := range ms {
		out.Members = append(out.Members, NewNotification(&ms[i]))
	}

	return // out
}
