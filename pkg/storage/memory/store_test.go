package memory

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Plantigo/plantigo-backend/pkg/model"
	"github.com/Plantigo/plantigo-backend/pkg/storage"
)

func TestAtomicallyCommits(t *testing.T) {
	st := NewStore()

	err := st.Atomically(func(tx storage.Interface) error {
		return tx.Devices().Create(&model.Device{
			Name:       "greenhouse",
			MACAddress: "10:06:1C:41:D1:04",
			UserID:     7,
		})
	})
	require.NoError(t, err)

	m, err := st.Devices().FindByMACAddress("10:06:1C:41:D1:04")
	require.NoError(t, err)
	assert.Equal(t, "greenhouse", m.Name)
}

func TestAtomicallyRollsBackOnError(t *testing.T) {
	st := NewStore()

	device := &model.Device{
		Name:       "greenhouse",
		MACAddress: "10:06:1C:41:D1:04",
		UserID:     7,
	}
	require.NoError(t, st.Devices().Create(device))

	err := st.Atomically(func(tx storage.Interface) error {
		if err := tx.Telemetry().Create(&model.Telemetry{
			DeviceID:  device.ID,
			Timestamp: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		}); err != nil {
			return err
		}
		if err := tx.Notifications().Create(&model.Notification{
			UserID:   device.UserID,
			DeviceID: device.ID,
			Message:  "Temperature out of range",
			Severity: model.SeverityWarning,
		}); err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)

	_, err = st.Telemetry().LatestByDeviceID(device.ID)
	assert.Equal(t, storage.ErrNotFound, err)

	ns, err := st.Notifications().FetchByUserID(device.UserID, false)
	require.NoError(t, err)
	assert.Len(t, ns, 0)
}

func TestMarkNotificationAsRead(t *testing.T) {
	st := NewStore()

	n := &model.Notification{
		UserID:   7,
		DeviceID: 1,
		Message:  "Temperature out of range",
		Severity: model.SeverityWarning,
	}
	require.NoError(t, st.Notifications().Create(n))

	readAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, st.Notifications().MarkAsRead(n.ID, readAt))

	m, err := st.Notifications().FindByID(n.ID)
	require.NoError(t, err)
	assert.True(t, m.IsRead)
	require.NotNil(t, m.ReadAt)
	assert.Equal(t, readAt, *m.ReadAt)

	unread, err := st.Notifications().FetchByUserID(7, true)
	require.NoError(t, err)
	assert.Len(t, unread, 0)
}

func TestMarkNotificationAsReadNotFound(t *testing.T) {
	st := NewStore()

	err := st.Notifications().MarkAsRead(42, time.Now())
	assert.Equal(t, storage.ErrNotFound, err)
}

func TestSensorLimitsUpsert(t *testing.T) {
	st := NewStore()

	limits := &model.SensorLimits{
		DeviceID: 1,
		TempMin:  18.0, TempMax: 25.0,
	}
	require.NoError(t, st.SensorLimits().Upsert(limits))

	limits.TempMax = 27.0
	require.NoError(t, st.SensorLimits().Upsert(limits))

	m, err := st.SensorLimits().FindByDeviceID(1)
	require.NoError(t, err)
	assert.Equal(t, 27.0, m.TempMax)
}

func TestSetActiveStatus(t *testing.T) {
	st := NewStore()

	a := &model.Device{Name: "a", MACAddress: "AA:AA:AA:AA:AA:AA", UserID: 1}
	b := &model.Device{Name: "b", MACAddress: "BB:BB:BB:BB:BB:BB", UserID: 1}
	require.NoError(t, st.Devices().Create(a))
	require.NoError(t, st.Devices().Create(b))

	require.NoError(t, st.Devices().SetActiveStatus([]int32{a.ID, b.ID}, true))

	m, err := st.Devices().FindByID(a.ID)
	require.NoError(t, err)
	assert.True(t, m.IsActive)

	require.NoError(t, st.Devices().SetActiveStatus([]int32{b.ID}, false))

	m, err = st.Devices().FindByID(b.ID)
	require.NoError(t, err)
	assert.False(t, m.IsActive)
}
