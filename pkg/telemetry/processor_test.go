package telemetry

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Plantigo/plantigo-backend/pkg/model"
	"github.com/Plantigo/plantigo-backend/pkg/queue"
	queuememory "github.com/Plantigo/plantigo-backend/pkg/queue/memory"
	"github.com/Plantigo/plantigo-backend/pkg/storage"
	"github.com/Plantigo/plantigo-backend/pkg/storage/memory"
)

func newTestProcessor(t *testing.T, st storage.Interface, q queue.Queue) *Processor {
	t.Helper()

	p := NewProcessor(st, q, nil, Config{
		BatchSize:      100,
		MaxRetries:     3,
		RetryBaseDelay: time.Millisecond,
		IdleDelay:      time.Millisecond,
		ActivityWindow: 4 * time.Hour,
		LocalZone:      time.UTC,
	})
	p.now = func() time.Time {
		return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	}

	return p
}

func createTestDevice(t *testing.T, st storage.Interface, mac string) *model.Device {
	t.Helper()

	m := &model.Device{
		Name:       "greenhouse",
		MACAddress: mac,
		UserID:     7,
	}
	require.NoError(t, st.Devices().Create(m))

	return m
}

func pushReading(t *testing.T, q queue.Queue, fields map[string]interface{}) {
	t.Helper()

	entry, err := json.Marshal(fields)
	require.NoError(t, err)
	require.NoError(t, q.Push(context.Background(), entry))
}

func TestProcessBatchEmptyQueue(t *testing.T) {
	st := memory.NewStore()
	q := queuememory.NewQueue()
	p := newTestProcessor(t, st, q)

	sum, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{}, sum)
}

func TestProcessBatchMixedEntries(t *testing.T) {
	st := memory.NewStore()
	q := queuememory.NewQueue()
	p := newTestProcessor(t, st, q)

	device := createTestDevice(t, st, "10:06:1C:41:D1:04")
	require.NoError(t, st.Telemetry().Create(&model.Telemetry{
		DeviceID:     device.ID,
		Temperature:  21.0,
		Humidity:     50.0,
		Pressure:     1013.0,
		SoilMoisture: 40,
		Timestamp:    time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}))

	pushReading(t, q, map[string]interface{}{
		"mac_address": "10061c41d104", "temperature": 22.5, "humidity": 55.0,
		"pressure": 1012.0, "soil_moisture": 42, "timestamp": "2024-06-01T11:00:00Z",
	})
	pushReading(t, q, map[string]interface{}{
		"mac_address": "10061c41d104", "temperature": 21.0, "humidity": 50.0,
		"pressure": 1013.0, "soil_moisture": 40, "timestamp": "2024-06-01T10:00:00Z",
	})
	require.NoError(t, q.Push(context.Background(), []byte("{not json")))

	sum, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Processed)
	assert.Equal(t, 1, sum.Persisted)
	assert.Equal(t, 1, sum.Duplicates)
	assert.Equal(t, 1, sum.Errors)

	n, err := q.Length(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	ms, err := st.Telemetry().FetchByDeviceID(device.ID, 10)
	require.NoError(t, err)
	assert.Len(t, ms, 2)
}

func TestProcessBatchUnknownDevice(t *testing.T) {
	st := memory.NewStore()
	q := queuememory.NewQueue()
	p := newTestProcessor(t, st, q)

	pushReading(t, q, map[string]interface{}{
		"mac_address": "ffffffffffff", "temperature": 22.5, "humidity": 55.0,
		"pressure": 1012.0, "soil_moisture": 42, "timestamp": "2024-06-01T11:00:00Z",
	})

	sum, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, 0, sum.Persisted)
	assert.Equal(t, 1, sum.Errors)

	n, err := q.Length(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestProcessBatchMissingFieldIsError(t *testing.T) {
	st := memory.NewStore()
	q := queuememory.NewQueue()
	p := newTestProcessor(t, st, q)

	createTestDevice(t, st, "10:06:1C:41:D1:04")

	pushReading(t, q, map[string]interface{}{
		"mac_address": "10061c41d104", "temperature": 22.5,
		"timestamp": "2024-06-01T11:00:00Z",
	})

	sum, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Errors)
	assert.Equal(t, 0, sum.Persisted)
}

func TestProcessBatchReplayIsIdempotent(t *testing.T) {
	st := memory.NewStore()
	q := queuememory.NewQueue()
	p := newTestProcessor(t, st, q)

	device := createTestDevice(t, st, "10:06:1C:41:D1:04")

	reading := map[string]interface{}{
		"mac_address": "10061c41d104", "temperature": 22.5, "humidity": 55.0,
		"pressure": 1012.0, "soil_moisture": 42, "timestamp": "2024-06-01T11:00:00Z",
	}

	pushReading(t, q, reading)
	sum, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Persisted)

	pushReading(t, q, reading)
	sum, err = p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Persisted)
	assert.Equal(t, 1, sum.Duplicates)

	ms, err := st.Telemetry().FetchByDeviceID(device.ID, 10)
	require.NoError(t, err)
	assert.Len(t, ms, 1)
}

func TestProcessBatchInBatchDuplicate(t *testing.T) {
	st := memory.NewStore()
	q := queuememory.NewQueue()
	p := newTestProcessor(t, st, q)

	createTestDevice(t, st, "10:06:1C:41:D1:04")

	reading := map[string]interface{}{
		"mac_address": "10061c41d104", "temperature": 22.5, "humidity": 55.0,
		"pressure": 1012.0, "soil_moisture": 42, "timestamp": "2024-06-01T11:00:00Z",
	}
	pushReading(t, q, reading)
	pushReading(t, q, reading)

	sum, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Persisted)
	assert.Equal(t, 1, sum.Duplicates)
}

func TestProcessBatchInsertsChronologically(t *testing.T) {
	st := memory.NewStore()
	q := queuememory.NewQueue()
	p := newTestProcessor(t, st, q)

	device := createTestDevice(t, st, "10:06:1C:41:D1:04")

	for _, hour := range []int{11, 9, 10} {
		pushReading(t, q, map[string]interface{}{
			"mac_address": "10061c41d104", "temperature": 22.5, "humidity": 55.0,
			"pressure": 1012.0, "soil_moisture": 42,
			"timestamp": time.Date(2024, 6, 1, hour, 0, 0, 0, time.UTC).Format(time.RFC3339),
		})
	}

	sum, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Persisted)

	ms, err := st.Telemetry().FetchByDeviceID(device.ID, 10)
	require.NoError(t, err)
	require.Len(t, ms, 3)

	// Assigned IDs follow timestamp order regardless of arrival order
	for i := 0; i < len(ms)-1; i++ {
		assert.True(t, ms[i].Timestamp.After(ms[i+1].Timestamp))
		assert.True(t, ms[i].ID > ms[i+1].ID)
	}
}

func TestProcessBatchNaiveTimestampUsesLocalZone(t *testing.T) {
	st := memory.NewStore()
	q := queuememory.NewQueue()

	warsaw, err := time.LoadLocation("Europe/Warsaw")
	require.NoError(t, err)

	p := NewProcessor(st, q, nil, Config{
		RetryBaseDelay: time.Millisecond,
		LocalZone:      warsaw,
	})
	p.now = func() time.Time {
		return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	}

	device := createTestDevice(t, st, "10:06:1C:41:D1:04")

	pushReading(t, q, map[string]interface{}{
		"mac_address": "10061c41d104", "temperature": 22.5, "humidity": 55.0,
		"pressure": 1012.0, "soil_moisture": 42, "timestamp": "2024-06-01T10:00:00",
	})

	_, err = p.ProcessBatch(context.Background())
	require.NoError(t, err)

	m, err := st.Telemetry().LatestByDeviceID(device.ID)
	require.NoError(t, err)
	// CEST is UTC+2 in June
	assert.Equal(t, time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC), m.Timestamp)
}

func TestProcessBatchCreatesNotifications(t *testing.T) {
	st := memory.NewStore()
	q := queuememory.NewQueue()
	p := newTestProcessor(t, st, q)

	device := createTestDevice(t, st, "10:06:1C:41:D1:04")
	require.NoError(t, st.SensorLimits().Upsert(&model.SensorLimits{
		DeviceID: device.ID,
		TempMin:  18.0, TempMax: 25.0,
		HumidityMin: 40.0, HumidityMax: 70.0,
		PressureMin: 990.0, PressureMax: 1030.0,
		SoilMoistureMin: 20, SoilMoistureMax: 80,
	}))

	pushReading(t, q, map[string]interface{}{
		"mac_address": "10061c41d104", "temperature": 30.0, "humidity": 55.0,
		"pressure": 1012.0, "soil_moisture": 42, "timestamp": "2024-06-01T11:00:00Z",
	})

	sum, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Notifications)

	ns, err := st.Notifications().FetchByUserID(device.UserID, false)
	require.NoError(t, err)
	require.Len(t, ns, 1)

	assert.Equal(t, device.ID, ns[0].DeviceID)
	assert.NotZero(t, ns[0].TelemetryID)
	assert.Equal(t, model.SeverityWarning, ns[0].Severity)
	assert.Contains(t, ns[0].Message, "30.0")
	assert.Contains(t, ns[0].Message, "25.0")
	assert.False(t, ns[0].IsRead)
}

func TestProcessBatchWithinLimitsCreatesNoNotification(t *testing.T) {
	st := memory.NewStore()
	q := queuememory.NewQueue()
	p := newTestProcessor(t, st, q)

	device := createTestDevice(t, st, "10:06:1C:41:D1:04")
	require.NoError(t, st.SensorLimits().Upsert(&model.SensorLimits{
		DeviceID: device.ID,
		TempMin:  18.0, TempMax: 25.0,
		HumidityMin: 40.0, HumidityMax: 70.0,
		PressureMin: 990.0, PressureMax: 1030.0,
		SoilMoistureMin: 20, SoilMoistureMax: 80,
	}))

	pushReading(t, q, map[string]interface{}{
		"mac_address": "10061c41d104", "temperature": 22.0, "humidity": 55.0,
		"pressure": 1012.0, "soil_moisture": 42, "timestamp": "2024-06-01T11:00:00Z",
	})

	sum, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Notifications)

	ns, err := st.Notifications().FetchByUserID(device.UserID, false)
	require.NoError(t, err)
	assert.Len(t, ns, 0)
}

func TestProcessBatchUpdatesActivity(t *testing.T) {
	st := memory.NewStore()
	q := queuememory.NewQueue()
	p := newTestProcessor(t, st, q)

	fresh := createTestDevice(t, st, "10:06:1C:41:D1:04")
	stale := createTestDevice(t, st, "AA:BB:CC:DD:EE:FF")

	// Within the 4 hour window relative to the fixed clock
	pushReading(t, q, map[string]interface{}{
		"mac_address": "10061c41d104", "temperature": 22.5, "humidity": 55.0,
		"pressure": 1012.0, "soil_moisture": 42, "timestamp": "2024-06-01T11:00:00Z",
	})
	// Hours outside of it
	pushReading(t, q, map[string]interface{}{
		"mac_address": "aabbccddeeff", "temperature": 22.5, "humidity": 55.0,
		"pressure": 1012.0, "soil_moisture": 42, "timestamp": "2024-06-01T01:00:00Z",
	})

	_, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)

	m, err := st.Devices().FindByID(fresh.ID)
	require.NoError(t, err)
	assert.True(t, m.IsActive)

	m, err = st.Devices().FindByID(stale.ID)
	require.NoError(t, err)
	assert.False(t, m.IsActive)
}

// failingStore makes the first n transactions fail before delegating.
type failingStore struct {
	storage.Interface
	failures int
}

func (s *failingStore) Atomically(fn func(tx storage.Interface) error) error {
	if s.failures > 0 {
		s.failures--
		return errors.New("connection reset")
	}

	return s.Interface.Atomically(fn)
}

func TestProcessBatchRetriesFailedCommit(t *testing.T) {
	st := memory.NewStore()
	q := queuememory.NewQueue()
	flaky := &failingStore{Interface: st, failures: 1}
	p := newTestProcessor(t, flaky, q)

	device := createTestDevice(t, st, "10:06:1C:41:D1:04")

	pushReading(t, q, map[string]interface{}{
		"mac_address": "10061c41d104", "temperature": 22.5, "humidity": 55.0,
		"pressure": 1012.0, "soil_moisture": 42, "timestamp": "2024-06-01T11:00:00Z",
	})

	sum, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Persisted)

	ms, err := st.Telemetry().FetchByDeviceID(device.ID, 10)
	require.NoError(t, err)
	assert.Len(t, ms, 1)

	n, err := q.Length(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestProcessBatchExhaustedRetriesKeepQueue(t *testing.T) {
	st := memory.NewStore()
	q := queuememory.NewQueue()
	flaky := &failingStore{Interface: st, failures: 10}
	p := newTestProcessor(t, flaky, q)

	createTestDevice(t, st, "10:06:1C:41:D1:04")

	pushReading(t, q, map[string]interface{}{
		"mac_address": "10061c41d104", "temperature": 22.5, "humidity": 55.0,
		"pressure": 1012.0, "soil_moisture": 42, "timestamp": "2024-06-01T11:00:00Z",
	})

	_, err := p.ProcessBatch(context.Background())
	require.Error(t, err)

	// Nothing persisted, nothing purged
	_, err = st.Telemetry().LatestByDeviceID(1)
	assert.Equal(t, storage.ErrNotFound, err)

	n, err := q.Length(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	st := memory.NewStore()
	q := queuememory.NewQueue()
	p := newTestProcessor(t, st, q)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("processor did not stop after cancellation")
	}
}
