package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/Plantigo/plantigo-backend/pkg/model"
	"github.com/Plantigo/plantigo-backend/pkg/storage"
)

type telemetryStore struct {
	store  map[int32]model.Telemetry
	nextID int32
	sync.RWMutex
}

func newTelemetryStore() *telemetryStore {
	return &telemetryStore{
		store:  make(map[int32]model.Telemetry),
		nextID: 1,
	}
}

func (s *telemetryStore) FindByID(id int32) (*model.Telemetry, error) {
	s.RLock()
	defer s.RUnlock()
	if m, ok := s.store[id]; ok {
		return &m, nil
	}

	return nil, storage.ErrNotFound
}

func (s *telemetryStore) FetchByDeviceID(deviceID int32, limit int) ([]model.Telemetry, error) {
	s.RLock()
	defer s.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	models := make([]model.Telemetry, 0)
	for _, m := range s.store {
		if m.DeviceID == deviceID {
			models = append(models, m)
		}
	}

	sort.Slice(models, func(i, j int) bool {
		return models[i].Timestamp.After(models[j].Timestamp)
	})

	if len(models) > limit {
		models = models[:limit]
	}

	return models, nil
}

func (s *telemetryStore) LatestByDeviceID(deviceID int32) (*model.Telemetry, error) {
	s.RLock()
	defer s.RUnlock()

	var latest *model.Telemetry
	for _, m := range s.store {
		if m.DeviceID != deviceID {
			continue
		}
		m := m
		if latest == nil || m.Timestamp.After(latest.Timestamp) {
			latest = &m
		}
	}

	if latest == nil {
		return nil, storage.ErrNotFound
	}

	return latest, nil
}

func (s *telemetryStore) ExistsByDeviceAndTimestamp(deviceID int32, ts time.Time) (bool, error) {
	s.RLock()
	defer s.RUnlock()

	for _, m := range s.store {
		if m.DeviceID == deviceID && m.Timestamp.Equal(ts) {
			return true, nil
		}
	}

	return false, nil
}

func (s *telemetryStore) Create(m *model.Telemetry) error {
	s.Lock()
	defer s.Unlock()

	return s.create(m)
}

func (s *telemetryStore) CreateBatch(ms []*model.Telemetry) error {
	s.Lock()
	defer s.Unlock()

	for _, m := range ms {
		if err := s.create(m); err != nil {
			return err
		}
	}

	return nil
}

func (s *telemetryStore) create(m *model.Telemetry) error {
	m.ID = s.getNextID()
	m.Timestamp = m.Timestamp.UTC()
	m.CreatedAt = time.Now().Round(time.Second).UTC()
	m.UpdatedAt = time.Now().Round(time.Second).UTC()

	s.store[m.ID] = *m

	return nil
}

func (s *telemetryStore) getNextID() int32 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *telemetryStore) snapshot() map[int32]model.Telemetry {
	s.RLock()
	defer s.RUnlock()

	out := make(map[int32]model.Telemetry, len(s.store))
	for id, m := range s.store {
		out[id] = m
	}
	return out
}

func (s *telemetryStore) restore(snap map[int32]model.Telemetry) {
	s.Lock()
	defer s.Unlock()
	s.store = snap
}
