package memory

import (
	"sync"
	"time"

	"github.com/Plantigo/plantigo-backend/pkg/model"
	"github.com/Plantigo/plantigo-backend/pkg/storage"
)

type sensorLimitsStore struct {
	store  map[int32]model.SensorLimits
	nextID int32
	sync.RWMutex
}

func newSensorLimitsStore() *sensorLimitsStore {
	return &sensorLimitsStore{
		store:  make(map[int32]model.SensorLimits),
		nextID: 1,
	}
}

func (s *sensorLimitsStore) FindByDeviceID(deviceID int32) (*model.SensorLimits, error) {
	s.RLock()
	defer s.RUnlock()

	for _, m := range s.store {
		if m.DeviceID == deviceID {
			return &m, nil
		}
	}

	return nil, storage.ErrNotFound
}

func (s *sensorLimitsStore) Upsert(m *model.SensorLimits) error {
	s.Lock()
	defer s.Unlock()

	for id, existing := range s.store {
		if existing.DeviceID == m.DeviceID {
			m.ID = id
			m.CreatedAt = existing.CreatedAt
			m.UpdatedAt = time.Now().Round(time.Second).UTC()
			s.store[id] = *m
			return nil
		}
	}

	m.ID = s.getNextID()
	m.CreatedAt = time.Now().Round(time.Second).UTC()
	m.UpdatedAt = time.Now().Round(time.Second).UTC()
	s.store[m.ID] = *m

	return nil
}

func (s *sensorLimitsStore) Delete(deviceID int32) error {
	s.Lock()
	defer s.Unlock()

	for id, m := range s.store {
		if m.DeviceID == deviceID {
			delete(s.store, id)
			return nil
		}
	}

	return storage.ErrNotFound
}

func (s *sensorLimitsStore) getNextID() int32 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *sensorLimitsStore) snapshot() map[int32]model.SensorLimits {
	s.RLock()
	defer s.RUnlock()

	out := make(map[int32]model.SensorLimits, len(s.store))
	for id, m := range s.store {
		out[id] = m
	}
	return out
}

func (s *sensorLimitsStore) restore(snap map[int32]model.SensorLimits) {
	s.Lock()
	defer s.Unlock()
	s.store = snap
}
