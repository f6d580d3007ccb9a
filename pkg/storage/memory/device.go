package memory

import (
	"sync"
	"time"

	"github.com/Plantigo/plantigo-backend/pkg/model"
	"github.com/Plantigo/plantigo-backend/pkg/storage"
)

type deviceStore struct {
	store  map[int32]model.Device
	nextID int32
	sync.RWMutex
}

func newDeviceStore() *deviceStore {
	return &deviceStore{
		store:  make(map[int32]model.Device),
		nextID: 1,
	}
}

func (s *deviceStore) FetchAll() (models map[int32]model.Device, err error) {
	s.RLock()
	defer s.RUnlock()
	models = make(map[int32]model.Device, len(s.store))

	for id, m := range s.store {
		models[id] = m
	}

	return models, nil
}

func (s *deviceStore) FindByID(id int32) (*model.Device, error) {
	s.RLock()
	defer s.RUnlock()
	if m, ok := s.store[id]; ok {
		return &m, nil
	}

	return nil, storage.ErrNotFound
}

func (s *deviceStore) FindByMACAddress(mac string) (*model.Device, error) {
	s.RLock()
	defer s.RUnlock()

	for _, m := range s.store {
		if m.MACAddress == mac {
			return &m, nil
		}
	}

	return nil, storage.ErrNotFound
}

func (s *deviceStore) Create(m *model.Device) error {
	s.Lock()
	defer s.Unlock()

	m.ID = s.getNextID()
	m.CreatedAt = time.Now().Round(time.Second).UTC()
	m.UpdatedAt = time.Now().Round(time.Second).UTC()

	s.store[m.ID] = *m

	return nil
}

func (s *deviceStore) Delete(id int32) error {
	s.Lock()
	defer s.Unlock()

	_, ok := s.store[id]
	if !ok {
		return storage.ErrNotFound
	}

	delete(s.store, id)

	return nil
}

func (s *deviceStore) SetActiveStatus(ids []int32, active bool) error {
	s.Lock()
	defer s.Unlock()

	for _, id := range ids {
		m, ok := s.store[id]
		if !ok {
			continue
		}
		m.IsActive = active
		m.UpdatedAt = time.Now().Round(time.Second).UTC()
		s.store[id] = m
	}

	return nil
}

func (s *deviceStore) getNextID() int32 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *deviceStore) snapshot() map[int32]model.Device {
	s.RLock()
	defer s.RUnlock()

	out := make(map[int32]model.Device, len(s.store))
	for id, m := range s.store {
		out[id] = m
	}
	return out
}

func (s *deviceStore) restore(snap map[int32]model.Device) {
	s.Lock()
	defer s.Unlock()
	s.store = snap
}
