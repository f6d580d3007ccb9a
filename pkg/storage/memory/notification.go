package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/Plantigo/plantigo-backend/pkg/model"
	"github.com/Plantigo/plantigo-backend/pkg/storage"
)

type notificationStore struct {
	store  map[int32]model.Notification
	nextID int32
	sync.RWMutex
}

func newNotificationStore() *notificationStore {
	return &notificationStore{
		store:  make(map[int32]model.Notification),
		nextID: 1,
	}
}

func (s *notificationStore) FetchByUserID(userID int32, unreadOnly bool) ([]model.Notification, error) {
	s.RLock()
	defer s.RUnlock()

	models := make([]model.Notification, 0)
	for _, m := range s.store {
		if m.UserID != userID {
			continue
		}
		if unreadOnly && m.IsRead {
			continue
		}
		models = append(models, m)
	}

	sort.Slice(models, func(i, j int) bool {
		return models[i].CreatedAt.After(models[j].CreatedAt)
	})

	return models, nil
}

func (s *notificationStore) FindByID(id int32) (*model.Notification, error) {
	s.RLock()
	defer s.RUnlock()
	if m, ok := s.store[id]; ok {
		return &m, nil
	}

	return nil, storage.ErrNotFound
}

func (s *notificationStore) Create(m *model.Notification) error {
	s.Lock()
	defer s.Unlock()

	m.ID = s.getNextID()
	if m.Severity == "" {
		m.Severity = model.SeverityWarning
	}
	m.CreatedAt = time.Now().Round(time.Second).UTC()
	m.UpdatedAt = time.Now().Round(time.Second).UTC()

	s.store[m.ID] = *m

	return nil
}

func (s *notificationStore) MarkAsRead(id int32, readAt time.Time) error {
	s.Lock()
	defer s.Unlock()

	m, ok := s.store[id]
	if !ok {
		return storage.ErrNotFound
	}

	if !m.IsRead {
		t := readAt.UTC()
		m.IsRead = true
		m.ReadAt = &t
		m.UpdatedAt = time.Now().Round(time.Second).UTC()
		s.store[id] = m
	}

	return nil
}

func (s *notificationStore) getNextID() int32 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *notificationStore) snapshot() map[int32]model.Notification {
	s.RLock()
	defer s.RUnlock()

	out := make(map[int32]model.Notification, len(s.store))
	for id, m := range s.store {
		out[id] = m
	}
	return out
}

func (s *notificationStore) restore(snap map[int32]model.Notification) {
	s.Lock()
	defer s.Unlock()
	s.store = snap
}
