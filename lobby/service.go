// Package lobby tracks connected clients and the room each one sits in.
package lobby

import (
	"sync"

	"candy-rush/models"
)

type entry struct {
	client *models.Client
	room   string
}

type Service struct {
	mu      sync.RWMutex
	clients map[string]*entry
	order   []string
}

func NewService() *Service {
	return &Service{
		clients: make(map[string]*entry),
		order:   make([]string, 0),
	}
}

func (s *Service) Add(client *models.Client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.clients[client.ID]; exists {
		return false
	}

	s.clients[client.ID] = &entry{client: client}
	s.order = append(s.order, client.ID)
	return true
}

// Remove drops the client and returns the room code it was in, if any.
func (s *Service) Remove(clientID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.clients[clientID]
	if !exists {
		return ""
	}
	delete(s.clients, clientID)
	for i, id := range s.order {
		if id == clientID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return e.room
}

func (s *Service) Get(clientID string) (*models.Client, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.clients[clientID]
	if !exists {
		return nil, false
	}
	return e.client, true
}

// SetRoom records the room a client sits in; an empty code clears it.
func (s *Service) SetRoom(clientID, code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.clients[clientID]
	if !exists {
		return false
	}
	e.room = code
	return true
}

func (s *Service) RoomOf(clientID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, exists := s.clients[clientID]; exists {
		return e.room
	}
	return ""
}

// Snapshot returns connected clients in connection order.
func (s *Service) Snapshot() []*models.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Client, 0, len(s.order))
	for _, id := range s.order {
		if e, exists := s.clients[id]; exists {
			result = append(result, e.client)
		}
	}
	return result
}

func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}
