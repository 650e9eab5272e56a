package service

import "sync"

// Roles carried in issued tokens.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// RequestScope carries the identity behind a request and the user-facing
// messages produced while serving it. Handlers create one per request and
// return the collected messages in the response metadata.
type RequestScope struct {
	UserID        uint
	Role          string
	CorrelationID string

	mu       sync.Mutex
	messages []string
}

// NewRequestScope constructs a scope for one request.
func NewRequestScope(userID uint, role, correlationID string) *RequestScope {
	return &RequestScope{UserID: userID, Role: role, CorrelationID: correlationID}
}

// AddMessage queues a message for the client. A nil scope drops it.
func (s *RequestScope) AddMessage(message string) {
	if s == nil || message == "" {
		return
	}
	s.mu.Lock()
	s.messages = append(s.messages, message)
	s.mu.Unlock()
}

// Messages returns the queued messages in insertion order.
func (s *RequestScope) Messages() []string {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}

// Actor returns the scope identity as an audit actor.
func (s *RequestScope) Actor() ActivityActor {
	if s == nil {
		return ActivityActor{}
	}
	return ActivityActor{ID: s.UserID, Role: s.Role}
}
