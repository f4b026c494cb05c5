package conversation

import "sync"

// Sessions хранит состояния диалогов по ID пользователя.
// Состояние создается при первом обращении и живет до перезапуска процесса.
type Sessions struct {
	mu     sync.Mutex
	states map[int64]State
}

func NewSessions() *Sessions {
	return &Sessions{states: make(map[int64]State)}
}

// Get возвращает состояние пользователя, создавая Idle для нового
func (s *Sessions) Get(userID int64) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[userID]
	if !ok {
		st = Idle()
		s.states[userID] = st
	}
	return st
}

// Lookup возвращает состояние без создания
func (s *Sessions) Lookup(userID int64) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[userID]
	return st, ok
}

func (s *Sessions) Set(userID int64, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[userID] = st
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}
