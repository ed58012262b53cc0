package game

import "sync"

// SessionStore keeps the live sessions of this process, keyed by room.
type SessionStore struct {
	locker   sync.RWMutex
	sessions map[string]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: map[string]*Session{}}
}

func (ss *SessionStore) Create(roomId string, settings Settings) (*Session, error) {
	ss.locker.Lock()
	defer ss.locker.Unlock()

	if _, exists := ss.sessions[roomId]; exists {
		return nil, ErrSessionRunning
	}
	s := newSession(roomId, settings)
	ss.sessions[roomId] = s
	return s, nil
}

func (ss *SessionStore) Get(roomId string) (*Session, bool) {
	ss.locker.RLock()
	defer ss.locker.RUnlock()
	s, ok := ss.sessions[roomId]
	return s, ok
}

func (ss *SessionStore) Delete(roomId string) {
	ss.locker.Lock()
	delete(ss.sessions, roomId)
	ss.locker.Unlock()
}

func (ss *SessionStore) Len() int {
	ss.locker.RLock()
	defer ss.locker.RUnlock()
	return len(ss.sessions)
}

func (ss *SessionStore) Snapshot() []*Session {
	ss.locker.RLock()
	defer ss.locker.RUnlock()
	res := make([]*Session, 0, len(ss.sessions))
	for _, s := range ss.sessions {
		res = append(res, s)
	}
	return res
}
