package room

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// memStore is an in-memory RoomStore for actor tests.
type memStore struct {
	mu       sync.Mutex
	rooms    map[string]json.RawMessage
	saves    int
	failNext bool
}

func newMemStore() *memStore {
	return &memStore{rooms: make(map[string]json.RawMessage)}
}

func (m *memStore) SaveRoom(_ context.Context, roomID string, state json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return errors.New("store down")
	}
	m.saves++
	m.rooms[roomID] = append(json.RawMessage(nil), state...)
	return nil
}

func (m *memStore) LoadRoom(_ context.Context, roomID string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.rooms[roomID]
	if !ok {
		return nil, nil
	}
	return append(json.RawMessage(nil), raw...), nil
}

func (m *memStore) DeleteRoom(_ context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, roomID)
	return nil
}

func (m *memStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *memStore) snapshot(roomID string) json.RawMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rooms[roomID]
}

func (m *memStore) failOnce() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = true
}

// stubSocket records frames and close calls.
type stubSocket struct {
	frames chan []byte
	mu     sync.Mutex
	closed bool
	reason string
	full   bool // when set, Send reports an overflowing buffer
}

func newStubSocket() *stubSocket {
	return &stubSocket{frames: make(chan []byte, 256)}
}

func (s *stubSocket) Send(frame []byte) bool {
	s.mu.Lock()
	full := s.full
	s.mu.Unlock()
	if full {
		return false
	}
	select {
	case s.frames <- frame:
		return true
	default:
		return false
	}
}

func (s *stubSocket) Close(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.reason = reason
	}
}

func (s *stubSocket) closedWith() (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed, s.reason
}

// drain decodes every frame buffered so far.
func (s *stubSocket) drain() []serverFrame {
	var out []serverFrame
	for {
		select {
		case raw := <-s.frames:
			var f serverFrame
			if err := json.Unmarshal(raw, &f); err == nil {
				out = append(out, f)
			}
		default:
			return out
		}
	}
}

func frameTypes(frames []serverFrame) []string {
	types := make([]string, len(frames))
	for i, f := range frames {
		types[i] = f.Type
	}
	return types
}

func lastState(frames []serverFrame) *RoomView {
	var view *RoomView
	for _, f := range frames {
		if f.Type == FrameState && f.State != nil {
			view = f.State
		}
	}
	return view
}

func findError(frames []serverFrame, code string) *serverFrame {
	for i, f := range frames {
		if f.Type == FrameError && f.Code == code {
			return &frames[i]
		}
	}
	return nil
}
