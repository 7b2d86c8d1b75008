package script

import "sync"

// Progress reports the 1-based playback position within a store.
type Progress struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// Store holds an ordered command sequence and a cursor to the current
// command. It is safe for concurrent use: the streaming ingestion path
// appends while the playback path reads and moves the cursor, and a reader
// must never observe a partially-appended batch.
//
// Invariant: 0 <= cursor < len(commands) whenever the store is non-empty.
// Append never moves the cursor.
type Store struct {
	mu       sync.Mutex
	commands []Command
	cursor   int
}

func NewStore() *Store {
	return &Store{}
}

// Replace discards the sequence and installs a new one, cursor at 0.
func (s *Store) Replace(commands []Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = commands
	s.cursor = 0
}

// Append concatenates commands at the end of the sequence. The cursor and
// any existing commands are untouched.
func (s *Store) Append(commands []Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, commands...)
}

// Reset moves the cursor back to the first command. Calling it twice is the
// same as calling it once.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = 0
}

// Current returns the command under the cursor, or false if the store is
// empty.
func (s *Store) Current() (Command, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.commands) == 0 {
		return nil, false
	}
	return s.commands[s.cursor], true
}

// Advance moves the cursor forward one command. At the last command it is a
// no-op and reports false.
func (s *Store) Advance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor >= len(s.commands)-1 {
		return false
	}
	s.cursor++
	return true
}

// Retreat moves the cursor back one command. At the first command it is a
// no-op and reports false.
func (s *Store) Retreat() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor <= 0 {
		return false
	}
	s.cursor--
	return true
}

func (s *Store) HasNext() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor < len(s.commands)-1
}

func (s *Store) HasPrevious() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor > 0
}

// SetCursor jumps to an absolute position. Out-of-range indexes are rejected
// without mutation.
func (s *Store) SetCursor(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.commands) {
		return false
	}
	s.cursor = index
	return true
}

// Cursor returns the 0-based cursor position.
func (s *Store) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.commands)
}

// Progress returns the 1-based position, total count and rounded percentage.
func (s *Store) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.commands) == 0 {
		return Progress{}
	}
	current := s.cursor + 1
	total := len(s.commands)
	return Progress{
		Current:    current,
		Total:      total,
		Percentage: (current*100 + total/2) / total,
	}
}
