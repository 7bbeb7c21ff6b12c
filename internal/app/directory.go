package app

import (
	"sync"

	"quiz-room-service/internal/domain"
)

// Directory maps live connection ids to their room and role. It is the
// inverse index used to resolve a disconnect without scanning rooms.
type Directory struct {
	mu      sync.RWMutex
	entries map[string]domain.DirectoryEntry
}

func NewDirectory() *Directory {
	return &Directory{entries: make(map[string]domain.DirectoryEntry)}
}

// Bind registers connID. It returns false if the connection is already bound.
func (d *Directory) Bind(connID string, entry domain.DirectoryEntry) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.entries[connID]; exists {
		return false
	}
	d.entries[connID] = entry
	return true
}

func (d *Directory) Lookup(connID string) (domain.DirectoryEntry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	entry, ok := d.entries[connID]
	return entry, ok
}

// UnbindRoom drops connID only while it still points at roomCode.
func (d *Directory) UnbindRoom(connID, roomCode string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry, ok := d.entries[connID]
	if !ok || entry.RoomCode != roomCode {
		return false
	}
	delete(d.entries, connID)
	return true
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}
