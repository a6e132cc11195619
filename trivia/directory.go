/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia

import (
	"sync"

	"github.com/samber/lo"
)

// ConnID identifies one live transport connection.
type ConnID string

// Membership links a live connection to the session and identity it
// currently represents.
type Membership struct {
	Name   string
	Code   string
	IsHost bool
}

// Directory maps connections to their session membership, and doubles as
// the room index used for multicast.
type Directory struct {
	mu      sync.RWMutex
	entries map[ConnID]Membership
	rooms   map[string]map[ConnID]struct{}
}

func NewDirectory() *Directory {
	return &Directory{
		entries: make(map[ConnID]Membership),
		rooms:   make(map[string]map[ConnID]struct{}),
	}
}

// Set attaches conn to m.Code, replacing any previous membership.
func (d *Directory) Set(conn ConnID, m Membership) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.deleteLocked(conn)

	d.entries[conn] = m
	if d.rooms[m.Code] == nil {
		d.rooms[m.Code] = make(map[ConnID]struct{})
	}
	d.rooms[m.Code][conn] = struct{}{}
}

func (d *Directory) Get(conn ConnID) (Membership, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	m, ok := d.entries[conn]
	return m, ok
}

// Delete detaches conn and returns the membership it held, if any.
func (d *Directory) Delete(conn ConnID) (Membership, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.deleteLocked(conn)
}

func (d *Directory) deleteLocked(conn ConnID) (Membership, bool) {
	m, ok := d.entries[conn]
	if !ok {
		return Membership{}, false
	}

	delete(d.entries, conn)
	if room, exists := d.rooms[m.Code]; exists {
		delete(room, conn)
		if len(room) == 0 {
			delete(d.rooms, m.Code)
		}
	}

	return m, true
}

// Room returns every connection currently attached to code.
func (d *Directory) Room(code string) []ConnID {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return lo.Keys(d.rooms[code])
}

// Occupied reports whether any connection is attached to code.
func (d *Directory) Occupied(code string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.rooms[code]) > 0
}
