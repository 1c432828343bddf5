// Package realtime tracks live connections, their room memberships, and the
// fan-out of messages to rooms. It is the only component that mutates room
// membership; callers see nothing but Register/Join/Disconnect/Broadcast.
package realtime

import (
	"log"
	"sync"

	"golang.org/x/sync/errgroup"
)

// RoomKind names the three audiences of a game.
type RoomKind string

const (
	RoomGame  RoomKind = "game"
	RoomAdmin RoomKind = "admin"
	RoomLive  RoomKind = "live"
)

// Message is the {type, data} envelope delivered to room members.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Conn is an open transport handle. Send must be safe for concurrent use;
// a Send error marks the connection dead.
type Conn interface {
	Send(msg Message) error
	Close() error
}

// maxFanout bounds concurrent deliveries during a single broadcast.
const maxFanout = 64

// Registry owns the connection table and per-(kind, game) member sets. A
// connection holds at most one membership per room kind at a time.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]Conn
	rooms  map[RoomKind]map[string]map[string]struct{}
	byConn map[string]map[RoomKind]string
}

func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[string]Conn),
		rooms:  make(map[RoomKind]map[string]map[string]struct{}),
		byConn: make(map[string]map[RoomKind]string),
	}
}

// Register adds a connection handle. Registering the same ID again replaces
// the handle but keeps existing memberships.
func (r *Registry) Register(connID string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connID] = conn
	if _, ok := r.byConn[connID]; !ok {
		r.byConn[connID] = make(map[RoomKind]string)
	}
}

// Join adds the connection to the (kind, gameCode) room. Joining a room the
// connection already belongs to is a no-op; joining a different game under the
// same kind moves the connection.
func (r *Registry) Join(connID string, kind RoomKind, gameCode string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[connID]; !ok {
		return
	}

	current, ok := r.byConn[connID][kind]
	if ok && current == gameCode {
		return
	}
	if ok {
		r.removeMemberLocked(connID, kind, current)
	}

	if r.rooms[kind] == nil {
		r.rooms[kind] = make(map[string]map[string]struct{})
	}
	if r.rooms[kind][gameCode] == nil {
		r.rooms[kind][gameCode] = make(map[string]struct{})
	}
	r.rooms[kind][gameCode][connID] = struct{}{}
	r.byConn[connID][kind] = gameCode
}

// Disconnect releases every membership the connection holds and drops its
// handle. It always succeeds and repeated calls are no-ops. The handle is
// closed outside the lock, best-effort.
func (r *Registry) Disconnect(connID string) {
	r.mu.Lock()
	conn := r.conns[connID]
	for kind, gameCode := range r.byConn[connID] {
		r.removeMemberLocked(connID, kind, gameCode)
	}
	delete(r.byConn, connID)
	delete(r.conns, connID)
	r.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

func (r *Registry) removeMemberLocked(connID string, kind RoomKind, gameCode string) {
	members, ok := r.rooms[kind][gameCode]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(r.rooms[kind], gameCode)
	}
}

// Rooms returns the memberships currently held by a connection.
func (r *Registry) Rooms(connID string) map[RoomKind]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[RoomKind]string, len(r.byConn[connID]))
	for kind, gameCode := range r.byConn[connID] {
		out[kind] = gameCode
	}
	return out
}

// MemberCount returns the current size of a room.
func (r *Registry) MemberCount(kind RoomKind, gameCode string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[kind][gameCode])
}

// Broadcast delivers msg to every member of the (kind, gameCode) room. The
// member set is snapshotted first, so concurrent joins and leaves never
// corrupt the iteration. A failed delivery removes that member (an implicit
// disconnect) and never aborts delivery to the others. Broadcasting to an
// empty or unknown room is a silent no-op.
func (r *Registry) Broadcast(kind RoomKind, gameCode string, msg Message) {
	type target struct {
		id   string
		conn Conn
	}

	r.mu.RLock()
	members := r.rooms[kind][gameCode]
	targets := make([]target, 0, len(members))
	for id := range members {
		if conn, ok := r.conns[id]; ok {
			targets = append(targets, target{id: id, conn: conn})
		}
	}
	r.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	var (
		deadMu sync.Mutex
		dead   []string
	)

	var eg errgroup.Group
	eg.SetLimit(maxFanout)
	for _, tg := range targets {
		tg := tg
		eg.Go(func() error {
			if err := tg.conn.Send(msg); err != nil {
				log.Printf("broadcast %s/%s: dropping %s: %v", kind, gameCode, tg.id, err)
				deadMu.Lock()
				dead = append(dead, tg.id)
				deadMu.Unlock()
			}
			return nil
		})
	}
	_ = eg.Wait()

	for _, id := range dead {
		r.Disconnect(id)
	}
}
