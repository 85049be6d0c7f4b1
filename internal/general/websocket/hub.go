package websocket

import (
	"sort"
	"sync"
)

// CloseReplaced is sent to a connection pushed out by a newer one for the same device.
const CloseReplaced = 4000

// hubEntry is one registered connection. done closes once its portal is stopped.
type hubEntry struct {
	conn *Conn
	done chan struct{}
}

// hub keeps at most one live connection per device, so two portals never share
// a session store.
type hub struct {
	mu      sync.Mutex
	clients map[string]*hubEntry
}

func newHub() *hub {
	return &hub{clients: make(map[string]*hubEntry)}
}

// add registers conn under deviceID and returns the entry it replaced, if any.
// The replaced connection is told why and its socket is closed.
func (h *hub) add(deviceID string, conn *Conn) (entry, prev *hubEntry) {
	entry = &hubEntry{conn: conn, done: make(chan struct{})}

	h.mu.Lock()
	prev = h.clients[deviceID]
	h.clients[deviceID] = entry
	h.mu.Unlock()

	if prev != nil {
		prev.conn.WriteClose(CloseReplaced, "replaced by a newer connection")
		prev.conn.Close()
	}
	return entry, prev
}

// remove unregisters entry unless a newer connection already took the slot.
func (h *hub) remove(deviceID string, entry *hubEntry) {
	h.mu.Lock()
	if h.clients[deviceID] == entry {
		delete(h.clients, deviceID)
	}
	h.mu.Unlock()
	close(entry.done)
}

// connected lists device ids with a live connection.
func (h *hub) connected() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
