package feed

import (
	"sort"
	"sync"
)

// ListModel holds the notification list for one session. The unread counter
// is maintained incrementally and clamped at zero so a double mark-read can
// never drive it negative.
type ListModel struct {
	mtx    sync.RWMutex
	items  []Notification
	unread int
}

// NewListModel builds an empty model.
func NewListModel() *ListModel {
	return &ListModel{}
}

// Replace swaps the whole list, recomputing the unread counter from scratch.
// Used on initial load and after a reload.
func (m *ListModel) Replace(items []Notification) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.items = make([]Notification, len(items))
	copy(m.items, items)
	m.unread = 0
	for _, item := range m.items {
		if !item.Read {
			m.unread++
		}
	}
	m.resort()
}

// Add inserts a notification. An item with a known ID replaces the previous
// one instead of duplicating it.
func (m *ListModel) Add(item Notification) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	for i := range m.items {
		if m.items[i].ID == item.ID {
			if !m.items[i].Read && item.Read {
				m.decUnread()
			}
			if m.items[i].Read && !item.Read {
				m.unread++
			}
			m.items[i] = item
			m.resort()
			return
		}
	}
	m.items = append(m.items, item)
	if !item.Read {
		m.unread++
	}
	m.resort()
}

// Remove deletes a notification by ID.
func (m *ListModel) Remove(id string) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			if !m.items[i].Read {
				m.decUnread()
			}
			m.items = append(m.items[:i], m.items[i+1:]...)
			return
		}
	}
}

// MarkRead marks one notification read. Marking an already-read or unknown
// notification is a no-op.
func (m *ListModel) MarkRead(id string) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			if !m.items[i].Read {
				m.items[i].Read = true
				m.decUnread()
				m.resort()
			}
			return
		}
	}
}

// MarkAllRead clears every unread flag and zeroes the counter.
func (m *ListModel) MarkAllRead() {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	for i := range m.items {
		m.items[i].Read = true
	}
	m.unread = 0
	m.resort()
}

// Items returns the display-ordered snapshot.
func (m *ListModel) Items() []Notification {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	out := make([]Notification, len(m.items))
	copy(out, m.items)
	return out
}

// Unread returns the unread count.
func (m *ListModel) Unread() int {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return m.unread
}

// Len returns the number of items.
func (m *ListModel) Len() int {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return len(m.items)
}

func (m *ListModel) resort() {
	sort.SliceStable(m.items, func(i, j int) bool {
		return Less(m.items[i], m.items[j])
	})
}

func (m *ListModel) decUnread() {
	if m.unread > 0 {
		m.unread--
	}
}
