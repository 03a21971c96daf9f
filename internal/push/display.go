package push

import (
	"sort"
	"sync"
	"time"
)

// Display tracks the notifications currently on screen, coalescing by
// tag: showing a second notification with the same tag replaces the
// first instead of stacking.
type Display struct {
	mtx   sync.Mutex
	byTag map[string]Notification
	now   func() time.Time
}

// NewDisplay builds an empty display registry.
func NewDisplay() *Display {
	return &Display{
		byTag: make(map[string]Notification),
		now:   time.Now,
	}
}

// Show puts a notification on screen and reports whether it replaced an
// existing one with the same tag.
func (d *Display) Show(n Notification) bool {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	_, replaced := d.byTag[n.Tag]
	n.ShownAt = d.now().UTC()
	d.byTag[n.Tag] = n
	return replaced
}

// Close removes the notification with the given tag and returns it.
func (d *Display) Close(tag string) (Notification, bool) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	n, ok := d.byTag[tag]
	if ok {
		delete(d.byTag, tag)
	}
	return n, ok
}

// Get returns the displayed notification for a tag without closing it.
func (d *Display) Get(tag string) (Notification, bool) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	n, ok := d.byTag[tag]
	return n, ok
}

// Active lists displayed notifications, oldest first.
func (d *Display) Active() []Notification {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	out := make([]Notification, 0, len(d.byTag))
	for _, n := range d.byTag {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ShownAt.Equal(out[j].ShownAt) {
			return out[i].Tag < out[j].Tag
		}
		return out[i].ShownAt.Before(out[j].ShownAt)
	})
	return out
}

// Len reports how many notifications are on screen.
func (d *Display) Len() int {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	return len(d.byTag)
}
