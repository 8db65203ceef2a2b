package scheduler

import (
	"sort"
	"sync"

	"github.com/Alectobe/TelegramCoinBot/internal/domain"
)

type key struct {
	chatID int64
	kind   domain.ScheduleKind
}

type entry struct {
	handle Handle
	gen    uint64
	desc   string
}

// Armed describes one active timer.
type Armed struct {
	ChatID int64
	Kind   domain.ScheduleKind
	Desc   string // "09:00" for daily, "15m0s" for interval
	Handle Handle
}

// Registry maps (chat, kind) to at most one armed timer. Each registration
// gets a generation number so a stale fire can tell it was replaced.
type Registry struct {
	eng     Engine
	mu      sync.Mutex
	entries map[key]entry
	gen     uint64
}

// NewRegistry creates an empty registry over eng.
func NewRegistry(eng Engine) *Registry {
	return &Registry{eng: eng, entries: make(map[key]entry)}
}

// Register disarms any timer for (chatID, kind) and arms a new one via arm,
// which receives the new generation. Concurrent calls for the same chat are
// serialized, so exactly one timer survives.
func (r *Registry) Register(chatID int64, kind domain.ScheduleKind, desc string, arm func(gen uint64) (Handle, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{chatID, kind}
	if old, ok := r.entries[k]; ok {
		r.eng.Disarm(old.handle)
		delete(r.entries, k)
	}

	r.gen++
	gen := r.gen
	h, err := arm(gen)
	if err != nil {
		return err
	}
	r.entries[k] = entry{handle: h, gen: gen, desc: desc}
	return nil
}

// Cancel disarms the timer for (chatID, kind) and reports whether one existed.
func (r *Registry) Cancel(chatID int64, kind domain.ScheduleKind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{chatID, kind}
	old, ok := r.entries[k]
	if !ok {
		return false
	}
	r.eng.Disarm(old.handle)
	delete(r.entries, k)
	return true
}

// IsCurrent reports whether gen is still the live registration for (chatID, kind).
func (r *Registry) IsCurrent(chatID int64, kind domain.ScheduleKind, gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key{chatID, kind}]
	return ok && e.gen == gen
}

// Lookup returns the armed timer for (chatID, kind), if any.
func (r *Registry) Lookup(chatID int64, kind domain.ScheduleKind) (Armed, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key{chatID, kind}]
	if !ok {
		return Armed{}, false
	}
	return Armed{ChatID: chatID, Kind: kind, Desc: e.desc, Handle: e.handle}, true
}

// List returns every armed timer ordered by chat, then kind.
func (r *Registry) List() []Armed {
	r.mu.Lock()
	res := make([]Armed, 0, len(r.entries))
	for k, e := range r.entries {
		res = append(res, Armed{ChatID: k.chatID, Kind: k.kind, Desc: e.desc, Handle: e.handle})
	}
	r.mu.Unlock()

	sort.Slice(res, func(i, j int) bool {
		if res[i].ChatID != res[j].ChatID {
			return res[i].ChatID < res[j].ChatID
		}
		return res[i].Kind < res[j].Kind
	})
	return res
}

// Len returns the number of armed timers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
