//go:build profile

// Package profiler records nested timing scopes into a fixed ring and
// exports them in the speedscope evented format. Without the "profile"
// build tag every call is a no-op.
package profiler

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// ErrNoEvents is returned by WriteSpeedscope when nothing was recorded.
var ErrNoEvents = errors.New("profiler: no events recorded")

// Init allocates room for capacity open/close events. It must run before
// any Start call records anything.
func Init(capacity int) {
	if capacity <= 0 {
		capacity = 1 << 16
	}
	ring.init(capacity)
}

// Start opens a scope and returns the func that closes it.
func Start(name string) func() {
	if !ring.ready.Load() {
		return func() {}
	}
	id := names.id(name)
	at := time.Now().UnixNano()
	ring.push(event{at: at, name: id, open: true})
	return func() {
		ring.push(event{at: max(time.Now().UnixNano(), at), name: id})
	}
}

// WriteSpeedscope dumps the recorded window to path.
func WriteSpeedscope(path string) error {
	evs := ring.snapshot()
	if len(evs) == 0 {
		return ErrNoEvents
	}
	doc := buildDoc(evs, names.all())

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("profiler: %w", err)
	}
	if err := json.NewEncoder(f).Encode(&doc); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("profiler: encode: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("profiler: %w", err)
	}
	return os.Rename(tmp, path)
}

type event struct {
	at   int64 // unix ns
	name int
	open bool
}

// eventRing overwrites the oldest events once full.
type eventRing struct {
	ready atomic.Bool
	n     atomic.Uint64
	evs   []event
}

func (r *eventRing) init(capacity int) {
	r.evs = make([]event, capacity)
	r.n.Store(0)
	r.ready.Store(true)
}

func (r *eventRing) push(e event) {
	i := r.n.Add(1) - 1
	r.evs[i%uint64(len(r.evs))] = e
}

// snapshot returns the retained events in write order.
func (r *eventRing) snapshot() []event {
	n := r.n.Load()
	size := uint64(len(r.evs))
	if n == 0 || size == 0 {
		return nil
	}
	start := uint64(0)
	if n > size {
		start = n - size
	}
	out := make([]event, 0, n-start)
	for k := start; k < n; k++ {
		out = append(out, r.evs[k%size])
	}
	return out
}

type interner struct {
	mu    sync.Mutex
	list  []string
	index map[string]int
}

func (in *interner) id(name string) int {
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.index[name]; ok {
		return id
	}
	if in.index == nil {
		in.index = make(map[string]int)
	}
	id := len(in.list)
	in.index[name] = id
	in.list = append(in.list, name)
	return id
}

func (in *interner) all() []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]string(nil), in.list...)
}

var (
	ring  eventRing
	names interner
)

type ssFile struct {
	Schema   string      `json:"$schema"`
	Shared   ssShared    `json:"shared"`
	Profiles []ssProfile `json:"profiles"`
	Exporter string      `json:"exporter,omitempty"`
}

type ssShared struct {
	Frames []ssFrame `json:"frames"`
}

type ssFrame struct {
	Name string `json:"name"`
}

type ssProfile struct {
	Type       string    `json:"type"`
	Name       string    `json:"name"`
	Unit       string    `json:"unit"`
	StartValue int64     `json:"startValue"`
	EndValue   int64     `json:"endValue"`
	Events     []ssEvent `json:"events"`
}

type ssEvent struct {
	Type  string `json:"type"` // "O" or "C"
	At    int64  `json:"at"`   // µs since the first event
	Frame int    `json:"frame"`
}

// buildDoc balances the event stream: closes without a matching open (lost
// to ring wrap) are dropped and scopes still open at the end are closed at
// the last timestamp.
func buildDoc(evs []event, frameNames []string) ssFile {
	base := evs[0].at
	out := make([]ssEvent, 0, len(evs)+8)
	open := make([]int, 0, 32)
	last := int64(0)

	for _, e := range evs {
		at := max((e.at-base)/1000, last)
		if e.open {
			open = append(open, e.name)
			out = append(out, ssEvent{Type: "O", At: at, Frame: e.name})
		} else {
			if len(open) == 0 || open[len(open)-1] != e.name {
				continue
			}
			open = open[:len(open)-1]
			out = append(out, ssEvent{Type: "C", At: at, Frame: e.name})
		}
		last = at
	}
	for i := len(open) - 1; i >= 0; i-- {
		out = append(out, ssEvent{Type: "C", At: last, Frame: open[i]})
	}

	frames := make([]ssFrame, len(frameNames))
	for i, n := range frameNames {
		frames[i] = ssFrame{Name: n}
	}
	return ssFile{
		Schema: "https://www.speedscope.app/file-format-schema.json",
		Shared: ssShared{Frames: frames},
		Profiles: []ssProfile{{
			Type:     "evented",
			Name:     "quadstack",
			Unit:     "microseconds",
			EndValue: last,
			Events:   out,
		}},
		Exporter: "quadstack-profiler",
	}
}
