package core

import "testing"

type recLayer struct {
	name    string
	log     *[]string
	handles bool
}

func (l *recLayer) OnAttach(*Engine)          {}
func (l *recLayer) OnDetach(*Engine)          {}
func (l *recLayer) OnUpdate(*Engine, float64) {}
func (l *recLayer) OnRender(*Engine, float64) { *l.log = append(*l.log, "render:"+l.name) }

func (l *recLayer) OnEvent(*Engine, Event) bool {
	*l.log = append(*l.log, "event:"+l.name)
	return l.handles
}

func TestLayerStackOrder(t *testing.T) {
	var log []string
	var ls LayerStack
	ls.Push(&recLayer{name: "world", log: &log})
	ls.Push(&recLayer{name: "hud", log: &log, handles: true})

	ls.ForEach(func(l Layer) { l.OnRender(nil, 0) })
	ls.ForEachReverse(func(l Layer) bool { return l.OnEvent(nil, EventResize{}) })

	want := []string{"render:world", "render:hud", "event:hud"}
	if len(log) != len(want) {
		t.Fatalf("calls = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, log[i], want[i])
		}
	}
}

func TestLayerStackPop(t *testing.T) {
	var ls LayerStack
	if _, ok := ls.Pop(); ok {
		t.Error("Pop() on empty stack returned ok")
	}
	var log []string
	top := &recLayer{name: "top", log: &log}
	ls.Push(&recLayer{log: &log})
	ls.Push(top)
	if l, ok := ls.Pop(); !ok || l != top {
		t.Error("Pop() did not return the last pushed layer")
	}
	if ls.Len() != 1 {
		t.Errorf("Len() = %d, want 1", ls.Len())
	}
}

func TestInputScroll(t *testing.T) {
	in := NewInput()
	in.Handle(EventScroll{Yoff: 1})
	in.Handle(EventScroll{Yoff: 2})
	in.Handle(EventKey{Key: KeyW, Down: true})
	if got := in.TakeScroll(); got != 3 {
		t.Errorf("TakeScroll() = %v, want 3", got)
	}
	if got := in.TakeScroll(); got != 0 {
		t.Errorf("second TakeScroll() = %v, want 0", got)
	}
	if !in.IsKeyDown(KeyW) {
		t.Error("KeyW not down")
	}
}
