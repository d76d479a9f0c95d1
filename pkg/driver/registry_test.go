package driver

import "testing"

func TestRegistryBindAndGet(t *testing.T) {
	r := NewRegistry()
	d, _ := newTestDriver(newFakeModel())

	if err := r.Bind(SlotInternal, d); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if got := r.Get(SlotInternal); got != d {
		t.Fatalf("Get returned a different instance")
	}
	if got := r.Get(SlotExternal); got != nil {
		t.Fatalf("expected nil for unbound slot, got %v", got)
	}
}

func TestRegistryBindRejectsInvalidSlot(t *testing.T) {
	r := NewRegistry()
	d, _ := newTestDriver(newFakeModel())
	if err := r.Bind(7, d); err == nil {
		t.Fatal("expected error for invalid slot")
	}
}

func TestRegistryTickAllAndFlushAll(t *testing.T) {
	r := NewRegistry()
	d, link := newTestDriver(newFakeModel())
	if err := r.Bind(SlotInternal, d); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	r.TickAll()
	r.FlushAll()

	if link.Size() == 0 {
		t.Fatal("expected TickAll+FlushAll to push a frame onto the loopback sink")
	}
}
