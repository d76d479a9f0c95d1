package driver

import "fmt"

// Module slot indices: one driver instance per physical RF module.
const (
	SlotInternal = 0
	SlotExternal = 1
)

// Registry is the explicitly-constructed, fixed-size set of driver
// instances keyed by module slot (§9 Design Notes: an explicitly
// initialised registry owned by the caller, not a package-level global
// array). Each instance is immovable after Init in the sense that nothing
// here ever copies a *Driver by value.
type Registry struct {
	instances [2]*Driver
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Bind installs a driver instance for the given slot, replacing any
// previous occupant.
func (r *Registry) Bind(slot int, d *Driver) error {
	if slot != SlotInternal && slot != SlotExternal {
		return fmt.Errorf("driver: invalid module slot %d", slot)
	}
	r.instances[slot] = d
	return nil
}

// Get returns the driver bound to slot, or nil if none is bound.
func (r *Registry) Get(slot int) *Driver {
	if slot != SlotInternal && slot != SlotExternal {
		return nil
	}
	return r.instances[slot]
}

// TickAll runs one scheduler period on every bound instance.
func (r *Registry) TickAll() {
	for _, d := range r.instances {
		if d != nil {
			d.Tick()
		}
	}
}

// FlushAll writes every bound instance's staged outbound frame to its
// transport. Call after TickAll so Tick's RX-drain/decide step can
// finish deciding what to emit before anything touches the wire.
func (r *Registry) FlushAll() {
	for _, d := range r.instances {
		if d != nil {
			_ = d.Flush()
		}
	}
}
