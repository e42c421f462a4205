package analysis

import (
	"fmt"

	sifterrors "sift/internal/errors"
)

// Registry holds the ordered list of registered techniques. Registration
// happens strictly before any run starts; during execution the registry
// is read-only. Order is append order and determines execution order.
type Registry struct {
	techniques []Technique
	names      map[string]struct{}
	sealed     bool
}

// NewRegistry creates an empty technique registry.
func NewRegistry() *Registry {
	return &Registry{
		names: make(map[string]struct{}),
	}
}

// Register appends a technique. Malformed registrations are the only
// fatal error class in the engine: they abort before any run starts.
func (r *Registry) Register(t Technique) error {
	if r.sealed {
		return sifterrors.NewSiftError(sifterrors.RegistrySealed,
			fmt.Sprintf("registry is sealed, cannot register %q", t.Name), nil)
	}
	if t.Name == "" {
		return sifterrors.NewSiftError(sifterrors.RegistrationInvalid,
			"technique registered without a name", nil)
	}
	if t.Run == nil {
		return sifterrors.NewSiftError(sifterrors.RegistrationInvalid,
			fmt.Sprintf("technique %q registered without a run function", t.Name), nil)
	}
	if _, dup := r.names[t.Name]; dup {
		return sifterrors.NewSiftError(sifterrors.RegistrationInvalid,
			fmt.Sprintf("technique %q registered twice", t.Name), nil)
	}
	if t.Global && t.Match != nil {
		return sifterrors.NewSiftError(sifterrors.RegistrationInvalid,
			fmt.Sprintf("global technique %q must not have a file predicate", t.Name), nil)
	}

	r.names[t.Name] = struct{}{}
	r.techniques = append(r.techniques, t)
	return nil
}

// MustRegister registers a technique and panics on structural faults.
// Intended for process-startup registration of builtins.
func (r *Registry) MustRegister(t Technique) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Seal marks registration as finished. Further Register calls fail.
func (r *Registry) Seal() {
	r.sealed = true
}

// List returns all techniques in registration order. Callers must not
// modify the returned slice.
func (r *Registry) List() []Technique {
	return r.techniques
}

// Globals returns the global techniques in registration order.
func (r *Registry) Globals() []Technique {
	var out []Technique
	for _, t := range r.techniques {
		if t.Global {
			out = append(out, t)
		}
	}
	return out
}

// PerFile returns the per-file techniques in registration order.
func (r *Registry) PerFile() []Technique {
	var out []Technique
	for _, t := range r.techniques {
		if !t.Global {
			out = append(out, t)
		}
	}
	return out
}

// Len returns the number of registered techniques.
func (r *Registry) Len() int {
	return len(r.techniques)
}
