// Package scene defines the host-facing scene model: identities, load
// states, and the narrow interfaces the probe consumes from the host's
// scene subsystem.
package scene

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// State is the host-reported load progress of one scene.
type State int

const (
	// NotLoaded means the scene has no content resident.
	NotLoaded State = iota
	// Loading means the host is loading the scene asynchronously.
	Loading
	// Loaded means the scene content is fully resident.
	Loaded
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case NotLoaded:
		return "NotLoaded"
	case Loading:
		return "Loading"
	case Loaded:
		return "Loaded"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Identity names one scene. Name is the lookup key used when querying the
// host; Path is informational.
type Identity struct {
	Name string
	Path string
}

// IdentityFromPath derives an identity from a scene asset path. The name is
// the file name without its extension.
func IdentityFromPath(path string) Identity {
	base := filepath.Base(filepath.ToSlash(path))
	if base == "." || base == "/" {
		base = ""
	}
	return Identity{
		Name: strings.TrimSuffix(base, filepath.Ext(base)),
		Path: path,
	}
}

// Catalog enumerates the scenes the host knows about.
type Catalog interface {
	// KnownScenes returns every scene in the host's build configuration,
	// in declared order.
	KnownScenes() []Identity
	// ActiveScene returns the scene the host considers active.
	ActiveScene() Identity
}

// StateSource answers load-state queries by scene name. It must not block.
type StateSource interface {
	// LoadState returns the current state of the named scene. ok is false
	// when the host cannot currently resolve the name.
	LoadState(name string) (state State, ok bool)
}

// ErrStateQueryUnsupported is returned when a host adapter does not expose a
// load-state accessor.
var ErrStateQueryUnsupported = errors.New("host does not expose scene load state")

// StateSourceOf extracts the load-state accessor from a host adapter. It is
// the only place the probe inspects host capabilities.
func StateSourceOf(host any) (StateSource, error) {
	if host == nil {
		return nil, fmt.Errorf("nil host: %w", ErrStateQueryUnsupported)
	}
	src, ok := host.(StateSource)
	if !ok {
		return nil, fmt.Errorf("%T: %w", host, ErrStateQueryUnsupported)
	}
	return src, nil
}
