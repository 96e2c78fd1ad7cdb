package wyre

import "fmt"

// Lifecycle governs whether a container shares a resolved value across
// resolutions. The graph registrar forwards it to the container opaquely
// and never interprets it beyond validity checking.
type Lifecycle int

const (
	// Singleton values are produced once per container and shared by every
	// resolution.
	Singleton Lifecycle = iota

	// Transient values are produced anew on each resolution.
	Transient
)

// String returns a human-readable representation of the lifecycle.
func (l Lifecycle) String() string {
	switch l {
	case Singleton:
		return "Singleton"
	case Transient:
		return "Transient"
	default:
		return fmt.Sprintf("Unknown(%d)", int(l))
	}
}

// IsValid reports whether the lifecycle is one of the defined policies.
func (l Lifecycle) IsValid() bool {
	return l == Singleton || l == Transient
}
