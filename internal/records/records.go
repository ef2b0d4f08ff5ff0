// Package records registers the importable record types with the core registry.
// Import this package for its side effects to make the types available.
package records

import "github.com/JonMunkholm/xlimport/internal/core"

func init() {
	core.Register(UserType())
	core.Register(OrderType())
}
