// Package loader provides the plugin-like feature loading system.
//
// Each feature implements the Feature interface, which names it, tells whether it is
// enabled and registers its routes.
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// The Manager holds the registry. Register adds features in order and LoadAll loads
// the enabled ones, failing on the first error or on a duplicated name.
package loader
