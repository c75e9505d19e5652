package cache

import (
	"reconciler/core/tablecache"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface for the table cache.
type Feature struct {
	handler *Handler
	enabled bool
}

// NewFeature creates the cache feature. A nil cache disables it.
func NewFeature(cache *tablecache.Cache, logger *zap.Logger) *Feature {
	return &Feature{
		handler: NewHandler(cache, logger),
		enabled: cache != nil,
	}
}

// Name returns the feature name.
func (f *Feature) Name() string {
	return "cache"
}

// IsEnabled reports whether a cache is configured.
func (f *Feature) IsEnabled() bool {
	return f.enabled
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
