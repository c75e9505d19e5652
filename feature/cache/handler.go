package cache

import (
	"reconciler/core/logger"
	"reconciler/core/tablecache"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the table cache.
type Handler struct {
	cache  *tablecache.Cache
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(cache *tablecache.Cache, logger *zap.Logger) *Handler {
	return &Handler{cache: cache, logger: logger}
}

// RegisterRoutes registers the cache routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/cache")
	group.Get("/stats", h.HandleStats)
	group.Get("/entries", h.HandleEntries)
	group.Delete("/", h.HandlePurge)
}

// HandleStats returns the cache counters.
// @Summary Cache Stats
// @Description Returns entry count, memory use, hits, misses and evictions.
// @Tags cache
// @Produce json
// @Success 200 {object} tablecache.Stats "Counters"
// @Router /cache/stats [get]
func (h *Handler) HandleStats(c *fiber.Ctx) error {
	return c.JSON(h.cache.Stats())
}

// HandleEntries lists the cached tables.
// @Summary Cache Entries
// @Tags cache
// @Produce json
// @Success 200 {array} tablecache.EntryInfo "Entries"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /cache/entries [get]
func (h *Handler) HandleEntries(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	entries, err := h.cache.Entries(c.Context())
	if err != nil {
		l.Error("Cache listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if entries == nil {
		entries = []tablecache.EntryInfo{}
	}

	return c.JSON(entries)
}

// HandlePurge empties the cache.
// @Summary Purge Cache
// @Tags cache
// @Produce json
// @Success 200 {object} map[string]string "Purged"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /cache [delete]
func (h *Handler) HandlePurge(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	if err := h.cache.Purge(c.Context()); err != nil {
		l.Error("Cache purge failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	l.Info("Cache purged")
	return c.JSON(fiber.Map{"status": "purged"})
}
