package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/usawrapco/wrapforge/internal/registry"
	"github.com/usawrapco/wrapforge/pkg/response"
)

// ModelsHandler exposes the read-only model catalog.
type ModelsHandler struct {
	registry *registry.Registry
}

func NewModelsHandler(reg *registry.Registry) *ModelsHandler {
	return &ModelsHandler{registry: reg}
}

// List returns the catalog, optionally filtered by category.
func (h *ModelsHandler) List(c *gin.Context) {
	if category := c.Query("category"); category != "" {
		response.Success(c, h.registry.ByCategory(category))
		return
	}

	out := make([]registry.ModelDescriptor, 0, len(h.registry.Keys()))
	for _, key := range h.registry.Keys() {
		if m, ok := h.registry.Describe(key); ok {
			out = append(out, m)
		}
	}
	response.Success(c, out)
}

// Get returns one model descriptor.
func (h *ModelsHandler) Get(c *gin.Context) {
	key := c.Param("key")
	m, ok := h.registry.Describe(key)
	if !ok {
		response.Error(c, response.NewNotFound("unknown model: "+key))
		return
	}
	response.Success(c, m)
}
