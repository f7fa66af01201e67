package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexuscrm/backoffice/internal/application/services"
	"github.com/nexuscrm/backoffice/pkg/constants"
	"github.com/nexuscrm/backoffice/pkg/errors"
	"github.com/nexuscrm/backoffice/pkg/models"
)

// ConfigHandler serves the module configuration endpoints
type ConfigHandler struct {
	svc *services.ServiceManager
}

func NewConfigHandler(svc *services.ServiceManager) *ConfigHandler {
	return &ConfigHandler{svc: svc}
}

// moduleStore resolves the :module parameter, answering 404 for unknown modules
func moduleStore(c *gin.Context, svc *services.ServiceManager) (*services.ConfigStore, bool) {
	store, err := svc.Configs.Store(c.Param(constants.ParamModule))
	if err != nil {
		RespondAppError(c, err)
		return nil, false
	}
	return store, true
}

type idListRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

type activeRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// GetModules handles GET /api/modules
func (h *ConfigHandler) GetModules(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"modules": h.svc.Configs.Modules()})
}

// GetConfig handles GET /api/modules/:module/config
// A configuration served from built-in defaults carries a warning.
func (h *ConfigHandler) GetConfig(c *gin.Context) {
	store, ok := moduleStore(c, h.svc)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	status := store.Initialize(ctx)

	response := gin.H{constants.ResponseConfig: store.GetConfig(ctx)}
	if status.LoadedWithDefaults && status.Warning != nil {
		response[constants.ResponseWarning] = gin.H{
			"code":    errors.GetErrorCode(status.Warning),
			"message": status.Warning.Error(),
		}
	}
	c.JSON(http.StatusOK, response)
}

// GetFields handles GET /api/modules/:module/fields?scope=active|in_use|grid
func (h *ConfigHandler) GetFields(c *gin.Context) {
	store, ok := moduleStore(c, h.svc)
	if !ok {
		return
	}
	HandleGetEnvelope(c, constants.ResponseFields, func() (interface{}, error) {
		ctx := c.Request.Context()
		switch scope := c.DefaultQuery(constants.ParamScope, constants.ScopeActive); scope {
		case constants.ScopeActive:
			return store.GetActiveFields(ctx), nil
		case constants.ScopeInUse:
			return store.GetFieldsInUse(ctx), nil
		case constants.ScopeGrid:
			return store.GetGridFields(ctx), nil
		default:
			return nil, errors.NewValidationError(constants.ParamScope, "unknown scope '"+scope+"'")
		}
	})
}

// AddField handles POST /api/modules/:module/fields
func (h *ConfigHandler) AddField(c *gin.Context) {
	store, ok := moduleStore(c, h.svc)
	if !ok {
		return
	}
	var req models.FieldSchema
	HandleMutationEnvelope(c, http.StatusCreated, "field", "Field created successfully", &req, func() (interface{}, error) {
		return store.AddField(c.Request.Context(), req)
	})
}

// UpdateField handles PATCH /api/modules/:module/fields/:fieldId
func (h *ConfigHandler) UpdateField(c *gin.Context) {
	store, ok := moduleStore(c, h.svc)
	if !ok {
		return
	}
	var patch models.FieldPatch
	HandleMutationEnvelope(c, http.StatusOK, "field", "Field updated successfully", &patch, func() (interface{}, error) {
		return store.UpdateField(c.Request.Context(), c.Param(constants.ParamFieldID), patch)
	})
}

// DeleteField handles DELETE /api/modules/:module/fields/:fieldId
func (h *ConfigHandler) DeleteField(c *gin.Context) {
	store, ok := moduleStore(c, h.svc)
	if !ok {
		return
	}
	HandleDeleteEnvelope(c, "Field deleted successfully", func() error {
		return store.RemoveField(c.Request.Context(), c.Param(constants.ParamFieldID))
	})
}

// SetFieldActive handles PUT /api/modules/:module/fields/:fieldId/active
func (h *ConfigHandler) SetFieldActive(c *gin.Context) {
	store, ok := moduleStore(c, h.svc)
	if !ok {
		return
	}
	var req activeRequest
	HandleMutationEnvelope(c, http.StatusOK, "", "Field updated successfully", &req, func() (interface{}, error) {
		return nil, store.ToggleFieldActive(c.Request.Context(), c.Param(constants.ParamFieldID), *req.Active)
	})
}

// ReorderFields handles PUT /api/modules/:module/fields/order
func (h *ConfigHandler) ReorderFields(c *gin.Context) {
	store, ok := moduleStore(c, h.svc)
	if !ok {
		return
	}
	var req idListRequest
	HandleMutationEnvelope(c, http.StatusOK, constants.ResponseFields, "Fields reordered successfully", &req, func() (interface{}, error) {
		ctx := c.Request.Context()
		if err := store.ReorderFields(ctx, req.IDs); err != nil {
			return nil, err
		}
		return store.GetActiveFields(ctx), nil
	})
}

// ReorderGridColumns handles PUT /api/modules/:module/grid/order
func (h *ConfigHandler) ReorderGridColumns(c *gin.Context) {
	store, ok := moduleStore(c, h.svc)
	if !ok {
		return
	}
	var req idListRequest
	HandleMutationEnvelope(c, http.StatusOK, constants.ResponseFields, "Columns reordered successfully", &req, func() (interface{}, error) {
		ctx := c.Request.Context()
		if err := store.ReorderGridColumns(ctx, req.IDs); err != nil {
			return nil, err
		}
		return store.GetGridFields(ctx), nil
	})
}

// SaveLayout handles PUT /api/modules/:module/layout
func (h *ConfigHandler) SaveLayout(c *gin.Context) {
	store, ok := moduleStore(c, h.svc)
	if !ok {
		return
	}
	var layout models.FormLayoutConfig
	HandleMutationEnvelope(c, http.StatusOK, constants.ResponseLayout, "Layout saved successfully", &layout, func() (interface{}, error) {
		ctx := c.Request.Context()
		if err := store.SaveFormLayout(ctx, layout); err != nil {
			return nil, err
		}
		return store.GetFormLayout(ctx), nil
	})
}

// UpdateGrid handles PATCH /api/modules/:module/grid
func (h *ConfigHandler) UpdateGrid(c *gin.Context) {
	store, ok := moduleStore(c, h.svc)
	if !ok {
		return
	}
	var patch models.GridConfigPatch
	HandleMutationEnvelope(c, http.StatusOK, "gridConfig", "Grid settings updated successfully", &patch, func() (interface{}, error) {
		return store.UpdateGridConfig(c.Request.Context(), patch)
	})
}

// ResetConfig handles POST /api/modules/:module/config/reset
func (h *ConfigHandler) ResetConfig(c *gin.Context) {
	store, ok := moduleStore(c, h.svc)
	if !ok {
		return
	}
	HandleMutationEnvelope(c, http.StatusOK, constants.ResponseConfig, "Configuration reset to defaults", nil, func() (interface{}, error) {
		return store.ResetToDefaults(c.Request.Context())
	})
}
