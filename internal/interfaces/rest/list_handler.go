package rest

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexuscrm/backoffice/internal/application/services"
	"github.com/nexuscrm/backoffice/pkg/constants"
	"github.com/nexuscrm/backoffice/pkg/models"
)

// defaultTable names the list of a module when the client does not
const defaultTable = "main"

// ListHandler serves list views, column visibility and exports
type ListHandler struct {
	svc *services.ServiceManager
}

func NewListHandler(svc *services.ServiceManager) *ListHandler {
	return &ListHandler{svc: svc}
}

type columnsRequest struct {
	IDs []string `json:"ids"`
}

// listInput is everything a list or export request runs the pipeline on
type listInput struct {
	module  string
	records []models.Record
	fields  []models.FieldSchema
	state   models.ListState
}

// bindListInput resolves the module, reads the list state from the body
// over the module's grid defaults and falls back to the saved column
// selection. It writes the error response itself.
func (h *ListHandler) bindListInput(c *gin.Context) (*listInput, bool) {
	store, ok := moduleStore(c, h.svc)
	if !ok {
		return nil, false
	}
	ctx := c.Request.Context()
	module := store.Module()

	state := services.InitialListState(store.GetGridConfig(ctx))
	if c.Request.ContentLength != 0 && !BindJSON(c, &state) {
		return nil, false
	}

	if len(state.VisibleColumnIDs) == 0 {
		ids, err := h.svc.Columns.Load(ctx, module, c.DefaultQuery(constants.ParamTable, defaultTable))
		if err != nil {
			RespondAppError(c, err)
			return nil, false
		}
		state.VisibleColumnIDs = ids
	}

	records, err := h.svc.Records.List(ctx, module)
	if err != nil {
		RespondAppError(c, err)
		return nil, false
	}
	return &listInput{
		module:  module,
		records: records,
		fields:  store.GetFieldsInUse(ctx),
		state:   state,
	}, true
}

// QueryList handles POST /api/modules/:module/list
func (h *ListHandler) QueryList(c *gin.Context) {
	in, ok := h.bindListInput(c)
	if !ok {
		return
	}
	HandleGetEnvelope(c, constants.ResponseView, func() (interface{}, error) {
		view, _, err := h.svc.Lists.BuildView(in.records, in.fields, h.svc.Adapter(in.module), in.state)
		return view, err
	})
}

// GetColumns handles GET /api/modules/:module/columns?table=
// An empty list means the module's default grid columns apply.
func (h *ListHandler) GetColumns(c *gin.Context) {
	store, ok := moduleStore(c, h.svc)
	if !ok {
		return
	}
	HandleGetEnvelope(c, constants.ResponseColumns, func() (interface{}, error) {
		ids, err := h.svc.Columns.Load(c.Request.Context(), store.Module(), c.DefaultQuery(constants.ParamTable, defaultTable))
		if ids == nil {
			ids = []string{}
		}
		return ids, err
	})
}

// SaveColumns handles PUT /api/modules/:module/columns?table=
func (h *ListHandler) SaveColumns(c *gin.Context) {
	store, ok := moduleStore(c, h.svc)
	if !ok {
		return
	}
	var req columnsRequest
	HandleMutationEnvelope(c, http.StatusOK, constants.ResponseColumns, "Columns saved successfully", &req, func() (interface{}, error) {
		ctx := c.Request.Context()
		table := c.DefaultQuery(constants.ParamTable, defaultTable)
		if err := h.svc.Columns.Save(ctx, store.Module(), table, req.IDs); err != nil {
			return nil, err
		}
		ids, err := h.svc.Columns.Load(ctx, store.Module(), table)
		if ids == nil {
			ids = []string{}
		}
		return ids, err
	})
}

// Export handles POST /api/modules/:module/export?format=csv|json|xlsx
// Every filtered record is exported, not only the current page, with the
// visible columns.
func (h *ListHandler) Export(c *gin.Context) {
	in, ok := h.bindListInput(c)
	if !ok {
		return
	}

	result, err := h.svc.Lists.Process(in.records, in.fields, h.svc.Adapter(in.module), in.state)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	format := constants.ExportFormat(c.DefaultQuery(constants.ParamFormat, string(constants.ExportFormatCSV)))
	columns := services.VisibleColumns(in.fields, in.state.VisibleColumnIDs)
	export, err := h.svc.Exports.Export(in.module, format, result.Filtered, columns)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	if export.Empty {
		c.JSON(http.StatusOK, gin.H{
			"empty":                   true,
			constants.ResponseMessage: export.Message,
		})
		return
	}
	c.Header(constants.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, export.Filename))
	c.Data(http.StatusOK, export.ContentType, export.Data)
}
