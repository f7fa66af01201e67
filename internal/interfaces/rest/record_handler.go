package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexuscrm/backoffice/internal/application/services"
	"github.com/nexuscrm/backoffice/pkg/constants"
)

// RecordHandler serves module records and their forms
type RecordHandler struct {
	svc *services.ServiceManager
}

func NewRecordHandler(svc *services.ServiceManager) *RecordHandler {
	return &RecordHandler{svc: svc}
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// ListRecords handles GET /api/modules/:module/records
func (h *RecordHandler) ListRecords(c *gin.Context) {
	HandleGetEnvelope(c, constants.ResponseRecords, func() (interface{}, error) {
		return h.svc.Records.List(c.Request.Context(), c.Param(constants.ParamModule))
	})
}

// GetRecord handles GET /api/modules/:module/records/:id
func (h *RecordHandler) GetRecord(c *gin.Context) {
	HandleGetEnvelope(c, constants.ResponseRecord, func() (interface{}, error) {
		return h.svc.Records.Get(c.Request.Context(), c.Param(constants.ParamModule), c.Param(constants.ParamID))
	})
}

// GetForm handles GET /api/modules/:module/form?recordId=&mode=
func (h *RecordHandler) GetForm(c *gin.Context) {
	HandleGetEnvelope(c, constants.ResponseForm, func() (interface{}, error) {
		return h.svc.Records.FormFor(
			c.Request.Context(),
			c.Param(constants.ParamModule),
			c.Query(constants.ParamRecordID),
			constants.FormMode(c.Query(constants.ParamMode)),
		)
	})
}

// CreateRecord handles POST /api/modules/:module/records
// The body maps control names to submitted values.
func (h *RecordHandler) CreateRecord(c *gin.Context) {
	var values map[string]interface{}
	HandleMutationEnvelope(c, http.StatusCreated, constants.ResponseRecord, "Record created successfully", &values, func() (interface{}, error) {
		return h.svc.Records.Create(c.Request.Context(), c.Param(constants.ParamModule), values)
	})
}

// UpdateRecord handles PUT /api/modules/:module/records/:id
func (h *RecordHandler) UpdateRecord(c *gin.Context) {
	var values map[string]interface{}
	HandleMutationEnvelope(c, http.StatusOK, constants.ResponseRecord, "Record updated successfully", &values, func() (interface{}, error) {
		return h.svc.Records.Update(c.Request.Context(), c.Param(constants.ParamModule), c.Param(constants.ParamID), values)
	})
}

// DeleteRecord handles DELETE /api/modules/:module/records/:id
func (h *RecordHandler) DeleteRecord(c *gin.Context) {
	HandleDeleteEnvelope(c, "Record deleted successfully", func() error {
		return h.svc.Records.Delete(c.Request.Context(), c.Param(constants.ParamModule), c.Param(constants.ParamID))
	})
}

// BulkDelete handles POST /api/modules/:module/records/bulk-delete
// Partial failures still answer 200; the result lists the failed ids.
func (h *RecordHandler) BulkDelete(c *gin.Context) {
	var req bulkDeleteRequest
	HandleMutationEnvelope(c, http.StatusOK, constants.ResponseResult, "Bulk delete finished", &req, func() (interface{}, error) {
		return h.svc.Records.BulkDelete(c.Request.Context(), c.Param(constants.ParamModule), req.IDs)
	})
}
