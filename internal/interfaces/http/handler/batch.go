package handler

import (
	appconstruction "github.com/egp/construction-control/internal/application/construction"
	"github.com/gin-gonic/gin"
)

// BatchHandler serves inspection of control batches
type BatchHandler struct {
	BaseHandler
	inspection *appconstruction.InspectionService
}

// NewBatchHandler creates a new BatchHandler
func NewBatchHandler(inspection *appconstruction.InspectionService) *BatchHandler {
	return &BatchHandler{inspection: inspection}
}

// GetByID godoc
// @ID           getBatchById
// @Summary      Get batch by ID
// @Description  Retrieve a control batch with its lines
// @Tags         batches
// @Produce      json
// @Param        id path string true "Batch ID" format(uuid)
// @Success      200 {object} dto.Response{data=appconstruction.BatchResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /batches/{id} [get]
func (h *BatchHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	batchID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	batch, err := h.inspection.GetBatch(c.Request.Context(), tenantID, batchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}

// Start godoc
// @ID           startBatchInspection
// @Summary      Start inspection
// @Description  Move a draft batch to in_progress
// @Tags         batches
// @Produce      json
// @Param        id path string true "Batch ID" format(uuid)
// @Success      200 {object} dto.Response{data=appconstruction.BatchResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /batches/{id}/start [post]
func (h *BatchHandler) Start(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	batchID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	batch, err := h.inspection.StartInspection(c.Request.Context(), tenantID, batchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}

// Complete godoc
// @ID           completeBatch
// @Summary      Complete batch
// @Description  Close the batch. Its approvals then count for the next dispatch.
// @Tags         batches
// @Produce      json
// @Param        id path string true "Batch ID" format(uuid)
// @Success      200 {object} dto.Response{data=appconstruction.BatchResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /batches/{id}/complete [post]
func (h *BatchHandler) Complete(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	batchID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	batch, err := h.inspection.CompleteBatch(c.Request.Context(), tenantID, batchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}

// RecordLineResult godoc
// @ID           recordBatchLineResult
// @Summary      Record line result
// @Description  Store the approved quantity and pass flag of one batch line
// @Tags         batches
// @Accept       json
// @Produce      json
// @Param        id path string true "Batch ID" format(uuid)
// @Param        line_id path string true "Batch Line ID" format(uuid)
// @Param        body body appconstruction.RecordLineResultRequest true "Inspection result"
// @Success      200 {object} dto.Response{data=appconstruction.BatchResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /batches/{id}/lines/{line_id}/result [put]
func (h *BatchHandler) RecordLineResult(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	batchID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	lineID, ok := h.pathID(c, "line_id")
	if !ok {
		return
	}
	var req appconstruction.RecordLineResultRequest
	if !h.bindJSON(c, &req) {
		return
	}

	batch, err := h.inspection.RecordLineResult(c.Request.Context(), tenantID, batchID, lineID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}
