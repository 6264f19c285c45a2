package handler

import (
	"context"

	appconstruction "github.com/egp/construction-control/internal/application/construction"
	"github.com/egp/construction-control/internal/domain/construction"
	"github.com/egp/construction-control/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContractHandler serves contract maintenance, dispatch and reporting
type ContractHandler struct {
	BaseHandler
	contracts  *appconstruction.ContractService
	dispatch   *appconstruction.DispatchService
	inspection *appconstruction.InspectionService
	summary    *appconstruction.SummaryService
}

// NewContractHandler creates a new ContractHandler
func NewContractHandler(
	contracts *appconstruction.ContractService,
	dispatch *appconstruction.DispatchService,
	inspection *appconstruction.InspectionService,
	summary *appconstruction.SummaryService,
) *ContractHandler {
	return &ContractHandler{
		contracts:  contracts,
		dispatch:   dispatch,
		inspection: inspection,
		summary:    summary,
	}
}

// Create godoc
// @ID           createContract
// @Summary      Create a contract
// @Description  Create a construction contract with its estimation lines. Linking a procurement contract copies its header down.
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Param        body body appconstruction.CreateContractRequest true "Contract"
// @Success      201 {object} dto.Response{data=appconstruction.ContractResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts [post]
func (h *ContractHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req appconstruction.CreateContractRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if userID, ok := middleware.GetUserID(c); ok {
		req.CreatedBy = &userID
	}

	contract, err := h.contracts.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, contract)
}

// List godoc
// @ID           listContracts
// @Summary      List contracts
// @Description  Paginated list of contracts with optional state and text filters
// @Tags         contracts
// @Produce      json
// @Param        search query string false "Search in number and description"
// @Param        state query string false "Filter by state" Enums(draft, in_progress, done)
// @Param        warehouse_id query string false "Filter by warehouse" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Sort field" Enums(created_at, updated_at, contract_number, start_date)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} dto.Response{data=[]appconstruction.ContractListItemResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts [get]
func (h *ContractHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var filter appconstruction.ContractListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = 20
	}

	items, total, err := h.contracts.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @ID           getContractById
// @Summary      Get contract by ID
// @Description  Contract with lines, board members and the privileged officer flag
// @Tags         contracts
// @Produce      json
// @Param        id path string true "Contract ID" format(uuid)
// @Success      200 {object} dto.Response{data=appconstruction.ContractResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts/{id} [get]
func (h *ContractHandler) GetByID(c *gin.Context) {
	h.withContract(c, func(tenantID, contractID uuid.UUID) (any, error) {
		return h.contracts.GetByID(c.Request.Context(), tenantID, contractID, middleware.GetPrivileges(c))
	})
}

// Update godoc
// @ID           updateContract
// @Summary      Update contract header
// @Description  Update the contract header. Changing the procurement reference copies its header again.
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Param        id path string true "Contract ID" format(uuid)
// @Param        body body appconstruction.UpdateContractRequest true "Header fields"
// @Success      200 {object} dto.Response{data=appconstruction.ContractResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts/{id} [put]
func (h *ContractHandler) Update(c *gin.Context) {
	var req appconstruction.UpdateContractRequest
	h.withContractBody(c, &req, func(tenantID, contractID uuid.UUID) (any, error) {
		return h.contracts.Update(c.Request.Context(), tenantID, contractID, req)
	})
}

// Delete godoc
// @ID           deleteContract
// @Summary      Delete contract
// @Description  Delete a contract. Contracts in done state cannot be deleted.
// @Tags         contracts
// @Produce      json
// @Param        id path string true "Contract ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts/{id} [delete]
func (h *ContractHandler) Delete(c *gin.Context) {
	tenantID, contractID, ok := h.contractScope(c)
	if !ok {
		return
	}
	if err := h.contracts.Delete(c.Request.Context(), tenantID, contractID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// StartProgress godoc
// @ID           startContract
// @Summary      Start contract
// @Description  Move a draft contract to in_progress
// @Tags         contracts
// @Produce      json
// @Param        id path string true "Contract ID" format(uuid)
// @Success      200 {object} dto.Response{data=appconstruction.ContractResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts/{id}/start [post]
func (h *ContractHandler) StartProgress(c *gin.Context) {
	h.withContract(c, func(tenantID, contractID uuid.UUID) (any, error) {
		return h.contracts.StartProgress(c.Request.Context(), tenantID, contractID)
	})
}

// Complete godoc
// @ID           completeContract
// @Summary      Complete contract
// @Description  Move an in_progress contract to done
// @Tags         contracts
// @Produce      json
// @Param        id path string true "Contract ID" format(uuid)
// @Success      200 {object} dto.Response{data=appconstruction.ContractResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts/{id}/complete [post]
func (h *ContractHandler) Complete(c *gin.Context) {
	h.withContract(c, func(tenantID, contractID uuid.UUID) (any, error) {
		return h.contracts.Complete(c.Request.Context(), tenantID, contractID)
	})
}

// ResetToDraft godoc
// @ID           resetContractToDraft
// @Summary      Reset contract to draft
// @Description  Move an in_progress or done contract back to draft
// @Tags         contracts
// @Produce      json
// @Param        id path string true "Contract ID" format(uuid)
// @Success      200 {object} dto.Response{data=appconstruction.ContractResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts/{id}/reset-to-draft [post]
func (h *ContractHandler) ResetToDraft(c *gin.Context) {
	h.withContract(c, func(tenantID, contractID uuid.UUID) (any, error) {
		return h.contracts.ResetToDraft(c.Request.Context(), tenantID, contractID)
	})
}

// AddLine godoc
// @ID           addContractLine
// @Summary      Add estimation line
// @Description  Add an estimation line. Quantities and prices allow at most 4 decimal places.
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Param        id path string true "Contract ID" format(uuid)
// @Param        body body appconstruction.LineRequestInput true "Estimation line"
// @Success      200 {object} dto.Response{data=appconstruction.ContractResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts/{id}/lines [post]
func (h *ContractHandler) AddLine(c *gin.Context) {
	var req appconstruction.LineRequestInput
	h.withContractBody(c, &req, func(tenantID, contractID uuid.UUID) (any, error) {
		return h.contracts.AddLine(c.Request.Context(), tenantID, contractID, req)
	})
}

// UpdateLine godoc
// @ID           updateContractLine
// @Summary      Update estimation line
// @Description  Replace the editable fields of an estimation line
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Param        id path string true "Contract ID" format(uuid)
// @Param        line_id path string true "Estimation Line ID" format(uuid)
// @Param        body body appconstruction.LineRequestInput true "Estimation line"
// @Success      200 {object} dto.Response{data=appconstruction.ContractResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts/{id}/lines/{line_id} [put]
func (h *ContractHandler) UpdateLine(c *gin.Context) {
	lineID, ok := h.pathID(c, "line_id")
	if !ok {
		return
	}
	var req appconstruction.LineRequestInput
	h.withContractBody(c, &req, func(tenantID, contractID uuid.UUID) (any, error) {
		return h.contracts.UpdateLine(c.Request.Context(), tenantID, contractID, lineID, req)
	})
}

// RemoveLine godoc
// @ID           removeContractLine
// @Summary      Remove estimation line
// @Description  Remove an estimation line and its deliveries
// @Tags         contracts
// @Produce      json
// @Param        id path string true "Contract ID" format(uuid)
// @Param        line_id path string true "Estimation Line ID" format(uuid)
// @Success      200 {object} dto.Response{data=appconstruction.ContractResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts/{id}/lines/{line_id} [delete]
func (h *ContractHandler) RemoveLine(c *gin.Context) {
	lineID, ok := h.pathID(c, "line_id")
	if !ok {
		return
	}
	h.withContract(c, func(tenantID, contractID uuid.UUID) (any, error) {
		return h.contracts.RemoveLine(c.Request.Context(), tenantID, contractID, lineID)
	})
}

// RecordDelivery godoc
// @ID           recordLineDelivery
// @Summary      Record partial delivery
// @Description  Record a partial delivery against an estimation line. The date defaults to today.
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Param        id path string true "Contract ID" format(uuid)
// @Param        line_id path string true "Estimation Line ID" format(uuid)
// @Param        body body appconstruction.RecordDeliveryRequest true "Delivery"
// @Success      200 {object} dto.Response{data=appconstruction.ContractResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts/{id}/lines/{line_id}/deliveries [post]
func (h *ContractHandler) RecordDelivery(c *gin.Context) {
	lineID, ok := h.pathID(c, "line_id")
	if !ok {
		return
	}
	var req appconstruction.RecordDeliveryRequest
	h.withContractBody(c, &req, func(tenantID, contractID uuid.UUID) (any, error) {
		return h.contracts.RecordDelivery(c.Request.Context(), tenantID, contractID, lineID, req)
	})
}

// AddBoardMember godoc
// @ID           addBoardMember
// @Summary      Add board member
// @Description  Assign an employee to one of the contract committees
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Param        id path string true "Contract ID" format(uuid)
// @Param        body body appconstruction.AddBoardMemberRequest true "Board member"
// @Success      200 {object} dto.Response{data=appconstruction.ContractResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts/{id}/board-members [post]
func (h *ContractHandler) AddBoardMember(c *gin.Context) {
	var req appconstruction.AddBoardMemberRequest
	h.withContractBody(c, &req, func(tenantID, contractID uuid.UUID) (any, error) {
		return h.contracts.AddBoardMember(c.Request.Context(), tenantID, contractID, req)
	})
}

// RemoveBoardMember godoc
// @ID           removeBoardMember
// @Summary      Remove board member
// @Description  Remove a board member from the contract
// @Tags         contracts
// @Produce      json
// @Param        id path string true "Contract ID" format(uuid)
// @Param        member_id path string true "Board Member ID" format(uuid)
// @Success      200 {object} dto.Response{data=appconstruction.ContractResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts/{id}/board-members/{member_id} [delete]
func (h *ContractHandler) RemoveBoardMember(c *gin.Context) {
	memberID, ok := h.pathID(c, "member_id")
	if !ok {
		return
	}
	h.withContract(c, func(tenantID, contractID uuid.UUID) (any, error) {
		return h.contracts.RemoveBoardMember(c.Request.Context(), tenantID, contractID, memberID)
	})
}

// SendToQualityControl godoc
// @ID           sendContractToQualityControl
// @Summary      Send to quality control
// @Description  Create a quality control batch holding the quantities not yet approved. Requires the construction:dispatch permission.
// @Tags         contracts
// @Produce      json
// @Param        id path string true "Contract ID" format(uuid)
// @Param        Idempotency-Key header string false "Rejects a repeated request with 409"
// @Success      201 {object} dto.Response{data=appconstruction.DispatchResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts/{id}/quality-control [post]
func (h *ContractHandler) SendToQualityControl(c *gin.Context) {
	h.sendToControl(c, h.dispatch.SendToQualityControl)
}

// SendToPropertyControl godoc
// @ID           sendContractToPropertyControl
// @Summary      Send to property control
// @Description  Create a property control batch holding the quantities not yet approved. Requires the construction:dispatch permission.
// @Tags         contracts
// @Produce      json
// @Param        id path string true "Contract ID" format(uuid)
// @Param        Idempotency-Key header string false "Rejects a repeated request with 409"
// @Success      201 {object} dto.Response{data=appconstruction.DispatchResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts/{id}/property-control [post]
func (h *ContractHandler) SendToPropertyControl(c *gin.Context) {
	h.sendToControl(c, h.dispatch.SendToPropertyControl)
}

type dispatchFunc func(ctx context.Context, tenantID, contractID uuid.UUID, privileges construction.ActorPrivileges, req appconstruction.DispatchRequest) (*appconstruction.DispatchResponse, error)

func (h *ContractHandler) sendToControl(c *gin.Context, send dispatchFunc) {
	tenantID, contractID, ok := h.contractScope(c)
	if !ok {
		return
	}

	resp, err := send(c.Request.Context(), tenantID, contractID, middleware.GetPrivileges(c), appconstruction.DispatchRequest{
		IdempotencyKey: c.GetHeader(middleware.IdempotencyKeyHeader),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListBatches godoc
// @ID           listContractBatches
// @Summary      List contract batches
// @Description  Batches created from the contract, optionally of one kind
// @Tags         contracts
// @Produce      json
// @Param        id path string true "Contract ID" format(uuid)
// @Param        kind query string false "Batch kind" Enums(quality, property)
// @Success      200 {object} dto.Response{data=[]appconstruction.BatchResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts/{id}/batches [get]
func (h *ContractHandler) ListBatches(c *gin.Context) {
	var kind *construction.BatchKind
	if raw := c.Query("kind"); raw != "" {
		k := construction.BatchKind(raw)
		if !k.IsValid() {
			h.BadRequest(c, "kind must be quality or property")
			return
		}
		kind = &k
	}
	h.withContract(c, func(tenantID, contractID uuid.UUID) (any, error) {
		return h.inspection.ListBatches(c.Request.Context(), tenantID, contractID, kind)
	})
}

// GetSummary godoc
// @ID           getContractSummary
// @Summary      Get contract summary
// @Description  Per-product rollup of approved and unapproved quantities
// @Tags         contracts
// @Produce      json
// @Param        id path string true "Contract ID" format(uuid)
// @Success      200 {object} dto.Response{data=appconstruction.ContractSummaryResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts/{id}/summary [get]
func (h *ContractHandler) GetSummary(c *gin.Context) {
	h.withContract(c, func(tenantID, contractID uuid.UUID) (any, error) {
		return h.summary.GetSummary(c.Request.Context(), tenantID, contractID)
	})
}

// ListNotes godoc
// @ID           listContractNotes
// @Summary      List contract notes
// @Description  Audit notes posted on the contract, oldest first
// @Tags         contracts
// @Produce      json
// @Param        id path string true "Contract ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]appconstruction.NoteResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts/{id}/notes [get]
func (h *ContractHandler) ListNotes(c *gin.Context) {
	h.withContract(c, func(tenantID, contractID uuid.UUID) (any, error) {
		return h.contracts.ListNotes(c.Request.Context(), tenantID, contractID)
	})
}

func (h *ContractHandler) contractScope(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	contractID, ok := h.pathID(c, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, contractID, true
}

// withContract resolves the tenant and the :id parameter, runs fn and
// writes its result as a 200.
func (h *ContractHandler) withContract(c *gin.Context, fn func(tenantID, contractID uuid.UUID) (any, error)) {
	tenantID, contractID, ok := h.contractScope(c)
	if !ok {
		return
	}
	h.respond(c, fn, tenantID, contractID)
}

// withContractBody is withContract with body binding before fn runs
func (h *ContractHandler) withContractBody(c *gin.Context, body any, fn func(tenantID, contractID uuid.UUID) (any, error)) {
	tenantID, contractID, ok := h.contractScope(c)
	if !ok || !h.bindJSON(c, body) {
		return
	}
	h.respond(c, fn, tenantID, contractID)
}

func (h *ContractHandler) respond(c *gin.Context, fn func(tenantID, contractID uuid.UUID) (any, error), tenantID, contractID uuid.UUID) {
	data, err := fn(tenantID, contractID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, data)
}
