package handler

import (
	"net/http"
	"testing"

	appconstruction "github.com/egp/construction-control/internal/application/construction"
	"github.com/egp/construction-control/internal/domain/construction"
	"github.com/egp/construction-control/internal/infrastructure/auth"
	"github.com/egp/construction-control/internal/interfaces/http/dto"
	"github.com/egp/construction-control/internal/interfaces/http/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createContract(t *testing.T, api *testAPI, token string, body map[string]any) appconstruction.ContractResponse {
	t.Helper()
	w, env := api.do(http.MethodPost, "/api/v1/contracts", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeData[appconstruction.ContractResponse](t, env)
}

func cementLine(productID uuid.UUID) map[string]any {
	return map[string]any{
		"product_id":           productID,
		"product_name":         "Cement",
		"description":          "Portland cement",
		"unit_measure":         "bag",
		"unit_price":           "5",
		"max_qty":              "20",
		"first_estimation_qty": "10",
	}
}

func TestContractHandler_Lifecycle(t *testing.T) {
	api := newTestAPI(t)
	token := api.token()
	procurementID, _ := api.seedProcurement()
	warehouseID := uuid.New()

	contract := createContract(t, api, token, map[string]any{
		"procurement_contract_id": procurementID,
		"warehouse_id":            warehouseID,
		"description":             "Bridge deck",
		"lines":                   []any{cementLine(uuid.New())},
	})
	assert.Equal(t, string(construction.ContractStateDraft), contract.State)
	assert.Equal(t, "PROC-2024-7", contract.ContractNumber)
	require.Len(t, contract.Lines, 1)
	assert.True(t, contract.Lines[0].Subtotal.Equal(decimal.NewFromInt(50)))
	path := "/api/v1/contracts/" + contract.ID.String()

	t.Run("get exposes the officer flag from the token", func(t *testing.T) {
		_, env := api.do(http.MethodGet, path, token, nil)
		assert.False(t, decodeData[appconstruction.ContractResponse](t, env).PrivilegedOfficer)

		_, env = api.do(http.MethodGet, path, api.token(auth.PermissionOfficer), nil)
		assert.True(t, decodeData[appconstruction.ContractResponse](t, env).PrivilegedOfficer)
	})

	t.Run("list", func(t *testing.T) {
		w, env := api.do(http.MethodGet, "/api/v1/contracts?state=draft&page_size=10", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		items := decodeData[[]appconstruction.ContractListItemResponse](t, env)
		require.Len(t, items, 1)
		assert.Equal(t, contract.ID, items[0].ID)
		require.NotNil(t, env.Meta)
		assert.Equal(t, int64(1), env.Meta.Total)
		assert.Equal(t, 10, env.Meta.PageSize)

		w, env = api.do(http.MethodGet, "/api/v1/contracts?state=archived", token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
	})

	t.Run("lines, deliveries and board members", func(t *testing.T) {
		w, env := api.do(http.MethodPost, path+"/lines", token, cementLine(uuid.New()))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		lines := decodeData[appconstruction.ContractResponse](t, env).Lines
		require.Len(t, lines, 2)
		second := lines[1].ID.String()

		w, env = api.do(http.MethodPost, path+"/lines/"+second+"/deliveries", token, map[string]any{"qty": "4", "notes": "first truck"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.True(t, decodeData[appconstruction.ContractResponse](t, env).Lines[1].DeliveredQty.Equal(decimal.NewFromInt(4)))

		w, _ = api.do(http.MethodDelete, path+"/lines/"+second, token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w, env = api.do(http.MethodDelete, path+"/lines/"+uuid.NewString(), token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, construction.CodeLineNotFound, env.Error.Code)

		w, env = api.do(http.MethodPost, path+"/board-members", token, map[string]any{
			"employee_id": uuid.New(),
			"name":        "Amira",
			"role":        "inspection",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		members := decodeData[appconstruction.ContractResponse](t, env).BoardMembers
		require.Len(t, members, 1)

		w, env = api.do(http.MethodPost, path+"/board-members", token, map[string]any{
			"employee_id": uuid.New(),
			"role":        "janitor",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotEmpty(t, env.Error.Details)
		assert.Equal(t, "role", env.Error.Details[0].Field)

		w, _ = api.do(http.MethodDelete, path+"/board-members/"+members[0].ID.String(), token, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("state transitions", func(t *testing.T) {
		w, env := api.do(http.MethodPost, path+"/complete", token, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, construction.CodeInvalidStateTransition, env.Error.Code)

		w, _ = api.do(http.MethodPost, path+"/start", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		w, _ = api.do(http.MethodPost, path+"/complete", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w, env = api.do(http.MethodDelete, path, token, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, construction.CodeDeleteOfFinalizedContract, env.Error.Code)

		w, env = api.do(http.MethodPost, path+"/reset-to-draft", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, string(construction.ContractStateDraft), decodeData[appconstruction.ContractResponse](t, env).State)
	})

	t.Run("delete draft", func(t *testing.T) {
		w, _ := api.do(http.MethodDelete, path, token, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w, env := api.do(http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NOT_FOUND", env.Error.Code)
	})
}

func TestContractHandler_Dispatch(t *testing.T) {
	api := newTestAPI(t)
	procurementID, vendorID := api.seedProcurement()
	plain := api.token()
	dispatcher := api.token(auth.PermissionDispatch)

	contract := createContract(t, api, plain, map[string]any{
		"procurement_contract_id": procurementID,
		"warehouse_id":            uuid.New(),
		"lines":                   []any{cementLine(uuid.New())},
	})
	path := "/api/v1/contracts/" + contract.ID.String()

	t.Run("requires the dispatch permission", func(t *testing.T) {
		w, env := api.do(http.MethodPost, path+"/quality-control", plain, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, construction.CodeDispatchNotPermitted, env.Error.Code)
	})

	var batchID uuid.UUID
	t.Run("creates a quality batch once per idempotency key", func(t *testing.T) {
		key := withHeader(middleware.IdempotencyKeyHeader, "qc-1")
		w, env := api.do(http.MethodPost, path+"/quality-control", dispatcher, nil, key)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		resp := decodeData[appconstruction.DispatchResponse](t, env)
		assert.Equal(t, string(construction.BatchKindQuality), resp.Kind)
		assert.Equal(t, 1, resp.LineCount)
		batchID = resp.BatchID

		w, env = api.do(http.MethodPost, path+"/quality-control", dispatcher, nil, key)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, appconstruction.ErrDuplicateDispatch.Code, env.Error.Code)
	})

	t.Run("dispatch leaves a note", func(t *testing.T) {
		w, env := api.do(http.MethodGet, path+"/notes", plain, nil)
		require.Equal(t, http.StatusOK, w.Code)
		notes := decodeData[[]appconstruction.NoteResponse](t, env)
		require.Len(t, notes, 1)
		require.NotNil(t, notes[0].AuthorID)
		assert.Equal(t, api.userID, *notes[0].AuthorID)
	})

	t.Run("one open batch per kind", func(t *testing.T) {
		w, env := api.do(http.MethodPost, path+"/quality-control", dispatcher, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, construction.CodeOpenBatchExists, env.Error.Code)
	})

	batchPath := "/api/v1/batches/" + batchID.String()
	t.Run("inspect and complete the batch", func(t *testing.T) {
		w, env := api.do(http.MethodGet, batchPath, plain, nil)
		require.Equal(t, http.StatusOK, w.Code)
		batch := decodeData[appconstruction.BatchResponse](t, env)
		assert.Equal(t, vendorID, batch.VendorID)
		require.Len(t, batch.Lines, 1)
		assert.True(t, batch.Lines[0].RequestedQty.Equal(decimal.NewFromInt(10)))
		linePath := batchPath + "/lines/" + batch.Lines[0].ID.String() + "/result"

		w, _ = api.do(http.MethodPost, batchPath+"/start", plain, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w, env = api.do(http.MethodPut, linePath, plain, map[string]any{"approved_qty": "-1", "passed": true})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)

		w, env = api.do(http.MethodPut, linePath, plain, map[string]any{"approved_qty": "11", "passed": true})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, construction.CodeInvalidQuantity, env.Error.Code)

		w, _ = api.do(http.MethodPut, linePath, plain, map[string]any{"approved_qty": "10", "passed": true})
		require.Equal(t, http.StatusOK, w.Code)

		w, env = api.do(http.MethodPost, batchPath+"/complete", plain, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, string(construction.BatchStateDone), decodeData[appconstruction.BatchResponse](t, env).State)

		w, env = api.do(http.MethodPost, batchPath+"/complete", plain, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, construction.CodeBatchClosed, env.Error.Code)
	})

	t.Run("nothing left to send", func(t *testing.T) {
		w, env := api.do(http.MethodPost, path+"/quality-control", dispatcher, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, construction.CodeAllQuantitiesSatisfied, env.Error.Code)
	})

	t.Run("property control is independent", func(t *testing.T) {
		w, env := api.do(http.MethodPost, path+"/property-control", dispatcher, nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, string(construction.BatchKindProperty), decodeData[appconstruction.DispatchResponse](t, env).Kind)
	})

	t.Run("batches filter by kind", func(t *testing.T) {
		_, env := api.do(http.MethodGet, path+"/batches", plain, nil)
		assert.Len(t, decodeData[[]appconstruction.BatchResponse](t, env), 2)

		_, env = api.do(http.MethodGet, path+"/batches?kind=quality", plain, nil)
		quality := decodeData[[]appconstruction.BatchResponse](t, env)
		require.Len(t, quality, 1)
		assert.Equal(t, batchID, quality[0].ID)

		w, _ := api.do(http.MethodGet, path+"/batches?kind=acoustic", plain, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("summary rolls up approved quantities", func(t *testing.T) {
		w, env := api.do(http.MethodGet, path+"/summary", plain, nil)
		require.Equal(t, http.StatusOK, w.Code)
		summary := decodeData[appconstruction.ContractSummaryResponse](t, env)
		require.Len(t, summary.Products, 1)
		assert.True(t, summary.Products[0].ApprovedQty.Equal(decimal.NewFromInt(10)))
	})
}

func TestContractHandler_Dispatch_MissingVendor(t *testing.T) {
	api := newTestAPI(t)
	contract := createContract(t, api, api.token(), map[string]any{
		"warehouse_id": uuid.New(),
		"lines":        []any{cementLine(uuid.New())},
	})

	w, env := api.do(http.MethodPost, "/api/v1/contracts/"+contract.ID.String()+"/property-control", api.token(auth.PermissionDispatch), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, construction.CodeMissingVendor, env.Error.Code)
}

func TestContractHandler_RequestErrors(t *testing.T) {
	api := newTestAPI(t)
	token := api.token()

	w, env := api.do(http.MethodGet, "/api/v1/contracts/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeBadRequest, env.Error.Code)
	assert.NotEmpty(t, env.Error.RequestID)

	w, env = api.do(http.MethodPost, "/api/v1/contracts", token, `{"lines": [`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidJSON, env.Error.Code)

	w, env = api.do(http.MethodGet, "/api/v1/contracts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeUnauthorized, env.Error.Code)

	t.Run("tenants are isolated", func(t *testing.T) {
		contract := createContract(t, api, token, map[string]any{"description": "private"})
		other := *api
		other.tenantID = uuid.New()
		w, _ := api.do(http.MethodGet, "/api/v1/contracts/"+contract.ID.String(), other.token(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
