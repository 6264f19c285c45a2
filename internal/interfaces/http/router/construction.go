package router

import (
	"github.com/egp/construction-control/internal/infrastructure/auth"
	"github.com/egp/construction-control/internal/interfaces/http/handler"
	"github.com/egp/construction-control/internal/interfaces/http/middleware"
)

// Handlers are the endpoint groups of the construction control API
type Handlers struct {
	Contract *handler.ContractHandler
	Batch    *handler.BatchHandler
	Outbox   *handler.OutboxHandler
}

// ConstructionRoutes builds the contract, batch and outbox route groups.
// Outbox routes require the outbox admin permission.
func ConstructionRoutes(h Handlers) []RouteRegistrar {
	contracts := NewDomainGroup("contracts", "/contracts")
	contracts.POST("", h.Contract.Create)
	contracts.GET("", h.Contract.List)
	contracts.GET("/:id", h.Contract.GetByID)
	contracts.PUT("/:id", h.Contract.Update)
	contracts.DELETE("/:id", h.Contract.Delete)
	contracts.POST("/:id/start", h.Contract.StartProgress)
	contracts.POST("/:id/complete", h.Contract.Complete)
	contracts.POST("/:id/reset-to-draft", h.Contract.ResetToDraft)
	contracts.POST("/:id/lines", h.Contract.AddLine)
	contracts.PUT("/:id/lines/:line_id", h.Contract.UpdateLine)
	contracts.DELETE("/:id/lines/:line_id", h.Contract.RemoveLine)
	contracts.POST("/:id/lines/:line_id/deliveries", h.Contract.RecordDelivery)
	contracts.POST("/:id/board-members", h.Contract.AddBoardMember)
	contracts.DELETE("/:id/board-members/:member_id", h.Contract.RemoveBoardMember)
	contracts.POST("/:id/quality-control", h.Contract.SendToQualityControl)
	contracts.POST("/:id/property-control", h.Contract.SendToPropertyControl)
	contracts.GET("/:id/batches", h.Contract.ListBatches)
	contracts.GET("/:id/summary", h.Contract.GetSummary)
	contracts.GET("/:id/notes", h.Contract.ListNotes)

	batches := NewDomainGroup("batches", "/batches")
	batches.GET("/:id", h.Batch.GetByID)
	batches.POST("/:id/start", h.Batch.Start)
	batches.POST("/:id/complete", h.Batch.Complete)
	batches.PUT("/:id/lines/:line_id/result", h.Batch.RecordLineResult)

	registrars := []RouteRegistrar{contracts, batches}
	if h.Outbox != nil {
		outbox := NewDomainGroup("outbox", "/outbox").
			Use(middleware.RequirePermission(auth.PermissionOutboxAdmin))
		outbox.GET("/dead", h.Outbox.GetDeadLetterEntries)
		outbox.POST("/dead/retry-all", h.Outbox.RetryAllDeadEntries)
		outbox.GET("/:id", h.Outbox.GetEntry)
		outbox.POST("/:id/retry", h.Outbox.RetryDeadEntry)
		registrars = append(registrars, outbox)
	}
	return registrars
}
