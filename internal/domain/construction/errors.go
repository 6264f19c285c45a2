package construction

import (
	"fmt"

	"github.com/egp/construction-control/internal/domain/shared"
)

// Error codes for construction control failures
const (
	CodeMissingWarehouse          = "MISSING_WAREHOUSE"
	CodeMissingVendor             = "MISSING_VENDOR"
	CodeOpenBatchExists           = "OPEN_BATCH_EXISTS"
	CodeAllQuantitiesSatisfied    = "ALL_QUANTITIES_SATISFIED"
	CodeDeleteOfFinalizedContract = "DELETE_OF_FINALIZED_CONTRACT"
	CodeInvalidStateTransition    = "INVALID_STATE_TRANSITION"
	CodeDispatchNotPermitted      = "DISPATCH_NOT_PERMITTED"
	CodeInvalidQuantity           = "INVALID_QUANTITY"
	CodeLineNotFound              = "LINE_NOT_FOUND"
	CodeBoardMemberNotFound       = "BOARD_MEMBER_NOT_FOUND"
	CodeBatchClosed               = "BATCH_CLOSED"
)

var (
	ErrMissingWarehouse          = shared.NewDomainError(CodeMissingWarehouse, "Missing Warehouse on contract.")
	ErrMissingVendor             = shared.NewDomainError(CodeMissingVendor, "Missing Vendor in the contract offer.")
	ErrOpenBatchExists           = shared.NewDomainError(CodeOpenBatchExists, "An open batch already exists for this contract")
	ErrAllQuantitiesSatisfied    = shared.NewDomainError(CodeAllQuantitiesSatisfied, "All products in this contract are fully approved. Nothing left to send.")
	ErrDeleteOfFinalizedContract = shared.NewDomainError(CodeDeleteOfFinalizedContract, "You cannot delete the record that has been done.")
	ErrInvalidStateTransition    = shared.NewDomainError(CodeInvalidStateTransition, "State transition not allowed")
	ErrDispatchNotPermitted      = shared.NewDomainError(CodeDispatchNotPermitted, "You are not allowed to send contracts to inspection")
	ErrInvalidQuantity           = shared.NewDomainError(CodeInvalidQuantity, "Quantities and prices cannot be negative")
	ErrQuantityPrecision         = shared.NewDomainError(CodeInvalidQuantity, fmt.Sprintf("Quantities and prices allow at most %d decimal places", QuantityScale))
	ErrLineNotFound              = shared.NewDomainError(CodeLineNotFound, "Line not found")
	ErrBoardMemberNotFound       = shared.NewDomainError(CodeBoardMemberNotFound, "Board member not found")
	ErrBatchClosed               = shared.NewDomainError(CodeBatchClosed, "Batch is already done")
)

func openBatchExistsError(kind BatchKind) error {
	return shared.NewDomainError(CodeOpenBatchExists, fmt.Sprintf(
		"You already have a %s in Draft or In Progress. Please finish it before creating a new one.", kind.Label()))
}

func allQuantitiesSatisfiedError(kind BatchKind) error {
	return shared.NewDomainError(CodeAllQuantitiesSatisfied, fmt.Sprintf(
		"All products in this contract are fully approved. Nothing left for %s.", kind.ShortLabel()))
}

func invalidTransitionError(from, to ContractState) error {
	return shared.NewDomainError(CodeInvalidStateTransition, fmt.Sprintf(
		"Cannot move contract from %s to %s", from, to))
}
