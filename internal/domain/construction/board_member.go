package construction

import (
	"github.com/egp/construction-control/internal/domain/shared"
	"github.com/google/uuid"
)

// BoardRole is the committee a board member sits on
type BoardRole string

const (
	BoardRolePreOfferOpening BoardRole = "pre_offer_opening"
	BoardRoleOfferOpening    BoardRole = "offer_opening"
	BoardRoleEvaluation      BoardRole = "evaluation"
	BoardRoleExamination     BoardRole = "examination"
	BoardRolePurchase        BoardRole = "purchase"
	BoardRoleComplaint       BoardRole = "complaint"
	BoardRoleInspection      BoardRole = "inspection"
)

// IsValid reports whether r is a known role
func (r BoardRole) IsValid() bool {
	switch r {
	case BoardRolePreOfferOpening, BoardRoleOfferOpening, BoardRoleEvaluation,
		BoardRoleExamination, BoardRolePurchase, BoardRoleComplaint, BoardRoleInspection:
		return true
	}
	return false
}

// BoardMember is an employee assigned to a contract committee
type BoardMember struct {
	shared.BaseEntity
	ContractID    uuid.UUID
	EmployeeID    uuid.UUID
	Name          string
	PositionTitle string
	Phone         string
	Email         string
	Role          BoardRole
}

// BoardMemberInput carries the fields of a new board member
type BoardMemberInput struct {
	EmployeeID    uuid.UUID
	Name          string
	PositionTitle string
	Phone         string
	Email         string
	Role          BoardRole
}

func newBoardMember(contractID uuid.UUID, in BoardMemberInput) (*BoardMember, error) {
	if in.EmployeeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Board member requires an employee")
	}
	if !in.Role.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid board member role: "+string(in.Role))
	}
	return &BoardMember{
		BaseEntity:    shared.NewBaseEntity(),
		ContractID:    contractID,
		EmployeeID:    in.EmployeeID,
		Name:          in.Name,
		PositionTitle: in.PositionTitle,
		Phone:         in.Phone,
		Email:         in.Email,
		Role:          in.Role,
	}, nil
}
