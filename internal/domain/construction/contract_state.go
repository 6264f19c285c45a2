package construction

// ContractState is the lifecycle state of a construction contract
type ContractState string

const (
	ContractStateDraft      ContractState = "draft"
	ContractStateInProgress ContractState = "in_progress"
	ContractStateDone       ContractState = "done"
)

// AllContractStates returns every valid contract state
func AllContractStates() []ContractState {
	return []ContractState{ContractStateDraft, ContractStateInProgress, ContractStateDone}
}

// IsValid reports whether s is a known state
func (s ContractState) IsValid() bool {
	switch s {
	case ContractStateDraft, ContractStateInProgress, ContractStateDone:
		return true
	}
	return false
}

// String returns the string representation
func (s ContractState) String() string {
	return string(s)
}

// CanTransitionTo reports whether the contract may move from s to target.
// The forward path is draft -> in_progress -> done; in_progress and done may
// both be reset to draft.
func (s ContractState) CanTransitionTo(target ContractState) bool {
	switch s {
	case ContractStateDraft:
		return target == ContractStateInProgress
	case ContractStateInProgress:
		return target == ContractStateDone || target == ContractStateDraft
	case ContractStateDone:
		return target == ContractStateDraft
	}
	return false
}
