package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes a sort direction to ASC or DESC, defaulting to DESC
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when it is whitelisted and defaultField
// otherwise. Only whitelisted names ever reach an ORDER BY clause.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// ContractSortFields contains allowed sort fields for contracts
var ContractSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"contract_number": true,
	"contract_date":   true,
	"start_date":      true,
	"end_date":        true,
	"state":           true,
}
