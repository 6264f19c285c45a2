// Package construction models construction contracts under quality and
// property control: the contract with its estimation lines, the inspection
// batches sent from it, and the reconciliation that decides how much of each
// contracted item may still be sent for inspection.
package construction
