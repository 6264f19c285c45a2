package construction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssertCanOpen(t *testing.T) {
	tests := []struct {
		name    string
		batches []*Batch
		kind    BatchKind
		wantErr bool
	}{
		{"no batches", nil, BatchKindQuality, false},
		{"only done batches", []*Batch{{Kind: BatchKindQuality, State: BatchStateDone}}, BatchKindQuality, false},
		{"draft batch", []*Batch{{Kind: BatchKindQuality, State: BatchStateDraft}}, BatchKindQuality, true},
		{"in progress batch", []*Batch{{Kind: BatchKindQuality, State: BatchStateInProgress}}, BatchKindQuality, true},
		{"open batch of other kind", []*Batch{{Kind: BatchKindProperty, State: BatchStateInProgress}}, BatchKindQuality, false},
		{"open property batch", []*Batch{
			{Kind: BatchKindProperty, State: BatchStateDone},
			{Kind: BatchKindProperty, State: BatchStateDraft},
		}, BatchKindProperty, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AssertCanOpen(tt.batches, tt.kind)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrOpenBatchExists)
				assert.Contains(t, err.Error(), tt.kind.Label())
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
