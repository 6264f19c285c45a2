package construction

// AssertCanOpen fails with ErrOpenBatchExists when a batch of kind that is
// not done already exists. It must pass before a new batch of that kind is
// stored.
func AssertCanOpen(batches []*Batch, kind BatchKind) error {
	for _, b := range batches {
		if b != nil && b.Kind == kind && b.State.IsOpen() {
			return openBatchExistsError(kind)
		}
	}
	return nil
}
