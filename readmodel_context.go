package projections

// ReadModelContext is the per-update-unit scratch state handed to the applier.
// Its main job is the deletion flag: an applier that decides the read model
// should no longer exist marks the context, and the processor issues a delete
// instead of a conditional replace. A context lives for exactly one update
// unit and is discarded afterwards.
type ReadModelContext struct {
	readModelID       string
	markedForDeletion bool
}

// ReadModelContextFactory produces the context for one update unit. The
// processor calls it once per unit with the read model id.
type ReadModelContextFactory func(readModelID string) *ReadModelContext

// NewReadModelContext creates a plain context for the given read model id.
// It is the default ReadModelContextFactory.
func NewReadModelContext(readModelID string) *ReadModelContext {
	return &ReadModelContext{readModelID: readModelID}
}

// ReadModelID returns the id of the read model this context belongs to.
func (c *ReadModelContext) ReadModelID() string {
	return c.readModelID
}

// MarkForDeletion requests that the read model be removed from the store
// instead of replaced, regardless of the computed version.
func (c *ReadModelContext) MarkForDeletion() {
	c.markedForDeletion = true
}

// MarkedForDeletion reports whether deletion was requested.
func (c *ReadModelContext) MarkedForDeletion() bool {
	return c.markedForDeletion
}
