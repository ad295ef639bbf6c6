package logging

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/terraskye/projections"
)

// WithApplierLogging wraps an Applier with logging functionality.
// It logs the read model ID and event count before application, and logs
// errors if applying fails.
func WithApplierLogging[T any](logger *logrus.Entry, next projections.Applier[T]) projections.Applier[T] {
	return func(ctx context.Context, model *T, events []projections.Envelope, rmctx *projections.ReadModelContext) error {
		logger.Infof("Apply: %d events (readModelID: %s)", len(events), rmctx.ReadModelID())

		err := next(ctx, model, events, rmctx)
		if err != nil {
			logger.Errorf("Apply failed (readModelID: %s): %v", rmctx.ReadModelID(), err)
		}

		return err
	}
}
