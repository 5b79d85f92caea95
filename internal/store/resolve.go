package store

import (
	"context"
	"time"

	"mytvlog/internal/catalog"
)

// ResolveProgram is the single matching rule for "is this the same broadcast
// instance". Every ingestion path funnels through it via GetOrCreate so
// duplicate program rows cannot appear.
//
// A duration differing from the stored value is trusted only when the stored
// row was created before referenceTime: a stale, out-of-order event must not
// overwrite a newer correction.
func ResolveProgram(ctx context.Context, r ProgramRepository, desc catalog.ProgramDescriptor, createdAt, referenceTime time.Time) (int64, error) {
	existing, err := r.FindByKey(ctx, desc.Key())
	if err != nil {
		return 0, err
	}
	if existing != nil {
		if existing.Duration != desc.Duration && existing.CreatedAt.Before(referenceTime) {
			if err := r.UpdateDuration(ctx, existing.ID, desc.Duration); err != nil {
				return 0, err
			}
		}
		return existing.ID, nil
	}
	return r.Create(ctx, desc, createdAt)
}
