package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jdamiba/sandstone-project/internal/domain"
)

// AnalyticsRepository is an in-memory implementation of
// domain.AnalyticsRepository.
type AnalyticsRepository struct {
	records []*domain.AnalyticsRecord
	mu      sync.RWMutex
}

// NewAnalyticsRepository creates a new in-memory analytics repository.
func NewAnalyticsRepository() *AnalyticsRepository {
	return &AnalyticsRepository{}
}

// Insert appends an analytics record.
func (r *AnalyticsRepository) Insert(_ context.Context, record *domain.AnalyticsRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := *record
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	r.records = append(r.records, &rec)
	return nil
}

// Records returns every inserted record.
func (r *AnalyticsRepository) Records() []*domain.AnalyticsRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]*domain.AnalyticsRecord, len(r.records))
	copy(records, r.records)
	return records
}
