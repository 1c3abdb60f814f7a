package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jdamiba/sandstone-project/internal/domain"
)

// AnalyticsRepository implements domain.AnalyticsRepository using pgx.
type AnalyticsRepository struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository constructs a PostgreSQL backed analytics store.
func NewAnalyticsRepository(pool *pgxpool.Pool) *AnalyticsRepository {
	return &AnalyticsRepository{pool: pool}
}

// Insert appends an analytics record.
func (r *AnalyticsRepository) Insert(ctx context.Context, record *domain.AnalyticsRecord) error {
	metadata, err := json.Marshal(record.Metadata)
	if err != nil {
		return fmt.Errorf("postgres: failed to encode analytics metadata: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO document_analytics (document_id, user_id, kind, metadata)
		VALUES ($1, $2, $3, $4)`,
		record.DocumentID, record.UserID, record.Kind, metadata)
	if err != nil {
		return fmt.Errorf("postgres: failed to insert analytics record: %w", mapError(err))
	}
	return nil
}
