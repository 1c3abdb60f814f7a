package usecase

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jdamiba/sandstone-project/internal/apperr"
	"github.com/jdamiba/sandstone-project/internal/domain"
)

// ChangeUseCase applies find-and-replace change requests to documents. One
// accepted request produces a new content revision, one operation record per
// applied op, and one analytics record, committed atomically through the
// persistence port.
type ChangeUseCase struct {
	docs    domain.DocumentRepository
	collabs domain.CollaboratorRepository
	logger  *zap.Logger
}

// NewChangeUseCase creates a new change use case.
func NewChangeUseCase(docs domain.DocumentRepository, collabs domain.CollaboratorRepository, logger *zap.Logger) *ChangeUseCase {
	return &ChangeUseCase{
		docs:    docs,
		collabs: collabs,
		logger:  logger,
	}
}

// Apply validates, authorizes, and applies a change request.
//
// Batch ops are sorted by their first-occurrence position in the original
// content, descending, so that applying an earlier op never shifts the
// recorded position of a later one; ties keep input order. Each op then
// searches the working copy at its turn: first occurrence wins, absent
// targets are reported as not applied with position -1. A request where no
// op applies fails without side effects.
func (uc *ChangeUseCase) Apply(ctx context.Context, documentID uuid.UUID, userID string, req *domain.ChangeRequest) (*domain.ChangeResult, error) {
	if userID == "" {
		return nil, apperr.Unauthorized("authentication required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	doc, err := uc.docs.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	binding, err := uc.collabs.Get(ctx, documentID, userID)
	if err != nil {
		return nil, err
	}
	if !domain.CanWrite(doc, binding, userID) {
		return nil, apperr.Forbidden("you do not have permission to edit this document")
	}

	ops := req.Ops()
	order := make([]int, len(ops))
	for i := range order {
		order[i] = i
	}
	positions := make([]int, len(ops))
	for i, op := range ops {
		positions[i] = strings.Index(doc.Content, op.TextToReplace)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return positions[order[a]] > positions[order[b]]
	})

	working := doc.Content
	outcomes := make([]domain.ChangeOutcome, len(ops))
	var applied []domain.Operation
	for _, i := range order {
		op := ops[i]
		outcome := domain.ChangeOutcome{
			TextReplaced: op.TextToReplace,
			NewText:      op.NewText,
			Position:     -1,
		}
		if at := strings.Index(working, op.TextToReplace); at >= 0 {
			working = working[:at] + op.NewText + working[at+len(op.TextToReplace):]
			outcome.Position = at
			outcome.Applied = true
			applied = append(applied, domain.Operation{
				DocumentID: documentID,
				Kind:       domain.KindOfChange(op.TextToReplace, op.NewText),
				Position:   at,
				Length:     len(op.TextToReplace),
				Content:    op.NewText,
				UserID:     userID,
			})
		}
		outcomes[i] = outcome
	}

	if len(applied) == 0 {
		return nil, apperr.BadRequest("no matching text found in document").WithDetails(map[string]any{
			"requestType":  req.Type(),
			"totalChanges": len(ops),
		})
	}
	if len(working) > domain.MaxContentBytes {
		return nil, apperr.Validation("document exceeds 1000000 bytes")
	}

	record := &domain.AnalyticsRecord{
		DocumentID: documentID,
		UserID:     userID,
		Kind:       "document_change",
		Metadata: map[string]any{
			"requestType":    req.Type(),
			"totalChanges":   len(ops),
			"appliedChanges": len(applied),
			"perOp":          outcomes,
		},
	}

	updated, err := uc.docs.CommitChange(ctx, documentID, working, applied, record)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("Applied document changes",
		zap.String("document_id", documentID.String()),
		zap.String("user_id", userID),
		zap.Int("total", len(ops)),
		zap.Int("applied", len(applied)),
		zap.Int64("version", updated.Version))

	return &domain.ChangeResult{
		DocumentText: updated.Content,
		Changes: domain.ChangeSummary{
			RequestType:     req.Type(),
			TotalChanges:    len(ops),
			AppliedChanges:  len(applied),
			PerOp:           outcomes,
			DocumentVersion: updated.Version,
		},
	}, nil
}
