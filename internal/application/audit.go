package application

import (
	"context"

	"github.com/atvirokodosprendimai/webbudget/internal/domain"
	"go.uber.org/zap"
)

type AuditService struct {
	repo domain.AuditRepository
	log  *zap.SugaredLogger
}

func NewAuditService(repo domain.AuditRepository, log *zap.SugaredLogger) *AuditService {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &AuditService{repo: repo, log: log}
}

// WriteAudit never fails the caller; a lost audit entry is only logged.
func (s *AuditService) WriteAudit(ctx context.Context, actorUserID *uint, action, targetType, targetID, metadata string) {
	err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ActorUserID: actorUserID,
		Action:      action,
		TargetType:  targetType,
		TargetID:    targetID,
		Metadata:    metadata,
	})
	if err != nil {
		s.log.Warnw("audit write failed", "action", action, "target_type", targetType, "target_id", targetID, "error", err)
	}
}

func (s *AuditService) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	return s.repo.ListAuditLogs(ctx, limit)
}
