package gormdb

import (
	"context"
	"time"

	"github.com/atvirokodosprendimai/webbudget/internal/domain"
)

func (r *Repository) CreateAuditLog(ctx context.Context, value domain.AuditLog) error {
	m := AuditLogModel{
		ActorUserID: value.ActorUserID,
		Action:      value.Action,
		TargetType:  value.TargetType,
		TargetID:    value.TargetID,
		Metadata:    value.Metadata,
	}
	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *Repository) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditRecord, error) {
	type row struct {
		ID         uint
		ActorEmail string
		Action     string
		TargetType string
		TargetID   string
		Metadata   string
		CreatedAt  time.Time
	}
	rows := make([]row, 0)
	err := r.db.WithContext(ctx).Raw(`
SELECT a.id,
       COALESCE(u.email, '') AS actor_email,
       a.action,
       a.target_type,
       a.target_id,
       a.metadata,
       a.created_at
FROM audit_logs a
LEFT JOIN users u ON u.id = a.actor_user_id
ORDER BY a.id DESC
LIMIT ?
`, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make([]domain.AuditRecord, 0, len(rows))
	for _, m := range rows {
		result = append(result, domain.AuditRecord{
			ID:         m.ID,
			ActorEmail: m.ActorEmail,
			Action:     m.Action,
			TargetType: m.TargetType,
			TargetID:   m.TargetID,
			Metadata:   m.Metadata,
			CreatedAt:  m.CreatedAt,
		})
	}
	return result, nil
}
