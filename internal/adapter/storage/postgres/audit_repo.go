package postgres

import (
	"context"
	"fmt"

	"card-payment-pipeline/internal/core/domain"

	"github.com/google/uuid"
)

// AuditRepo implements ports.AuditRepository. The trail is append-only.
type AuditRepo struct {
	pool Pool
}

// NewAuditRepo creates a new AuditRepo.
func NewAuditRepo(pool Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

// Create appends an audit log entry.
func (r *AuditRepo) Create(ctx context.Context, l *domain.AuditLog) error {
	query := `INSERT INTO audit_logs (id, transaction_id, event, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query, l.ID, l.TransactionID, l.Event, l.Details, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// ListByTransaction returns the trail for a transaction, oldest first.
func (r *AuditRepo) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]domain.AuditLog, error) {
	query := `SELECT id, transaction_id, event, details, created_at
		FROM audit_logs WHERE transaction_id = $1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.AuditLog
	for rows.Next() {
		var l domain.AuditLog
		if err := rows.Scan(&l.ID, &l.TransactionID, &l.Event, &l.Details, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit logs: %w", err)
	}
	return logs, nil
}
