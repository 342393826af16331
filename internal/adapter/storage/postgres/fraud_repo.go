package postgres

import (
	"context"
	"fmt"

	"card-payment-pipeline/internal/core/domain"

	"github.com/google/uuid"
)

// FraudAnalysisRepo implements ports.FraudAnalysisRepository. Analyses are
// append-only; a re-evaluation inserts a new row.
type FraudAnalysisRepo struct {
	pool Pool
}

// NewFraudAnalysisRepo creates a new FraudAnalysisRepo.
func NewFraudAnalysisRepo(pool Pool) *FraudAnalysisRepo {
	return &FraudAnalysisRepo{pool: pool}
}

// Create inserts a fraud analysis row.
func (r *FraudAnalysisRepo) Create(ctx context.Context, a *domain.FraudAnalysis) error {
	query := `INSERT INTO fraud_analyses (id, transaction_id, verdict, factors, analyzed_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query, a.ID, a.TransactionID, a.Verdict, a.Factors, a.AnalyzedAt)
	if err != nil {
		return fmt.Errorf("insert fraud analysis: %w", err)
	}
	return nil
}

// ListByTransaction returns all analyses for a transaction, oldest first.
func (r *FraudAnalysisRepo) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]domain.FraudAnalysis, error) {
	query := `SELECT id, transaction_id, verdict, factors, analyzed_at
		FROM fraud_analyses WHERE transaction_id = $1 ORDER BY analyzed_at ASC`

	rows, err := r.pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("list fraud analyses: %w", err)
	}
	defer rows.Close()

	var analyses []domain.FraudAnalysis
	for rows.Next() {
		var a domain.FraudAnalysis
		if err := rows.Scan(&a.ID, &a.TransactionID, &a.Verdict, &a.Factors, &a.AnalyzedAt); err != nil {
			return nil, fmt.Errorf("scan fraud analysis: %w", err)
		}
		analyses = append(analyses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fraud analyses: %w", err)
	}
	return analyses, nil
}
