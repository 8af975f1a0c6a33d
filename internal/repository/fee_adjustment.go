// fee_adjustment.go — репозиторий корректировок гонорара.
package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"caseflow/internal/domain/model"
)

// FeeAdjustmentRepository — доступ к корректировкам гонорара.
// Записи неизменяемы; удаляются только каскадом вместе с делом.
type FeeAdjustmentRepository interface {
	// Create сохраняет корректировку.
	Create(ctx context.Context, a *model.FeeAdjustment) error
	// ListByCase возвращает корректировки дела.
	ListByCase(ctx context.Context, caseID int64) ([]*model.FeeAdjustment, error)
	// TotalByCase возвращает сумму корректировок дела (0 при отсутствии).
	TotalByCase(ctx context.Context, caseID int64) (decimal.Decimal, error)
}

// feeAdjustmentRepo — реализация FeeAdjustmentRepository.
type feeAdjustmentRepo struct {
	db DBTX
}

// NewFeeAdjustmentRepository создаёт репозиторий корректировок.
func NewFeeAdjustmentRepository(db DBTX) FeeAdjustmentRepository {
	return &feeAdjustmentRepo{db: db}
}

func (r *feeAdjustmentRepo) Create(ctx context.Context, a *model.FeeAdjustment) error {
	query := `
		INSERT INTO fee_adjustments (incident_id, description, amount)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query, a.CaseID, a.Description, a.Amount).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка сохранения корректировки: %w", err)
	}
	return nil
}

func (r *feeAdjustmentRepo) ListByCase(ctx context.Context, caseID int64) ([]*model.FeeAdjustment, error) {
	query := `
		SELECT id, incident_id, description, amount, created_at
		FROM fee_adjustments
		WHERE incident_id = $1
		ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки корректировок дела %d: %w", caseID, err)
	}
	defer rows.Close()

	var adjustments []*model.FeeAdjustment
	for rows.Next() {
		a := &model.FeeAdjustment{}
		if err := rows.Scan(&a.ID, &a.CaseID, &a.Description, &a.Amount, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка чтения корректировки: %w", err)
		}
		adjustments = append(adjustments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка перебора корректировок: %w", err)
	}
	return adjustments, nil
}

func (r *feeAdjustmentRepo) TotalByCase(ctx context.Context, caseID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM fee_adjustments WHERE incident_id = $1`,
		caseID,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ошибка суммирования корректировок дела %d: %w", caseID, err)
	}
	return total, nil
}
