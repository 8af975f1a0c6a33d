// case.go — репозиторий дел (таблица incident).
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"caseflow/internal/domain/model"
)

// CaseRepository — доступ к делам и их settlement-полям.
type CaseRepository interface {
	// GetByID возвращает дело по идентификатору.
	GetByID(ctx context.Context, caseID int64) (*model.Case, error)
	// GetWithClient возвращает дело вместе с данными клиента.
	GetWithClient(ctx context.Context, caseID int64) (*model.CaseWithClient, error)
	// ListWithoutDemandPackage возвращает ID всех дел без demand package
	// (кандидаты ночной сборки).
	ListWithoutDemandPackage(ctx context.Context) ([]int64, error)
	// SetDisbursementStatus обновляет статус disbursement дела.
	SetDisbursementStatus(ctx context.Context, caseID int64, status string) error
}

// caseRepo — реализация CaseRepository.
type caseRepo struct {
	db DBTX
}

// NewCaseRepository создаёт репозиторий дел.
func NewCaseRepository(db DBTX) CaseRepository {
	return &caseRepo{db: db}
}

func (r *caseRepo) GetByID(ctx context.Context, caseID int64) (*model.Case, error) {
	query := `
		SELECT id, client_id, incident_date, settlement_amount,
			attorney_fee_pct, lien_total, disbursement_status, created_at
		FROM incident
		WHERE id = $1`

	c := &model.Case{}
	err := r.db.QueryRow(ctx, query, caseID).Scan(
		&c.ID, &c.ClientID, &c.IncidentDate, &c.SettlementAmount,
		&c.AttorneyFeePct, &c.LienTotal, &c.DisbursementStatus, &c.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения дела %d: %w", caseID, err)
	}
	return c, nil
}

func (r *caseRepo) GetWithClient(ctx context.Context, caseID int64) (*model.CaseWithClient, error) {
	query := `
		SELECT i.id, i.client_id, i.incident_date, i.settlement_amount,
			i.attorney_fee_pct, i.lien_total, i.disbursement_status, i.created_at,
			c.id, c.full_name, COALESCE(c.email, '')
		FROM incident i
		JOIN client c ON i.client_id = c.id
		WHERE i.id = $1`

	cw := &model.CaseWithClient{}
	err := r.db.QueryRow(ctx, query, caseID).Scan(
		&cw.Case.ID, &cw.Case.ClientID, &cw.Case.IncidentDate, &cw.Case.SettlementAmount,
		&cw.Case.AttorneyFeePct, &cw.Case.LienTotal, &cw.Case.DisbursementStatus, &cw.Case.CreatedAt,
		&cw.Client.ID, &cw.Client.FullName, &cw.Client.Email,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения дела %d с клиентом: %w", caseID, err)
	}
	return cw, nil
}

func (r *caseRepo) ListWithoutDemandPackage(ctx context.Context) ([]int64, error) {
	query := `
		SELECT i.id
		FROM incident i
		WHERE NOT EXISTS (
			SELECT 1 FROM doc d
			WHERE d.incident_id = i.id AND d.type = 'demand_package'
		)
		ORDER BY i.id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки дел без demand package: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ошибка чтения ID дела: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка перебора дел: %w", err)
	}
	return ids, nil
}

func (r *caseRepo) SetDisbursementStatus(ctx context.Context, caseID int64, status string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE incident SET disbursement_status = $2 WHERE id = $1`,
		caseID, status,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса disbursement дела %d: %w", caseID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
