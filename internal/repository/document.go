// document.go — репозиторий документов дела (таблица doc).
// Содержит запросы readiness-гейта и выборку источников demand package.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"caseflow/internal/domain/model"
)

// DemandInputs — флаги наличия обязательных входов demand package.
type DemandInputs struct {
	// HasMedicalRecords — есть документ medical_records
	HasMedicalRecords bool
	// HasDamagesWorksheet — есть документ damages_worksheet_pdf
	HasDamagesWorksheet bool
	// HasLiabilityPhoto — есть документ liability_photo
	HasLiabilityPhoto bool
	// HasDemandPackage — demand package уже существует
	HasDemandPackage bool
}

// DocumentRepository — доступ к документам дела.
type DocumentRepository interface {
	// Create сохраняет документ. Дублирующийся demand package
	// по делу отклоняется с ErrConflict (частичный уникальный индекс).
	Create(ctx context.Context, d *model.Document) error
	// Delete удаляет документ по ID.
	Delete(ctx context.Context, docID string) error
	// GetByID возвращает документ по ID.
	GetByID(ctx context.Context, docID string) (*model.Document, error)
	// DemandInputs возвращает флаги наличия обязательных входов
	// demand package для дела.
	DemandInputs(ctx context.Context, caseID int64) (*DemandInputs, error)
	// AllProvidersBilled проверяет, что у каждого провайдера,
	// связанного хотя бы с одним документом дела, есть medical_bill.
	// Дело без провайдерских документов считается покрытым.
	AllProvidersBilled(ctx context.Context, caseID int64) (bool, error)
	// ListDemandSources возвращает исходные документы demand package
	// в порядке сборки: ранг типа, имя провайдера, время создания.
	ListDemandSources(ctx context.Context, caseID int64) ([]*model.Document, error)
}

// documentRepo — реализация DocumentRepository.
type documentRepo struct {
	db DBTX
}

// NewDocumentRepository создаёт репозиторий документов.
func NewDocumentRepository(db DBTX) DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) Create(ctx context.Context, d *model.Document) error {
	query := `
		INSERT INTO doc (id, incident_id, provider_id, type, name, status, url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		d.ID, d.CaseID, d.ProviderID, d.Type, d.Name, d.Status, d.URL, d.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: документ типа %s по делу %d уже существует", ErrConflict, d.Type, d.CaseID)
		}
		return fmt.Errorf("ошибка сохранения документа: %w", err)
	}
	return nil
}

func (r *documentRepo) Delete(ctx context.Context, docID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM doc WHERE id = $1`, docID)
	if err != nil {
		return fmt.Errorf("ошибка удаления документа %s: %w", docID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *documentRepo) GetByID(ctx context.Context, docID string) (*model.Document, error) {
	query := `
		SELECT id, incident_id, provider_id, type, COALESCE(name, ''),
			status, COALESCE(url, ''), created_at
		FROM doc
		WHERE id = $1`

	d := &model.Document{}
	err := r.db.QueryRow(ctx, query, docID).Scan(
		&d.ID, &d.CaseID, &d.ProviderID, &d.Type, &d.Name,
		&d.Status, &d.URL, &d.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения документа %s: %w", docID, err)
	}
	return d, nil
}

func (r *documentRepo) DemandInputs(ctx context.Context, caseID int64) (*DemandInputs, error) {
	query := `
		SELECT
			EXISTS(SELECT 1 FROM doc WHERE incident_id = $1 AND type = 'medical_records'),
			EXISTS(SELECT 1 FROM doc WHERE incident_id = $1 AND type = 'damages_worksheet_pdf'),
			EXISTS(SELECT 1 FROM doc WHERE incident_id = $1 AND type = 'liability_photo'),
			EXISTS(SELECT 1 FROM doc WHERE incident_id = $1 AND type = 'demand_package')`

	in := &DemandInputs{}
	err := r.db.QueryRow(ctx, query, caseID).Scan(
		&in.HasMedicalRecords, &in.HasDamagesWorksheet,
		&in.HasLiabilityPhoto, &in.HasDemandPackage,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки входов demand package дела %d: %w", caseID, err)
	}
	return in, nil
}

func (r *documentRepo) AllProvidersBilled(ctx context.Context, caseID int64) (bool, error) {
	// bool_and по каждому DISTINCT провайдеру с документами дела;
	// COALESCE TRUE — дело без провайдерских документов покрыто вакуумно.
	query := `
		SELECT COALESCE(
			(
				SELECT bool_and(EXISTS(
					SELECT 1 FROM doc b
					WHERE b.incident_id = p.incident_id
					  AND b.provider_id = p.provider_id
					  AND b.type = 'medical_bill'
				))
				FROM (
					SELECT DISTINCT incident_id, provider_id
					FROM doc
					WHERE incident_id = $1 AND provider_id IS NOT NULL
				) p
			),
			TRUE
		)`

	var ok bool
	if err := r.db.QueryRow(ctx, query, caseID).Scan(&ok); err != nil {
		return false, fmt.Errorf("ошибка проверки счетов провайдеров дела %d: %w", caseID, err)
	}
	return ok, nil
}

func (r *documentRepo) ListDemandSources(ctx context.Context, caseID int64) ([]*model.Document, error) {
	// Фиксированный порядок сборки пакета: расчёт ущерба, фотографии,
	// медицинские записи, счета. Внутри типа — по имени провайдера и
	// времени создания, чтобы порядок был детерминирован.
	query := `
		SELECT d.id, d.incident_id, d.provider_id, d.type, COALESCE(d.name, ''),
			d.status, COALESCE(d.url, ''), d.created_at
		FROM doc d
		LEFT JOIN provider p ON d.provider_id = p.id
		WHERE d.incident_id = $1
		  AND d.type IN ('damages_worksheet_pdf', 'liability_photo', 'medical_records', 'medical_bill')
		ORDER BY
			CASE d.type
				WHEN 'damages_worksheet_pdf' THEN 1
				WHEN 'liability_photo' THEN 2
				WHEN 'medical_records' THEN 3
				WHEN 'medical_bill' THEN 4
				ELSE 5
			END,
			COALESCE(p.name, ''),
			d.created_at,
			d.id`

	rows, err := r.db.Query(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки источников demand package дела %d: %w", caseID, err)
	}
	defer rows.Close()

	var docs []*model.Document
	for rows.Next() {
		d := &model.Document{}
		if err := rows.Scan(
			&d.ID, &d.CaseID, &d.ProviderID, &d.Type, &d.Name,
			&d.Status, &d.URL, &d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка чтения документа: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка перебора документов: %w", err)
	}
	return docs, nil
}
