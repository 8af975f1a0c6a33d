// disbursement_store.go — транзакционная фиксация отправленной disbursement sheet.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"caseflow/internal/domain/model"
)

// DisbursementStore атомарно фиксирует результат отправки disbursement sheet:
// статус дела и запись документа меняются в одной транзакции.
type DisbursementStore interface {
	// MarkSent переводит дело в статус "sent" и создаёт запись документа.
	MarkSent(ctx context.Context, caseID int64, doc *model.Document) error
}

type disbursementStore struct {
	tx *TxRunner
}

// NewDisbursementStore создаёт DisbursementStore поверх пула соединений.
func NewDisbursementStore(pool *pgxpool.Pool) DisbursementStore {
	return &disbursementStore{tx: NewTxRunner(pool)}
}

func (s *disbursementStore) MarkSent(ctx context.Context, caseID int64, doc *model.Document) error {
	return s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		cases := NewCaseRepository(tx)
		if err := cases.SetDisbursementStatus(ctx, caseID, model.DisbursementSent); err != nil {
			return fmt.Errorf("статус disbursement дела %d: %w", caseID, err)
		}
		docs := NewDocumentRepository(tx)
		if err := docs.Create(ctx, doc); err != nil {
			return fmt.Errorf("запись disbursement sheet дела %d: %w", caseID, err)
		}
		return nil
	})
}
