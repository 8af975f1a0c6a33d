// split.go — расчёт разбиения settlement по делу.
//
// Чистая производная от текущего состояния БД: никаких побочных
// эффектов, при одинаковых данных результат идентичен. На этом
// держится идемпотентность ретраев disbursement pipeline.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"caseflow/internal/domain/model"
	"caseflow/internal/repository"
)

// oneHundred — делитель процента гонорара.
var oneHundred = decimal.NewFromInt(100)

// SplitService — расчёт settlement split.
type SplitService struct {
	caseRepo repository.CaseRepository
	adjRepo  repository.FeeAdjustmentRepository
	logger   *slog.Logger
}

// NewSplitService создаёт сервис расчёта split.
func NewSplitService(
	caseRepo repository.CaseRepository,
	adjRepo repository.FeeAdjustmentRepository,
	logger *slog.Logger,
) *SplitService {
	return &SplitService{
		caseRepo: caseRepo,
		adjRepo:  adjRepo,
		logger:   logger.With(slog.String("component", "split_service")),
	}
}

// Calc вычисляет разбиение settlement для дела:
//
//	gross            = settlement_amount
//	attorney_fee     = round_bank(gross × attorney_fee_pct / 100, 2)
//	lien_total       = lien_total дела
//	other_adjustments = Σ fee_adjustments.amount
//	net_to_client    = gross − attorney_fee − lien_total − other_adjustments
//
// Дело без суммы settlement — ErrNoSettlement; отрицательный остаток
// клиенту — ErrNegativeNet (жёсткий гейт, а не предупреждение).
func (s *SplitService) Calc(ctx context.Context, caseID int64) (*model.SettlementSplit, error) {
	c, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("дело %d не найдено: %w", caseID, err)
		}
		return nil, fmt.Errorf("загрузка дела %d: %w", caseID, err)
	}

	if c.SettlementAmount == nil {
		return nil, fmt.Errorf("%w: дело %d", ErrNoSettlement, caseID)
	}

	otherAdjustments, err := s.adjRepo.TotalByCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("сумма корректировок дела %d: %w", caseID, err)
	}

	gross := *c.SettlementAmount
	attorneyFee := gross.Mul(c.AttorneyFeePct).Div(oneHundred).RoundBank(2)
	netToClient := gross.Sub(attorneyFee).Sub(c.LienTotal).Sub(otherAdjustments)

	if netToClient.IsNegative() {
		return nil, fmt.Errorf("%w: дело %d, расчётный остаток %s — проверьте settlement, liens и adjustments",
			ErrNegativeNet, caseID, netToClient.StringFixed(2))
	}

	return &model.SettlementSplit{
		Gross:            gross,
		AttorneyFee:      attorneyFee,
		LienTotal:        c.LienTotal,
		OtherAdjustments: otherAdjustments,
		NetToClient:      netToClient,
	}, nil
}
