// readiness.go — гейт готовности demand package.
//
// Предикат конъюнктивный: три обязательных типа документов, отсутствие
// уже собранного пакета и счёт от каждого провайдера, связанного хотя
// бы с одним документом дела. Проверка по каждому провайдеру, а не
// глобальная: дело с тремя провайдерами не готово, пока не выставил
// счёт каждый — неполный demand занижает ущерб.
//
// Гейт fail-closed: любая внутренняя ошибка сводится к false, ложного
// сигнала «готово» на неоднозначном состоянии быть не может.
package service

import (
	"context"
	"log/slog"

	"caseflow/internal/repository"
)

// ReadinessService — оценка готовности дела к сборке demand package.
type ReadinessService struct {
	docRepo repository.DocumentRepository
	logger  *slog.Logger
}

// NewReadinessService создаёт сервис готовности.
func NewReadinessService(docRepo repository.DocumentRepository, logger *slog.Logger) *ReadinessService {
	return &ReadinessService{
		docRepo: docRepo,
		logger:  logger.With(slog.String("component", "readiness_service")),
	}
}

// IsDemandReady возвращает true, когда все условия сборки выполнены.
// Обычное «не готово» — не ошибка; ошибки данных логируются и дают false.
func (s *ReadinessService) IsDemandReady(ctx context.Context, caseID int64) bool {
	inputs, err := s.docRepo.DemandInputs(ctx, caseID)
	if err != nil {
		s.logger.Error("Проверка входов demand package не удалась",
			slog.Int64("case_id", caseID),
			slog.String("error", err.Error()),
		)
		return false
	}

	if !inputs.HasMedicalRecords || !inputs.HasDamagesWorksheet ||
		!inputs.HasLiabilityPhoto || inputs.HasDemandPackage {
		s.logger.Info("Дело не готово к сборке demand package",
			slog.Int64("case_id", caseID),
			slog.Bool("medical_records", inputs.HasMedicalRecords),
			slog.Bool("damages_worksheet", inputs.HasDamagesWorksheet),
			slog.Bool("liability_photo", inputs.HasLiabilityPhoto),
			slog.Bool("package_exists", inputs.HasDemandPackage),
		)
		return false
	}

	allBilled, err := s.docRepo.AllProvidersBilled(ctx, caseID)
	if err != nil {
		s.logger.Error("Проверка счетов провайдеров не удалась",
			slog.Int64("case_id", caseID),
			slog.String("error", err.Error()),
		)
		return false
	}
	if !allBilled {
		s.logger.Info("Не все провайдеры выставили счета",
			slog.Int64("case_id", caseID),
		)
		return false
	}

	s.logger.Info("Дело готово к сборке demand package",
		slog.Int64("case_id", caseID),
	)
	return true
}
