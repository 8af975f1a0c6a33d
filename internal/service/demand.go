// demand.go — сборка demand package и ночной sweep.
//
// Assemble выполняет один проход state machine: повторная проверка
// готовности → выборка источников в фиксированном порядке → скачивание
// всех байтов (fail-fast) → бинарная склейка PDF → запись doc →
// загрузка артефакта. Если загрузка не удалась после создания записи,
// запись удаляется компенсирующим действием — иначе фантомная строка
// demand_package навсегда заблокирует ретраи через readiness-гейт.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"caseflow/internal/domain/model"
	"caseflow/internal/pdfmerge"
	"caseflow/internal/repository"
)

// Prometheus-метрики demand pipeline.
var (
	demandBuiltTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caseflow_demand_packages_built_total",
		Help: "Количество успешно собранных demand packages",
	})
	demandAssemblyFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caseflow_demand_assembly_failed_total",
		Help: "Количество неудачных попыток сборки demand package",
	})
	demandSweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "caseflow_demand_sweep_duration_seconds",
		Help:    "Длительность ночного sweep сборки demand packages",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 0.1s … ~204s
	})
)

// FileStorage — хранилище содержимого документов.
type FileStorage interface {
	// GetFileContent возвращает байты документа.
	GetFileContent(ctx context.Context, docID string) ([]byte, error)
	// UploadFile загружает байты документа.
	UploadFile(ctx context.Context, docID string, content []byte, contentType string) error
}

// DemandService — сборка demand packages.
type DemandService struct {
	caseRepo  repository.CaseRepository
	docRepo   repository.DocumentRepository
	readiness *ReadinessService
	storage   FileStorage
	merge     func([][]byte) ([]byte, error)
	logger    *slog.Logger
}

// NewDemandService создаёт сервис сборки demand packages.
func NewDemandService(
	caseRepo repository.CaseRepository,
	docRepo repository.DocumentRepository,
	readiness *ReadinessService,
	storage FileStorage,
	logger *slog.Logger,
) *DemandService {
	return &DemandService{
		caseRepo:  caseRepo,
		docRepo:   docRepo,
		readiness: readiness,
		storage:   storage,
		merge:     pdfmerge.Merge,
		logger:    logger.With(slog.String("component", "demand_service")),
	}
}

// Assemble собирает demand package для дела.
// Возвращает ID созданного документа. Неготовое дело — ("", nil):
// sweep зовёт сборку спекулятивно, это не ошибка.
func (s *DemandService) Assemble(ctx context.Context, caseID int64) (string, error) {
	// Повторная проверка готовности непосредственно перед сборкой
	if !s.readiness.IsDemandReady(ctx, caseID) {
		return "", nil
	}

	docs, err := s.docRepo.ListDemandSources(ctx, caseID)
	if err != nil {
		return "", fmt.Errorf("источники demand package дела %d: %w", caseID, err)
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("у дела %d нет исходных документов", caseID)
	}

	// Скачиваем все источники; любой сбой отменяет сборку целиком —
	// пакет без страницы хуже, чем отсутствие пакета.
	contents := make([][]byte, 0, len(docs))
	for _, doc := range docs {
		content, err := s.storage.GetFileContent(ctx, doc.ID)
		if err != nil {
			demandAssemblyFailedTotal.Inc()
			return "", fmt.Errorf("%w: содержимое документа %s дела %d: %v",
				ErrCollaborator, doc.ID, caseID, err)
		}
		contents = append(contents, content)
	}

	merged, err := s.merge(contents)
	if err != nil {
		demandAssemblyFailedTotal.Inc()
		return "", fmt.Errorf("склейка demand package дела %d: %w", caseID, err)
	}

	now := time.Now()
	pkg := &model.Document{
		ID:        uuid.NewString(),
		CaseID:    caseID,
		Type:      model.DocDemandPackage,
		Name:      "Demand Package - " + now.Format("2006-01-02"),
		Status:    "active",
		CreatedAt: now,
	}

	if err := s.docRepo.Create(ctx, pkg); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// Конкурентный sweep успел первым — пакет уже есть
			s.logger.Info("Demand package уже существует",
				slog.Int64("case_id", caseID),
			)
			return "", nil
		}
		return "", fmt.Errorf("запись demand package дела %d: %w", caseID, err)
	}

	if err := s.storage.UploadFile(ctx, pkg.ID, merged, "application/pdf"); err != nil {
		demandAssemblyFailedTotal.Inc()
		// Компенсирующее действие: удаляем запись, чтобы readiness-гейт
		// не блокировал будущие ретраи фантомной строкой
		if delErr := s.docRepo.Delete(ctx, pkg.ID); delErr != nil {
			s.logger.Error("Не удалось удалить запись после сбоя загрузки",
				slog.String("doc_id", pkg.ID),
				slog.Int64("case_id", caseID),
				slog.String("error", delErr.Error()),
			)
		}
		return "", fmt.Errorf("%w: загрузка demand package дела %d: %v", ErrCollaborator, caseID, err)
	}

	demandBuiltTotal.Inc()
	s.logger.Info("Demand package собран",
		slog.Int64("case_id", caseID),
		slog.String("doc_id", pkg.ID),
		slog.Int("sources", len(docs)),
		slog.Int("size", len(merged)),
	)
	return pkg.ID, nil
}

// CheckAndBuild перебирает все дела без demand package и собирает
// пакеты для готовых. Дела обрабатываются независимо: сбой одного
// не прерывает sweep. Возвращает количество собранных пакетов.
func (s *DemandService) CheckAndBuild(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() {
		demandSweepDuration.Observe(time.Since(start).Seconds())
	}()

	caseIDs, err := s.caseRepo.ListWithoutDemandPackage(ctx)
	if err != nil {
		return 0, fmt.Errorf("выборка кандидатов sweep: %w", err)
	}
	if len(caseIDs) == 0 {
		s.logger.Info("Нет дел, ожидающих demand package")
		return 0, nil
	}

	s.logger.Info("Sweep сборки demand packages запущен",
		slog.Int("candidates", len(caseIDs)),
	)

	built := 0
	for _, caseID := range caseIDs {
		if ctx.Err() != nil {
			break
		}
		if !s.readiness.IsDemandReady(ctx, caseID) {
			continue
		}
		docID, err := s.Assemble(ctx, caseID)
		if err != nil {
			s.logger.Error("Сборка demand package не удалась",
				slog.Int64("case_id", caseID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if docID != "" {
			built++
		}
	}

	s.logger.Info("Sweep сборки demand packages завершён",
		slog.Int("built", built),
		slog.Duration("took", time.Since(start)),
	)
	return built, nil
}
