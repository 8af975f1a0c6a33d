// disbursement.go — генерация и отправка disbursement sheet на подпись.
//
// Generate — цепочка с внешними зависимостями: расчёт split →
// генерация письма в docassemble → отправка конверта в DocuSign →
// транзакционная фиксация в БД → событие в ленту активности.
// Сбой на любом шаге до фиксации оставляет дело в статусе "pending",
// поэтому повторный запуск безопасен.
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
	"caseflow/internal/repository"
)

var (
	disbursementSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caseflow_disbursement_sheets_sent_total",
		Help: "Количество отправленных на подпись disbursement sheets",
	})
	disbursementFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caseflow_disbursement_failed_total",
		Help: "Количество неудачных генераций disbursement sheet",
	})
)

// disbursementTemplate — шаблон docassemble для disbursement sheet.
const disbursementTemplate = "disbursement_sheet"

// LetterGenerator генерирует PDF-документ по шаблону.
type LetterGenerator interface {
	GenerateLetter(ctx context.Context, template string, payload any) ([]byte, error)
}

// EnvelopeSender отправляет PDF на электронную подпись.
// Возвращает ID конверта у провайдера подписи.
type EnvelopeSender interface {
	SendEnvelope(ctx context.Context, pdf []byte, recipientEmail, recipientName string) (string, error)
}

// EventRecorder публикует событие в ленту активности, не прерывая
// основной поток при сбое.
type EventRecorder interface {
	RecordBestEffort(ctx context.Context, event any)
}

// DisbursementService — генерация disbursement sheets.
type DisbursementService struct {
	caseRepo   repository.CaseRepository
	store      repository.DisbursementStore
	split      *SplitService
	letters    LetterGenerator
	signer     EnvelopeSender
	events     EventRecorder
	retries    int
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewDisbursementService создаёт сервис disbursement sheets.
func NewDisbursementService(
	caseRepo repository.CaseRepository,
	store repository.DisbursementStore,
	split *SplitService,
	letters LetterGenerator,
	signer EnvelopeSender,
	events EventRecorder,
	retries int,
	retryDelay time.Duration,
	logger *slog.Logger,
) *DisbursementService {
	return &DisbursementService{
		caseRepo:   caseRepo,
		store:      store,
		split:      split,
		letters:    letters,
		signer:     signer,
		events:     events,
		retries:    retries,
		retryDelay: retryDelay,
		logger:     logger.With(slog.String("component", "disbursement_service")),
	}
}

// disbursementPayload — данные для шаблона disbursement sheet.
type disbursementPayload struct {
	CaseID     int64                  `json:"case_id"`
	ClientName string                 `json:"client_name"`
	Split      *model.SettlementSplit `json:"split"`
	Date       string                 `json:"date"`
}

// Generate генерирует disbursement sheet, отправляет его клиенту на
// подпись и фиксирует результат. Возвращает ID конверта DocuSign.
func (s *DisbursementService) Generate(ctx context.Context, caseID int64) (string, error) {
	cs, err := s.caseRepo.GetWithClient(ctx, caseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", fmt.Errorf("дело %d не найдено: %w", caseID, err)
		}
		return "", fmt.Errorf("чтение дела %d: %w", caseID, err)
	}
	if cs.Client.Email == "" {
		return "", fmt.Errorf("%w: у клиента дела %d нет email", ErrValidation, caseID)
	}

	split, err := s.split.Calc(ctx, caseID)
	if err != nil {
		return "", err
	}

	payload := disbursementPayload{
		CaseID:     caseID,
		ClientName: cs.Client.FullName,
		Split:      split,
		Date:       time.Now().Format("2006-01-02"),
	}
	pdf, err := s.letters.GenerateLetter(ctx, disbursementTemplate, payload)
	if err != nil {
		disbursementFailedTotal.Inc()
		return "", fmt.Errorf("%w: генерация disbursement sheet дела %d: %v", ErrCollaborator, caseID, err)
	}

	envelopeID, err := s.signer.SendEnvelope(ctx, pdf, cs.Client.Email, cs.Client.FullName)
	if err != nil {
		disbursementFailedTotal.Inc()
		return "", fmt.Errorf("%w: отправка конверта дела %d: %v", ErrCollaborator, caseID, err)
	}

	now := time.Now()
	doc := &model.Document{
		ID:        uuid.NewString(),
		CaseID:    caseID,
		Type:      model.DocDisbursementSheet,
		Name:      "Disbursement Sheet - " + now.Format("2006-01-02"),
		Status:    "active",
		URL:       "envelope:" + envelopeID,
		CreatedAt: now,
	}
	if err := s.store.MarkSent(ctx, caseID, doc); err != nil {
		disbursementFailedTotal.Inc()
		return "", fmt.Errorf("фиксация disbursement дела %d: %w", caseID, err)
	}

	s.events.RecordBestEffort(ctx, map[string]any{
		"type":        "disbursement_sent",
		"case_id":     caseID,
		"envelope_id": envelopeID,
		"doc_id":      doc.ID,
	})

	disbursementSentTotal.Inc()
	s.logger.Info("Disbursement sheet отправлена на подпись",
		slog.Int64("case_id", caseID),
		slog.String("envelope_id", envelopeID),
		slog.String("doc_id", doc.ID),
	)
	return envelopeID, nil
}

// GenerateWithRetry повторяет Generate при сбоях внешних систем.
// Ошибки валидации не ретраятся: данные от повтора не изменятся.
// Задержка растёт линейно: attempt × retryDelay.
func (s *DisbursementService) GenerateWithRetry(ctx context.Context, caseID int64) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= s.retries; attempt++ {
		envelopeID, err := s.Generate(ctx, caseID)
		if err == nil {
			return envelopeID, nil
		}
		lastErr = err
		if !errors.Is(err, ErrCollaborator) {
			return "", err
		}
		if attempt == s.retries {
			break
		}
		delay := time.Duration(attempt) * s.retryDelay
		s.logger.Warn("Сбой внешней системы, повтор",
			slog.Int64("case_id", caseID),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}
	return "", fmt.Errorf("disbursement дела %d после %d попыток: %w", caseID, s.retries, lastErr)
}
