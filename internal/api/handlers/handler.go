// handler.go — основной обработчик API Caseflow.
// Объединяет health и доменные обработчики и делегирует запросы
// в сервисный слой.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"caseflow/internal/service"
)

// APIHandler — основной обработчик API Caseflow.
type APIHandler struct {
	health       *HealthHandler
	split        *service.SplitService
	readiness    *service.ReadinessService
	demand       *service.DemandService
	disbursement *service.DisbursementService
	logger       *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	split *service.SplitService,
	readiness *service.ReadinessService,
	demand *service.DemandService,
	disbursement *service.DisbursementService,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:       health,
		split:        split,
		readiness:    readiness,
		demand:       demand,
		disbursement: disbursement,
		logger:       logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// logErr — атрибут slog с текстом ошибки.
func logErr(err error) slog.Attr {
	return slog.String("error", err.Error())
}
