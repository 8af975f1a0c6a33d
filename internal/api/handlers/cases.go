// cases.go — обработчики операций над делами: split, readiness,
// сборка demand package, генерация disbursement sheet.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "caseflow/internal/api/errors"
	"caseflow/internal/domain/model"
	"caseflow/internal/repository"
	"caseflow/internal/service"
)

// caseID извлекает идентификатор дела из URL.
// При ошибке пишет 400 и возвращает ok=false.
func caseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "caseID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		apierrors.ValidationError(w, "Некорректный ID дела: "+raw)
		return 0, false
	}
	return id, true
}

// GetSplit — GET /api/v1/cases/{caseID}/split.
// Возвращает расчёт распределения settlement по делу.
func (h *APIHandler) GetSplit(w http.ResponseWriter, r *http.Request) {
	id, ok := caseID(w, r)
	if !ok {
		return
	}

	split, err := h.split.Calc(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			apierrors.NotFound(w, err.Error())
		case errors.Is(err, service.ErrValidation):
			apierrors.ValidationError(w, err.Error())
		default:
			h.logger.Error("Расчёт split не удался", logErr(err))
			apierrors.InternalError(w, "Внутренняя ошибка расчёта split")
		}
		return
	}

	writeJSON(w, http.StatusOK, split)
}

// readinessResponse — ответ проверки готовности demand package.
type readinessResponse struct {
	CaseID int64 `json:"case_id"`
	Ready  bool  `json:"ready"`
}

// GetDemandReadiness — GET /api/v1/cases/{caseID}/demand/readiness.
func (h *APIHandler) GetDemandReadiness(w http.ResponseWriter, r *http.Request) {
	id, ok := caseID(w, r)
	if !ok {
		return
	}

	ready := h.readiness.IsDemandReady(r.Context(), id)
	writeJSON(w, http.StatusOK, readinessResponse{CaseID: id, Ready: ready})
}

// demandResponse — ответ сборки demand package.
type demandResponse struct {
	CaseID int64  `json:"case_id"`
	Built  bool   `json:"built"`
	DocID  string `json:"doc_id,omitempty"`
}

// BuildDemandPackage — POST /api/v1/cases/{caseID}/demand.
// Собирает demand package. Неготовое дело или уже существующий
// пакет — 200 с built=false, без ошибки.
func (h *APIHandler) BuildDemandPackage(w http.ResponseWriter, r *http.Request) {
	id, ok := caseID(w, r)
	if !ok {
		return
	}

	docID, err := h.demand.Assemble(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCollaborator):
			apierrors.CollaboratorUnavailable(w, err.Error())
		default:
			h.logger.Error("Сборка demand package не удалась", logErr(err))
			apierrors.InternalError(w, "Внутренняя ошибка сборки demand package")
		}
		return
	}

	if docID == "" {
		writeJSON(w, http.StatusOK, demandResponse{CaseID: id, Built: false})
		return
	}
	writeJSON(w, http.StatusCreated, demandResponse{CaseID: id, Built: true, DocID: docID})
}

// disbursementResponse — ответ генерации disbursement sheet.
type disbursementResponse struct {
	CaseID     int64  `json:"case_id"`
	EnvelopeID string `json:"envelope_id"`
	Status     string `json:"status"`
}

// GenerateDisbursement — POST /api/v1/cases/{caseID}/disbursement.
// Генерирует disbursement sheet и отправляет клиенту на подпись.
func (h *APIHandler) GenerateDisbursement(w http.ResponseWriter, r *http.Request) {
	id, ok := caseID(w, r)
	if !ok {
		return
	}

	envelopeID, err := h.disbursement.GenerateWithRetry(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			apierrors.NotFound(w, err.Error())
		case errors.Is(err, service.ErrValidation):
			apierrors.ValidationError(w, err.Error())
		case errors.Is(err, repository.ErrConflict):
			apierrors.Conflict(w, err.Error())
		case errors.Is(err, service.ErrCollaborator):
			apierrors.CollaboratorUnavailable(w, err.Error())
		default:
			h.logger.Error("Генерация disbursement не удалась", logErr(err))
			apierrors.InternalError(w, "Внутренняя ошибка генерации disbursement")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, disbursementResponse{
		CaseID:     id,
		EnvelopeID: envelopeID,
		Status:     model.DisbursementSent,
	})
}

// sweepResponse — результат ручного запуска sweep.
type sweepResponse struct {
	Built int `json:"built"`
}

// RunDemandSweep — POST /api/v1/demand/sweep.
// Ручной запуск ночного sweep сборки demand packages.
func (h *APIHandler) RunDemandSweep(w http.ResponseWriter, r *http.Request) {
	built, err := h.demand.CheckAndBuild(r.Context())
	if err != nil {
		h.logger.Error("Sweep не удался", logErr(err))
		apierrors.InternalError(w, "Внутренняя ошибка sweep")
		return
	}
	writeJSON(w, http.StatusOK, sweepResponse{Built: built})
}
