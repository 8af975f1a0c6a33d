// cases_test.go — unit-тесты HTTP-обработчиков дел поверх chi-роутера.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"caseflow/internal/domain/model"
	"caseflow/internal/repository"
	"caseflow/internal/service"
)

// --- минимальные фейки репозиториев ---

type stubCaseRepo struct {
	cases map[int64]*model.Case
}

func (s *stubCaseRepo) GetByID(_ context.Context, caseID int64) (*model.Case, error) {
	c, ok := s.cases[caseID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func (s *stubCaseRepo) GetWithClient(_ context.Context, caseID int64) (*model.CaseWithClient, error) {
	c, err := s.GetByID(context.Background(), caseID)
	if err != nil {
		return nil, err
	}
	return &model.CaseWithClient{Case: *c}, nil
}

func (s *stubCaseRepo) ListWithoutDemandPackage(_ context.Context) ([]int64, error) {
	return nil, nil
}

func (s *stubCaseRepo) SetDisbursementStatus(_ context.Context, _ int64, _ string) error {
	return nil
}

type stubAdjRepo struct{}

func (stubAdjRepo) Create(_ context.Context, _ *model.FeeAdjustment) error { return nil }
func (stubAdjRepo) ListByCase(_ context.Context, _ int64) ([]*model.FeeAdjustment, error) {
	return nil, nil
}
func (stubAdjRepo) TotalByCase(_ context.Context, _ int64) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

type stubDocRepo struct{}

func (stubDocRepo) Create(_ context.Context, _ *model.Document) error { return nil }
func (stubDocRepo) Delete(_ context.Context, _ string) error          { return nil }
func (stubDocRepo) GetByID(_ context.Context, _ string) (*model.Document, error) {
	return nil, repository.ErrNotFound
}
func (stubDocRepo) DemandInputs(_ context.Context, _ int64) (*repository.DemandInputs, error) {
	return &repository.DemandInputs{}, nil
}
func (stubDocRepo) AllProvidersBilled(_ context.Context, _ int64) (bool, error) { return true, nil }
func (stubDocRepo) ListDemandSources(_ context.Context, _ int64) ([]*model.Document, error) {
	return nil, nil
}

type stubStorage struct{}

func (stubStorage) GetFileContent(_ context.Context, _ string) ([]byte, error) { return nil, nil }
func (stubStorage) UploadFile(_ context.Context, _ string, _ []byte, _ string) error {
	return nil
}

// newTestRouter собирает роутер с сервисами поверх фейков.
func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	settlement := decimal.RequireFromString("60000.00")
	caseRepo := &stubCaseRepo{cases: map[int64]*model.Case{
		7: {
			ID:               7,
			ClientID:         1,
			SettlementAmount: &settlement,
			AttorneyFeePct:   decimal.RequireFromString("33.33"),
			LienTotal:        decimal.RequireFromString("5000.00"),
		},
		8: {ID: 8, ClientID: 1, AttorneyFeePct: decimal.RequireFromString("33.33")},
	}}

	splitSvc := service.NewSplitService(caseRepo, stubAdjRepo{}, logger)
	readinessSvc := service.NewReadinessService(stubDocRepo{}, logger)
	demandSvc := service.NewDemandService(caseRepo, stubDocRepo{}, readinessSvc, stubStorage{}, logger)

	handler := NewAPIHandler(NewHealthHandler(nil), splitSvc, readinessSvc, demandSvc, nil, logger)

	router := chi.NewRouter()
	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/cases/{caseID}", func(r chi.Router) {
			r.Get("/split", handler.GetSplit)
			r.Get("/demand/readiness", handler.GetDemandReadiness)
			r.Post("/demand", handler.BuildDemandPackage)
		})
		r.Post("/demand/sweep", handler.RunDemandSweep)
	})
	return router
}

func doRequest(t *testing.T, router *chi.Mux, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetSplitHandler(t *testing.T) {
	router := newTestRouter(t)

	t.Run("успешный расчёт", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/cases/7/split")
		if rec.Code != http.StatusOK {
			t.Fatalf("статус = %d, тело: %s", rec.Code, rec.Body)
		}

		var split struct {
			Gross       string `json:"gross"`
			AttorneyFee string `json:"attorney_fee"`
			NetToClient string `json:"net_to_client"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &split); err != nil {
			t.Fatalf("декодирование ответа: %v", err)
		}
		if split.AttorneyFee != "19998" {
			t.Errorf("attorney_fee = %s", split.AttorneyFee)
		}
	})

	t.Run("дело не найдено", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/cases/999/split")
		if rec.Code != http.StatusNotFound {
			t.Errorf("статус = %d, ожидался 404", rec.Code)
		}
	})

	t.Run("нет суммы settlement", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/cases/8/split")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("статус = %d, ожидался 400", rec.Code)
		}
	})

	t.Run("нечисловой ID", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/cases/abc/split")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("статус = %d, ожидался 400", rec.Code)
		}
	})
}

func TestGetDemandReadinessHandler(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/cases/7/demand/readiness")
	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d", rec.Code)
	}

	var resp readinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("декодирование ответа: %v", err)
	}
	if resp.Ready {
		t.Error("дело без документов не может быть готово")
	}
}

func TestBuildDemandPackageHandlerNotReady(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/cases/7/demand")
	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидался 200 (no-op)", rec.Code)
	}

	var resp demandResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("декодирование ответа: %v", err)
	}
	if resp.Built {
		t.Error("неготовое дело не должно давать built=true")
	}
}

func TestRunDemandSweepHandler(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/demand/sweep")
	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d", rec.Code)
	}

	var resp sweepResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("декодирование ответа: %v", err)
	}
	if resp.Built != 0 {
		t.Errorf("built = %d, ожидалось 0", resp.Built)
	}
}
