// readiness_test.go — unit-тесты гейта готовности demand package.
package service

import (
	"context"
	"testing"

	"caseflow/internal/repository"
)

func TestIsDemandReady(t *testing.T) {
	allInputs := repository.DemandInputs{
		HasMedicalRecords:   true,
		HasDamagesWorksheet: true,
		HasLiabilityPhoto:   true,
	}

	tests := []struct {
		name   string
		inputs repository.DemandInputs
		billed bool
		want   bool
	}{
		{
			name:   "все условия выполнены",
			inputs: allInputs,
			billed: true,
			want:   true,
		},
		{
			name: "нет medical records",
			inputs: repository.DemandInputs{
				HasDamagesWorksheet: true,
				HasLiabilityPhoto:   true,
			},
			billed: true,
			want:   false,
		},
		{
			name: "нет damages worksheet",
			inputs: repository.DemandInputs{
				HasMedicalRecords: true,
				HasLiabilityPhoto: true,
			},
			billed: true,
			want:   false,
		},
		{
			name: "нет liability photo",
			inputs: repository.DemandInputs{
				HasMedicalRecords:   true,
				HasDamagesWorksheet: true,
			},
			billed: true,
			want:   false,
		},
		{
			name: "пакет уже существует",
			inputs: repository.DemandInputs{
				HasMedicalRecords:   true,
				HasDamagesWorksheet: true,
				HasLiabilityPhoto:   true,
				HasDemandPackage:    true,
			},
			billed: true,
			want:   false,
		},
		{
			name:   "не все провайдеры выставили счета",
			inputs: allInputs,
			billed: false,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docRepo := newFakeDocRepo()
			inputs := tt.inputs
			docRepo.inputs[7] = &inputs
			docRepo.billed[7] = tt.billed

			svc := NewReadinessService(docRepo, testLogger(t))

			if got := svc.IsDemandReady(context.Background(), 7); got != tt.want {
				t.Errorf("IsDemandReady = %v, ожидалось %v", got, tt.want)
			}
		})
	}
}

// TestIsDemandReadyFailClosed — любая ошибка данных сводится к false.
func TestIsDemandReadyFailClosed(t *testing.T) {
	t.Run("ошибка проверки входов", func(t *testing.T) {
		docRepo := newFakeDocRepo()
		docRepo.inputsErr = errDB

		svc := NewReadinessService(docRepo, testLogger(t))
		if svc.IsDemandReady(context.Background(), 7) {
			t.Error("ошибка данных должна давать false, получено true")
		}
	})

	t.Run("ошибка проверки счетов", func(t *testing.T) {
		docRepo := newFakeDocRepo()
		docRepo.inputs[7] = &repository.DemandInputs{
			HasMedicalRecords:   true,
			HasDamagesWorksheet: true,
			HasLiabilityPhoto:   true,
		}
		docRepo.billedErr = errDB

		svc := NewReadinessService(docRepo, testLogger(t))
		if svc.IsDemandReady(context.Background(), 7) {
			t.Error("ошибка данных должна давать false, получено true")
		}
	})
}

// TestIsDemandReadyNoProviders — дело без провайдерских документов
// проходит проверку счетов вакуумно.
func TestIsDemandReadyNoProviders(t *testing.T) {
	docRepo := newFakeDocRepo()
	docRepo.inputs[7] = &repository.DemandInputs{
		HasMedicalRecords:   true,
		HasDamagesWorksheet: true,
		HasLiabilityPhoto:   true,
	}
	// billed не заполняем — фейк вернёт true, как bool_and по пустому множеству

	svc := NewReadinessService(docRepo, testLogger(t))
	if !svc.IsDemandReady(context.Background(), 7) {
		t.Error("дело без провайдеров должно быть готово")
	}
}
