// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation — ошибка валидации данных дела.
	// Не ретраится: сигнализирует об ошибке ввода, а не о сбое.
	ErrValidation = errors.New("ошибка валидации")
	// ErrNoSettlement — у дела нет суммы settlement.
	ErrNoSettlement = fmt.Errorf("%w: нет суммы settlement", ErrValidation)
	// ErrNegativeNet — расчётный остаток клиенту отрицателен.
	// Признак ошибки ввода в liens/adjustments относительно settlement.
	ErrNegativeNet = fmt.Errorf("%w: отрицательный остаток клиенту", ErrValidation)
	// ErrCollaborator — сбой внешнего сервиса (хранилище, Docassemble,
	// DocuSign). Ретраится с задержкой.
	ErrCollaborator = errors.New("внешний сервис недоступен")
)
