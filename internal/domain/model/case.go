// Пакет model — доменные модели Caseflow.
// case.go — дело (incident) и клиент.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Статусы disbursement дела.
// Переходы: pending → sent → completed.
const (
	DisbursementPending   = "pending"
	DisbursementSent      = "sent"
	DisbursementCompleted = "completed"
)

// Case — одно дело о personal injury, привязанное к клиенту.
// Финансовые поля заполняются один раз при финализации settlement.
type Case struct {
	// ID — идентификатор дела
	ID int64
	// ClientID — идентификатор клиента
	ClientID int64
	// IncidentDate — дата происшествия
	IncidentDate *time.Time
	// SettlementAmount — сумма settlement (nil до финализации)
	SettlementAmount *decimal.Decimal
	// AttorneyFeePct — процент гонорара адвоката (по умолчанию 33.33)
	AttorneyFeePct decimal.Decimal
	// LienTotal — общая сумма зарегистрированных lien
	LienTotal decimal.Decimal
	// DisbursementStatus — статус disbursement (pending, sent, completed)
	DisbursementStatus string
	// CreatedAt — время создания записи
	CreatedAt time.Time
}

// Client — клиент, от имени которого ведётся дело.
type Client struct {
	// ID — идентификатор клиента
	ID int64
	// FullName — полное имя
	FullName string
	// Email — адрес для рассылки и e-signature
	Email string
}

// CaseWithClient — дело вместе с данными клиента
// (JOIN incident + client, используется disbursement pipeline).
type CaseWithClient struct {
	Case   Case
	Client Client
}

// FeeAdjustment — корректировка гонорара по делу.
// Сумма всегда трактуется как вычет из gross. Запись неизменяема.
type FeeAdjustment struct {
	// ID — идентификатор корректировки
	ID int64
	// CaseID — идентификатор дела
	CaseID int64
	// Description — назначение корректировки
	Description string
	// Amount — сумма вычета (неотрицательная)
	Amount decimal.Decimal
	// CreatedAt — время создания записи
	CreatedAt time.Time
}
