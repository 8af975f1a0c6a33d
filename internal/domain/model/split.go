// split.go — расчётное (не персистентное) разбиение settlement.
package model

import "github.com/shopspring/decimal"

// SettlementSplit — разбиение суммы settlement по одному делу.
// Вычисляется детерминированно из текущего состояния БД; инвариант:
// Gross - AttorneyFee - LienTotal - OtherAdjustments == NetToClient
// (точное десятичное равенство).
//
// AttorneyFee округляется до 2 знаков банковским округлением
// (round half to even) — единственное место округления в расчёте.
type SettlementSplit struct {
	// Gross — полная сумма settlement
	Gross decimal.Decimal `json:"gross"`
	// AttorneyFee — гонорар адвоката (Gross × pct / 100, округлён)
	AttorneyFee decimal.Decimal `json:"attorney_fee"`
	// LienTotal — сумма lien
	LienTotal decimal.Decimal `json:"lien_total"`
	// OtherAdjustments — сумма fee adjustments
	OtherAdjustments decimal.Decimal `json:"other_adjustments"`
	// NetToClient — остаток клиенту
	NetToClient decimal.Decimal `json:"net_to_client"`
}
