// document.go — документы дела и словарь их типов.
package model

import "time"

// Типы документов дела.
const (
	// DocMedicalRecords — медицинские записи
	DocMedicalRecords = "medical_records"
	// DocMedicalBill — счёт медицинского провайдера
	DocMedicalBill = "medical_bill"
	// DocDamagesWorksheet — расчёт ущерба (PDF)
	DocDamagesWorksheet = "damages_worksheet_pdf"
	// DocLiabilityPhoto — фотографии, подтверждающие ответственность
	DocLiabilityPhoto = "liability_photo"
	// DocDemandPackage — собранный demand package (производный артефакт,
	// не более одного на дело)
	DocDemandPackage = "demand_package"
	// DocDisbursementSheet — лист распределения settlement
	DocDisbursementSheet = "disbursement_sheet"
)

// DemandSourceTypes — типы документов, входящие в demand package,
// в порядке их следования в собранном PDF.
var DemandSourceTypes = []string{
	DocDamagesWorksheet,
	DocLiabilityPhoto,
	DocMedicalRecords,
	DocMedicalBill,
}

// DemandTypeRank возвращает позицию типа документа в собранном
// demand package. Неизвестные типы идут в конец.
func DemandTypeRank(docType string) int {
	for i, t := range DemandSourceTypes {
		if t == docType {
			return i + 1
		}
	}
	return len(DemandSourceTypes) + 1
}

// Document — документ, привязанный к делу (и опционально к провайдеру).
type Document struct {
	// ID — UUID документа (совпадает с именем объекта в хранилище)
	ID string
	// CaseID — идентификатор дела
	CaseID int64
	// ProviderID — идентификатор провайдера (nil для общих документов)
	ProviderID *int64
	// Type — тип документа из фиксированного словаря
	Type string
	// Name — человекочитаемое имя
	Name string
	// Status — статус документа
	Status string
	// URL — ссылка на содержимое (или envelope:<id> для disbursement sheet)
	URL string
	// CreatedAt — время создания записи
	CreatedAt time.Time
}
