package entity

import "time"

// ProcurementCase is a business case tracked by the platform. CaseCode is
// globally unique and, within a calendar year, strictly increasing.
type ProcurementCase struct {
	ID        string    `json:"id"`
	CaseCode  string    `json:"case_code"`
	Title     string    `json:"title"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
