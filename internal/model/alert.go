package model

import "time"

// AlertType is the urgency bucket an expiry evaluation lands in.
type AlertType string

const (
	AlertNone        AlertType = "none"
	AlertSixMonths   AlertType = "6_months"
	AlertThreeMonths AlertType = "3_months"
	AlertOneMonth    AlertType = "1_month"
	AlertOneWeek     AlertType = "1_week"
	AlertExpired     AlertType = "expired"
)

// Alert is the transient result of evaluating a document against today's date.
type Alert struct {
	DocumentID    string       `json:"document_id"`
	DocumentKind  DocumentKind `json:"document_kind"`
	OwnerID       string       `json:"owner_id"`
	OwnerName     string       `json:"owner_name"`
	UserID        *string      `json:"user_id,omitempty"`
	DocType       string       `json:"doc_type"`
	LicenseNumber string       `json:"license_number,omitempty"`
	ExpiryDate    time.Time    `json:"expiry_date"`
	DaysRemaining int          `json:"days_remaining"`
	Type          AlertType    `json:"alert_type"`
}
