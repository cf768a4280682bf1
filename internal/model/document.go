package model

import "time"

// SentFlags records which lead-time thresholds already produced a notification
// for a document. Once set, a flag is never reset by the engine.
type SentFlags struct {
	SixMonths   bool `json:"6_months"`
	ThreeMonths bool `json:"3_months"`
	OneMonth    bool `json:"1_month"`
	OneWeek     bool `json:"1_week"`
}

// Document represents any expirable record (company filing, license, archived contract).
// It is a pure domain model with no database-specific dependencies or tags.
type Document struct {
	ID               string       `json:"id"`
	Kind             DocumentKind `json:"kind"`
	OwnerID          string       `json:"owner_id"`
	OwnerName        string       `json:"owner_name"`
	UserID           *string      `json:"user_id,omitempty"`
	DocType          string       `json:"doc_type"`
	LicenseNumber    string       `json:"license_number,omitempty"`
	IssuingAuthority string       `json:"issuing_authority,omitempty"`
	FilePath         string       `json:"file_path,omitempty"`
	ExpiryDate       *time.Time   `json:"expiry_date,omitempty"`
	Sent             SentFlags    `json:"sent"`
}
