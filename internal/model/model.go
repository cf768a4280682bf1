package model

// Package model contains domain models shared across layers.
// Keep it free of persistence and transport concerns; no business logic here.

// DocumentKind identifies which collection an expirable document comes from.
type DocumentKind string

const (
	KindCompanyDocument  DocumentKind = "company_document"
	KindLicense          DocumentKind = "license"
	KindArchivedContract DocumentKind = "archived_contract"
)
