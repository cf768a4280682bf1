package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"docexpiry/internal/model"
	"docexpiry/internal/repository"
)

// tableLayout describes how one expirable table maps onto model.Document.
// Expressions are fixed at compile time; no caller input reaches them.
type tableLayout struct {
	kind       model.DocumentKind
	table      string
	docTypeCol string
	numberCol  string
}

var (
	companyDocumentsLayout = tableLayout{
		kind:       model.KindCompanyDocument,
		table:      "company_documents",
		docTypeCol: "d.doc_type",
		numberCol:  "''",
	}
	licensesLayout = tableLayout{
		kind:       model.KindLicense,
		table:      "licenses",
		docTypeCol: "d.license_type",
		numberCol:  "d.license_number",
	}
	archivedContractsLayout = tableLayout{
		kind:       model.KindArchivedContract,
		table:      "archived_contracts",
		docTypeCol: "d.contract_type",
		numberCol:  "d.contract_number",
	}
)

// thresholdColumns maps gated alert types to their flag column.
var thresholdColumns = map[model.AlertType]string{
	model.AlertSixMonths:   "notified_6_months",
	model.AlertThreeMonths: "notified_3_months",
	model.AlertOneMonth:    "notified_1_month",
	model.AlertOneWeek:     "notified_1_week",
}

// DocumentSource is a PostgreSQL implementation of repository.DocumentSource.
// One type serves every expirable table; the layout selects columns.
type DocumentSource struct {
	db     *sql.DB
	layout tableLayout
}

var _ repository.DocumentSource = (*DocumentSource)(nil)

// NewCompanyDocumentSource reads company filings.
func NewCompanyDocumentSource(db *sql.DB) *DocumentSource {
	return &DocumentSource{db: db, layout: companyDocumentsLayout}
}

// NewLicenseSource reads licenses.
func NewLicenseSource(db *sql.DB) *DocumentSource {
	return &DocumentSource{db: db, layout: licensesLayout}
}

// NewArchivedContractSource reads archived worker contracts.
func NewArchivedContractSource(db *sql.DB) *DocumentSource {
	return &DocumentSource{db: db, layout: archivedContractsLayout}
}

// NewSources returns every expirable collection in sweep order.
func NewSources(db *sql.DB) []repository.DocumentSource {
	return []repository.DocumentSource{
		NewCompanyDocumentSource(db),
		NewLicenseSource(db),
		NewArchivedContractSource(db),
	}
}

func (s *DocumentSource) Kind() model.DocumentKind { return s.layout.kind }

func (s *DocumentSource) selectSQL(where string) string {
	return fmt.Sprintf(`
		SELECT d.id, d.company_id, c.name, d.user_id, %s, %s, d.issuing_authority, d.file_path, d.expiry_date,
		       d.notified_6_months, d.notified_3_months, d.notified_1_month, d.notified_1_week
		FROM %s d
		JOIN companies c ON c.id = d.company_id
		WHERE d.active AND d.expiry_date IS NOT NULL AND %s
		ORDER BY d.expiry_date ASC, d.id ASC
	`, s.layout.docTypeCol, s.layout.numberCol, s.layout.table, where)
}

// ListExpiring returns documents with expiry_date in [today, today+withinDays].
func (s *DocumentSource) ListExpiring(ctx context.Context, today time.Time, withinDays int) ([]model.Document, error) {
	from := dateOnly(today)
	to := from.AddDate(0, 0, withinDays)
	q := s.selectSQL("d.expiry_date >= $1 AND d.expiry_date <= $2")
	return s.query(ctx, q, from, to)
}

// ListExpired returns documents with expiry_date before today.
func (s *DocumentSource) ListExpired(ctx context.Context, today time.Time) ([]model.Document, error) {
	q := s.selectSQL("d.expiry_date < $1")
	return s.query(ctx, q, dateOnly(today))
}

// MarkThresholdSent sets the flag column for threshold. Setting an already-true flag is a no-op.
func (s *DocumentSource) MarkThresholdSent(ctx context.Context, documentID string, threshold model.AlertType) error {
	col, ok := thresholdColumns[threshold]
	if !ok {
		return fmt.Errorf("threshold %q has no sent flag", threshold)
	}
	q := fmt.Sprintf(`UPDATE %s SET %s = true WHERE id = $1`, s.layout.table, col)
	res, err := s.db.ExecContext(ctx, q, documentID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *DocumentSource) query(ctx context.Context, q string, args ...any) ([]model.Document, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		var (
			d      model.Document
			userID sql.NullString
			expiry sql.NullTime
		)
		if err := rows.Scan(
			&d.ID,
			&d.OwnerID,
			&d.OwnerName,
			&userID,
			&d.DocType,
			&d.LicenseNumber,
			&d.IssuingAuthority,
			&d.FilePath,
			&expiry,
			&d.Sent.SixMonths,
			&d.Sent.ThreeMonths,
			&d.Sent.OneMonth,
			&d.Sent.OneWeek,
		); err != nil {
			return nil, err
		}
		d.Kind = s.layout.kind
		d.UserID = nullStringPtr(userID)
		if expiry.Valid {
			t := expiry.Time
			d.ExpiryDate = &t
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
