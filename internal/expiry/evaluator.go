// Package expiry classifies documents into lead-time alert buckets.
package expiry

import (
	"time"

	"docexpiry/internal/model"
)

// Threshold is one row of the classification table.
// Flag returns the dedup flag guarding the threshold, or nil when the bucket is not gated.
type Threshold struct {
	Type    model.AlertType
	MaxDays int
	Flag    func(f *model.SentFlags) *bool
}

// Thresholds is ordered tightest boundary first; the first matching row wins.
var Thresholds = []Threshold{
	{Type: model.AlertExpired, MaxDays: -1},
	{Type: model.AlertOneWeek, MaxDays: 7, Flag: func(f *model.SentFlags) *bool { return &f.OneWeek }},
	{Type: model.AlertOneMonth, MaxDays: 30, Flag: func(f *model.SentFlags) *bool { return &f.OneMonth }},
	{Type: model.AlertThreeMonths, MaxDays: 90, Flag: func(f *model.SentFlags) *bool { return &f.ThreeMonths }},
	{Type: model.AlertSixMonths, MaxDays: 180, Flag: func(f *model.SentFlags) *bool { return &f.SixMonths }},
}

// MaxLeadDays is the widest boundary in Thresholds.
const MaxLeadDays = 180

// DaysUntil returns the number of calendar days from today to expiry.
// Both values are reduced to their calendar date first, so time of day and DST do not matter.
func DaysUntil(today, expiry time.Time) int {
	t := civilDate(today)
	e := civilDate(expiry)
	return int(e.Sub(t).Hours() / 24)
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Classify maps days remaining to an alert type using Thresholds.
func Classify(days int) model.AlertType {
	for _, th := range Thresholds {
		if days <= th.MaxDays {
			return th.Type
		}
	}
	return model.AlertNone
}

// Lookup returns the table row for an alert type.
func Lookup(t model.AlertType) (Threshold, bool) {
	for _, th := range Thresholds {
		if th.Type == t {
			return th, true
		}
	}
	return Threshold{}, false
}

// Gated reports whether the alert type is protected by a per-document flag.
func Gated(t model.AlertType) bool {
	th, ok := Lookup(t)
	return ok && th.Flag != nil
}

// AlreadySent reports whether the flag for t is set on the given flags.
// Ungated types (expired, none) always report false.
func AlreadySent(flags model.SentFlags, t model.AlertType) bool {
	th, ok := Lookup(t)
	if !ok || th.Flag == nil {
		return false
	}
	return *th.Flag(&flags)
}

// MarkSent sets the flag for t on flags. It is a no-op for ungated types.
func MarkSent(flags *model.SentFlags, t model.AlertType) {
	th, ok := Lookup(t)
	if !ok || th.Flag == nil {
		return
	}
	*th.Flag(flags) = true
}

// Evaluate builds an alert for doc relative to today.
// It returns false when the document has no expiry date or sits beyond every threshold.
func Evaluate(doc model.Document, today time.Time) (model.Alert, bool) {
	if doc.ExpiryDate == nil {
		return model.Alert{}, false
	}
	days := DaysUntil(today, *doc.ExpiryDate)
	alertType := Classify(days)
	if alertType == model.AlertNone {
		return model.Alert{}, false
	}
	return model.Alert{
		DocumentID:    doc.ID,
		DocumentKind:  doc.Kind,
		OwnerID:       doc.OwnerID,
		OwnerName:     doc.OwnerName,
		UserID:        doc.UserID,
		DocType:       doc.DocType,
		LicenseNumber: doc.LicenseNumber,
		ExpiryDate:    civilDate(*doc.ExpiryDate),
		DaysRemaining: days,
		Type:          alertType,
	}, true
}
