// Package engine computes payment-reliability scores. Score and Categorize
// are pure functions: no I/O, no shared state, safe for concurrent use.
package engine

import (
	"time"

	ratingdomain "github.com/smallbiznis/credora/internal/rating/domain"
)

// DefaultScore is the neutral baseline returned for customers with no
// history, and substituted by callers when history cannot be fetched.
const DefaultScore = 75.0

// Weighting constants. The exact values are a product decision; the only
// hard requirement is monotonicity: more on-time invoices and fewer
// overdue/cancelled ones must never lower the score.
const (
	invoiceOnTimeWeight    = 30.0
	invoiceLatePaidWeight  = 10.0
	invoiceOverdueWeight   = -50.0
	invoiceCancelledWeight = -30.0

	latenessPenaltyPerDay = 0.4
	latenessPenaltyCap    = 12.0

	receiptWeight          = 10.0
	feedbackCompleteWeight = 8.0
	feedbackOverdueWeight  = -8.0
	feedbackCancelWeight   = -4.0

	accountMaturityDays = 90.0
)

// Score produces a reliability score in [0, 100] from a customer's history.
// Empty history returns exactly DefaultScore. The function never errors;
// records with missing or unknown timestamps simply contribute no lateness
// signal.
func Score(data ratingdomain.CustomerRatingData) float64 {
	adjustment := invoiceAdjustment(data.Invoices) +
		receiptAdjustment(data.Receipts) +
		feedbackAdjustment(data.Feedbacks)

	if adjustment != 0 {
		adjustment *= maturityFactor(data.CustomerCreatedAt)
	}

	return clamp(DefaultScore+adjustment, 0, 100)
}

type invoiceTally struct {
	onTime    int
	latePaid  int
	overdue   int
	cancelled int
	lateDays  float64
}

func (t invoiceTally) decided() int {
	return t.onTime + t.latePaid + t.overdue + t.cancelled
}

// invoiceAdjustment is the primary signal: proportion paid on time versus
// overdue or cancelled, plus a capped penalty for average payment delay.
// Draft and sent invoices are pending and contribute nothing.
func invoiceAdjustment(invoices []ratingdomain.InvoiceRecord) float64 {
	var t invoiceTally
	for _, inv := range invoices {
		switch ratingdomain.NormalizeStatus(inv.Status) {
		case ratingdomain.InvoiceStatusPaid, ratingdomain.InvoiceStatusSettled:
			days, known := daysLate(inv.DueDate, inv.PaidAt)
			if known && days > 0 {
				t.latePaid++
				t.lateDays += days
			} else {
				t.onTime++
			}
		case ratingdomain.InvoiceStatusOverdue:
			t.overdue++
		case ratingdomain.InvoiceStatusCancelled:
			t.cancelled++
		}
	}

	n := t.decided()
	if n == 0 {
		return 0
	}

	total := float64(n)
	adj := invoiceOnTimeWeight*float64(t.onTime)/total +
		invoiceLatePaidWeight*float64(t.latePaid)/total +
		invoiceOverdueWeight*float64(t.overdue)/total +
		invoiceCancelledWeight*float64(t.cancelled)/total

	if t.latePaid > 0 {
		avgLate := t.lateDays / float64(t.latePaid)
		penalty := avgLate * latenessPenaltyPerDay
		if penalty > latenessPenaltyCap {
			penalty = latenessPenaltyCap
		}
		adj -= penalty * float64(t.latePaid) / total
	}

	return adj * shrink(n)
}

func receiptAdjustment(receipts []ratingdomain.ReceiptRecord) float64 {
	var completed, cancelled int
	for _, rec := range receipts {
		switch ratingdomain.NormalizeStatus(rec.Status) {
		case ratingdomain.RecordStatusCompleted:
			completed++
		case ratingdomain.RecordStatusCancelled:
			cancelled++
		}
	}
	n := completed + cancelled
	if n == 0 {
		return 0
	}
	adj := receiptWeight * float64(completed-cancelled) / float64(n)
	return adj * shrink(n)
}

func feedbackAdjustment(feedbacks []ratingdomain.FeedbackRecord) float64 {
	var completed, overdue, cancelled int
	for _, fb := range feedbacks {
		switch ratingdomain.NormalizeStatus(fb.Status) {
		case ratingdomain.RecordStatusCompleted:
			completed++
		case ratingdomain.RecordStatusOverdue:
			overdue++
		case ratingdomain.RecordStatusCancelled:
			cancelled++
		}
	}
	n := completed + overdue + cancelled
	if n == 0 {
		return 0
	}
	total := float64(n)
	adj := feedbackCompleteWeight*float64(completed)/total +
		feedbackOverdueWeight*float64(overdue)/total +
		feedbackCancelWeight*float64(cancelled)/total
	return adj * shrink(n)
}

// shrink pulls adjustments toward the baseline when the sample is small,
// so one overdue invoice does not tank a new customer.
func shrink(n int) float64 {
	return float64(n) / float64(n+2)
}

// maturityFactor halves the swing for accounts younger than 90 days.
// Unknown creation time is treated as mature.
func maturityFactor(createdAt *time.Time) float64 {
	if createdAt == nil || createdAt.IsZero() {
		return 1
	}
	ageDays := time.Since(*createdAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	ratio := ageDays / accountMaturityDays
	if ratio > 1 {
		ratio = 1
	}
	return 0.5 + 0.5*ratio
}

// daysLate reports how many days after the due date an invoice was paid.
// It returns known=false when either timestamp is missing.
func daysLate(dueDate, paidAt *time.Time) (float64, bool) {
	if dueDate == nil || paidAt == nil || dueDate.IsZero() || paidAt.IsZero() {
		return 0, false
	}
	return paidAt.Sub(*dueDate).Hours() / 24, true
}

func clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
