package engine

import (
	"testing"
	"time"

	ratingdomain "github.com/smallbiznis/credora/internal/rating/domain"
)

func timePtr(t time.Time) *time.Time { return &t }

func daysAgo(n int) *time.Time {
	ts := time.Now().UTC().AddDate(0, 0, -n)
	return &ts
}

func paidInvoice(dueDaysAgo, paidDaysAgo int) ratingdomain.InvoiceRecord {
	return ratingdomain.InvoiceRecord{
		Status:  "paid",
		DueDate: daysAgo(dueDaysAgo),
		PaidAt:  daysAgo(paidDaysAgo),
	}
}

func TestScoreBaselineForEmptyHistory(t *testing.T) {
	data := ratingdomain.CustomerRatingData{
		CustomerID:        "42",
		CustomerCreatedAt: timePtr(time.Now().UTC()),
	}
	if got := Score(data); got != DefaultScore {
		t.Fatalf("expected baseline %.0f for empty history, got %.2f", DefaultScore, got)
	}
}

func TestScoreRange(t *testing.T) {
	inputs := []ratingdomain.CustomerRatingData{
		{},
		{Invoices: []ratingdomain.InvoiceRecord{{Status: "overdue"}, {Status: "cancelled"}}},
		{Invoices: []ratingdomain.InvoiceRecord{
			paidInvoice(30, 31), paidInvoice(20, 21), {Status: "overdue"}, {Status: "overdue"},
		}},
		{
			Invoices:  []ratingdomain.InvoiceRecord{paidInvoice(10, 12)},
			Receipts:  []ratingdomain.ReceiptRecord{{Status: "completed"}},
			Feedbacks: []ratingdomain.FeedbackRecord{{Status: "completed"}},
		},
		{Invoices: func() []ratingdomain.InvoiceRecord {
			var out []ratingdomain.InvoiceRecord
			for i := 0; i < 50; i++ {
				out = append(out, ratingdomain.InvoiceRecord{Status: "overdue"})
			}
			return out
		}()},
	}
	for i, data := range inputs {
		got := Score(data)
		if got < 0 || got > 100 {
			t.Fatalf("input %d: score %.2f out of [0,100]", i, got)
		}
	}
}

func TestScoreMonotonicity(t *testing.T) {
	base := []ratingdomain.InvoiceRecord{
		paidInvoice(60, 62),
		{Status: "overdue"},
		{Status: "cancelled"},
	}
	onTime := append([]ratingdomain.InvoiceRecord{paidInvoice(30, 35)}, base...)
	overdue := append([]ratingdomain.InvoiceRecord{{Status: "overdue", DueDate: daysAgo(30)}}, base...)

	created := daysAgo(730)
	scoreA := Score(ratingdomain.CustomerRatingData{Invoices: onTime, CustomerCreatedAt: created})
	scoreB := Score(ratingdomain.CustomerRatingData{Invoices: overdue, CustomerCreatedAt: created})
	if scoreA < scoreB {
		t.Fatalf("expected settled invoice to score >= overdue: %.2f < %.2f", scoreA, scoreB)
	}
}

func TestScoreIdempotent(t *testing.T) {
	data := ratingdomain.CustomerRatingData{
		Invoices: []ratingdomain.InvoiceRecord{
			paidInvoice(10, 11),
			{Status: "overdue"},
		},
		Receipts:          []ratingdomain.ReceiptRecord{{Status: "completed"}},
		CustomerCreatedAt: daysAgo(365),
	}
	first := Score(data)
	second := Score(data)
	if first != second {
		t.Fatalf("expected identical scores for identical input, got %.4f and %.4f", first, second)
	}
}

func TestScoreReliableCustomerScenario(t *testing.T) {
	// 10 invoices: 8 settled on/before due date, 1 overdue, 1 cancelled,
	// account two years old.
	invoices := make([]ratingdomain.InvoiceRecord, 0, 10)
	for i := 0; i < 8; i++ {
		invoices = append(invoices, ratingdomain.InvoiceRecord{
			Status:  "settled",
			DueDate: daysAgo(30 * (i + 1)),
			PaidAt:  daysAgo(30*(i+1) + 2),
		})
	}
	invoices = append(invoices,
		ratingdomain.InvoiceRecord{Status: "overdue", DueDate: daysAgo(45)},
		ratingdomain.InvoiceRecord{Status: "cancelled"},
	)

	score := Score(ratingdomain.CustomerRatingData{
		Invoices:          invoices,
		CustomerCreatedAt: daysAgo(730),
	})
	if score < 80 {
		t.Fatalf("expected reliable customer to score >= 80, got %.2f", score)
	}
	category := Categorize(score).Category
	if category != "Good" && category != "Excellent" {
		t.Fatalf("expected Good or Excellent, got %q", category)
	}
}

func TestScoreUnreliableCustomerScenario(t *testing.T) {
	// 10 invoices: 2 settled, 6 overdue, 2 cancelled.
	invoices := []ratingdomain.InvoiceRecord{
		paidInvoice(90, 91),
		paidInvoice(60, 61),
	}
	for i := 0; i < 6; i++ {
		invoices = append(invoices, ratingdomain.InvoiceRecord{Status: "overdue", DueDate: daysAgo(30 + i)})
	}
	invoices = append(invoices,
		ratingdomain.InvoiceRecord{Status: "cancelled"},
		ratingdomain.InvoiceRecord{Status: "cancelled"},
	)

	score := Score(ratingdomain.CustomerRatingData{
		Invoices:          invoices,
		CustomerCreatedAt: daysAgo(730),
	})
	if score > 50 {
		t.Fatalf("expected unreliable customer to score <= 50, got %.2f", score)
	}
	category := Categorize(score).Category
	if category != "Poor" && category != "Fair" {
		t.Fatalf("expected Poor or Fair, got %q", category)
	}
}

func TestScoreLatePaymentsPenalized(t *testing.T) {
	created := daysAgo(730)
	onTime := make([]ratingdomain.InvoiceRecord, 5)
	late := make([]ratingdomain.InvoiceRecord, 5)
	for i := range onTime {
		onTime[i] = ratingdomain.InvoiceRecord{
			Status:  "paid",
			DueDate: daysAgo(30 * (i + 1)),
			PaidAt:  daysAgo(30*(i+1) + 1),
		}
		late[i] = ratingdomain.InvoiceRecord{
			Status:  "paid",
			DueDate: daysAgo(30 * (i + 1)),
			PaidAt:  daysAgo(30*(i+1) - 20),
		}
	}

	onTimeScore := Score(ratingdomain.CustomerRatingData{Invoices: onTime, CustomerCreatedAt: created})
	lateScore := Score(ratingdomain.CustomerRatingData{Invoices: late, CustomerCreatedAt: created})
	if lateScore >= onTimeScore {
		t.Fatalf("expected late payments to score below on-time: %.2f >= %.2f", lateScore, onTimeScore)
	}
}

func TestScoreMissingTimestampsNeverPanics(t *testing.T) {
	data := ratingdomain.CustomerRatingData{
		Invoices: []ratingdomain.InvoiceRecord{
			{Status: "paid"}, // no due date, no paid date
			{Status: "PAID", DueDate: daysAgo(10)},
			{Status: "overdue"},
			{Status: ""},
		},
		Receipts:  []ratingdomain.ReceiptRecord{{Status: "completed"}},
		Feedbacks: []ratingdomain.FeedbackRecord{{Status: "OVERDUE"}},
	}
	got := Score(data)
	if got < 0 || got > 100 {
		t.Fatalf("score %.2f out of range", got)
	}
}

func TestScoreNewAccountSwingDampened(t *testing.T) {
	invoices := []ratingdomain.InvoiceRecord{
		{Status: "overdue"},
		{Status: "overdue"},
	}
	newAccount := Score(ratingdomain.CustomerRatingData{Invoices: invoices, CustomerCreatedAt: daysAgo(5)})
	oldAccount := Score(ratingdomain.CustomerRatingData{Invoices: invoices, CustomerCreatedAt: daysAgo(365)})
	if newAccount <= oldAccount {
		t.Fatalf("expected new account penalty to be dampened: %.2f <= %.2f", newAccount, oldAccount)
	}
}

func TestParseTimestamp(t *testing.T) {
	if ts := ratingdomain.ParseTimestamp("2025-06-01T10:00:00Z"); ts == nil {
		t.Fatalf("expected RFC3339 timestamp to parse")
	}
	if ts := ratingdomain.ParseTimestamp("2025-06-01"); ts == nil {
		t.Fatalf("expected date-only timestamp to parse")
	}
	if ts := ratingdomain.ParseTimestamp("not-a-date"); ts != nil {
		t.Fatalf("expected malformed timestamp to return nil, got %v", ts)
	}
	if ts := ratingdomain.ParseTimestamp("  "); ts != nil {
		t.Fatalf("expected blank timestamp to return nil, got %v", ts)
	}
}
