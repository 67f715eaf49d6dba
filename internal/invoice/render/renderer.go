// Package render produces customer-facing HTML for invoices.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
)

// RenderInput is the deterministic input used for invoice rendering.
type RenderInput struct {
	OrgName  string
	Invoice  InvoiceView
	Customer CustomerView
}

type InvoiceView struct {
	Number     string
	Status     string
	Currency   string
	TotalCents int64
	DueDate    *time.Time
	PaidAt     *time.Time
	CreatedAt  time.Time
}

type CustomerView struct {
	Name  string
	Email string
}

type Renderer interface {
	RenderHTML(input RenderInput) (string, error)
}

type htmlRenderer struct {
	tmpl *template.Template
}

// NewRenderer builds the default HTML invoice renderer.
func NewRenderer() (Renderer, error) {
	tmpl, err := template.New("invoice").Funcs(template.FuncMap{
		"money": formatMoney,
		"date":  formatDate,
		"datev": func(ts time.Time) string { return formatDate(&ts) },
	}).Parse(invoiceHTMLTemplate)
	if err != nil {
		return nil, err
	}
	return &htmlRenderer{tmpl: tmpl}, nil
}

func (r *htmlRenderer) RenderHTML(input RenderInput) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, input); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatMoney(cents int64, currency string) string {
	return fmt.Sprintf("%s %.2f", strings.ToUpper(currency), float64(cents)/100)
}

func formatDate(ts *time.Time) string {
	if ts == nil || ts.IsZero() {
		return "—"
	}
	return ts.UTC().Format("Jan 2, 2006")
}

const invoiceHTMLTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Invoice {{.Invoice.Number}}</title>
  <style>
    body { margin: 0; padding: 32px; font-family: "Helvetica Neue", Arial, sans-serif; color: #111827; }
    .invoice { max-width: 720px; margin: 0 auto; }
    .header { display: flex; justify-content: space-between; border-bottom: 2px solid #111827; padding-bottom: 16px; margin-bottom: 24px; }
    .status { text-transform: uppercase; letter-spacing: 0.05em; font-size: 12px; color: #6b7280; }
    table { width: 100%; border-collapse: collapse; }
    td, th { text-align: left; padding: 8px 0; border-bottom: 1px solid #e5e7eb; }
    .total { font-size: 20px; font-weight: 600; text-align: right; margin-top: 16px; }
  </style>
</head>
<body>
  <div class="invoice">
    <div class="header">
      <div>
        <h1>{{.OrgName}}</h1>
        <div class="status">{{.Invoice.Status}}</div>
      </div>
      <div>
        <div>Invoice {{.Invoice.Number}}</div>
        <div>Issued {{datev .Invoice.CreatedAt}}</div>
      </div>
    </div>
    <table>
      <tr><th>Billed to</th><td>{{.Customer.Name}} &lt;{{.Customer.Email}}&gt;</td></tr>
      <tr><th>Due date</th><td>{{date .Invoice.DueDate}}</td></tr>
      <tr><th>Paid on</th><td>{{date .Invoice.PaidAt}}</td></tr>
    </table>
    <div class="total">{{money .Invoice.TotalCents .Invoice.Currency}}</div>
  </div>
</body>
</html>`
