// Package report renders the summary email from an attribution engine's
// state. Rendering is pure: it reads the engine and returns a payload.
package report

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rpetrillo/spendsplit/internal/models"
)

// DisplayDateFormat is the short date form used in subject lines.
const DisplayDateFormat = "01/02/06"

var datePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// Email is the rendered payload handed to the mail sender. TextBody is
// optional; senders fall back to the HTML body when it is empty.
type Email struct {
	Sender     string
	Recipients []string
	Subject    string
	HTMLBody   string
	TextBody   string
}

// Render builds the summary email for an engine. Warnings, if any, are the
// parser's skipped-row diagnostics and render as a notice above the table.
func Render(s *models.Summary, warnings []string) Email {
	recipients := make([]string, 0, len(s.People))
	for _, p := range s.People {
		recipients = append(recipients, p.Email)
	}

	start, end := s.DateRange()
	subject := fmt.Sprintf("Transactions Summary: %s - %s",
		start.Format(DisplayDateFormat), end.Format(DisplayDateFormat))

	return Email{
		Sender:     s.Owner,
		Recipients: recipients,
		Subject:    subject,
		HTMLBody:   renderBody(s, warnings),
	}
}

func renderBody(s *models.Summary, warnings []string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head>")
	b.WriteString("<style>table {border-collapse: collapse; width: 100%} " +
		"th, td {border: 1px solid black; padding: 8px 12px; text-align: left;} " +
		"th {background-color: #f2f2f2;}</style>")
	b.WriteString("</head><body>")
	b.WriteString(renderWarningSection(warnings))
	renderTable(&b, s)
	b.WriteString("</body></html>")
	return b.String()
}

func renderTable(b *strings.Builder, s *models.Summary) {
	b.WriteString(`<table border="1"><thead><tr><th></th>`)
	for _, category := range s.Categories.List() {
		fmt.Fprintf(b, "<th>%s</th>", html.EscapeString(string(category)))
	}
	b.WriteString("<th>Total</th></tr></thead><tbody>")

	for _, p := range s.People {
		b.WriteString("<tr>")
		fmt.Fprintf(b, "<td>%s</td>", html.EscapeString(p.Name))
		for _, category := range s.Categories.List() {
			fmt.Fprintf(b, "<td>%s</td>", FormatMoney(p.Expenses(category)))
		}
		fmt.Fprintf(b, "<td>%s</td>", FormatMoney(p.Expenses("")))
		b.WriteString("</tr>")
	}

	// A signed difference row is only meaningful for a two-person roster.
	if len(s.People) == 2 {
		p1, p2 := s.People[0], s.People[1]
		b.WriteString("<tr><td>Difference</td>")
		for _, category := range s.Categories.List() {
			fmt.Fprintf(b, "<td>%s</td>", FormatMoney(s.Difference(p1, p2, category)))
		}
		fmt.Fprintf(b, "<td>%s</td>", FormatMoney(s.Difference(p1, p2, "")))
		b.WriteString("</tr>")
	}

	b.WriteString("</tbody></table>")
}

func renderWarningSection(warnings []string) string {
	if len(warnings) == 0 {
		return ""
	}

	var items strings.Builder
	for _, w := range warnings {
		fmt.Fprintf(&items, "<li>%s</li>", html.EscapeString(w))
	}

	return fmt.Sprintf(`<div style="background-color: #fff4f4; border-left: 5px solid #d13438; padding: 15px; margin-bottom: 20px;">`+
		`<h3 style="color: #d13438; margin-top: 0; font-size: 18px;">Some rows were skipped</h3>`+
		`<ul style="margin-bottom: 0; padding-left: 20px;">%s</ul></div>`, items.String())
}

// FormatMoney renders a currency value with exactly two decimal places,
// rounding half away from zero.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// DateFromObjectKey extracts a report date from a storage object key. The
// key is URL-decoded and scanned for the first YYYY-MM-DD occurrence; when
// none parses, the current date is used.
func DateFromObjectKey(key string) time.Time {
	decoded, err := url.QueryUnescape(key)
	if err != nil {
		decoded = key
	}

	if match := datePattern.FindString(decoded); match != "" {
		if d, err := time.Parse(models.DateFormat, match); err == nil {
			return d
		}
	}

	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
