// Package csvparse converts a spreadsheet export into validated
// transactions. Invalid rows are skipped with a diagnostic, never aborting
// the batch; input that is not tabular at all yields zero transactions.
package csvparse

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rpetrillo/spendsplit/internal/models"
)

// Required column names in the export. Other columns are ignored.
const (
	colDate          = "Date"
	colName          = "Name"
	colAccountNumber = "Account Number"
	colAmount        = "Amount"
	colCategory      = "Category"
	colIgnoredFrom   = "Ignored From"
)

// Parse parses transactions from CSV content, using the first row as field
// names and the given category set to validate the Category column. It
// returns the valid transactions in row order and a diagnostic per skipped
// row. It never returns an error: garbage input is an empty result.
func Parse(content string, categories models.CategorySet) ([]models.Transaction, []string) {
	reader := csv.NewReader(strings.NewReader(content))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		slog.Warn("unparseable spreadsheet content", "error", err)
		return []models.Transaction{}, []string{fmt.Sprintf("failed to read CSV: %v", err)}
	}

	if len(records) < 2 {
		return []models.Transaction{}, nil // empty or header-only
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	transactions := make([]models.Transaction, 0, len(records)-1)
	var warnings []string

	for i, record := range records[1:] {
		rowNum := i + 2 // 1-based, counting the header

		row := make(map[string]string, len(headers))
		for j, header := range headers {
			if j < len(record) {
				row[header] = strings.TrimSpace(record[j])
			}
		}

		t, err := rowToTransaction(row, categories)
		if err != nil {
			slog.Warn("skipping invalid row", "row", rowNum, "error", err)
			warnings = append(warnings, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		transactions = append(transactions, *t)
	}

	return transactions, warnings
}

func rowToTransaction(row map[string]string, categories models.CategorySet) (*models.Transaction, error) {
	date, err := time.Parse(models.DateFormat, row[colDate])
	if err != nil {
		return nil, fmt.Errorf("invalid Date %q", row[colDate])
	}

	// Name is free-text payee; an empty value is valid.
	name := row[colName]

	accountNumber, err := strconv.Atoi(row[colAccountNumber])
	if err != nil {
		return nil, fmt.Errorf("invalid Account Number %q", row[colAccountNumber])
	}

	amount, err := decimal.NewFromString(row[colAmount])
	if err != nil {
		return nil, fmt.Errorf("invalid Amount %q", row[colAmount])
	}

	// Unknown categories are dropped, not mapped to a catch-all; the export
	// carries rows (e.g. internal transfers) outside the configured set.
	category := models.Category(row[colCategory])
	if !categories.Contains(category) {
		return nil, fmt.Errorf("unknown Category %q", row[colCategory])
	}

	var ignore models.IgnoredFrom
	switch models.IgnoredFrom(row[colIgnoredFrom]) {
	case models.IgnoredFromNothing:
		ignore = models.IgnoredFromNothing
	case models.IgnoredFromBudget:
		ignore = models.IgnoredFromBudget
	case models.IgnoredFromEverything:
		ignore = models.IgnoredFromEverything
	default:
		return nil, fmt.Errorf("invalid Ignored From %q", row[colIgnoredFrom])
	}

	return &models.Transaction{
		Date:          date,
		Name:          name,
		AccountNumber: accountNumber,
		Amount:        amount,
		Category:      category,
		Ignore:        ignore,
	}, nil
}
