package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pennywise-app/pennywise/internal/common"
	"github.com/pennywise-app/pennywise/internal/model"
)

// CSVParser parses bank CSV exports. Banks disagree on everything: header
// names, date layouts, amount signs, and whether debits and credits share a
// column. The parser detects the layout heuristically and coerces each row
// best-effort rather than rejecting the file.
type CSVParser struct{}

// NewCSVParser creates a new CSV parser.
func NewCSVParser() *CSVParser {
	return &CSVParser{}
}

// columns is the detected layout of one CSV file. An index of -1 means the
// column is absent.
type columns struct {
	date        int
	description int
	amount      int
	debit       int
	credit      int
	category    int
	account     int
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"2006/01/02",
	"01/02/06",
	"Jan 2, 2006",
	"2 Jan 2006",
	"2006-01-02T15:04:05",
}

// Parse reads a CSV export and returns its transactions. Rows whose date or
// amount cannot be understood are kept with zero values and a warning so the
// user can fix them, never silently dropped.
func (p *CSVParser) Parse(reader io.Reader) ([]model.Transaction, error) {
	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty CSV file")
	}

	cols, hasHeader := detectLayout(records)
	if cols.date < 0 || (cols.amount < 0 && cols.debit < 0 && cols.credit < 0) {
		return nil, fmt.Errorf("could not locate date and amount columns")
	}

	rows := records
	if hasHeader {
		rows = records[1:]
	}

	var transactions []model.Transaction
	badRows := 0
	for i, row := range rows {
		txn, ok := p.convertRow(row, cols)
		if !ok {
			badRows++
			slog.Warn("CSV row only partially understood",
				"row", i+1,
				"fields", len(row))
		}
		transactions = append(transactions, txn)
	}

	common.LogInfo("Parsed CSV file", common.Fields{
		"transactions": len(transactions),
		"partial_rows": badRows,
		"header":       hasHeader,
	})

	return transactions, nil
}

// convertRow coerces one record. The second return value is false when a
// field had to be defaulted.
func (p *CSVParser) convertRow(row []string, cols columns) (model.Transaction, bool) {
	txn := model.Transaction{ID: uuid.New().String()}
	clean := true

	if date, ok := parseDate(field(row, cols.date)); ok {
		txn.Date = date
	} else {
		clean = false
	}

	txn.Description = field(row, cols.description)

	amount, ok := p.rowAmount(row, cols)
	if ok {
		txn.Amount = amount
	} else {
		clean = false
	}

	if category := field(row, cols.category); category != "" && model.ValidCategory(category) {
		txn.Category = model.CanonicalCategory(category)
	}
	txn.Account = field(row, cols.account)

	return txn, clean
}

// rowAmount resolves the signed amount from either a single amount column or
// a debit/credit column pair. Debits store negative.
func (p *CSVParser) rowAmount(row []string, cols columns) (float64, bool) {
	if cols.amount >= 0 {
		return parseAmount(field(row, cols.amount))
	}

	if debit, ok := parseAmount(field(row, cols.debit)); ok && debit != 0 {
		if debit > 0 {
			debit = -debit
		}
		return debit, true
	}
	if credit, ok := parseAmount(field(row, cols.credit)); ok && credit != 0 {
		if credit < 0 {
			credit = -credit
		}
		return credit, true
	}
	return 0, false
}

// detectLayout maps columns by header names when the first row looks like a
// header, and by sniffing cell contents otherwise.
func detectLayout(records [][]string) (columns, bool) {
	cols := columns{date: -1, description: -1, amount: -1, debit: -1, credit: -1, category: -1, account: -1}

	if headerRow(records[0]) {
		for i, name := range records[0] {
			switch normalizeHeader(name) {
			case "date", "transactiondate", "posteddate", "postdate":
				setIfUnset(&cols.date, i)
			case "description", "payee", "merchant", "name", "memo", "details":
				setIfUnset(&cols.description, i)
			case "amount", "transactionamount":
				setIfUnset(&cols.amount, i)
			case "debit", "withdrawal", "withdrawals", "moneyout":
				setIfUnset(&cols.debit, i)
			case "credit", "deposit", "deposits", "moneyin":
				setIfUnset(&cols.credit, i)
			case "category":
				setIfUnset(&cols.category, i)
			case "account", "accountnumber", "accountname":
				setIfUnset(&cols.account, i)
			}
		}
		return cols, true
	}

	// Headerless: sniff the first data row. The date column parses as a
	// date, the amount column is the first numeric non-date column, and the
	// description is the longest remaining text cell.
	row := records[0]
	longest := -1
	for i, cell := range row {
		cell = strings.TrimSpace(cell)
		if _, ok := parseDate(cell); ok && cols.date < 0 {
			cols.date = i
			continue
		}
		if _, ok := parseAmount(cell); ok && cols.amount < 0 {
			cols.amount = i
			continue
		}
		if longest < 0 || len(cell) > len(strings.TrimSpace(row[longest])) {
			longest = i
		}
	}
	cols.description = longest
	return cols, false
}

// headerRow reports whether a row looks like column names: no cell parses as
// a date or an amount, and at least one cell is a known header name.
func headerRow(row []string) bool {
	known := false
	for _, cell := range row {
		cell = strings.TrimSpace(cell)
		if _, ok := parseDate(cell); ok {
			return false
		}
		if _, ok := parseAmount(cell); ok {
			return false
		}
		switch normalizeHeader(cell) {
		case "date", "transactiondate", "posteddate", "postdate", "description",
			"payee", "merchant", "amount", "debit", "credit", "category", "account", "memo":
			known = true
		}
	}
	return known
}

func normalizeHeader(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "")
	name = strings.ReplaceAll(name, "_", "")
	return name
}

func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseAmount handles currency symbols, thousands separators, surrounding
// parentheses for negatives, and trailing minus signs.
func parseAmount(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(value, "(") && strings.HasSuffix(value, ")") {
		negative = true
		value = value[1 : len(value)-1]
	}
	if strings.HasSuffix(value, "-") {
		negative = true
		value = strings.TrimSuffix(value, "-")
	}

	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "$")
	value = strings.TrimPrefix(value, "€")
	value = strings.TrimPrefix(value, "£")
	value = strings.ReplaceAll(value, ",", "")
	value = strings.TrimSpace(value)

	amount, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		amount = -amount
	}
	return amount, true
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func setIfUnset(target *int, value int) {
	if *target < 0 {
		*target = value
	}
}
