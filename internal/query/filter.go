package query

import (
	"fmt"
	"strings"
)

// Filter accumulates conjunctive predicate fragments with numbered
// placeholders. Column expressions are fixed strings baked into this package;
// caller-supplied values only ever travel through the bound args list, so the
// resulting SQL cannot carry user input in its structure.
type Filter struct {
	clauses []string
	args    []any
}

// ArchiveFilter builds the archive-view predicate from the optional selectors.
// Fragments are emitted in a fixed order (status, year, month) so the args
// line up positionally. Dates are stored as ISO text, which makes year and
// month exact substring matches.
func ArchiveFilter(status string, year string, month string) *Filter {
	f := &Filter{}
	if status != "" {
		f.bind("order_status = %s", status)
	}
	if year != "" {
		f.bind("substr(order_date, 1, 4) = %s", year)
	}
	if month != "" {
		f.bind("substr(order_date, 6, 2) = %s", month)
	}
	return f
}

// ExportFilter is the CSV-export variant: the date selector is a combined
// "YYYY-MM" token instead of separate year and month values.
func ExportFilter(status string, yearMonth string) *Filter {
	f := &Filter{}
	if status != "" {
		f.bind("order_status = %s", status)
	}
	if yearMonth != "" {
		f.bind("substr(order_date, 1, 7) = %s", yearMonth)
	}
	return f
}

func (f *Filter) bind(cond string, value any) {
	f.args = append(f.args, value)
	f.clauses = append(f.clauses, fmt.Sprintf(cond, fmt.Sprintf("$%d", len(f.args))))
}

// Clause returns the combined fragment, " AND "-prefixed so it concatenates
// onto a base WHERE clause. Empty filter, empty string.
func (f *Filter) Clause() string {
	if len(f.clauses) == 0 {
		return ""
	}
	return " AND " + strings.Join(f.clauses, " AND ")
}

func (f *Filter) Args() []any {
	return f.args
}

// Placeholder binds one more value after the filter args (LIMIT, OFFSET) and
// returns its placeholder. Must be called in query-text order.
func (f *Filter) Placeholder(value any) string {
	f.args = append(f.args, value)
	return fmt.Sprintf("$%d", len(f.args))
}
