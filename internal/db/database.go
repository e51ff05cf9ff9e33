package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"ordertrack/internal/format"
	"ordertrack/internal/pagination"
	"ordertrack/internal/query"
	"ordertrack/internal/types"
	"ordertrack/internal/validate"
)

const orderColumns = `order_date, vendor, order_no, item_name, quantity, currency, amount, color,
	       shipped_date, shipper, tracking_no, location, delivery, last_updated, notes, order_status`

const archivedBase = `FROM orders WHERE order_status IN ('completed', 'cancelled')`

// updateColumns is the explicit field classification behind the update
// policy: coalesce columns keep their stored value when the incoming value is
// empty, the rest always overwrite.
var updateColumns = []struct {
	name     string
	coalesce bool
}{
	{"order_date", true},
	{"vendor", true},
	{"item_name", true},
	{"quantity", false},
	{"currency", true},
	{"amount", true},
	{"color", false},
	{"shipped_date", false},
	{"shipper", false},
	{"tracking_no", false},
	{"location", false},
	{"delivery", false},
	{"last_updated", true},
	{"notes", false},
	{"order_status", true},
}

// MonthOption is a filter choice for the archive UI.
type MonthOption struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var monthOptions = []MonthOption{
	{"01", "January"}, {"02", "February"}, {"03", "March"},
	{"04", "April"}, {"05", "May"}, {"06", "June"},
	{"07", "July"}, {"08", "August"}, {"09", "September"},
	{"10", "October"}, {"11", "November"}, {"12", "December"},
}

// ArchiveResult is everything the archive view needs in one call.
type ArchiveResult struct {
	Orders          []format.Record    `json:"orders"`
	AvailableYears  []string           `json:"available_years"`
	AvailableMonths []MonthOption      `json:"available_months"`
	Pagination      pagination.Info    `json:"pagination"`
	CurrencyTotals  map[string]float64 `json:"currency_totals"`
}

type Database struct {
	pool      *pgxpool.Pool
	formatter *format.Formatter
}

func NewDatabase(connString string, formatter *format.Formatter) (*Database, error) {

	err := Migrate(connString)

	if err != nil {
		return nil, fmt.Errorf("failed to migrate %w", err)
	}

	ctx := context.Background()
	p, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}

	return &Database{
		pool:      p,
		formatter: formatter,
	}, nil
}

func (d *Database) Close() {
	d.pool.Close()
}

// ActiveOrders returns every order not in the archive, newest first.
func (d *Database) ActiveOrders(ctx context.Context) ([]format.Record, error) {
	q := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE order_status NOT IN ('completed', 'cancelled')
		ORDER BY order_date DESC, last_updated DESC
	`
	rows, err := d.pool.Query(ctx, q)
	if err != nil {
		logger.Errorf("Error getting active orders: %s", err)
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}

	orders, err := pgx.CollectRows(rows, pgx.RowToStructByName[types.Order])
	if err != nil {
		logger.Errorf("Error getting active orders: %s", err)
		return nil, fmt.Errorf("failed unpacking rows %w", err)
	}
	return d.formatAll(orders), nil
}

// GetOrder looks one order up by number, any status. A missing order is
// (nil, nil), not an error.
func (d *Database) GetOrder(ctx context.Context, orderNo string) (*format.Record, error) {
	q := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE order_no = $1
	`
	rows, err := d.pool.Query(ctx, q, orderNo)
	if err != nil {
		logger.Errorf("Error getting order %s: %s", orderNo, err)
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}

	order, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.Order])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		logger.Errorf("Error getting order %s: %s", orderNo, err)
		return nil, fmt.Errorf("failed unpacking rows %w", err)
	}
	record := d.formatter.Format(order)
	return &record, nil
}

// OrderExists checks whether an order number is taken. A non-empty excluding
// value ignores that order, for "does a different order use this number".
func (d *Database) OrderExists(ctx context.Context, orderNo string, excluding string) (bool, error) {
	q := `SELECT 1 FROM orders WHERE order_no = $1`
	args := []any{orderNo}
	if excluding != "" {
		q += ` AND order_no != $2`
		args = append(args, excluding)
	}

	row := d.pool.QueryRow(ctx, q, args...)

	var one int
	err := row.Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		logger.Errorf("Error checking if order exists: %s", err)
		return false, fmt.Errorf("%w", err)
	}
	return true, nil
}

// CreateOrder validates and inserts a new order. Status defaults to active,
// order_date and last_updated to today.
func (d *Database) CreateOrder(ctx context.Context, fields types.OrderFields) error {

	if missing := validate.MissingOrderFields(fields); len(missing) > 0 {
		return fmt.Errorf("%w", &RequiredFieldsError{Missing: missing})
	}

	exists, err := d.OrderExists(ctx, fields.OrderNo, "")
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w", &OrderExistsError{OrderNo: fields.OrderNo})
	}

	today := time.Now().Format(time.DateOnly)

	orderDate := fields.OrderDate
	if orderDate == "" {
		orderDate = today
	}
	status := fields.OrderStatus
	if status == "" {
		status = types.ActiveStatus
	}
	amount, _ := format.FormatAmount(fields.Amount)

	q := `
		INSERT INTO orders (order_date, vendor, order_no, item_name,
		                    quantity, currency, amount, color,
		                    shipped_date, shipper, tracking_no, location,
		                    delivery, last_updated, notes, order_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, q,
		orderDate,
		fields.Vendor,
		fields.OrderNo,
		fields.ItemName,
		fields.Quantity,
		fields.Currency,
		amount,
		fields.Color,
		nullIfEmpty(fields.ShippedDate),
		nullIfEmpty(strings.ToUpper(fields.Shipper)),
		nullIfEmpty(fields.TrackingNo),
		nullIfEmpty(fields.Location),
		nullIfEmpty(fields.Delivery),
		today,
		nullIfEmpty(fields.Notes),
		status,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
			return fmt.Errorf("%w", &OrderExistsError{OrderNo: fields.OrderNo})
		}
		logger.Errorf("Error creating order: %s", err)
		return fmt.Errorf("%w", err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		logger.Errorf("Error creating order: %s", err)
		return fmt.Errorf("%w", err)
	}
	return nil
}

// UpdateOrder applies a partial update. Coalesce columns keep their stored
// value on empty input; overwrite columns take the incoming value as is, empty
// included. last_updated is always refreshed server-side.
func (d *Database) UpdateOrder(ctx context.Context, orderNo string, fields types.OrderFields) error {

	amount, _ := format.FormatAmount(fields.Amount)

	values := map[string]any{
		"order_date":   fields.OrderDate,
		"vendor":       fields.Vendor,
		"item_name":    fields.ItemName,
		"quantity":     fields.Quantity,
		"currency":     fields.Currency,
		"amount":       amount,
		"color":        fields.Color,
		"shipped_date": nullIfEmpty(fields.ShippedDate),
		"shipper":      nullIfEmpty(strings.ToUpper(fields.Shipper)),
		"tracking_no":  nullIfEmpty(fields.TrackingNo),
		"location":     nullIfEmpty(fields.Location),
		"delivery":     nullIfEmpty(fields.Delivery),
		"last_updated": time.Now().Format(time.DateOnly),
		"notes":        nullIfEmpty(fields.Notes),
		"order_status": string(fields.OrderStatus),
	}

	sets := make([]string, 0, len(updateColumns))
	args := make([]any, 0, len(updateColumns)+1)
	for _, col := range updateColumns {
		args = append(args, values[col.name])
		placeholder := fmt.Sprintf("$%d", len(args))
		if col.coalesce {
			sets = append(sets, fmt.Sprintf("%s = COALESCE(NULLIF(%s, ''), %s)", col.name, placeholder, col.name))
		} else {
			sets = append(sets, fmt.Sprintf("%s = %s", col.name, placeholder))
		}
	}
	args = append(args, orderNo)
	q := fmt.Sprintf("UPDATE orders SET %s WHERE order_no = $%d", strings.Join(sets, ", "), len(args))

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, q, args...)
	if err != nil {
		logger.Errorf("Error updating order %s: %s", orderNo, err)
		return fmt.Errorf("%w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w", &OrderNotFoundError{OrderNo: orderNo})
	}

	err = tx.Commit(ctx)
	if err != nil {
		logger.Errorf("Error updating order %s: %s", orderNo, err)
		return fmt.Errorf("%w", err)
	}
	return nil
}

// DeleteOrder removes an order. Deleting an absent order is not an error.
func (d *Database) DeleteOrder(ctx context.Context, orderNo string) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `DELETE FROM orders WHERE order_no = $1`, orderNo)
	if err != nil {
		logger.Errorf("Error deleting order %s: %s", orderNo, err)
		return fmt.Errorf("%w", err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		logger.Errorf("Error deleting order %s: %s", orderNo, err)
		return fmt.Errorf("%w", err)
	}
	return nil
}

// ArchivedOrders runs the archive view: filter options, a filtered count, one
// page of formatted records, page metadata and per-currency totals over the
// whole filtered set.
func (d *Database) ArchivedOrders(ctx context.Context, status string, year string, month string, page int, pageSize int) (*ArchiveResult, error) {

	years, err := d.archivedYears(ctx)
	if err != nil {
		return nil, err
	}

	f := query.ArchiveFilter(status, year, month)

	countQuery := `SELECT COUNT(*) ` + archivedBase + f.Clause()
	row := d.pool.QueryRow(ctx, countQuery, f.Args()...)

	var totalCount int
	if err := row.Scan(&totalCount); err != nil {
		logger.Errorf("Error getting archived orders: %s", err)
		return nil, fmt.Errorf("%w", err)
	}

	dataQuery := `SELECT ` + orderColumns + ` ` + archivedBase + f.Clause() + `
		ORDER BY order_date DESC, last_updated DESC
		LIMIT ` + f.Placeholder(pageSize) + ` OFFSET ` + f.Placeholder((page-1)*pageSize)

	rows, err := d.pool.Query(ctx, dataQuery, f.Args()...)
	if err != nil {
		logger.Errorf("Error getting archived orders: %s", err)
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}

	orders, err := pgx.CollectRows(rows, pgx.RowToStructByName[types.Order])
	if err != nil {
		logger.Errorf("Error getting archived orders: %s", err)
		return nil, fmt.Errorf("failed unpacking rows %w", err)
	}

	return &ArchiveResult{
		Orders:          d.formatAll(orders),
		AvailableYears:  years,
		AvailableMonths: monthOptions,
		Pagination:      pagination.Paginate(page, totalCount, pageSize),
		CurrencyTotals:  d.archivedTotals(ctx, status, year, month),
	}, nil
}

// ExportArchivedOrders fetches the filtered archive without pagination, in the
// archive sort order. The date selector is a combined "YYYY-MM" token, applied
// only when both parts are present.
func (d *Database) ExportArchivedOrders(ctx context.Context, status string, year string, month string) ([]format.Record, error) {

	var yearMonth string
	if year != "" && month != "" {
		yearMonth = year + "-" + month
	}
	f := query.ExportFilter(status, yearMonth)

	q := `SELECT ` + orderColumns + ` ` + archivedBase + f.Clause() + `
		ORDER BY order_date DESC, last_updated DESC`

	rows, err := d.pool.Query(ctx, q, f.Args()...)
	if err != nil {
		logger.Errorf("Error exporting archived orders: %s", err)
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}

	orders, err := pgx.CollectRows(rows, pgx.RowToStructByName[types.Order])
	if err != nil {
		logger.Errorf("Error exporting archived orders: %s", err)
		return nil, fmt.Errorf("failed unpacking rows %w", err)
	}
	return d.formatAll(orders), nil
}

func (d *Database) archivedYears(ctx context.Context) ([]string, error) {
	q := `
		SELECT DISTINCT substr(order_date, 1, 4) AS year
		` + archivedBase + `
		ORDER BY year DESC
	`
	rows, err := d.pool.Query(ctx, q)
	if err != nil {
		logger.Errorf("Error getting archive years: %s", err)
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}

	years, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		logger.Errorf("Error getting archive years: %s", err)
		return nil, fmt.Errorf("failed unpacking rows %w", err)
	}
	if years == nil {
		years = []string{}
	}
	return years, nil
}

type currencyAmount struct {
	Currency string `db:"currency"`
	Amount   string `db:"amount"`
}

// archivedTotals sums amounts per currency over the filtered, unpaginated
// archive. Rows with an empty amount or currency are excluded, unparseable
// amounts skipped. Failures degrade to an empty map instead of failing the
// whole archive view.
func (d *Database) archivedTotals(ctx context.Context, status string, year string, month string) map[string]float64 {

	f := query.ArchiveFilter(status, year, month)

	q := `
		SELECT currency, amount
		` + archivedBase + `
		AND amount IS NOT NULL AND amount != ''
		AND currency IS NOT NULL AND currency != ''` + f.Clause()

	rows, err := d.pool.Query(ctx, q, f.Args()...)
	if err != nil {
		logger.Errorf("Error getting archived order totals: %s", err)
		return map[string]float64{}
	}

	entries, err := pgx.CollectRows(rows, pgx.RowToStructByName[currencyAmount])
	if err != nil {
		logger.Errorf("Error getting archived order totals: %s", err)
		return map[string]float64{}
	}

	sums := make(map[string]decimal.Decimal)
	for _, entry := range entries {
		amount, err := decimal.NewFromString(entry.Amount)
		if err != nil {
			continue
		}
		sums[entry.Currency] = sums[entry.Currency].Add(amount)
	}

	totals := make(map[string]float64, len(sums))
	for currency, sum := range sums {
		totals[currency], _ = sum.Round(2).Float64()
	}
	return totals
}

func (d *Database) formatAll(orders []types.Order) []format.Record {
	records := make([]format.Record, len(orders))
	for i, o := range orders {
		records[i] = d.formatter.Format(o)
	}
	return records
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
