//go:build integration_tests
// +build integration_tests

package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordertrack/internal/config"
	"ordertrack/internal/format"
	"ordertrack/internal/testutils"
	"ordertrack/internal/types"
)

var DBDSN string

func TestMain(m *testing.M) {
	code, err := runMain(m)

	if err != nil {
		log.Fatal(err)
	}
	os.Exit(code)
}

func runMain(m *testing.M) (int, error) {

	databaseDSN, cleanUp, err := testutils.RunTestDatabase()
	defer cleanUp()

	if err != nil {
		return 1, err
	}
	DBDSN = databaseDSN

	exitCode := m.Run()

	return exitCode, nil
}

func newTestDatabase(t *testing.T) *Database {
	database, err := NewDatabase(DBDSN, format.NewFormatter(config.DefaultCarriers()))
	require.NoError(t, err)
	return database
}

func truncateOrders(t *testing.T) {
	ctx := context.Background()
	conn, err := pgx.Connect(ctx, DBDSN)
	require.NoError(t, err)
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, "TRUNCATE orders")
	require.NoError(t, err)
}

// insertRaw bypasses CreateOrder's validation and amount normalization, for
// seeding rows the public API would not produce.
func insertRaw(t *testing.T, orderNo string, orderDate string, status string, currency string, amount string) {
	ctx := context.Background()
	conn, err := pgx.Connect(ctx, DBDSN)
	require.NoError(t, err)
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, `
		INSERT INTO orders (order_date, vendor, order_no, item_name, currency, amount, last_updated, order_status)
		VALUES ($1, 'Acme', $2, 'Widget', $3, $4, $1, $5)`,
		orderDate, orderNo, currency, amount, status)
	require.NoError(t, err)
}

func TestCreateAndGetOrder(t *testing.T) {

	truncateOrders(t)
	database := newTestDatabase(t)

	err := database.CreateOrder(context.Background(), types.OrderFields{
		Vendor:   "Acme",
		OrderNo:  "PO-100",
		ItemName: "Widget",
		Amount:   "19.99",
		Currency: "USD",
	})
	require.NoError(t, err)

	order, err := database.GetOrder(context.Background(), "PO-100")
	require.NoError(t, err)
	require.NotNil(t, order)

	today := time.Now().Format(time.DateOnly)

	assert.Equal(t, types.ActiveStatus, order.OrderStatus)
	assert.Equal(t, "19.99", order.AmountFormatted)
	assert.Equal(t, today, order.OrderDate)
	assert.Equal(t, today, order.LastUpdated)
	assert.Equal(t, "", order.TrackingNo)

	missing, err := database.GetOrder(context.Background(), "PO-999")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCreateOrderValidation(t *testing.T) {

	truncateOrders(t)
	database := newTestDatabase(t)

	err := database.CreateOrder(context.Background(), types.OrderFields{
		Vendor:  "Acme",
		OrderNo: "PO-100",
	})

	var missingFields *RequiredFieldsError
	require.ErrorAs(t, err, &missingFields)
	assert.Equal(t, []string{"item_name", "amount"}, missingFields.Missing)

	// rejected before any row was written
	order, err := database.GetOrder(context.Background(), "PO-100")
	require.NoError(t, err)
	assert.Nil(t, order)
}

func TestCreateOrderConflict(t *testing.T) {

	truncateOrders(t)
	database := newTestDatabase(t)

	fields := types.OrderFields{
		Vendor:   "Acme",
		OrderNo:  "PO-100",
		ItemName: "Widget",
		Amount:   "19.99",
	}
	require.NoError(t, database.CreateOrder(context.Background(), fields))

	err := database.CreateOrder(context.Background(), fields)

	var orderExists *OrderExistsError
	require.ErrorAs(t, err, &orderExists)
	assert.Equal(t, "PO-100", orderExists.OrderNo)

	// archived orders still hold their numbers
	err = database.UpdateOrder(context.Background(), "PO-100", types.OrderFields{OrderStatus: types.CompletedStatus})
	require.NoError(t, err)

	err = database.CreateOrder(context.Background(), fields)
	require.ErrorAs(t, err, &orderExists)
}

func TestOrderExists(t *testing.T) {

	truncateOrders(t)
	database := newTestDatabase(t)
	ctx := context.Background()

	require.NoError(t, database.CreateOrder(ctx, types.OrderFields{
		Vendor: "Acme", OrderNo: "PO-100", ItemName: "Widget", Amount: "1",
	}))

	exists, err := database.OrderExists(ctx, "PO-100", "")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = database.OrderExists(ctx, "PO-999", "")
	require.NoError(t, err)
	assert.False(t, exists)

	// renaming PO-100 to its own number is not a clash
	exists, err = database.OrderExists(ctx, "PO-100", "PO-100")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUpdateOrderFieldPolicy(t *testing.T) {

	truncateOrders(t)
	database := newTestDatabase(t)
	ctx := context.Background()

	require.NoError(t, database.CreateOrder(ctx, types.OrderFields{
		Vendor:     "Acme",
		OrderNo:    "PO-100",
		ItemName:   "Widget",
		Amount:     "19.99",
		Currency:   "USD",
		Shipper:    "fedex",
		TrackingNo: "794698123456",
		Location:   "Warehouse 1",
	}))

	// empty coalesce fields keep their values, empty overwrite fields clear
	err := database.UpdateOrder(ctx, "PO-100", types.OrderFields{
		Location: "Warehouse 2",
	})
	require.NoError(t, err)

	order, err := database.GetOrder(ctx, "PO-100")
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.Equal(t, "19.99", order.Amount)
	assert.Equal(t, "Acme", order.Vendor)
	assert.Equal(t, "USD", order.Currency)
	assert.Equal(t, types.ActiveStatus, order.OrderStatus)
	assert.Equal(t, "", order.TrackingNo)
	assert.Equal(t, "", order.Shipper)
	assert.Equal(t, "Warehouse 2", order.Location)

	// shipper codes are stored uppercase
	err = database.UpdateOrder(ctx, "PO-100", types.OrderFields{Shipper: "fedex", TrackingNo: "123"})
	require.NoError(t, err)

	order, err = database.GetOrder(ctx, "PO-100")
	require.NoError(t, err)
	assert.Equal(t, "FEDEX", order.Shipper)
	assert.Equal(t, "https://www.fedex.com/fedextrack/?trknbr=123", order.TrackingURL)

	var notFound *OrderNotFoundError
	err = database.UpdateOrder(ctx, "PO-999", types.OrderFields{Vendor: "Acme"})
	assert.ErrorAs(t, err, &notFound)
}

func TestDeleteOrderIdempotent(t *testing.T) {

	truncateOrders(t)
	database := newTestDatabase(t)
	ctx := context.Background()

	require.NoError(t, database.CreateOrder(ctx, types.OrderFields{
		Vendor: "Acme", OrderNo: "PO-100", ItemName: "Widget", Amount: "1",
	}))

	assert.NoError(t, database.DeleteOrder(ctx, "PO-100"))
	assert.NoError(t, database.DeleteOrder(ctx, "PO-100"))

	order, err := database.GetOrder(ctx, "PO-100")
	require.NoError(t, err)
	assert.Nil(t, order)
}

func TestStatusTransitionMovesOrderToArchive(t *testing.T) {

	truncateOrders(t)
	database := newTestDatabase(t)
	ctx := context.Background()

	require.NoError(t, database.CreateOrder(ctx, types.OrderFields{
		Vendor: "Acme", OrderNo: "PO-100", ItemName: "Widget", Amount: "19.99", Currency: "USD",
	}))

	active, err := database.ActiveOrders(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "PO-100", active[0].OrderNo)

	require.NoError(t, database.UpdateOrder(ctx, "PO-100", types.OrderFields{OrderStatus: types.CompletedStatus}))

	active, err = database.ActiveOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 0)

	result, err := database.ArchivedOrders(ctx, "", "", "", 1, 10)
	require.NoError(t, err)
	require.Len(t, result.Orders, 1)
	assert.Equal(t, "PO-100", result.Orders[0].OrderNo)
	assert.Equal(t, types.CompletedStatus, result.Orders[0].OrderStatus)
}

func TestArchivedOrdersFilters(t *testing.T) {

	truncateOrders(t)
	database := newTestDatabase(t)
	ctx := context.Background()

	insertRaw(t, "PO-1", "2024-03-15", "completed", "USD", "100.00")
	insertRaw(t, "PO-2", "2024-03-20", "cancelled", "EUR", "50.00")
	insertRaw(t, "PO-3", "2024-04-01", "completed", "USD", "70.00")
	insertRaw(t, "PO-4", "2023-03-05", "completed", "USD", "10.00")
	insertRaw(t, "PO-5", "2024-03-25", "active", "USD", "999.00")

	testCases := []struct {
		name       string
		status     string
		year       string
		month      string
		wantOrders []string
	}{
		{"no filters", "", "", "", []string{"PO-3", "PO-2", "PO-1", "PO-4"}},
		{"status", "completed", "", "", []string{"PO-3", "PO-1", "PO-4"}},
		{"year", "", "2024", "", []string{"PO-3", "PO-2", "PO-1"}},
		{"month", "", "", "03", []string{"PO-2", "PO-1", "PO-4"}},
		{"year and month", "", "2024", "03", []string{"PO-2", "PO-1"}},
		{"all", "completed", "2024", "03", []string{"PO-1"}},
		{"no matches", "cancelled", "2023", "", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := database.ArchivedOrders(ctx, tc.status, tc.year, tc.month, 1, 10)
			require.NoError(t, err)

			var got []string
			for _, o := range result.Orders {
				got = append(got, o.OrderNo)
			}
			assert.Equal(t, tc.wantOrders, got)
			assert.Equal(t, len(tc.wantOrders), result.Pagination.TotalCount)

			// filter options ignore the active filters
			assert.Equal(t, []string{"2024", "2023"}, result.AvailableYears)
			assert.Len(t, result.AvailableMonths, 12)
		})
	}
}

func TestArchivedOrdersPagination(t *testing.T) {

	truncateOrders(t)
	database := newTestDatabase(t)
	ctx := context.Background()

	for day := 1; day <= 12; day++ {
		insertRaw(t, fmt.Sprintf("PO-%02d", day), fmt.Sprintf("2024-03-%02d", day), "completed", "USD", "1.00")
	}

	page1, err := database.ArchivedOrders(ctx, "", "", "", 1, 5)
	require.NoError(t, err)
	assert.Len(t, page1.Orders, 5)
	assert.Equal(t, "PO-12", page1.Orders[0].OrderNo)
	assert.Equal(t, 12, page1.Pagination.TotalCount)
	assert.Equal(t, 3, page1.Pagination.TotalPages)
	assert.False(t, page1.Pagination.HasPrev)
	assert.True(t, page1.Pagination.HasNext)

	page3, err := database.ArchivedOrders(ctx, "", "", "", 3, 5)
	require.NoError(t, err)
	assert.Len(t, page3.Orders, 2)
	assert.Equal(t, "PO-01", page3.Orders[1].OrderNo)
	assert.True(t, page3.Pagination.HasPrev)
	assert.False(t, page3.Pagination.HasNext)

	// past the end is legal: empty page, intact metadata
	page9, err := database.ArchivedOrders(ctx, "", "", "", 9, 5)
	require.NoError(t, err)
	assert.Len(t, page9.Orders, 0)
	assert.Equal(t, 9, page9.Pagination.CurrentPage)
	assert.Equal(t, 3, page9.Pagination.TotalPages)
	assert.False(t, page9.Pagination.HasNext)
}

func TestCurrencyTotals(t *testing.T) {

	truncateOrders(t)
	database := newTestDatabase(t)
	ctx := context.Background()

	insertRaw(t, "PO-1", "2024-03-15", "completed", "USD", "100.00")
	insertRaw(t, "PO-2", "2024-03-20", "cancelled", "EUR", "50.00")
	insertRaw(t, "PO-3", "2024-03-21", "completed", "", "25.00")
	insertRaw(t, "PO-4", "2024-03-22", "completed", "USD", "")

	result, err := database.ArchivedOrders(ctx, "", "", "", 1, 10)
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"USD": 100.00, "EUR": 50.00}, result.CurrencyTotals)
	// excluded rows still show up in the listing
	assert.Len(t, result.Orders, 4)
}

func TestCurrencyTotalsRoundHalfUp(t *testing.T) {

	truncateOrders(t)
	database := newTestDatabase(t)
	ctx := context.Background()

	insertRaw(t, "PO-1", "2024-03-15", "completed", "USD", "10.005")
	insertRaw(t, "PO-2", "2024-03-16", "completed", "USD", "20.00")
	insertRaw(t, "PO-3", "2024-03-17", "completed", "USD", "n/a")

	result, err := database.ArchivedOrders(ctx, "", "", "", 1, 10)
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"USD": 30.01}, result.CurrencyTotals)
}

func TestExportArchivedOrders(t *testing.T) {

	truncateOrders(t)
	database := newTestDatabase(t)
	ctx := context.Background()

	insertRaw(t, "PO-1", "2024-03-15", "completed", "USD", "100.00")
	insertRaw(t, "PO-2", "2024-03-20", "cancelled", "EUR", "50.00")
	insertRaw(t, "PO-3", "2024-04-01", "completed", "USD", "70.00")
	insertRaw(t, "PO-4", "2024-03-25", "active", "USD", "999.00")

	records, err := database.ExportArchivedOrders(ctx, "", "", "")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "PO-3", records[0].OrderNo)

	// year alone does not filter: the export date token needs both parts
	records, err = database.ExportArchivedOrders(ctx, "", "2024", "")
	require.NoError(t, err)
	assert.Len(t, records, 3)

	records, err = database.ExportArchivedOrders(ctx, "completed", "2024", "03")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "PO-1", records[0].OrderNo)
}
