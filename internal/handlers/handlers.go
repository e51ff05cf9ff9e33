package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"ordertrack/internal/db"
	"ordertrack/internal/export"
	"ordertrack/internal/format"
	"ordertrack/internal/pagination"
	"ordertrack/internal/types"
)

const archivePageSize = 10

type HandlerSet struct {
	database *db.Database
}

func NewHandlerSet(database *db.Database) *HandlerSet {
	return &HandlerSet{
		database: database,
	}
}

func (h *HandlerSet) HandleGetActiveOrders(w http.ResponseWriter, req *http.Request) {

	orders, err := h.database.ActiveOrders(req.Context())
	if err != nil {
		logger.Error(err)
		http.Error(w, "Error getting data", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, orders)
}

func (h *HandlerSet) HandleGetOrder(w http.ResponseWriter, req *http.Request) {

	orderNo := chi.URLParam(req, "orderNo")

	order, err := h.database.GetOrder(req.Context(), orderNo)
	if err != nil {
		logger.Error(err)
		http.Error(w, "Error getting data", http.StatusInternalServerError)
		return
	}
	if order == nil {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, order)
}

func (h *HandlerSet) HandleCheckOrderNo(w http.ResponseWriter, req *http.Request) {

	orderNo := chi.URLParam(req, "orderNo")
	current := req.URL.Query().Get("current")

	exists, err := h.database.OrderExists(req.Context(), orderNo, current)
	if err != nil {
		logger.Error(err)
		http.Error(w, "Error getting data", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]bool{"exists": exists})
}

func (h *HandlerSet) HandleCreateOrder(w http.ResponseWriter, req *http.Request) {

	fields, err := h.parseOrderFields(req)
	if err != nil {
		http.Error(w, "Could not parse body", http.StatusBadRequest)
		return
	}

	err = h.database.CreateOrder(req.Context(), *fields)
	if err != nil {
		var missingFields *db.RequiredFieldsError
		if errors.As(err, &missingFields) {
			http.Error(w, missingFields.Error(), http.StatusBadRequest)
			return
		}
		var orderExists *db.OrderExistsError
		if errors.As(err, &orderExists) {
			http.Error(w, "An order with this number already exists", http.StatusConflict)
			return
		}
		http.Error(w, "Error creating order", http.StatusInternalServerError)
		return
	}

	response, err := json.Marshal(map[string]any{"success": true, "message": "Order created successfully!"})
	if err != nil {
		http.Error(w, "Could not serialize result", http.StatusInternalServerError)
		return
	}
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, err = w.Write(response)
	if err != nil {
		logger.Error(err)
	}
}

func (h *HandlerSet) HandleUpdateOrder(w http.ResponseWriter, req *http.Request) {

	orderNo := chi.URLParam(req, "orderNo")

	fields, err := h.parseOrderFields(req)
	if err != nil {
		http.Error(w, "Could not parse body", http.StatusBadRequest)
		return
	}

	err = h.database.UpdateOrder(req.Context(), orderNo, *fields)
	if err != nil {
		var notFound *db.OrderNotFoundError
		if errors.As(err, &notFound) {
			http.Error(w, "Order not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Error updating order", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]any{"success": true, "message": "Order updated successfully!"})
}

func (h *HandlerSet) HandleDeleteOrder(w http.ResponseWriter, req *http.Request) {

	orderNo := chi.URLParam(req, "orderNo")

	err := h.database.DeleteOrder(req.Context(), orderNo)
	if err != nil {
		http.Error(w, "Error deleting order", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *HandlerSet) HandleGetArchive(w http.ResponseWriter, req *http.Request) {

	params := req.URL.Query()
	page := pagination.ParsePage(params.Get("page"))

	result, err := h.database.ArchivedOrders(
		req.Context(),
		params.Get("status"), params.Get("year"), params.Get("month"),
		page, archivePageSize)
	if err != nil {
		logger.Error(err)
		http.Error(w, "Error getting data", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, result)
}

// exportColumns is the CSV contract: header text and column order are fixed
// here, not in the query engine.
var exportColumns = []export.Column{
	{Header: "Order Date", Value: func(r format.Record) string { return r.OrderDate }},
	{Header: "Vendor", Value: func(r format.Record) string { return r.Vendor }},
	{Header: "Order Number", Value: func(r format.Record) string { return r.OrderNo }},
	{Header: "Item", Value: func(r format.Record) string { return r.ItemName }},
	{Header: "Quantity", Value: func(r format.Record) string { return r.Quantity }},
	{Header: "Currency", Value: func(r format.Record) string { return r.Currency }},
	{Header: "Amount", Value: func(r format.Record) string { return r.Amount }},
	{Header: "Shipped Date", Value: func(r format.Record) string { return r.ShippedDate }},
	{Header: "Shipper", Value: func(r format.Record) string { return r.Shipper }},
	{Header: "Tracking Number", Value: func(r format.Record) string { return r.TrackingNo }},
	{Header: "Location", Value: func(r format.Record) string { return r.Location }},
	{Header: "Last Updated", Value: func(r format.Record) string { return r.LastUpdated }},
	{Header: "Notes", Value: func(r format.Record) string { return r.Notes }},
	{Header: "Status", Value: func(r format.Record) string { return string(r.OrderStatus) }},
}

func (h *HandlerSet) HandleExportArchiveCSV(w http.ResponseWriter, req *http.Request) {

	params := req.URL.Query()
	status := params.Get("status")
	year := params.Get("year")
	month := params.Get("month")

	records, err := h.database.ExportArchivedOrders(req.Context(), status, year, month)
	if err != nil {
		logger.Error(err)
		http.Error(w, "Error exporting archive", http.StatusInternalServerError)
		return
	}

	filename := export.Filename("archived_orders", status, year, month)

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	err = export.WriteCSV(w, exportColumns, records)
	if err != nil {
		logger.Error(err)
	}
}

func (h *HandlerSet) parseOrderFields(req *http.Request) (*types.OrderFields, error) {

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	var fields types.OrderFields
	err = json.Unmarshal(body, &fields)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	return &fields, nil
}

func (h *HandlerSet) writeJSON(w http.ResponseWriter, value any) {
	response, err := json.Marshal(value)
	if err != nil {
		http.Error(w, "Could not serialize result", http.StatusInternalServerError)
		return
	}
	w.Header().Set("content-type", "application/json")
	_, err = w.Write(response)
	if err != nil {
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
	}
}
