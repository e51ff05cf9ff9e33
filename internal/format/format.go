package format

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"ordertrack/internal/types"
)

var displayPrinter = message.NewPrinter(language.English)

// Record is a display-ready order: every optional column flattened to a
// string, the two derived amount forms filled in, and a tracking URL when the
// carrier is known.
type Record struct {
	OrderDate       string       `json:"order_date"`
	Vendor          string       `json:"vendor"`
	OrderNo         string       `json:"order_no"`
	ItemName        string       `json:"item_name"`
	Quantity        string       `json:"quantity"`
	Currency        string       `json:"currency"`
	Amount          string       `json:"amount"`
	AmountFormatted string       `json:"amount_formatted"`
	AmountDisplay   string       `json:"amount_display"`
	Color           string       `json:"color"`
	ShippedDate     string       `json:"shipped_date"`
	Shipper         string       `json:"shipper"`
	TrackingNo      string       `json:"tracking_no"`
	TrackingURL     string       `json:"tracking_url,omitempty"`
	Location        string       `json:"location"`
	Delivery        string       `json:"delivery"`
	LastUpdated     string       `json:"last_updated"`
	Notes           string       `json:"notes"`
	OrderStatus     types.Status `json:"order_status"`
}

// Formatter turns stored rows into display records. The carrier table is
// fixed at construction.
type Formatter struct {
	carriers map[string]string
}

func NewFormatter(carriers map[string]string) *Formatter {
	normalized := make(map[string]string, len(carriers))
	for code, template := range carriers {
		normalized[strings.ToUpper(code)] = template
	}
	return &Formatter{carriers: normalized}
}

func (f *Formatter) Format(o types.Order) Record {
	r := Record{
		OrderDate:   o.OrderDate,
		Vendor:      o.Vendor,
		OrderNo:     o.OrderNo,
		ItemName:    o.ItemName,
		Currency:    o.Currency,
		Amount:      o.Amount,
		Color:       o.Color,
		ShippedDate: orEmpty(o.ShippedDate),
		Shipper:     orEmpty(o.Shipper),
		TrackingNo:  orEmpty(o.TrackingNo),
		Location:    orEmpty(o.Location),
		Delivery:    orEmpty(o.Delivery),
		LastUpdated: o.LastUpdated,
		Notes:       orEmpty(o.Notes),
		OrderStatus: o.OrderStatus,
	}
	if o.Quantity != nil {
		r.Quantity = strconv.Itoa(*o.Quantity)
	}
	r.AmountFormatted, r.AmountDisplay = FormatAmount(o.Amount)
	r.TrackingURL = f.TrackingURL(r.Shipper, r.TrackingNo)
	return r
}

// FormatAmount derives the fixed 2-decimal form and the thousands-grouped
// display form. Values that do not parse as numbers pass through unchanged
// into both forms.
func FormatAmount(amount string) (formatted string, display string) {
	if amount == "" {
		return "", ""
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return amount, amount
	}
	value, _ := d.Float64()
	return d.StringFixed(2), displayPrinter.Sprintf("%.2f", value)
}

// TrackingURL substitutes the percent-encoded tracking number into the
// carrier's URL template. Unknown carriers or missing values yield "".
func (f *Formatter) TrackingURL(shipper string, trackingNo string) string {
	if shipper == "" || trackingNo == "" {
		return ""
	}
	template, ok := f.carriers[strings.ToUpper(shipper)]
	if !ok {
		return ""
	}
	return fmt.Sprintf(template, url.QueryEscape(trackingNo))
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
