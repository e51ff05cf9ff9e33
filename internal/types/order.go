package types

type Status string

const (
	ActiveStatus    Status = "active"
	CompletedStatus Status = "completed"
	CancelledStatus Status = "cancelled"
)

// Archived reports whether a status belongs to the archive view. Everything
// else, including the historical empty status, counts as active.
func (s Status) Archived() bool {
	return s == CompletedStatus || s == CancelledStatus
}

// Order is a stored row. Optional columns are pointers so a database NULL
// survives the round trip; everything else is stored as text, never NULL.
type Order struct {
	OrderDate   string  `db:"order_date"`
	Vendor      string  `db:"vendor"`
	OrderNo     string  `db:"order_no"`
	ItemName    string  `db:"item_name"`
	Quantity    *int    `db:"quantity"`
	Currency    string  `db:"currency"`
	Amount      string  `db:"amount"`
	Color       string  `db:"color"`
	ShippedDate *string `db:"shipped_date"`
	Shipper     *string `db:"shipper"`
	TrackingNo  *string `db:"tracking_no"`
	Location    *string `db:"location"`
	Delivery    *string `db:"delivery"`
	LastUpdated string  `db:"last_updated"`
	Notes       *string `db:"notes"`
	OrderStatus Status  `db:"order_status"`
}

// OrderFields carries incoming create/update values. Empty strings are
// meaningful on update: for some columns they preserve the stored value, for
// the rest they overwrite (see db.UpdateOrder).
type OrderFields struct {
	OrderDate   string `json:"order_date"`
	Vendor      string `json:"vendor"`
	OrderNo     string `json:"order_no"`
	ItemName    string `json:"item_name"`
	Quantity    *int   `json:"quantity"`
	Currency    string `json:"currency"`
	Amount      string `json:"amount"`
	Color       string `json:"color"`
	ShippedDate string `json:"shipped_date"`
	Shipper     string `json:"shipper"`
	TrackingNo  string `json:"tracking_no"`
	Location    string `json:"location"`
	Delivery    string `json:"delivery"`
	Notes       string `json:"notes"`
	OrderStatus Status `json:"order_status"`
}
