package validate

import (
	"strings"

	"ordertrack/internal/types"
)

// RequiredOrderFields are the fields an order cannot be created without.
var RequiredOrderFields = []string{"vendor", "order_no", "item_name", "amount"}

// MissingOrderFields returns the required fields that are empty in the given
// input, in declaration order. Whitespace-only values count as empty.
func MissingOrderFields(fields types.OrderFields) []string {
	values := map[string]string{
		"vendor":    fields.Vendor,
		"order_no":  fields.OrderNo,
		"item_name": fields.ItemName,
		"amount":    fields.Amount,
	}

	var missing []string
	for _, name := range RequiredOrderFields {
		if strings.TrimSpace(values[name]) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}
