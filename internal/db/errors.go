package db

import (
	"fmt"
	"strings"
)

type OrderExistsError struct {
	OrderNo string
}

func (e *OrderExistsError) Error() string {
	return fmt.Sprintf("Order %s already exists", e.OrderNo)
}

type OrderNotFoundError struct {
	OrderNo string
}

func (e *OrderNotFoundError) Error() string {
	return fmt.Sprintf("Order %s not found", e.OrderNo)
}

type RequiredFieldsError struct {
	Missing []string
}

func (e *RequiredFieldsError) Error() string {
	return fmt.Sprintf("Missing required fields: %s", strings.Join(e.Missing, ", "))
}
