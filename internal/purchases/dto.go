package purchases

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// createOrderRequest is the wire payload for order creation.
type createOrderRequest struct {
	SupplierName    string             `json:"supplierName" validate:"required"`
	SupplierContact string             `json:"supplierContact"`
	Note            string             `json:"note"`
	IsUrgent        bool               `json:"isUrgent"`
	Expenses        string             `json:"expenses"`
	SendImmediately bool               `json:"sendImmediately"`
	Items           []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type orderItemRequest struct {
	ProductID int64  `json:"productId" validate:"required,gt=0"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
	CostPrice string `json:"costPrice" validate:"required"`
}

type transitionRequest struct {
	Target string `json:"target" validate:"required"`
}

type updateItemRequest struct {
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
	CostPrice string `json:"costPrice" validate:"required"`
}

type orderResponse struct {
	ID              int64          `json:"id"`
	Status          Status         `json:"status"`
	SupplierName    string         `json:"supplierName"`
	SupplierContact string         `json:"supplierContact,omitempty"`
	IsUrgent        bool           `json:"isUrgent"`
	Expenses        string         `json:"expenses"`
	TotalAmount     string         `json:"totalAmount"`
	Note            string         `json:"note,omitempty"`
	Items           []itemResponse `json:"items,omitempty"`
}

type itemResponse struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"productId"`
	Quantity  int64  `json:"quantity"`
	CostPrice string `json:"costPrice"`
	Total     string `json:"total"`
}

func toOrderResponse(order PurchaseOrder, items []PurchaseItem) orderResponse {
	resp := orderResponse{
		ID:              order.ID,
		Status:          order.Status,
		SupplierName:    order.SupplierName,
		SupplierContact: order.SupplierContact,
		IsUrgent:        order.IsUrgent,
		Expenses:        order.Expenses.StringFixed(2),
		TotalAmount:     order.TotalAmount.StringFixed(2),
		Note:            order.Note,
	}
	for _, item := range items {
		resp.Items = append(resp.Items, itemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			CostPrice: item.CostPrice.StringFixed(2),
			Total:     item.Total.StringFixed(2),
		})
	}
	return resp
}

func parseMoney(field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s: %q", field, value)
	}
	return parsed, nil
}
