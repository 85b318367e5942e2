package httpsvc

import (
	"time"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

type itemRequest struct {
	ItemType    string  `json:"itemType"`
	ProductID   *int64  `json:"productId"`
	Amount      *int32  `json:"amount"`
	CustomName  *string `json:"customName"`
	CustomPrice *int64  `json:"customPrice"`
	PriceAtSale *int64  `json:"priceAtSale"`
	Notes       *string `json:"notes"`
}

type createOrderRequest struct {
	CustomerName string        `json:"customerName"`
	PickupDate   *string       `json:"pickupDate"`
	Notes        *string       `json:"notes"`
	Items        []itemRequest `json:"items"`
}

// updateOrderRequest: отсутствующее поле и null одинаково означают "не менять".
type updateOrderRequest struct {
	CustomerName *string       `json:"customerName"`
	PickupDate   *string       `json:"pickupDate"`
	Notes        *string       `json:"notes"`
	Items        []itemRequest `json:"items"`
}

type productResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

type itemResponse struct {
	ID          int64            `json:"id"`
	OrderID     int64            `json:"orderId"`
	ItemType    string           `json:"itemType"`
	ProductID   *int64           `json:"productId,omitempty"`
	Amount      *int32           `json:"amount,omitempty"`
	CustomName  *string          `json:"customName,omitempty"`
	CustomPrice *int64           `json:"customPrice,omitempty"`
	PriceAtSale *int64           `json:"priceAtSale,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
	Product     *productResponse `json:"product,omitempty"`
}

type orderResponse struct {
	ID           int64          `json:"id"`
	CustomerName string         `json:"customerName"`
	PickupDate   *string        `json:"pickupDate,omitempty"`
	Notes        *string        `json:"notes,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	Items        []itemResponse `json:"items,omitempty"`
}

type printResponse struct {
	Printed    bool   `json:"printed"`
	DevicePath string `json:"devicePath"`
	OrderID    int64  `json:"orderId"`
}

type envelope struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func (req createOrderRequest) toInput() (domain.CreateOrderInput, error) {
	verr := domain.NewValidationError()
	in := domain.CreateOrderInput{
		Header: domain.OrderHeader{
			CustomerName: req.CustomerName,
			Notes:        deref(req.Notes),
		},
		Items: toItemInputs(req.Items),
	}
	if req.PickupDate != nil {
		d, err := domain.ParseDate(*req.PickupDate)
		if err != nil {
			verr.Add("pickupDate", "must be a date in YYYY-MM-DD format")
		} else {
			in.Header.PickupDate = &d
		}
	}
	return in, verr.OrNil()
}

func (req updateOrderRequest) toInput() (domain.UpdateOrderInput, error) {
	verr := domain.NewValidationError()
	in := domain.UpdateOrderInput{
		Header: domain.HeaderPatch{
			CustomerName: req.CustomerName,
			Notes:        req.Notes,
		},
	}
	if req.Items != nil {
		in.Items = toItemInputs(req.Items)
	}
	if req.PickupDate != nil {
		d, err := domain.ParseDate(*req.PickupDate)
		if err != nil {
			verr.Add("pickupDate", "must be a date in YYYY-MM-DD format")
		} else {
			in.Header.PickupDate = &d
		}
	}
	return in, verr.OrNil()
}

func toItemInputs(items []itemRequest) []domain.ItemInput {
	if items == nil {
		return nil
	}
	inputs := make([]domain.ItemInput, 0, len(items))
	for _, it := range items {
		in := domain.ItemInput{
			Kind:        domain.ItemKind(it.ItemType),
			CustomName:  deref(it.CustomName),
			CustomPrice: it.CustomPrice,
			PriceAtSale: it.PriceAtSale,
			Notes:       deref(it.Notes),
		}
		if it.ProductID != nil {
			in.ProductID = *it.ProductID
		}
		if it.Amount != nil {
			in.Amount = *it.Amount
		}
		inputs = append(inputs, in)
	}
	return inputs
}

func toOrderResponse(order domain.Order) orderResponse {
	resp := orderResponse{
		ID:           order.ID,
		CustomerName: order.CustomerName,
		Notes:        optional(order.Notes),
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
	}
	if order.PickupDate != nil && !order.PickupDate.IsZero() {
		s := order.PickupDate.String()
		resp.PickupDate = &s
	}
	if len(order.Items) > 0 {
		resp.Items = make([]itemResponse, 0, len(order.Items))
		for _, item := range order.Items {
			resp.Items = append(resp.Items, toItemResponse(item))
		}
	}
	return resp
}

func toItemResponse(item domain.LineItem) itemResponse {
	resp := itemResponse{
		ID:          item.ID,
		OrderID:     item.OrderID,
		PriceAtSale: item.PriceAtSale,
		Notes:       optional(item.Notes),
	}
	switch line := item.Line.(type) {
	case domain.ProductLine:
		resp.ItemType = string(domain.ItemKindProduct)
		productID, amount := line.ProductID, line.Amount
		resp.ProductID = &productID
		resp.Amount = &amount
		if line.Product != nil {
			resp.Product = &productResponse{ID: line.Product.ID, Name: line.Product.Name, Price: line.Product.Price}
		}
	case domain.CustomLine:
		resp.ItemType = string(domain.ItemKindCustom)
		name, price := line.Name, line.Price
		resp.CustomName = &name
		resp.CustomPrice = &price
	}
	return resp
}

func toOrderResponses(orders []domain.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
