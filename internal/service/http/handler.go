// Package httpsvc публикует операции над заказами как JSON API поверх chi.
package httpsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
	"github.com/vladislavdragonenkov/orderdesk/internal/service/orders"
)

const maxBodyBytes = 1 << 20

// OrderService - операции, которые нужны обработчикам.
type OrderService interface {
	Create(ctx context.Context, in domain.CreateOrderInput) (domain.Order, error)
	Update(ctx context.Context, id int64, in domain.UpdateOrderInput) (domain.Order, error)
	Delete(ctx context.Context, id int64) (domain.Order, error)
	Get(ctx context.Context, id int64) (domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	Print(ctx context.Context, id int64) (orders.PrintResult, error)
	Receipt(ctx context.Context, id int64) ([]byte, error)
}

type Handler struct {
	svc    OrderService
	logger *log.Entry
}

func NewHandler(svc OrderService, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.WithField("component", "http")
	}
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes вешает маршруты заказов на переданный роутер.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.createOrder)
	r.Get("/", h.listOrders)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.getOrder)
		r.Patch("/", h.updateOrder)
		r.Put("/", h.updateOrder)
		r.Delete("/", h.deleteOrder)
		r.Post("/print", h.printOrder)
		r.Get("/receipt", h.receipt)
	})
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	order, err := h.svc.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusCreated, toOrderResponse(order))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, toOrderResponses(list))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	order, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	var req updateOrderRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	order, err := h.svc.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	header, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, toOrderResponse(header))
}

func (h *Handler) printOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	res, err := h.svc.Print(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, printResponse{
		Printed:    res.Printed,
		DevicePath: res.DevicePath,
		OrderID:    res.OrderID,
	})
}

// receipt отдаёт байты чека без печати.
func (h *Handler) receipt(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	data, err := h.svc.Receipt(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func orderID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

// decodeBody разбирает JSON тела. Синтаксические ошибки и неверные типы
// возвращаются как ошибка валидации.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		verr := domain.NewValidationError()
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			verr.Add(typeErr.Field, fmt.Sprintf("must be %s", typeErr.Type))
		} else {
			verr.Add("body", "must be a valid JSON object")
		}
		return verr
	}
	return nil
}
