package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/Amoghsy/CampoBite/internal/domain/order"
)

// orderResponse is the wire shape of an order. The OTP never appears
// here; it reaches the owner through the notification path only.
type orderResponse struct {
	ID             int64               `json:"id"`
	TokenNumber    int                 `json:"tokenNumber"`
	Status         string              `json:"status"`
	TotalAmount    int64               `json:"totalAmount"`
	CouponCode     string              `json:"couponCode,omitempty"`
	DiscountAmount int64               `json:"discountAmount"`
	ItemNames      string              `json:"itemNames"`
	CustomerName   string              `json:"customerName,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
	CompletedAt    *time.Time          `json:"completedAt,omitempty"`
	Items          []orderItemResponse `json:"items"`
}

type orderItemResponse struct {
	MenuItemID int64  `json:"menuItemId"`
	Name       string `json:"name"`
	UnitPrice  int64  `json:"unitPrice"`
	Quantity   int    `json:"quantity"`
}

func toOrderResponse(o *order.Order, withCustomer bool) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			UnitPrice:  it.UnitPrice,
			Quantity:   it.Quantity,
		}
	}
	resp := orderResponse{
		ID:             o.ID,
		TokenNumber:    o.TokenNumber,
		Status:         string(o.Status),
		TotalAmount:    o.TotalAmount,
		CouponCode:     o.CouponCode,
		DiscountAmount: o.DiscountAmount,
		ItemNames:      o.ItemNames,
		CreatedAt:      o.CreatedAt,
		CompletedAt:    o.CompletedAt,
		Items:          items,
	}
	if withCustomer {
		resp.CustomerName = o.UserName
	}
	return resp
}

type placeOrderRequest struct {
	Items []struct {
		MenuItemID int64 `json:"menuItemId"`
		Quantity   int   `json:"quantity"`
	} `json:"items"`
	CouponCode string `json:"couponCode"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req placeOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	createReq := order.CreateRequest{
		UserID:     p.UserID,
		UserEmail:  p.Email,
		UserName:   p.Name,
		CouponCode: req.CouponCode,
	}
	for _, it := range req.Items {
		createReq.Items = append(createReq.Items, order.CreateItem{
			MenuItemID: it.MenuItemID,
			Quantity:   it.Quantity,
		})
	}

	o, err := h.orders.Create(r.Context(), createReq)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(o, false))
}

func (h *Handler) listMyOrders(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orders, err := h.orderRepo.ListByUser(r.Context(), p.UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i := range orders {
		resp[i] = toOrderResponse(&orders[i], false)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := h.orders.Cancel(r.Context(), id, p.UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o, false))
}

// orderTokenQR renders the pickup token as a QR code PNG so the
// customer can flash it at the counter.
func (h *Handler) orderTokenQR(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := h.orderRepo.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if o.UserID != p.UserID {
		writeDomainError(w, r, order.ErrForbidden)
		return
	}

	png, err := qrcode.Encode(strconv.Itoa(o.TokenNumber), qrcode.Medium, 256)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

type validateCouponRequest struct {
	Code string `json:"code"`
}

type validateCouponResponse struct {
	Code               string `json:"code"`
	DiscountPercentage int    `json:"discountPercentage"`
}

func (h *Handler) validateCoupon(w http.ResponseWriter, r *http.Request) {
	var req validateCouponRequest
	if err := decodeJSON(r, &req); err != nil || req.Code == "" {
		writeError(w, http.StatusBadRequest, "code required")
		return
	}

	c, err := h.resolver.Resolve(r.Context(), req.Code, time.Now())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, validateCouponResponse{
		Code:               c.Code,
		DiscountPercentage: c.DiscountPercentage,
	})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}
