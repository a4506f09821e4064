package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Amoghsy/CampoBite/internal/domain/coupon"
	"github.com/Amoghsy/CampoBite/internal/domain/order"
	"github.com/Amoghsy/CampoBite/internal/notify"
	"github.com/go-faster/errors"
)

func (h *Handler) listAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderRepo.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i := range orders {
		resp[i] = toOrderResponse(&orders[i], true)
	}
	writeJSON(w, http.StatusOK, resp)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// updateOrderStatus advances an order to the next kitchen stage. When
// the order becomes READY the minted OTP goes to the owner via the
// notification path and is deliberately absent from this response.
func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	target, err := order.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.orders.AdvanceStatus(r.Context(), id, target)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o, true))
}

type completeOrderRequest struct {
	OTP string `json:"otp"`
}

func (h *Handler) completeOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req completeOrderRequest
	if err := decodeJSON(r, &req); err != nil || req.OTP == "" {
		writeError(w, http.StatusBadRequest, "otp required")
		return
	}

	o, err := h.orders.CompleteWithOTP(r.Context(), id, req.OTP)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o, true))
}

type couponPayload struct {
	Code               string `json:"code"`
	DiscountPercentage int    `json:"discountPercentage"`
	ExpiryDate         string `json:"expiryDate,omitempty"`
	Active             *bool  `json:"active,omitempty"`
}

type couponResponse struct {
	ID                 int64  `json:"id"`
	Code               string `json:"code"`
	DiscountPercentage int    `json:"discountPercentage"`
	ExpiryDate         string `json:"expiryDate,omitempty"`
	Active             bool   `json:"active"`
}

func toCouponResponse(c *coupon.Coupon) couponResponse {
	resp := couponResponse{
		ID:                 c.ID,
		Code:               c.Code,
		DiscountPercentage: c.DiscountPercentage,
		Active:             c.Active,
	}
	if c.ExpiryDate != nil {
		resp.ExpiryDate = c.ExpiryDate.Format(time.DateOnly)
	}
	return resp
}

func (h *Handler) listCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.coupons.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := make([]couponResponse, len(coupons))
	for i := range coupons {
		resp[i] = toCouponResponse(&coupons[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// createCoupon creates a coupon and announces it to the promo topic.
func (h *Handler) createCoupon(w http.ResponseWriter, r *http.Request) {
	c, err := couponFromPayload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if c.Code == "" {
		writeError(w, http.StatusBadRequest, "code required")
		return
	}

	if err := h.coupons.Create(r.Context(), c); err != nil {
		writeDomainError(w, r, err)
		return
	}

	h.events.Emit(notify.Event{
		Kind:  notify.KindPromo,
		Title: "New Offer!",
		Body:  fmt.Sprintf("Get %d%% OFF with code %s", c.DiscountPercentage, c.Code),
	})

	writeJSON(w, http.StatusCreated, toCouponResponse(c))
}

func (h *Handler) updateCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid coupon id")
		return
	}

	c, err := couponFromPayload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c.ID = id

	if err := h.coupons.Update(r.Context(), c); err != nil {
		if errors.Is(err, coupon.ErrNotFound) {
			writeError(w, http.StatusNotFound, "coupon not found")
			return
		}
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCouponResponse(c))
}

func (h *Handler) deleteCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid coupon id")
		return
	}

	if err := h.coupons.Delete(r.Context(), id); err != nil {
		if errors.Is(err, coupon.ErrNotFound) {
			writeError(w, http.StatusNotFound, "coupon not found")
			return
		}
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func couponFromPayload(r *http.Request) (*coupon.Coupon, error) {
	var req couponPayload
	if err := decodeJSON(r, &req); err != nil {
		return nil, errors.New("malformed request body")
	}
	if req.DiscountPercentage < 0 || req.DiscountPercentage > 100 {
		return nil, errors.New("discount percentage must be within 0-100")
	}

	c := &coupon.Coupon{
		Code:               coupon.Normalize(req.Code),
		DiscountPercentage: req.DiscountPercentage,
		Active:             true,
	}
	if req.Active != nil {
		c.Active = *req.Active
	}
	if req.ExpiryDate != "" {
		d, err := time.Parse(time.DateOnly, req.ExpiryDate)
		if err != nil {
			return nil, errors.New("expiry date must be YYYY-MM-DD")
		}
		c.ExpiryDate = &d
	}
	return c, nil
}
