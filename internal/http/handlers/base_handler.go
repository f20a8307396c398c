// README: Shared handler utilities: error mapping and response shapes.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"scrapmate/internal/modules/order"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, order.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrForbidden):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, order.ErrClaimedByOther),
		errors.Is(err, order.ErrInvalidState),
		errors.Is(err, order.ErrConflict):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

type locationView struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type orderView struct {
	OrderID           string        `json:"order_id"`
	Number            int64         `json:"number"`
	Status            string        `json:"status"`
	Items             []order.Item  `json:"items"`
	Address           string        `json:"address"`
	Location          *locationView `json:"location,omitempty"`
	EstimatedWeightKg float64       `json:"estimated_weight_kg"`
	EstimatedAmount   int64         `json:"estimated_amount"`
	Currency          string        `json:"currency"`
	ActualAmount      *int64        `json:"actual_amount,omitempty"`
	Images            []string      `json:"images,omitempty"`
	TimeWindow        string        `json:"time_window,omitempty"`
	DistanceKm        *float64      `json:"distance_km,omitempty"`
	RequesterName     string        `json:"requester_name,omitempty"`
	RequesterPhone    string        `json:"requester_phone,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	CompletedAt       *time.Time    `json:"completed_at,omitempty"`
}

func toOrderView(o *order.Order, display order.DisplayStatus) orderView {
	v := orderView{
		OrderID:           string(o.ID),
		Number:            o.Number,
		Status:            string(display),
		Items:             o.Items,
		Address:           o.Address,
		EstimatedWeightKg: o.EstimatedWeightKg,
		EstimatedAmount:   o.EstimatedAmount.Amount,
		Currency:          o.EstimatedAmount.Currency,
		Images:            o.Images,
		TimeWindow:        o.TimeWindow,
		CreatedAt:         o.CreatedAt,
		CompletedAt:       o.CompletedAt,
	}
	if o.Location != nil {
		v.Location = &locationView{Lat: o.Location.Lat, Lng: o.Location.Lng}
	}
	if o.ActualAmount != nil {
		v.ActualAmount = &o.ActualAmount.Amount
	}
	return v
}
