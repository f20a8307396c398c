// README: Customer order handlers: place and detail.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"scrapmate/internal/http/middleware"
	"scrapmate/internal/modules/directory"
	"scrapmate/internal/modules/order"
	"scrapmate/internal/types"
)

type OrderHandler struct {
	order *order.Service
}

func NewOrderHandler(svc *order.Service) *OrderHandler {
	return &OrderHandler{order: svc}
}

type placeOrderReq struct {
	Items             []order.Item `json:"items"`
	Address           string       `json:"address"`
	Lat               *float64     `json:"lat"`
	Lng               *float64     `json:"lng"`
	EstimatedWeightKg float64      `json:"estimated_weight_kg"`
	EstimatedAmount   int64        `json:"estimated_amount"`
	Currency          string       `json:"currency"`
	Images            []string     `json:"images"`
	TimeWindow        string       `json:"time_window"`
	TargetClass       string       `json:"target_class"`
	PreRouteRef       string       `json:"pre_route_ref"`
}

func (h *OrderHandler) Place(c *gin.Context) {
	var req placeOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	cmd := order.PlaceCommand{
		CustomerID:        types.ID(middleware.CallerUID(c)),
		Items:             req.Items,
		Address:           req.Address,
		EstimatedWeightKg: req.EstimatedWeightKg,
		EstimatedAmount:   types.Money{Amount: req.EstimatedAmount, Currency: req.Currency},
		Images:            req.Images,
		TimeWindow:        req.TimeWindow,
		TargetClass:       directory.Class(req.TargetClass),
	}
	if req.Lat != nil && req.Lng != nil {
		cmd.Location = &types.Point{Lat: *req.Lat, Lng: *req.Lng}
	}
	if req.PreRouteRef != "" {
		ref := types.ID(req.PreRouteRef)
		cmd.PreRouteRef = &ref
	}

	o, err := h.order.Place(c.Request.Context(), cmd)
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, toOrderView(o, order.DisplayStatus(o.Status)))
}

// Get returns the order with a status computed for the caller: vendors see
// claimed_by_other / cancelled derivations, the requesting customer sees the
// stored status. Anyone else gets 404.
func (h *OrderHandler) Get(c *gin.Context) {
	id := types.ID(c.Param("id"))
	uid := types.ID(middleware.CallerUID(c))

	if middleware.CallerRole(c) == "vendor" {
		o, display, err := h.order.GetForVendor(c.Request.Context(), id, uid)
		if err != nil {
			writeOrderError(c, err)
			return
		}
		writeJSON(c, http.StatusOK, toOrderView(o, display))
		return
	}

	o, err := h.order.Get(c.Request.Context(), id)
	if err != nil {
		writeOrderError(c, err)
		return
	}
	if o.CustomerID != uid {
		writeError(c, http.StatusNotFound, order.ErrNotFound.Error())
		return
	}
	writeJSON(c, http.StatusOK, toOrderView(o, order.DisplayStatus(o.Status)))
}
