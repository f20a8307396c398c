// README: Vendor handlers: order lists and lifecycle actions.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"scrapmate/internal/http/middleware"
	"scrapmate/internal/modules/directory"
	"scrapmate/internal/modules/order"
	"scrapmate/internal/types"
)

type VendorHandler struct {
	order *order.Service
}

func NewVendorHandler(svc *order.Service) *VendorHandler {
	return &VendorHandler{order: svc}
}

// ListAvailable returns claimable orders. With lat/lng query params the list
// is distance-filtered and sorted nearest first.
func (h *VendorHandler) ListAvailable(c *gin.Context) {
	q := order.AvailableQuery{VendorID: types.ID(middleware.CallerUID(c))}

	latStr, lngStr := c.Query("lat"), c.Query("lng")
	if latStr != "" && lngStr != "" {
		lat, errLat := strconv.ParseFloat(latStr, 64)
		lng, errLng := strconv.ParseFloat(lngStr, 64)
		if errLat != nil || errLng != nil {
			writeError(c, http.StatusBadRequest, "invalid lat/lng")
			return
		}
		q.Origin = &types.Point{Lat: lat, Lng: lng}
		if r := c.Query("radius_km"); r != "" {
			radius, err := strconv.ParseFloat(r, 64)
			if err != nil {
				writeError(c, http.StatusBadRequest, "invalid radius_km")
				return
			}
			q.RadiusKm = radius
		}
	}

	list, err := h.order.ListAvailable(c.Request.Context(), q)
	if err != nil {
		writeOrderError(c, err)
		return
	}
	views := make([]orderView, 0, len(list))
	for _, entry := range list {
		v := toOrderView(entry.Order, order.DisplayScheduled)
		v.DistanceKm = entry.DistanceKm
		views = append(views, v)
	}
	writeJSON(c, http.StatusOK, gin.H{"orders": views})
}

func (h *VendorHandler) ListActive(c *gin.Context) {
	h.listAssigned(c, h.order.ListActive)
}

func (h *VendorHandler) ListCompleted(c *gin.Context) {
	h.listAssigned(c, h.order.ListCompleted)
}

func (h *VendorHandler) listAssigned(c *gin.Context, list func(ctx context.Context, vendorID types.ID) ([]order.EnrichedOrder, error)) {
	orders, err := list(c.Request.Context(), types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeOrderError(c, err)
		return
	}
	views := make([]orderView, 0, len(orders))
	for _, e := range orders {
		v := toOrderView(e.Order, e.DisplayStatus)
		v.RequesterName = e.RequesterName
		v.RequesterPhone = e.RequesterPhone
		views = append(views, v)
	}
	writeJSON(c, http.StatusOK, gin.H{"orders": views})
}

type acceptReq struct {
	Class string `json:"class"`
}

func (h *VendorHandler) Accept(c *gin.Context) {
	var req acceptReq
	_ = c.ShouldBindJSON(&req)

	o, err := h.order.Accept(c.Request.Context(), order.AcceptCommand{
		OrderID:  types.ID(c.Param("id")),
		VendorID: types.ID(middleware.CallerUID(c)),
		Class:    directory.Class(req.Class),
	})
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toOrderView(o, order.DisplayStatus(o.Status)))
}

func (h *VendorHandler) Start(c *gin.Context) {
	o, err := h.order.Start(c.Request.Context(), order.StartCommand{
		OrderID:  types.ID(c.Param("id")),
		VendorID: types.ID(middleware.CallerUID(c)),
	})
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": o.Status})
}

func (h *VendorHandler) Arrive(c *gin.Context) {
	o, err := h.order.Arrive(c.Request.Context(), order.ArriveCommand{
		OrderID:  types.ID(c.Param("id")),
		VendorID: types.ID(middleware.CallerUID(c)),
	})
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": o.Status})
}

type completeReq struct {
	Adjustments []order.Adjustment `json:"adjustments"`
}

func (h *VendorHandler) Complete(c *gin.Context) {
	var req completeReq
	_ = c.ShouldBindJSON(&req)

	o, err := h.order.Complete(c.Request.Context(), order.CompleteCommand{
		OrderID:     types.ID(c.Param("id")),
		VendorID:    types.ID(middleware.CallerUID(c)),
		Adjustments: req.Adjustments,
	})
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toOrderView(o, order.DisplayStatus(o.Status)))
}

type cancelReq struct {
	Reason string `json:"reason"`
}

func (h *VendorHandler) Cancel(c *gin.Context) {
	var req cancelReq
	_ = c.ShouldBindJSON(&req)

	err := h.order.Cancel(c.Request.Context(), order.CancelCommand{
		OrderID:  types.ID(c.Param("id")),
		VendorID: types.ID(middleware.CallerUID(c)),
		Reason:   req.Reason,
	})
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "cancelled"})
}
