package order

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/minimall/minimall/internal/httpx"
)

func writeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrRefundNotFound),
		errors.Is(err, ErrAddressNotFound), errors.Is(err, ErrEmptyCart):
		httpx.NotFound(c, err.Error())
	case errors.Is(err, ErrStateConflict), errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrCouponUnavailable), errors.Is(err, ErrProductOff),
		errors.Is(err, ErrStockShort), errors.Is(err, ErrCancelOnlyPend),
		errors.Is(err, ErrNotShipped), errors.Is(err, ErrRefundNotAllowed),
		errors.Is(err, ErrRefundProcessed), errors.Is(err, ErrRefundExists):
		httpx.BadRequest(c, err.Error())
	default:
		httpx.ServerError(c, err, gin.Mode() != gin.ReleaseMode)
	}
}

// CreateHandler godoc
// @Summary Create an order from selected cart items
// @Tags orders
// @Accept json
// @Param body body CreateRequest true "checkout payload"
// @Success 201 {object} httpx.Envelope
// @Router /orders [post]
func CreateHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "参数验证失败")
			return
		}
		o, err := svc.Create(c.Request.Context(), httpx.UserID(c), req)
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.Created(c, o)
	}
}

func ListHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := httpx.PageQuery(c)
		orders, total, err := svc.ListByUser(c.Request.Context(),
			httpx.UserID(c), c.Query("status"), page, pageSize)
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.Paginated(c, orders, total, page, pageSize)
	}
}

func GetHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.Get(c.Request.Context(), httpx.UserID(c), c.Param("id"))
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, o)
	}
}

// PayHandler godoc
// @Summary Pay an order (simulated)
// @Tags orders
// @Param id path string true "order id"
// @Success 200 {object} httpx.Envelope
// @Router /orders/{id}/pay [post]
func PayHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PayRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "参数验证失败")
			return
		}
		o, err := svc.Pay(c.Request.Context(), httpx.UserID(c), c.Param("id"), req.PaymentMethod)
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, o)
	}
}

func CancelHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Cancel(c.Request.Context(), httpx.UserID(c), c.Param("id")); err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, nil)
	}
}

func ConfirmHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Confirm(c.Request.Context(), httpx.UserID(c), c.Param("id")); err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, nil)
	}
}

func RefundHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RefundRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "参数验证失败")
			return
		}
		rf, err := svc.RequestRefund(c.Request.Context(), httpx.UserID(c), c.Param("id"), req)
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.Created(c, rf)
	}
}

// Admin side.

func AdminListHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := httpx.PageQuery(c)
		q := ListQuery{Status: c.Query("status"), Page: page, PageSize: pageSize}
		if v := c.Query("startDate"); v != "" {
			if t, err := time.Parse("2006-01-02", v); err == nil {
				q.StartDate = &t
			}
		}
		if v := c.Query("endDate"); v != "" {
			if t, err := time.Parse("2006-01-02", v); err == nil {
				end := t.Add(24*time.Hour - time.Nanosecond)
				q.EndDate = &end
			}
		}
		orders, total, err := svc.ListAll(c.Request.Context(), q)
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.Paginated(c, orders, total, page, pageSize)
	}
}

func AdminGetHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.Get(c.Request.Context(), "", c.Param("id"))
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, o)
	}
}

func ShipHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ShipRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "参数验证失败")
			return
		}
		if err := svc.Ship(c.Request.Context(), c.Param("id"), req); err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, nil)
	}
}

func RefundListHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := httpx.PageQuery(c)
		refunds, total, err := svc.ListRefunds(c.Request.Context(), c.Query("status"), page, pageSize)
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.Paginated(c, refunds, total, page, pageSize)
	}
}

func ProcessRefundHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ProcessRefundRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "参数验证失败")
			return
		}
		rf, err := svc.ProcessRefund(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, rf)
	}
}
