package coupon

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/minimall/minimall/internal/httpx"
)

func writeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.NotFound(c, err.Error())
	case errors.Is(err, ErrInactive), errors.Is(err, ErrOutsideWindow),
		errors.Is(err, ErrSoldOut), errors.Is(err, ErrAlreadyClaimed):
		httpx.BadRequest(c, err.Error())
	default:
		httpx.ServerError(c, err, gin.Mode() != gin.ReleaseMode)
	}
}

// ListHandler godoc
// @Summary List claimable coupons
// @Tags coupons
// @Success 200 {object} httpx.Envelope
// @Router /coupons [get]
func ListHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := httpx.PageQuery(c)
		items, total, err := svc.ListActive(c.Request.Context(), page, pageSize)
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.Paginated(c, items, total, page, pageSize)
	}
}

func ClaimHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		uc, err := svc.Claim(c.Request.Context(), httpx.UserID(c), c.Param("id"))
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, uc)
	}
}

func MyHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := httpx.PageQuery(c)
		items, total, err := svc.My(c.Request.Context(), httpx.UserID(c), c.Query("status"), page, pageSize)
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.Paginated(c, items, total, page, pageSize)
	}
}

func AvailableHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		amount, err := decimal.NewFromString(c.DefaultQuery("totalAmount", "0"))
		if err != nil {
			httpx.BadRequest(c, "totalAmount格式错误")
			return
		}
		items, err := svc.Available(c.Request.Context(), httpx.UserID(c), amount)
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, items)
	}
}
