package cart

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/minimall/minimall/internal/httpx"
)

type addRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type updateRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

type selectAllRequest struct {
	Selected *bool `json:"selected" binding:"required"`
}

func writeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrItemNotFound), errors.Is(err, ErrProductNotFound):
		httpx.NotFound(c, err.Error())
	case errors.Is(err, ErrInsufficientStock):
		httpx.BadRequest(c, err.Error())
	default:
		httpx.ServerError(c, err, gin.Mode() != gin.ReleaseMode)
	}
}

func GetHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := svc.Get(c.Request.Context(), httpx.UserID(c))
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, view)
	}
}

func AddHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "参数验证失败")
			return
		}
		it, err := svc.Add(c.Request.Context(), httpx.UserID(c), req.ProductID, req.Quantity)
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, it)
	}
}

func UpdateHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "参数验证失败")
			return
		}
		it, err := svc.UpdateQuantity(c.Request.Context(), httpx.UserID(c), c.Param("id"), req.Quantity)
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, it)
	}
}

func DeleteHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), httpx.UserID(c), c.Param("id")); err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, gin.H{"message": "删除成功"})
	}
}

func SelectAllHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req selectAllRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "参数验证失败")
			return
		}
		if err := svc.SelectAll(c.Request.Context(), httpx.UserID(c), *req.Selected); err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, gin.H{"message": "操作成功"})
	}
}

func ClearHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Clear(c.Request.Context(), httpx.UserID(c)); err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, gin.H{"message": "购物车已清空"})
	}
}
