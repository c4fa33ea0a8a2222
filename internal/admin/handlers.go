package admin

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minimall/minimall/internal/coupon"
	"github.com/minimall/minimall/internal/httpx"
	"github.com/minimall/minimall/internal/product"
)

func writeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrCouponNotFound),
		errors.Is(err, ErrCategoryNotFound), errors.Is(err, ErrUserNotFound):
		httpx.NotFound(c, err.Error())
	case errors.Is(err, ErrBadCredentials), errors.Is(err, ErrAccountDisabled):
		httpx.Unauthorized(c, err.Error())
	default:
		httpx.ServerError(c, err, gin.Mode() != gin.ReleaseMode)
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginHandler godoc
// @Summary Console login
// @Tags admin
// @Accept json
// @Success 200 {object} httpx.Envelope
// @Router /admin/login [post]
func LoginHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "参数验证失败")
			return
		}
		a, access, refresh, err := svc.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, gin.H{
			"admin":        gin.H{"id": a.ID, "username": a.Username, "nickname": a.Nickname, "role": a.Role},
			"accessToken":  access,
			"refreshToken": refresh,
		})
	}
}

func DashboardHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := repo.Dashboard(c.Request.Context())
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, stats)
	}
}

type skuInput struct {
	Specs string `json:"specs" binding:"required"`
	Price string `json:"price" binding:"required"`
	Stock int    `json:"stock" binding:"min=0"`
	Image string `json:"image"`
}

type productRequest struct {
	CategoryID    string     `json:"categoryId" binding:"required"`
	Title         string     `json:"title" binding:"required"`
	Description   string     `json:"description"`
	MainImage     string     `json:"mainImage" binding:"required"`
	Price         string     `json:"price" binding:"required"`
	OriginalPrice string     `json:"originalPrice"`
	Stock         int        `json:"stock" binding:"min=0"`
	Tags          string     `json:"tags"`
	Status        string     `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE"`
	SKUs          []skuInput `json:"skus"`
}

func (req *productRequest) toProduct(id string) (*product.Product, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return nil, errors.New("价格格式不正确")
	}
	original := req.OriginalPrice
	if original == "" {
		original = req.Price
	}
	if _, err := decimal.NewFromString(original); err != nil {
		return nil, errors.New("价格格式不正确")
	}
	status := req.Status
	if status == "" {
		status = product.StatusActive
	}
	return &product.Product{
		ID:            id,
		CategoryID:    req.CategoryID,
		Title:         req.Title,
		Description:   req.Description,
		MainImage:     req.MainImage,
		Price:         price.StringFixed(2),
		OriginalPrice: original,
		Stock:         req.Stock,
		Tags:          req.Tags,
		Status:        status,
	}, nil
}

func ProductListHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := httpx.PageQuery(c)
		products, total, err := repo.ListProducts(c.Request.Context(),
			c.Query("keyword"), c.Query("status"), page, pageSize)
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.Paginated(c, products, total, page, pageSize)
	}
}

func ProductCreateHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req productRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "参数验证失败")
			return
		}
		p, err := req.toProduct(uuid.NewString())
		if err != nil {
			httpx.BadRequest(c, err.Error())
			return
		}
		skus := make([]product.SKU, 0, len(req.SKUs))
		for _, in := range req.SKUs {
			skus = append(skus, product.SKU{
				ID:        uuid.NewString(),
				ProductID: p.ID,
				Specs:     in.Specs,
				Price:     in.Price,
				Stock:     in.Stock,
				Image:     in.Image,
			})
		}
		if err := repo.CreateProduct(c.Request.Context(), p, skus); err != nil {
			writeErr(c, err)
			return
		}
		httpx.Created(c, p)
	}
}

func ProductUpdateHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req productRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "参数验证失败")
			return
		}
		p, err := req.toProduct(c.Param("id"))
		if err != nil {
			httpx.BadRequest(c, err.Error())
			return
		}
		if err := repo.UpdateProduct(c.Request.Context(), p); err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, p)
	}
}

func ProductStatusHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Status string `json:"status" binding:"required,oneof=ACTIVE INACTIVE"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "参数验证失败")
			return
		}
		if err := repo.UpdateProductStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, nil)
	}
}

func ProductDeleteHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := repo.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, nil)
	}
}

func UserListHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := httpx.PageQuery(c)
		users, total, err := repo.ListUsers(c.Request.Context(),
			c.Query("keyword"), c.Query("status"), page, pageSize)
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.Paginated(c, users, total, page, pageSize)
	}
}

func UserStatusHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Status string `json:"status" binding:"required,oneof=ACTIVE DISABLED"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "参数验证失败")
			return
		}
		if err := repo.SetUserStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, nil)
	}
}

type couponRequest struct {
	Name           string    `json:"name" binding:"required"`
	Type           string    `json:"type"`
	DiscountAmount string    `json:"discountAmount" binding:"required"`
	MinAmount      string    `json:"minAmount" binding:"required"`
	TotalCount     int       `json:"totalCount" binding:"required,min=1"`
	StartTime      time.Time `json:"startTime" binding:"required"`
	EndTime        time.Time `json:"endTime" binding:"required"`
	Status         string    `json:"status" binding:"omitempty,oneof=PENDING ACTIVE EXPIRED"`
}

func (req *couponRequest) toCoupon(id string) (*coupon.Coupon, error) {
	if _, err := decimal.NewFromString(req.DiscountAmount); err != nil {
		return nil, errors.New("金额格式不正确")
	}
	if _, err := decimal.NewFromString(req.MinAmount); err != nil {
		return nil, errors.New("金额格式不正确")
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, errors.New("结束时间必须晚于开始时间")
	}
	typ := req.Type
	if typ == "" {
		typ = "FIXED"
	}
	status := req.Status
	if status == "" {
		status = coupon.StatusActive
	}
	return &coupon.Coupon{
		ID:             id,
		Name:           req.Name,
		Type:           typ,
		DiscountAmount: req.DiscountAmount,
		MinAmount:      req.MinAmount,
		TotalCount:     req.TotalCount,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Status:         status,
	}, nil
}

func CouponListHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := httpx.PageQuery(c)
		coupons, total, err := svc.CouponsWithDerivedStatus(c.Request.Context(),
			c.Query("keyword"), c.Query("status"), page, pageSize)
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.Paginated(c, coupons, total, page, pageSize)
	}
}

func CouponCreateHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req couponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "参数验证失败")
			return
		}
		cp, err := req.toCoupon(uuid.NewString())
		if err != nil {
			httpx.BadRequest(c, err.Error())
			return
		}
		if err := repo.CreateCoupon(c.Request.Context(), cp); err != nil {
			writeErr(c, err)
			return
		}
		httpx.Created(c, cp)
	}
}

func CouponUpdateHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req couponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "参数验证失败")
			return
		}
		cp, err := req.toCoupon(c.Param("id"))
		if err != nil {
			httpx.BadRequest(c, err.Error())
			return
		}
		if err := repo.UpdateCoupon(c.Request.Context(), cp); err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, cp)
	}
}

func CouponDeleteHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := repo.DeleteCoupon(c.Request.Context(), c.Param("id")); err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, nil)
	}
}

type categoryRequest struct {
	Name     string  `json:"name" binding:"required"`
	Icon     string  `json:"icon"`
	ParentID *string `json:"parentId"`
	Sort     int     `json:"sort"`
	Status   string  `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE"`
}

func CategoryCreateHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req categoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "参数验证失败")
			return
		}
		if req.Status == "" {
			req.Status = product.StatusActive
		}
		cat := &product.Category{
			ID:       uuid.NewString(),
			Name:     req.Name,
			Icon:     req.Icon,
			ParentID: req.ParentID,
			Sort:     req.Sort,
			Status:   req.Status,
		}
		if err := repo.CreateCategory(c.Request.Context(), cat); err != nil {
			writeErr(c, err)
			return
		}
		httpx.Created(c, cat)
	}
}

func CategoryUpdateHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req categoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "参数验证失败")
			return
		}
		if req.Status == "" {
			req.Status = product.StatusActive
		}
		cat := &product.Category{
			ID:     c.Param("id"),
			Name:   req.Name,
			Icon:   req.Icon,
			Sort:   req.Sort,
			Status: req.Status,
		}
		if err := repo.UpdateCategory(c.Request.Context(), cat); err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, cat)
	}
}

func CategoryDeleteHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := repo.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, nil)
	}
}
