package product

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/minimall/minimall/internal/httpx"
)

// ListHandler godoc
// @Summary List active products
// @Tags products
// @Param categoryId query string false "category filter"
// @Param keyword query string false "title/description search"
// @Success 200 {object} httpx.Envelope
// @Router /products [get]
func ListHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := httpx.PageQuery(c)
		q := Query{
			CategoryID: c.Query("categoryId"),
			Keyword:    c.Query("keyword"),
			MinPrice:   c.Query("minPrice"),
			MaxPrice:   c.Query("maxPrice"),
			SortBy:     c.DefaultQuery("sortBy", "createdAt"),
			SortOrder:  c.DefaultQuery("sortOrder", "desc"),
			Page:       page,
			PageSize:   pageSize,
		}
		items, total, err := repo.List(c.Request.Context(), q)
		if err != nil {
			httpx.ServerError(c, err, gin.Mode() != gin.ReleaseMode)
			return
		}
		httpx.Paginated(c, items, total, page, pageSize)
	}
}

// GetHandler returns the product detail page payload. Views are bumped
// and, for logged-in callers, a browse-history row is written; neither
// failure should break the read.
func GetHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		d, err := repo.GetByID(c.Request.Context(), id)
		if err != nil {
			httpx.NotFound(c, ErrNotFound.Error())
			return
		}
		if err := repo.IncrementViews(c.Request.Context(), id); err != nil {
			log.Printf("[product] increment views %s: %v", id, err)
		}
		if userID := httpx.UserID(c); userID != "" {
			if err := repo.RecordBrowse(c.Request.Context(), userID, id); err != nil {
				log.Printf("[product] record browse %s: %v", id, err)
			}
		}
		httpx.OK(c, d)
	}
}

func CategoriesHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		cats, err := repo.Categories(c.Request.Context())
		if err != nil {
			httpx.ServerError(c, err, gin.Mode() != gin.ReleaseMode)
			return
		}
		httpx.OK(c, cats)
	}
}

func SearchSuggestionsHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		keyword := c.Query("keyword")
		if keyword == "" {
			httpx.BadRequest(c, "keyword不能为空")
			return
		}
		products, err := repo.SearchSuggestions(c.Request.Context(), keyword)
		if err != nil {
			httpx.ServerError(c, err, gin.Mode() != gin.ReleaseMode)
			return
		}
		httpx.OK(c, gin.H{
			"keywords": []string{keyword, keyword + " 新款", keyword + " 优惠"},
			"products": products,
		})
	}
}

func RecommendedHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := repo.Recommended(c.Request.Context(), 10)
		if err != nil {
			httpx.ServerError(c, err, gin.Mode() != gin.ReleaseMode)
			return
		}
		httpx.OK(c, products)
	}
}

func FlashSaleHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := httpx.PageQuery(c)
		items, total, err := repo.FlashSale(c.Request.Context(), page, pageSize)
		if err != nil {
			httpx.ServerError(c, err, gin.Mode() != gin.ReleaseMode)
			return
		}
		httpx.Paginated(c, items, total, page, pageSize)
	}
}
