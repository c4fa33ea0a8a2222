// @title MiniMall API
// @version 1.0
// @description REST backend for the MiniMall shopping app and its admin console.
// @BasePath /api
package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/time/rate"

	_ "github.com/minimall/minimall/docs"
	"github.com/minimall/minimall/internal/admin"
	"github.com/minimall/minimall/internal/auth"
	"github.com/minimall/minimall/internal/banner"
	"github.com/minimall/minimall/internal/cart"
	"github.com/minimall/minimall/internal/config"
	"github.com/minimall/minimall/internal/coupon"
	"github.com/minimall/minimall/internal/httpx"
	"github.com/minimall/minimall/internal/order"
	"github.com/minimall/minimall/internal/post"
	"github.com/minimall/minimall/internal/product"
	"github.com/minimall/minimall/internal/ranking"
	"github.com/minimall/minimall/internal/user"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("[api] postgres: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("[api] postgres ping: %v", err)
	}
	log.Println("[api] connected to postgres")

	var rankCache ranking.Cache = ranking.NoopCache{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("[api] redis unavailable, rankings uncached: %v", err)
		} else {
			rankCache = ranking.NewRedisCache(rdb)
			log.Println("[api] connected to redis")
		}
	}

	jwtSvc := auth.NewJWTService(cfg.JWTSecret, cfg.JWTRefreshSecret,
		cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	userSvc := user.NewService(user.NewPGRepo(pool), jwtSvc)
	productRepo := product.NewPGRepo(pool)
	cartSvc := cart.NewService(cart.NewPGRepo(pool))
	couponSvc := coupon.NewService(coupon.NewPGRepo(pool))
	orderSvc := order.NewService(order.NewPGRepo(pool))
	postSvc := post.NewService(post.NewPGRepo(pool))
	bannerRepo := banner.NewPGRepo(pool)
	rankingSvc := ranking.NewService(ranking.NewPGRepo(pool), rankCache)
	adminRepo := admin.NewPGRepo(pool)
	adminSvc := admin.NewService(adminRepo, jwtSvc)

	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(),
		httpx.RateLimit(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	userAuth := httpx.Auth(jwtSvc, auth.ScopeUser)
	adminAuth := httpx.Auth(jwtSvc, auth.ScopeAdmin)
	optAuth := httpx.OptionalAuth(jwtSvc)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/send-code", user.SendCodeHandler(userSvc))
		authGroup.POST("/register", user.RegisterHandler(userSvc))
		authGroup.POST("/login", user.LoginHandler(userSvc))
		authGroup.POST("/refresh", user.RefreshHandler(userSvc))
	}

	userGroup := api.Group("/user", userAuth)
	{
		userGroup.GET("/profile", user.MeHandler(userSvc))
		userGroup.PUT("/profile", user.UpdateProfileHandler(userSvc))
		userGroup.PUT("/password", user.ChangePasswordHandler(userSvc))

		userGroup.GET("/addresses", user.AddressListHandler(userSvc))
		userGroup.POST("/addresses", user.AddressCreateHandler(userSvc))
		userGroup.PUT("/addresses/:id", user.AddressUpdateHandler(userSvc))
		userGroup.DELETE("/addresses/:id", user.AddressDeleteHandler(userSvc))
		userGroup.PUT("/addresses/:id/default", user.AddressSetDefaultHandler(userSvc))

		userGroup.GET("/favorites", user.FavoriteListHandler(userSvc))
		userGroup.POST("/favorites", user.FavoriteAddHandler(userSvc))
		userGroup.DELETE("/favorites/:productId", user.FavoriteRemoveHandler(userSvc))

		userGroup.GET("/history", user.HistoryListHandler(userSvc))
		userGroup.DELETE("/history", user.HistoryClearHandler(userSvc))

		userGroup.POST("/follows/:id", user.FollowHandler(userSvc))
		userGroup.DELETE("/follows/:id", user.UnfollowHandler(userSvc))
		userGroup.GET("/followers", user.FollowerListHandler(userSvc))
		userGroup.GET("/following", user.FollowingListHandler(userSvc))
	}

	products := api.Group("/products")
	{
		products.GET("", product.ListHandler(productRepo))
		products.GET("/recommended", product.RecommendedHandler(productRepo))
		products.GET("/flash-sale", product.FlashSaleHandler(productRepo))
		products.GET("/search-suggestions", product.SearchSuggestionsHandler(productRepo))
		products.GET("/:id", optAuth, product.GetHandler(productRepo))
	}
	api.GET("/categories", product.CategoriesHandler(productRepo))
	api.GET("/banners", banner.ActiveHandler(bannerRepo))
	api.GET("/rankings/:type", ranking.BoardHandler(rankingSvc))

	cartGroup := api.Group("/cart", userAuth)
	{
		cartGroup.GET("", cart.GetHandler(cartSvc))
		cartGroup.POST("", cart.AddHandler(cartSvc))
		cartGroup.PUT("/select-all", cart.SelectAllHandler(cartSvc))
		cartGroup.PUT("/:id", cart.UpdateHandler(cartSvc))
		cartGroup.DELETE("/clear", cart.ClearHandler(cartSvc))
		cartGroup.DELETE("/:id", cart.DeleteHandler(cartSvc))
	}

	orders := api.Group("/orders", userAuth)
	{
		orders.POST("", order.CreateHandler(orderSvc))
		orders.GET("", order.ListHandler(orderSvc))
		orders.GET("/:id", order.GetHandler(orderSvc))
		orders.POST("/:id/pay", order.PayHandler(orderSvc))
		orders.POST("/:id/cancel", order.CancelHandler(orderSvc))
		orders.POST("/:id/confirm", order.ConfirmHandler(orderSvc))
		orders.POST("/:id/refund", order.RefundHandler(orderSvc))
	}

	coupons := api.Group("/coupons")
	{
		coupons.GET("", coupon.ListHandler(couponSvc))
		coupons.POST("/:id/claim", userAuth, coupon.ClaimHandler(couponSvc))
		coupons.GET("/my", userAuth, coupon.MyHandler(couponSvc))
		coupons.GET("/available", userAuth, coupon.AvailableHandler(couponSvc))
	}

	posts := api.Group("/posts")
	{
		posts.GET("", optAuth, post.FeedHandler(postSvc))
		posts.GET("/my", userAuth, post.MyPostsHandler(postSvc))
		posts.GET("/:id", optAuth, post.GetHandler(postSvc))
		posts.POST("", userAuth, post.CreateHandler(postSvc))
		posts.POST("/:id/like", userAuth, post.ToggleLikeHandler(postSvc))
		posts.GET("/:id/comments", post.CommentListHandler(postSvc))
		posts.POST("/:id/comments", userAuth, post.CommentCreateHandler(postSvc))
		posts.DELETE("/comments/:commentId", userAuth, post.CommentDeleteHandler(postSvc))
	}

	adminGroup := api.Group("/admin")
	{
		adminGroup.POST("/login", admin.LoginHandler(adminSvc))

		mgmt := adminGroup.Group("", adminAuth)
		mgmt.GET("/dashboard", admin.DashboardHandler(adminRepo))

		mgmt.GET("/products", admin.ProductListHandler(adminRepo))
		mgmt.POST("/products", admin.ProductCreateHandler(adminRepo))
		mgmt.PUT("/products/:id", admin.ProductUpdateHandler(adminRepo))
		mgmt.PUT("/products/:id/status", admin.ProductStatusHandler(adminRepo))
		mgmt.DELETE("/products/:id", admin.ProductDeleteHandler(adminRepo))

		mgmt.GET("/orders", order.AdminListHandler(orderSvc))
		mgmt.GET("/orders/:id", order.AdminGetHandler(orderSvc))
		mgmt.POST("/orders/:id/ship", order.ShipHandler(orderSvc))
		mgmt.GET("/refunds", order.RefundListHandler(orderSvc))
		mgmt.POST("/refunds/:id/process", order.ProcessRefundHandler(orderSvc))

		mgmt.GET("/users", admin.UserListHandler(adminRepo))
		mgmt.PUT("/users/:id/status", admin.UserStatusHandler(adminRepo))

		mgmt.GET("/posts", post.ReviewListHandler(postSvc))
		mgmt.PUT("/posts/:id/review", post.ReviewHandler(postSvc))
		mgmt.DELETE("/posts/:id", post.RemoveHandler(postSvc))

		mgmt.GET("/coupons", admin.CouponListHandler(adminSvc))
		mgmt.POST("/coupons", admin.CouponCreateHandler(adminRepo))
		mgmt.PUT("/coupons/:id", admin.CouponUpdateHandler(adminRepo))
		mgmt.DELETE("/coupons/:id", admin.CouponDeleteHandler(adminRepo))

		mgmt.GET("/banners", banner.AdminListHandler(bannerRepo))
		mgmt.POST("/banners", banner.AdminCreateHandler(bannerRepo))
		mgmt.PUT("/banners/:id", banner.AdminUpdateHandler(bannerRepo))
		mgmt.DELETE("/banners/:id", banner.AdminDeleteHandler(bannerRepo))

		mgmt.POST("/categories", admin.CategoryCreateHandler(adminRepo))
		mgmt.PUT("/categories/:id", admin.CategoryUpdateHandler(adminRepo))
		mgmt.DELETE("/categories/:id", admin.CategoryDeleteHandler(adminRepo))
	}

	log.Printf("[api] listening on %s", cfg.Addr)
	if err := r.Run(cfg.Addr); err != nil {
		log.Fatalf("[api] server: %v", err)
	}
}
