package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"velora_back_end/internal/handlers/admin"
	"velora_back_end/internal/handlers/invoice"
	"velora_back_end/internal/handlers/orders"
	"velora_back_end/internal/handlers/payement"
	"velora_back_end/internal/handlers/product"
	"velora_back_end/internal/handlers/user"
	"velora_back_end/internal/metrics"
	"velora_back_end/internal/middleware"
)

// RegisterRoutes branche toute la surface HTTP sous /api
func RegisterRoutes(r *gin.Engine, sink metrics.Sink) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(middleware.Metrics(sink))

	// Webhook Stripe : pas d'auth, la signature fait foi
	api.POST("/webhook/stripe", payement.StripeWebhook)

	api.GET("/metrics", middleware.AuthRequired(), middleware.RequireAdmin, func(c *gin.Context) {
		c.JSON(http.StatusOK, sink.Snapshot())
	})

	// ---------- Auth ----------
	auth := api.Group("/auth")
	{
		auth.POST("/register", middleware.RegisterRateLimit(), user.CreateUser)
		auth.POST("/login", middleware.LoginRateLimit(), user.Login)
		auth.POST("/refresh", user.RefreshToken)
		auth.POST("/forgot-password", middleware.LoginRateLimit(), user.ForgotPassword)
		auth.POST("/reset-password", user.ResetPassword)

		auth.GET("/:provider", user.BeginAuth)
		auth.GET("/:provider/callback", user.CallbackAuth)

		authed := auth.Group("")
		authed.Use(middleware.AuthRequired())
		{
			authed.GET("/me", user.Me)
			authed.POST("/logout", user.Logout)
			authed.PUT("/password", user.ChangePassword)
			authed.DELETE("/account", user.DeleteAccount)
		}
	}

	// ---------- Catalogue ----------
	products := api.Group("/products")
	products.Use(middleware.APIRateLimit())
	{
		products.GET("", product.GetAllProducts)
		products.GET("/categories", product.GetAllCategories)
		products.GET("/search", middleware.SearchRateLimit(), product.SearchProducts)
		products.GET("/:id", product.GetProduct)
		products.GET("/:id/images", product.GetProductImages)

		staff := products.Group("")
		staff.Use(middleware.AuthRequired(), middleware.RequireStaff)
		{
			staff.POST("", product.CreateProduct)
			staff.PUT("/:id", product.UpdateProduct)
			staff.DELETE("/:id", product.DeleteProduct)

			staff.GET("/low-stock", product.GetLowStockProducts)
			staff.PUT("/:id/stock", product.UpdateStock)
			staff.GET("/stock/movements", product.GetStockMovements)
			staff.GET("/stock/alerts", product.GetLowStockAlerts)
			staff.PUT("/stock/alerts/:id/resolve", product.ResolveStockAlert)
			staff.GET("/stock/stats", product.GetInventoryStats)

			staff.POST("/categories", product.CreateCategory)
			staff.PUT("/categories/:id", product.UpdateCategory)
			staff.DELETE("/categories/:id", product.DeleteCategory)

			staff.POST("/:id/images", product.UploadProductImage)
			staff.DELETE("/:id/images", product.DeleteProductImage)
		}
	}

	// ---------- Panier ----------
	cart := api.Group("/cart")
	cart.Use(middleware.AuthRequired(), middleware.CartRateLimit())
	{
		cart.GET("", user.GetCart)
		cart.POST("", user.AddToCart)
		cart.PUT("/:productId", user.UpdateCartItem)
		cart.DELETE("/:productId", user.RemoveFromCart)
		cart.DELETE("", user.ClearCart)
		cart.GET("/ws", user.CartWebSocket)
	}

	// ---------- Adresses / wishlist ----------
	account := api.Group("")
	account.Use(middleware.AuthRequired())
	{
		account.GET("/addresses", user.ListMyAddresses)
		account.POST("/addresses", user.CreateAddress)
		account.DELETE("/addresses/:id", user.DeleteAddress)

		account.GET("/wishlist", user.GetWishlist)
		account.POST("/wishlist/:productId", user.AddToWishlist)
		account.DELETE("/wishlist/:productId", user.RemoveFromWishlist)
	}

	// ---------- Commandes ----------
	ordersGroup := api.Group("/orders")
	ordersGroup.Use(middleware.AuthRequired())
	{
		ordersGroup.POST("", orders.CreateOrder)
		ordersGroup.GET("", orders.GetMyOrders)
		ordersGroup.GET("/stats", orders.GetOrderStats)
		ordersGroup.GET("/all", middleware.RequireStaff, orders.ListAllOrders)
		ordersGroup.GET("/:id", orders.GetOrderByID)
		ordersGroup.PUT("/:id/status", middleware.RequireStaff, orders.UpdateOrderStatus)
		ordersGroup.POST("/:id/pay", orders.PayOrder)
		ordersGroup.POST("/:id/cancel", orders.CancelOrder)
		ordersGroup.POST("/:id/refund", payement.RequestRefund)
	}

	// ---------- Checkout / paiement ----------
	checkout := api.Group("")
	checkout.Use(middleware.AuthRequired())
	{
		checkout.POST("/checkout", payement.Checkout)
		checkout.GET("/shipping/options", payement.GetShippingOptions)
		checkout.GET("/coupons/validate", payement.ValidateCouponDetailed)
		checkout.POST("/invoice/:id/send", invoice.SendInvoice)
		checkout.GET("/refunds", payement.GetUserRefunds)
	}

	// ---------- Administration ----------
	adminGroup := api.Group("/admin")
	adminGroup.Use(middleware.AuthRequired(), middleware.RequireStaff)
	{
		adminGroup.GET("/dashboard", payement.GetDashboardStats)

		adminGroup.GET("/coupons", payement.GetAllCoupons)
		adminGroup.POST("/coupons", payement.CreateCoupon)
		adminGroup.PUT("/coupons/:id", payement.UpdateCoupon)
		adminGroup.DELETE("/coupons/:id", payement.DeleteCoupon)

		adminGroup.GET("/refunds", payement.GetAllRefunds)
		adminGroup.PUT("/refunds/:id", payement.ProcessRefund)

		adminOnly := adminGroup.Group("")
		adminOnly.Use(middleware.RequireAdmin)
		{
			adminOnly.GET("/users", admin.ListUsers)
			adminOnly.PUT("/users/:id/role", admin.UpdateUserRole)
			adminOnly.PUT("/users/:id/active", admin.SetUserActive)

			adminOnly.GET("/audit-logs", admin.GetAuditLogs)
			adminOnly.GET("/audit-logs/:resource/:resource_id", admin.GetAuditLogsByResource)
		}
	}
}
