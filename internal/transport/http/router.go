package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/celiafashion/storefront/internal/handlers"
)

type Deps struct {
	Product *handlers.ProductHandler
	Cart    *handlers.CartHandler
	Order   *handlers.OrderHandler
	Recs    *handlers.RecsHandler
	Search  *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/", d.Product.Live)

	api := e.Group("/api")

	api.GET("/products", d.Product.List)
	api.GET("/products/:id", d.Product.Get)
	api.GET("/categories", d.Product.Categories)
	api.POST("/add-product", d.Product.Create)
	api.DELETE("/delete-product/:id", d.Product.Delete)
	api.POST("/products/:id/view", d.Recs.TrackView)

	api.GET("/search", d.Search.Search)

	cart := api.Group("/cart")
	cart.GET("", d.Cart.Get)
	cart.POST("", d.Cart.Add)
	cart.PUT("/:id", d.Cart.SetQuantity)
	cart.DELETE("/:id", d.Cart.Remove)
	cart.POST("/:id/save", d.Cart.SaveForLater)
	cart.POST("/:id/move", d.Cart.MoveToCart)
	cart.POST("/coupon", d.Cart.ApplyCoupon)

	api.GET("/wishlist", d.Cart.Wishlist)
	api.POST("/wishlist/toggle", d.Cart.ToggleWishlist)

	api.POST("/checkout", d.Order.Checkout)
	orders := api.Group("/orders")
	orders.GET("", d.Order.List)
	orders.GET("/:id", d.Order.Get)
	orders.DELETE("/:id", d.Order.Cancel)

	api.GET("/recommendations", d.Recs.Recommendations)

	ai := api.Group("/ai")
	ai.POST("/assist", d.Recs.Assist)
	ai.POST("/analyze-cart", d.Recs.AnalyzeCart)
	ai.POST("/seo-article", d.Recs.SEOArticle)
	ai.POST("/size-guide", d.Recs.SizeGuide)
}
