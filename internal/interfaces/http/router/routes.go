package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// CartRoutes returns the /cart routes
func CartRoutes(h *handler.CartHandler) *DomainGroup {
	return NewDomainGroup("cart", "/cart").
		GET("", h.GetCart).
		DELETE("", h.Clear).
		POST("/items", h.AddItem).
		PATCH("/items/:lineId", h.UpdateQuantity).
		DELETE("/items/:lineId", h.RemoveItem).
		GET("/notification", h.GetNotification)
}

// CheckoutRoutes returns the /checkout route
func CheckoutRoutes(h *handler.CheckoutHandler) *DomainGroup {
	return NewDomainGroup("checkout", "/checkout").
		POST("", h.Submit)
}

// SystemRoutes returns the /system routes
func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	return NewDomainGroup("system", "/system").
		GET("/ping", h.Ping)
}

// RegisterSwagger mounts the API docs at /swagger behind SwaggerProtection
func RegisterSwagger(engine *gin.Engine, cfg middleware.SwaggerConfig) {
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)
}
