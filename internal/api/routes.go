package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bazaar-backend-go/internal/config"
	"bazaar-backend-go/internal/db"
	"bazaar-backend-go/internal/middleware"
)

// SetupRoutes configures all application routes with their handlers and
// middleware. Global middleware (logging, recovery, CORS) is expected to be
// applied to the router before this is called, typically in main.go.
func SetupRoutes(
	router *gin.Engine,
	appConfig *config.Config,
	logger *zap.Logger,
	authService AuthService,
	products db.ProductRepository,
) {
	// The auth middleware needs the Firebase Auth client; it must be
	// available after db.InitFirebase().
	firebaseAuthClient := db.GetFirebaseAuthClient()
	if firebaseAuthClient == nil {
		logger.Fatal("Firebase Auth client is not initialized; cannot secure routes")
		panic("Firebase Auth client is nil during route setup. Ensure db.InitFirebase() was called and succeeded.")
	}
	authMW := middleware.NewAuthMiddleware(firebaseAuthClient, logger)

	authHandler := NewAuthHandler(authService)
	productHandler := NewProductHandler(products, logger)
	streamHandler := NewStreamHandler(products, authService, logger)

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/signup", authHandler.SignUp)
			authGroup.POST("/signin", authHandler.SignIn)
			authGroup.POST("/signout", authMW.VerifyToken(), authHandler.SignOut)
			authGroup.GET("/me", authMW.VerifyToken(), authHandler.Me)
		}

		productsGroup := apiV1.Group("/products")
		{
			// Browsing is public; the marketplace has no read restrictions.
			productsGroup.GET("", productHandler.ListProducts)
			productsGroup.GET("/stream", streamHandler.StreamProducts)

			// Owner-scoped routes come before the :productId wildcard.
			productsGroup.GET("/mine", authMW.VerifyToken(), productHandler.ListMyProducts)
			productsGroup.GET("/mine/stream", authMW.VerifyToken(), streamHandler.StreamMyProducts)

			productsGroup.GET("/:productId", productHandler.GetProduct)
			productsGroup.POST("", authMW.VerifyToken(), productHandler.CreateProduct)
			productsGroup.DELETE("/:productId", authMW.VerifyToken(), productHandler.DeleteProduct)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Bazaar backend is healthy."})
	})

	logger.Info("API routes configured successfully under /api/v1 and /health.")
}
