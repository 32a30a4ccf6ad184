package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bazaar-backend-go/internal/db"
	"bazaar-backend-go/internal/middleware"
	"bazaar-backend-go/internal/viewmodel"
)

// StreamHandler exposes the live product subscriptions as Server-Sent Event
// streams. Each connection gets its own view-model, torn down when the client
// disconnects, so a dropped connection never leaks a Firestore listener.
type StreamHandler struct {
	products db.ProductRepository
	auth     db.AuthRepository
	logger   *zap.Logger
}

// NewStreamHandler creates a StreamHandler.
func NewStreamHandler(products db.ProductRepository, auth db.AuthRepository, logger *zap.Logger) *StreamHandler {
	if products == nil || auth == nil {
		panic("ProductRepository and AuthRepository cannot be nil in NewStreamHandler")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamHandler{products: products, auth: auth, logger: logger}
}

// StreamProducts handles GET /products/stream: every state transition of the
// full product list as an SSE "state" event. The payload is the UiState JSON
// encoding, so clients see loading/success/error the same way the REST
// surface reports them.
func (h *StreamHandler) StreamProducts(c *gin.Context) {
	vm := viewmodel.NewProductListViewModel(h.products, h.auth)
	defer vm.Close()

	states := vm.WatchUiState(c.Request.Context())

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case st, ok := <-states:
			if !ok {
				return false
			}
			c.SSEvent("state", st)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// StreamMyProducts handles GET /products/mine/stream: the caller's own
// listings, plus the outcome of any concurrent deletions the caller performs.
func (h *StreamHandler) StreamMyProducts(c *gin.Context) {
	caller := middleware.CallerFromContext(c)
	if caller == nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	session := db.NewStaticSession(caller)
	vm := viewmodel.NewMyUploadsViewModel(h.products.WithSession(session), session)
	defer vm.Close()

	states := vm.WatchUiState(c.Request.Context())
	vm.LoadMyProducts()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case st, ok := <-states:
			if !ok {
				return false
			}
			c.SSEvent("state", st)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
