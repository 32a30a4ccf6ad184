package api

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bazaar-backend-go/internal/db"
	"bazaar-backend-go/internal/middleware"
	"bazaar-backend-go/internal/models"
	"bazaar-backend-go/internal/validation"
)

// How long a list endpoint waits for the first snapshot from a live query
// before giving up.
const listSnapshotTimeout = 10 * time.Second

// Minimum number of images a new listing must carry.
const minListingImages = 3

// ProductHandler holds dependencies for product-related endpoints. Mutating
// and owner-scoped operations re-bind the repository to the request's
// verified caller via WithSession.
type ProductHandler struct {
	products db.ProductRepository
	logger   *zap.Logger
}

// NewProductHandler creates a ProductHandler.
func NewProductHandler(products db.ProductRepository, logger *zap.Logger) *ProductHandler {
	if products == nil {
		panic("ProductRepository cannot be nil in NewProductHandler")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductHandler{products: products, logger: logger}
}

// mapProductErrorToStatus translates repository errors into HTTP responses.
func mapProductErrorToStatus(c *gin.Context, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Product not found", Details: err.Error()})
	case errors.Is(err, db.ErrNotOwner):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, db.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "An unexpected error occurred", Details: err.Error()})
	}
}

// callerRepo returns the repository scoped to the request's verified caller,
// or nil if the request carries no identity.
func (h *ProductHandler) callerRepo(c *gin.Context) db.ProductRepository {
	caller := middleware.CallerFromContext(c)
	if caller == nil {
		return nil
	}
	return h.products.WithSession(db.NewStaticSession(caller))
}

// firstSnapshot waits for the initial emission of a live product query. The
// REST list endpoints are one-shot; streaming clients use the SSE routes.
func firstSnapshot(ctx context.Context, products <-chan []models.Product) ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, listSnapshotTimeout)
	defer cancel()
	select {
	case snapshot, ok := <-products:
		if !ok {
			return nil, errors.New("product subscription closed before the first snapshot")
		}
		return snapshot, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ListProducts handles GET /products: the current state of all listings,
// newest first.
func (h *ProductHandler) ListProducts(c *gin.Context) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	snapshot, err := firstSnapshot(ctx, h.products.GetProducts(ctx))
	if err != nil {
		h.logger.Error("Failed to load product snapshot", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load products", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// ListMyProducts handles GET /products/mine: the caller's own listings,
// newest first.
func (h *ProductHandler) ListMyProducts(c *gin.Context) {
	caller := middleware.CallerFromContext(c)
	if caller == nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	snapshot, err := firstSnapshot(ctx, h.products.GetUserProducts(ctx, caller.UID))
	if err != nil {
		h.logger.Error("Failed to load user product snapshot", zap.String("uid", caller.UID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load products", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// GetProduct handles GET /products/:productId.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	productID := c.Param("productId")
	if productID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Product ID is required"})
		return
	}

	product, err := h.products.GetProduct(c.Request.Context(), productID)
	if err != nil {
		mapProductErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// CreateProduct handles POST /products (multipart/form-data). Text fields
// arrive as raw form values and are validated before any parsing; image parts
// come in under the "images" key and at least three are required. Validation
// messages are returned verbatim.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	repo := h.callerRepo(c)
	if repo == nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid multipart form", Details: err.Error()})
		return
	}

	req := models.CreateProductRequest{
		Title:       c.PostForm("title"),
		Category:    c.PostForm("category"),
		MRP:         c.PostForm("mrp"),
		AskingPrice: c.PostForm("askingPrice"),
		Description: c.PostForm("description"),
		City:        c.PostForm("city"),
		Year:        c.PostForm("year"),
		Condition:   c.PostForm("condition"),
	}

	if err := validation.ValidateNewProduct(req.Title, req.MRP, req.AskingPrice, req.Description, req.City, req.Year); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if !models.IsValidCategory(req.Category) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid category"})
		return
	}
	if req.Condition != "" && !models.IsValidCondition(req.Condition) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid condition"})
		return
	}

	files := form.File["images"]
	if len(files) < minListingImages {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Please select at least 3 images"})
		return
	}
	images, err := readImageUploads(files)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to read uploaded image", Details: err.Error()})
		return
	}

	product, err := productFromRequest(c, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	productID, err := repo.CreateProduct(c.Request.Context(), product, images)
	if err != nil {
		mapProductErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, CreateProductResponse{ID: productID})
}

// DeleteProduct handles DELETE /products/:productId. Only the owner may
// delete a listing.
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	repo := h.callerRepo(c)
	if repo == nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	productID := c.Param("productId")
	if productID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Product ID is required"})
		return
	}

	if err := repo.DeleteProduct(c.Request.Context(), productID); err != nil {
		mapProductErrorToStatus(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// productFromRequest converts validated raw form values into a Product. The
// numeric fields are guaranteed parseable by the validators; latitude and
// longitude are optional and only set when both parse.
func productFromRequest(c *gin.Context, req models.CreateProductRequest) (models.Product, error) {
	mrp, _ := strconv.ParseFloat(req.MRP, 64)
	askingPrice, _ := strconv.ParseFloat(req.AskingPrice, 64)
	year, _ := strconv.Atoi(req.Year)

	product := models.Product{
		Title:       req.Title,
		Category:    req.Category,
		MRP:         mrp,
		AskingPrice: askingPrice,
		Description: req.Description,
		City:        req.City,
		Year:        year,
		Condition:   req.Condition,
	}

	if latRaw, lngRaw := c.PostForm("latitude"), c.PostForm("longitude"); latRaw != "" || lngRaw != "" {
		lat, latErr := strconv.ParseFloat(latRaw, 64)
		lng, lngErr := strconv.ParseFloat(lngRaw, 64)
		if latErr != nil || lngErr != nil {
			return models.Product{}, errors.New("Invalid location coordinates")
		}
		product.Latitude = &lat
		product.Longitude = &lng
	}

	return product, nil
}

// readImageUploads loads the multipart image parts into memory, preserving
// their order. Order matters: the first image becomes the cover image.
func readImageUploads(files []*multipart.FileHeader) ([]models.ImageUpload, error) {
	images := make([]models.ImageUpload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		images = append(images, models.ImageUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return images, nil
}
