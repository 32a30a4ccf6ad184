package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bazaar-backend-go/internal/db"
	"bazaar-backend-go/internal/middleware"
	"bazaar-backend-go/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// asCaller simulates a request that already passed token verification.
func asCaller(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			c.Set(middleware.ContextUserIDKey, user.UID)
			c.Set(middleware.ContextUserEmailKey, user.Email)
			c.Set(middleware.ContextUserNameKey, user.Name)
		}
		c.Next()
	}
}

// fakeAuthService is a scriptable AuthService.
type fakeAuthService struct {
	user       *models.User
	token      *db.IdentityToken
	signUpErr  error
	signInErr  error
	profileErr error
}

func newFakeAuthService() *fakeAuthService {
	return &fakeAuthService{
		user:  &models.User{UID: "uid-1", Name: "Ada", Email: "ada@example.com"},
		token: &db.IdentityToken{UID: "uid-1", IDToken: "id-token", RefreshToken: "refresh-token"},
	}
}

func (f *fakeAuthService) SignUp(ctx context.Context, email, password, name string) (*models.User, error) {
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return f.user, nil
}

func (f *fakeAuthService) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	user, _, err := f.SignInWithToken(ctx, email, password)
	return user, err
}

func (f *fakeAuthService) SignInWithToken(ctx context.Context, email, password string) (*models.User, *db.IdentityToken, error) {
	if f.signInErr != nil {
		return nil, nil, f.signInErr
	}
	return f.user, f.token, nil
}

func (f *fakeAuthService) SignOut(ctx context.Context) error { return nil }

func (f *fakeAuthService) CurrentUser(ctx context.Context) *models.User { return f.user }

func (f *fakeAuthService) AuthState(ctx context.Context) <-chan *models.User {
	out := make(chan *models.User)
	go func() {
		<-ctx.Done()
		close(out)
	}()
	return out
}

func (f *fakeAuthService) Profile(ctx context.Context, uid string) (*models.User, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.user, nil
}

// fakeProducts is a scriptable db.ProductRepository.
type fakeProducts struct {
	mu          sync.Mutex
	listing     []models.Product
	product     *models.Product
	getErr      error
	createID    string
	createErr   error
	deleteErr   error
	deletedIDs  []string
	lastSession db.Session
	created     []models.Product
	images      [][]models.ImageUpload
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{createID: "prod-1"}
}

func (f *fakeProducts) WithSession(session db.Session) db.ProductRepository {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSession = session
	return f
}

func (f *fakeProducts) CreateProduct(ctx context.Context, product models.Product, images []models.ImageUpload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, product)
	f.images = append(f.images, images)
	if f.createErr != nil {
		return "", f.createErr
	}
	return f.createID, nil
}

func (f *fakeProducts) emit(ctx context.Context) <-chan []models.Product {
	out := make(chan []models.Product, 1)
	f.mu.Lock()
	listing := append([]models.Product(nil), f.listing...)
	f.mu.Unlock()
	out <- listing
	go func() {
		<-ctx.Done()
		close(out)
	}()
	return out
}

func (f *fakeProducts) GetProducts(ctx context.Context) <-chan []models.Product {
	return f.emit(ctx)
}

func (f *fakeProducts) GetUserProducts(ctx context.Context, ownerID string) <-chan []models.Product {
	return f.emit(ctx)
}

func (f *fakeProducts) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.product != nil {
		return f.product, nil
	}
	return &models.Product{ID: productID}, nil
}

func (f *fakeProducts) UploadImages(ctx context.Context, images []models.ImageUpload, productID string) ([]string, error) {
	return nil, nil
}

func (f *fakeProducts) DeleteProduct(ctx context.Context, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedIDs = append(f.deletedIDs, productID)
	return nil
}

func testRouter(auth *fakeAuthService, products *fakeProducts, caller *models.User) *gin.Engine {
	router := gin.New()
	authHandler := NewAuthHandler(auth)
	productHandler := NewProductHandler(products, zap.NewNop())

	router.POST("/auth/signup", authHandler.SignUp)
	router.POST("/auth/signin", authHandler.SignIn)
	router.POST("/auth/signout", asCaller(caller), authHandler.SignOut)
	router.GET("/auth/me", asCaller(caller), authHandler.Me)

	router.GET("/products", productHandler.ListProducts)
	router.GET("/products/mine", asCaller(caller), productHandler.ListMyProducts)
	router.GET("/products/:productId", productHandler.GetProduct)
	router.POST("/products", asCaller(caller), productHandler.CreateProduct)
	router.DELETE("/products/:productId", asCaller(caller), productHandler.DeleteProduct)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSignUpEndpoint(t *testing.T) {
	auth := newFakeAuthService()
	router := testRouter(auth, newFakeProducts(), nil)

	rec := doJSON(t, router, http.MethodPost, "/auth/signup", map[string]string{
		"email": "ada@example.com", "password": "secret1", "name": "Ada",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "uid-1", user.UID)
}

func TestSignUpEndpointValidation(t *testing.T) {
	router := testRouter(newFakeAuthService(), newFakeProducts(), nil)

	tests := []struct {
		name        string
		body        map[string]string
		wantMessage string
	}{
		{"bad email", map[string]string{"email": "nope", "password": "secret1", "name": "Ada"}, "Invalid email format"},
		{"short password", map[string]string{"email": "a@b.co", "password": "123", "name": "Ada"}, "Password must be at least 6 characters"},
		{"missing name", map[string]string{"email": "a@b.co", "password": "secret1"}, "Name is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/auth/signup", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantMessage, resp.Error)
		})
	}
}

func TestSignInEndpoint(t *testing.T) {
	router := testRouter(newFakeAuthService(), newFakeProducts(), nil)

	rec := doJSON(t, router, http.MethodPost, "/auth/signin", map[string]string{
		"email": "ada@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SignInResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "uid-1", resp.User.UID)
	assert.Equal(t, "id-token", resp.IDToken)
	assert.Equal(t, "refresh-token", resp.RefreshToken)
}

func TestSignInEndpointRejectsBadCredentials(t *testing.T) {
	auth := newFakeAuthService()
	auth.signInErr = db.ErrInvalidCredentials
	router := testRouter(auth, newFakeProducts(), nil)

	rec := doJSON(t, router, http.MethodPost, "/auth/signin", map[string]string{
		"email": "ada@example.com", "password": "wrong1",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeEndpoint(t *testing.T) {
	caller := &models.User{UID: "uid-1", Email: "ada@example.com"}
	router := testRouter(newFakeAuthService(), newFakeProducts(), caller)

	rec := doJSON(t, router, http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "uid-1", user.UID)
}

func TestMeEndpointWithMissingProfile(t *testing.T) {
	auth := newFakeAuthService()
	auth.profileErr = fmt.Errorf("profile for 'uid-1' not found: %w", db.ErrNotFound)
	caller := &models.User{UID: "uid-1", Email: "ada@example.com"}
	router := testRouter(auth, newFakeProducts(), caller)

	rec := doJSON(t, router, http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "uid-1", user.UID)
	assert.Empty(t, user.Name)
}

func TestMeEndpointUnauthenticated(t *testing.T) {
	router := testRouter(newFakeAuthService(), newFakeProducts(), nil)
	rec := doJSON(t, router, http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListProductsEndpoint(t *testing.T) {
	products := newFakeProducts()
	products.listing = []models.Product{{ID: "a", CreatedAt: 200}, {ID: "b", CreatedAt: 100}}
	router := testRouter(newFakeAuthService(), products, nil)

	rec := doJSON(t, router, http.MethodGet, "/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listing []models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Len(t, listing, 2)
	assert.Equal(t, "a", listing[0].ID)
}

func TestGetProductEndpointNotFound(t *testing.T) {
	products := newFakeProducts()
	products.getErr = fmt.Errorf("product 'missing' not found: %w", db.ErrNotFound)
	router := testRouter(newFakeAuthService(), products, nil)

	rec := doJSON(t, router, http.MethodGet, "/products/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func multipartListing(t *testing.T, fields map[string]string, imageCount int) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for i := 0; i < imageCount; i++ {
		part, err := w.CreateFormFile("images", fmt.Sprintf("img_%d.jpg", i))
		require.NoError(t, err)
		_, err = part.Write([]byte{0xff, 0xd8, 0xff})
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func validListingFields() map[string]string {
	return map[string]string{
		"title":       "Mountain bike",
		"category":    "Sports",
		"mrp":         "500",
		"askingPrice": "350.5",
		"description": "Well maintained, single owner.",
		"city":        "Pune",
		"year":        fmt.Sprintf("%d", time.Now().Year()),
		"condition":   "Good",
	}
}

func TestCreateProductEndpoint(t *testing.T) {
	products := newFakeProducts()
	caller := &models.User{UID: "uid-1", Email: "ada@example.com"}
	router := testRouter(newFakeAuthService(), products, caller)

	body, contentType := multipartListing(t, validListingFields(), 3)
	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp CreateProductResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "prod-1", resp.ID)

	products.mu.Lock()
	defer products.mu.Unlock()
	require.Len(t, products.created, 1)
	assert.Equal(t, "Mountain bike", products.created[0].Title)
	assert.Equal(t, 500.0, products.created[0].MRP)
	assert.Len(t, products.images[0], 3)
	require.NotNil(t, products.lastSession)
	assert.Equal(t, "uid-1", products.lastSession.Current().UID)
}

func TestCreateProductEndpointRejections(t *testing.T) {
	caller := &models.User{UID: "uid-1"}

	t.Run("too few images", func(t *testing.T) {
		router := testRouter(newFakeAuthService(), newFakeProducts(), caller)
		body, contentType := multipartListing(t, validListingFields(), 2)
		req := httptest.NewRequest(http.MethodPost, "/products", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.True(t, strings.Contains(rec.Body.String(), "Please select at least 3 images"))
	})

	t.Run("invalid field", func(t *testing.T) {
		router := testRouter(newFakeAuthService(), newFakeProducts(), caller)
		fields := validListingFields()
		fields["year"] = "1899"
		body, contentType := multipartListing(t, fields, 3)
		req := httptest.NewRequest(http.MethodPost, "/products", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.True(t, strings.Contains(rec.Body.String(), "Year cannot be before 1900"))
	})

	t.Run("unknown category", func(t *testing.T) {
		router := testRouter(newFakeAuthService(), newFakeProducts(), caller)
		fields := validListingFields()
		fields["category"] = "Appliances"
		body, contentType := multipartListing(t, fields, 3)
		req := httptest.NewRequest(http.MethodPost, "/products", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.True(t, strings.Contains(rec.Body.String(), "Invalid category"))
	})

	t.Run("unauthenticated", func(t *testing.T) {
		router := testRouter(newFakeAuthService(), newFakeProducts(), nil)
		body, contentType := multipartListing(t, validListingFields(), 3)
		req := httptest.NewRequest(http.MethodPost, "/products", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestDeleteProductEndpoint(t *testing.T) {
	products := newFakeProducts()
	caller := &models.User{UID: "uid-1"}
	router := testRouter(newFakeAuthService(), products, caller)

	rec := doJSON(t, router, http.MethodDelete, "/products/prod-1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	products.mu.Lock()
	defer products.mu.Unlock()
	assert.Equal(t, []string{"prod-1"}, products.deletedIDs)
}

func TestDeleteProductEndpointErrorMapping(t *testing.T) {
	caller := &models.User{UID: "uid-1"}

	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"not found", fmt.Errorf("product 'x' not found: %w", db.ErrNotFound), http.StatusNotFound},
		{"not owner", db.ErrNotOwner, http.StatusForbidden},
		{"unexpected", errors.New("firestore unavailable"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products := newFakeProducts()
			products.deleteErr = tt.err
			router := testRouter(newFakeAuthService(), products, caller)

			rec := doJSON(t, router, http.MethodDelete, "/products/prod-1", nil)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestListMyProductsEndpoint(t *testing.T) {
	products := newFakeProducts()
	products.listing = []models.Product{{ID: "mine", OwnerID: "uid-1"}}
	caller := &models.User{UID: "uid-1"}
	router := testRouter(newFakeAuthService(), products, caller)

	rec := doJSON(t, router, http.MethodGet, "/products/mine", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listing []models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Len(t, listing, 1)
	assert.Equal(t, "mine", listing[0].ID)
}
