package viewmodel

import (
	"context"
	"sync"

	"bazaar-backend-go/internal/db"
	"bazaar-backend-go/internal/models"
)

// fakeAuthRepo is a scriptable db.AuthRepository.
type fakeAuthRepo struct {
	mu           sync.Mutex
	user         *models.User
	signUpErr    error
	signInErr    error
	signUpCalls  int
	signInCalls  int
	signOutCalls int
	authFeed     chan *models.User
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{
		user:     &models.User{UID: "uid-1", Name: "Ada", Email: "ada@example.com"},
		authFeed: make(chan *models.User, 8),
	}
}

func (f *fakeAuthRepo) SignUp(ctx context.Context, email, password, name string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signUpCalls++
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return f.user, nil
}

func (f *fakeAuthRepo) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signInCalls++
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return f.user, nil
}

func (f *fakeAuthRepo) SignOut(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOutCalls++
	return nil
}

func (f *fakeAuthRepo) CurrentUser(ctx context.Context) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user
}

func (f *fakeAuthRepo) AuthState(ctx context.Context) <-chan *models.User {
	out := make(chan *models.User, 1)
	go func() {
		defer close(out)
		for {
			select {
			case user := <-f.authFeed:
				select {
				case out <- user:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (f *fakeAuthRepo) calls() (signUp, signIn, signOut int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signUpCalls, f.signInCalls, f.signOutCalls
}

// fakeProductRepo is a scriptable db.ProductRepository. Live subscriptions
// forward whatever the test pushes into feed / userFeed.
type fakeProductRepo struct {
	mu                   sync.Mutex
	createID             string
	createErr            error
	createdProducts      []models.Product
	createdImages        [][]models.ImageUpload
	product              *models.Product
	getErr               error
	deleteErr            error
	deletedIDs           []string
	getProductsCalls     int
	getUserProductsCalls int
	lastOwnerID          string
	feed                 chan []models.Product
	userFeed             chan []models.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		createID: "prod-1",
		feed:     make(chan []models.Product, 8),
		userFeed: make(chan []models.Product, 8),
	}
}

func (f *fakeProductRepo) CreateProduct(ctx context.Context, product models.Product, images []models.ImageUpload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createdProducts = append(f.createdProducts, product)
	f.createdImages = append(f.createdImages, images)
	if f.createErr != nil {
		return "", f.createErr
	}
	return f.createID, nil
}

func forward(ctx context.Context, in chan []models.Product) <-chan []models.Product {
	out := make(chan []models.Product, 1)
	go func() {
		defer close(out)
		for {
			select {
			case products := <-in:
				select {
				case out <- products:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (f *fakeProductRepo) GetProducts(ctx context.Context) <-chan []models.Product {
	f.mu.Lock()
	f.getProductsCalls++
	f.mu.Unlock()
	return forward(ctx, f.feed)
}

func (f *fakeProductRepo) GetUserProducts(ctx context.Context, ownerID string) <-chan []models.Product {
	f.mu.Lock()
	f.getUserProductsCalls++
	f.lastOwnerID = ownerID
	f.mu.Unlock()
	return forward(ctx, f.userFeed)
}

func (f *fakeProductRepo) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.product != nil {
		return f.product, nil
	}
	return &models.Product{ID: productID}, nil
}

func (f *fakeProductRepo) UploadImages(ctx context.Context, images []models.ImageUpload, productID string) ([]string, error) {
	return nil, nil
}

func (f *fakeProductRepo) DeleteProduct(ctx context.Context, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedIDs = append(f.deletedIDs, productID)
	return nil
}

func (f *fakeProductRepo) WithSession(session db.Session) db.ProductRepository {
	return f
}

func (f *fakeProductRepo) listCalls() (all, mine int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getProductsCalls, f.getUserProductsCalls
}

func (f *fakeProductRepo) lastCreated() (models.Product, []models.ImageUpload, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.createdProducts) == 0 {
		return models.Product{}, nil, false
	}
	last := len(f.createdProducts) - 1
	return f.createdProducts[last], f.createdImages[last], true
}
