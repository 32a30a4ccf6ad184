package viewmodel

import (
	"context"
	"sync"

	"bazaar-backend-go/internal/db"
	"bazaar-backend-go/internal/models"
	"bazaar-backend-go/internal/state"
)

// MyUploadsViewModel drives the "my uploads" screen: a live list of the
// caller's own listings plus a delete flow whose success reloads the list.
// The session is an explicit dependency rather than platform global state.
type MyUploadsViewModel struct {
	repo        db.ProductRepository
	session     db.Session
	uiState     *state.Store[state.UiState[[]models.Product]]
	deleteState *state.Store[state.UiState[struct{}]]
	ctx         context.Context
	cancel      context.CancelFunc

	mu        sync.Mutex
	subCancel context.CancelFunc
}

// NewMyUploadsViewModel creates the view-model; the list loads on demand via
// LoadMyProducts.
func NewMyUploadsViewModel(repo db.ProductRepository, session db.Session) *MyUploadsViewModel {
	ctx, cancel := context.WithCancel(context.Background())
	return &MyUploadsViewModel{
		repo:        repo,
		session:     session,
		uiState:     state.NewStore(state.Idle[[]models.Product]()),
		deleteState: state.NewStore(state.Idle[struct{}]()),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// UiState returns the current list state.
func (vm *MyUploadsViewModel) UiState() state.UiState[[]models.Product] { return vm.uiState.Get() }

// WatchUiState streams list states until ctx is cancelled.
func (vm *MyUploadsViewModel) WatchUiState(ctx context.Context) <-chan state.UiState[[]models.Product] {
	return vm.uiState.Subscribe(ctx)
}

// DeleteState returns the current delete outcome.
func (vm *MyUploadsViewModel) DeleteState() state.UiState[struct{}] { return vm.deleteState.Get() }

// WatchDeleteState streams delete outcomes until ctx is cancelled.
func (vm *MyUploadsViewModel) WatchDeleteState(ctx context.Context) <-chan state.UiState[struct{}] {
	return vm.deleteState.Subscribe(ctx)
}

// LoadMyProducts subscribes to the signed-in user's listings, replacing any
// existing subscription. Without a session the state becomes Error directly.
func (vm *MyUploadsViewModel) LoadMyProducts() {
	vm.uiState.Set(state.Loading[[]models.Product]())

	caller := vm.session.Current()
	if caller == nil {
		vm.uiState.Set(state.Error[[]models.Product]("User not authenticated"))
		return
	}

	vm.mu.Lock()
	if vm.subCancel != nil {
		vm.subCancel()
	}
	subCtx, subCancel := context.WithCancel(vm.ctx)
	vm.subCancel = subCancel
	vm.mu.Unlock()

	go func() {
		for products := range vm.repo.GetUserProducts(subCtx, caller.UID) {
			vm.uiState.Set(state.Success(products))
		}
	}()
}

// DeleteProduct deletes one of the caller's listings. Success triggers an
// automatic reload of the list.
func (vm *MyUploadsViewModel) DeleteProduct(productID string) {
	vm.deleteState.Set(state.Loading[struct{}]())
	go func() {
		if err := vm.repo.DeleteProduct(vm.ctx, productID); err != nil {
			vm.deleteState.Set(state.Error[struct{}](errMessage(err, "Failed to delete product")))
			return
		}
		vm.deleteState.Set(state.Success(struct{}{}))
		vm.LoadMyProducts()
	}()
}

// ClearDeleteState returns the delete outcome to Idle.
func (vm *MyUploadsViewModel) ClearDeleteState() {
	vm.deleteState.Set(state.Idle[struct{}]())
}

// Close tears down the listing subscription and any in-flight delete.
func (vm *MyUploadsViewModel) Close() {
	vm.cancel()
}
