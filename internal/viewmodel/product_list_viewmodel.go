package viewmodel

import (
	"context"
	"sync"

	"bazaar-backend-go/internal/db"
	"bazaar-backend-go/internal/models"
	"bazaar-backend-go/internal/state"
)

// ProductListViewModel drives the browse screen. It subscribes to the live
// listing collection and exposes a refreshing flag cleared on the first
// emission after a refresh.
type ProductListViewModel struct {
	products   db.ProductRepository
	auth       db.AuthRepository
	uiState    *state.Store[state.UiState[[]models.Product]]
	refreshing *state.Store[bool]
	ctx        context.Context
	cancel     context.CancelFunc

	mu        sync.Mutex
	subCancel context.CancelFunc
}

// NewProductListViewModel creates the view-model and starts loading.
func NewProductListViewModel(products db.ProductRepository, auth db.AuthRepository) *ProductListViewModel {
	ctx, cancel := context.WithCancel(context.Background())
	vm := &ProductListViewModel{
		products:   products,
		auth:       auth,
		uiState:    state.NewStore(state.Loading[[]models.Product]()),
		refreshing: state.NewStore(false),
		ctx:        ctx,
		cancel:     cancel,
	}
	vm.LoadProducts()
	return vm
}

// UiState returns the current listing state.
func (vm *ProductListViewModel) UiState() state.UiState[[]models.Product] { return vm.uiState.Get() }

// WatchUiState streams listing states until ctx is cancelled.
func (vm *ProductListViewModel) WatchUiState(ctx context.Context) <-chan state.UiState[[]models.Product] {
	return vm.uiState.Subscribe(ctx)
}

// Refreshing reports whether a pull-to-refresh is in flight.
func (vm *ProductListViewModel) Refreshing() bool { return vm.refreshing.Get() }

// LoadProducts replaces any existing subscription with a fresh one. The
// state enters Loading once; every subsequent snapshot re-emits Success
// directly.
func (vm *ProductListViewModel) LoadProducts() {
	vm.mu.Lock()
	if vm.subCancel != nil {
		vm.subCancel()
	}
	subCtx, subCancel := context.WithCancel(vm.ctx)
	vm.subCancel = subCancel
	vm.mu.Unlock()

	vm.uiState.Set(state.Loading[[]models.Product]())
	go func() {
		for products := range vm.products.GetProducts(subCtx) {
			vm.uiState.Set(state.Success(products))
			vm.refreshing.Set(false)
		}
	}()
}

// Refresh sets the refreshing flag and re-subscribes; the flag clears on the
// next emission.
func (vm *ProductListViewModel) Refresh() {
	vm.refreshing.Set(true)
	vm.LoadProducts()
}

// SignOut ends the session from the browse screen.
func (vm *ProductListViewModel) SignOut() {
	go func() {
		_ = vm.auth.SignOut(vm.ctx)
	}()
}

// Close tears down the listing subscription.
func (vm *ProductListViewModel) Close() {
	vm.cancel()
}
