package viewmodel

import (
	"context"

	"bazaar-backend-go/internal/db"
	"bazaar-backend-go/internal/models"
	"bazaar-backend-go/internal/state"
)

// ProductDetailViewModel drives the single-listing screen. LoadProduct is
// idempotent and can be re-run with the same or a different ID.
type ProductDetailViewModel struct {
	repo    db.ProductRepository
	uiState *state.Store[state.UiState[models.Product]]
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewProductDetailViewModel creates the view-model in the Loading state; the
// screen always loads a product immediately.
func NewProductDetailViewModel(repo db.ProductRepository) *ProductDetailViewModel {
	ctx, cancel := context.WithCancel(context.Background())
	return &ProductDetailViewModel{
		repo:    repo,
		uiState: state.NewStore(state.Loading[models.Product]()),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// UiState returns the current detail state.
func (vm *ProductDetailViewModel) UiState() state.UiState[models.Product] { return vm.uiState.Get() }

// WatchUiState streams detail states until ctx is cancelled.
func (vm *ProductDetailViewModel) WatchUiState(ctx context.Context) <-chan state.UiState[models.Product] {
	return vm.uiState.Subscribe(ctx)
}

// LoadProduct fetches the listing with the given ID.
func (vm *ProductDetailViewModel) LoadProduct(productID string) {
	vm.uiState.Set(state.Loading[models.Product]())
	go func() {
		product, err := vm.repo.GetProduct(vm.ctx, productID)
		if err != nil {
			vm.uiState.Set(state.Error[models.Product](errMessage(err, "Failed to load product")))
			return
		}
		vm.uiState.Set(state.Success(*product))
	}()
}

// Close cancels any in-flight fetch.
func (vm *ProductDetailViewModel) Close() {
	vm.cancel()
}
