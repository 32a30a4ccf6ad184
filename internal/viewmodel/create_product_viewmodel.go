package viewmodel

import (
	"context"
	"strconv"
	"sync"

	"bazaar-backend-go/internal/db"
	"bazaar-backend-go/internal/models"
	"bazaar-backend-go/internal/state"
	"bazaar-backend-go/internal/validation"
)

// minListingImages is the smallest image selection accepted for a new listing.
const minListingImages = 3

// CreateProductViewModel drives the listing-creation screen. It owns the
// ordered image selection and the outcome state carrying the new product ID.
type CreateProductViewModel struct {
	repo    db.ProductRepository
	uiState *state.Store[state.UiState[string]]
	ctx     context.Context
	cancel  context.CancelFunc

	mu     sync.Mutex
	images []models.ImageUpload
}

// NewCreateProductViewModel creates the view-model with an empty selection.
func NewCreateProductViewModel(repo db.ProductRepository) *CreateProductViewModel {
	ctx, cancel := context.WithCancel(context.Background())
	return &CreateProductViewModel{
		repo:    repo,
		uiState: state.NewStore(state.Idle[string]()),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// UiState returns the current creation outcome.
func (vm *CreateProductViewModel) UiState() state.UiState[string] { return vm.uiState.Get() }

// WatchUiState streams creation outcomes until ctx is cancelled.
func (vm *CreateProductViewModel) WatchUiState(ctx context.Context) <-chan state.UiState[string] {
	return vm.uiState.Subscribe(ctx)
}

// AddImages appends to the ordered selection.
func (vm *CreateProductViewModel) AddImages(images ...models.ImageUpload) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.images = append(vm.images, images...)
}

// RemoveImage drops the image at the given selection index. Out-of-range
// indices are ignored.
func (vm *CreateProductViewModel) RemoveImage(index int) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if index < 0 || index >= len(vm.images) {
		return
	}
	vm.images = append(vm.images[:index], vm.images[index+1:]...)
}

// SelectedImages returns a copy of the current selection, in order.
func (vm *CreateProductViewModel) SelectedImages() []models.ImageUpload {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	out := make([]models.ImageUpload, len(vm.images))
	copy(out, vm.images)
	return out
}

// CreateProduct validates the text fields in the order title, mrp, asking
// price, description, city, year, then checks the image count, and only then
// calls the repository. The first violation short-circuits into Error.
func (vm *CreateProductViewModel) CreateProduct(req models.CreateProductRequest) {
	if err := validation.ValidateNewProduct(req.Title, req.MRP, req.AskingPrice, req.Description, req.City, req.Year); err != nil {
		vm.uiState.Set(state.Error[string](err.Error()))
		return
	}

	images := vm.SelectedImages()
	if len(images) < minListingImages {
		vm.uiState.Set(state.Error[string]("Please select at least 3 images"))
		return
	}

	// The validators guarantee these parse.
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
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	}

	vm.uiState.Set(state.Loading[string]())
	go func() {
		productID, err := vm.repo.CreateProduct(vm.ctx, product, images)
		if err != nil {
			vm.uiState.Set(state.Error[string](errMessage(err, "Failed to create product")))
			return
		}
		vm.uiState.Set(state.Success(productID))
	}()
}

// ClearError returns the outcome state to Idle.
func (vm *CreateProductViewModel) ClearError() {
	vm.uiState.Set(state.Idle[string]())
}

// Close cancels any in-flight creation.
func (vm *CreateProductViewModel) Close() {
	vm.cancel()
}
