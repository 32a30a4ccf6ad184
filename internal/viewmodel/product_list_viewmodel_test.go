package viewmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar-backend-go/internal/models"
	"bazaar-backend-go/internal/state"
)

func TestProductListLoadsOnConstruction(t *testing.T) {
	products := newFakeProductRepo()
	auth := newFakeAuthRepo()
	vm := NewProductListViewModel(products, auth)
	defer vm.Close()

	assert.Equal(t, state.KindLoading, vm.UiState().Kind())

	products.feed <- []models.Product{{ID: "a"}, {ID: "b"}}

	require.Eventually(t, func() bool {
		return vm.UiState().Kind() == state.KindSuccess
	}, waitFor, tick)

	listing, ok := vm.UiState().Data()
	require.True(t, ok)
	assert.Len(t, listing, 2)
}

func TestProductListReEmitsOnEverySnapshot(t *testing.T) {
	products := newFakeProductRepo()
	vm := NewProductListViewModel(products, newFakeAuthRepo())
	defer vm.Close()

	products.feed <- []models.Product{{ID: "a"}}
	require.Eventually(t, func() bool {
		listing, ok := vm.UiState().Data()
		return ok && len(listing) == 1
	}, waitFor, tick)

	products.feed <- []models.Product{{ID: "a"}, {ID: "b"}}
	require.Eventually(t, func() bool {
		listing, ok := vm.UiState().Data()
		return ok && len(listing) == 2
	}, waitFor, tick)
}

func TestRefreshFlagClearsOnNextEmission(t *testing.T) {
	products := newFakeProductRepo()
	vm := NewProductListViewModel(products, newFakeAuthRepo())
	defer vm.Close()

	assert.False(t, vm.Refreshing())

	vm.Refresh()
	assert.True(t, vm.Refreshing())
	assert.Equal(t, state.KindLoading, vm.UiState().Kind())

	// Keep emitting: an emission can land on the cancelled old subscription
	// while the replacement is still being established.
	require.Eventually(t, func() bool {
		select {
		case products.feed <- []models.Product{}:
		default:
		}
		return !vm.Refreshing() && vm.UiState().Kind() == state.KindSuccess
	}, waitFor, tick)
}

func TestRefreshReplacesSubscription(t *testing.T) {
	products := newFakeProductRepo()
	vm := NewProductListViewModel(products, newFakeAuthRepo())
	defer vm.Close()

	vm.Refresh()

	// Subscriptions start on goroutines; both the construction-time one and
	// the refresh one must have registered.
	require.Eventually(t, func() bool {
		all, _ := products.listCalls()
		return all == 2
	}, waitFor, tick)
}

func TestProductListSignOut(t *testing.T) {
	auth := newFakeAuthRepo()
	vm := NewProductListViewModel(newFakeProductRepo(), auth)
	defer vm.Close()

	vm.SignOut()

	require.Eventually(t, func() bool {
		_, _, signOuts := auth.calls()
		return signOuts == 1
	}, waitFor, tick)
}
