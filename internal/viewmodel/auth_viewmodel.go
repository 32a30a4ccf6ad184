// Package viewmodel holds the view-state machines that sit between the UI
// and the repositories. Each view-model exposes UiState stores, a set of
// intent methods that transition them, and a Close method that tears down
// its subscriptions. State always moves Loading -> Success|Error for
// one-shot operations; live streams re-emit Success on every snapshot.
package viewmodel

import (
	"context"

	"bazaar-backend-go/internal/db"
	"bazaar-backend-go/internal/models"
	"bazaar-backend-go/internal/state"
	"bazaar-backend-go/internal/validation"
)

// errMessage extracts a user-facing message, falling back when the error is
// empty.
func errMessage(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}

// AuthViewModel drives the sign-up / sign-in screens. It owns the action
// outcome state and a passive mirror of the repository's auth state, started
// once at construction and stopped by Close.
type AuthViewModel struct {
	repo      db.AuthRepository
	uiState   *state.Store[state.UiState[models.User]]
	authState *state.Store[*models.User]
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewAuthViewModel creates the view-model and starts mirroring the auth state.
func NewAuthViewModel(repo db.AuthRepository) *AuthViewModel {
	ctx, cancel := context.WithCancel(context.Background())
	vm := &AuthViewModel{
		repo:      repo,
		uiState:   state.NewStore(state.Idle[models.User]()),
		authState: state.NewStore[*models.User](nil),
		ctx:       ctx,
		cancel:    cancel,
	}
	go func() {
		for user := range repo.AuthState(ctx) {
			vm.authState.Set(user)
		}
	}()
	return vm
}

// UiState returns the current action outcome.
func (vm *AuthViewModel) UiState() state.UiState[models.User] { return vm.uiState.Get() }

// WatchUiState streams action outcomes until ctx is cancelled.
func (vm *AuthViewModel) WatchUiState(ctx context.Context) <-chan state.UiState[models.User] {
	return vm.uiState.Subscribe(ctx)
}

// AuthState returns the last observed session user (nil when signed out).
func (vm *AuthViewModel) AuthState() *models.User { return vm.authState.Get() }

// WatchAuthState streams session transitions until ctx is cancelled.
func (vm *AuthViewModel) WatchAuthState(ctx context.Context) <-chan *models.User {
	return vm.authState.Subscribe(ctx)
}

// SignUp validates email, password and name in that order, short-circuiting
// into Error on the first invalid field without calling the repository.
func (vm *AuthViewModel) SignUp(email, password, name string) {
	if err := validation.ValidateEmail(email); err != nil {
		vm.uiState.Set(state.Error[models.User](err.Error()))
		return
	}
	if err := validation.ValidatePassword(password); err != nil {
		vm.uiState.Set(state.Error[models.User](err.Error()))
		return
	}
	if err := validation.ValidateName(name); err != nil {
		vm.uiState.Set(state.Error[models.User](err.Error()))
		return
	}

	vm.uiState.Set(state.Loading[models.User]())
	go func() {
		user, err := vm.repo.SignUp(vm.ctx, email, password, name)
		if err != nil {
			vm.uiState.Set(state.Error[models.User](errMessage(err, "Sign up failed")))
			return
		}
		vm.uiState.Set(state.Success(*user))
	}()
}

// SignIn validates email and password in that order, short-circuiting into
// Error on the first invalid field without calling the repository.
func (vm *AuthViewModel) SignIn(email, password string) {
	if err := validation.ValidateEmail(email); err != nil {
		vm.uiState.Set(state.Error[models.User](err.Error()))
		return
	}
	if err := validation.ValidatePassword(password); err != nil {
		vm.uiState.Set(state.Error[models.User](err.Error()))
		return
	}

	vm.uiState.Set(state.Loading[models.User]())
	go func() {
		user, err := vm.repo.SignIn(vm.ctx, email, password)
		if err != nil {
			vm.uiState.Set(state.Error[models.User](errMessage(err, "Sign in failed")))
			return
		}
		vm.uiState.Set(state.Success(*user))
	}()
}

// SignOut ends the session. Failures are not surfaced to the UI state.
func (vm *AuthViewModel) SignOut() {
	go func() {
		_ = vm.repo.SignOut(vm.ctx)
	}()
}

// ClearError returns the action state to Idle.
func (vm *AuthViewModel) ClearError() {
	vm.uiState.Set(state.Idle[models.User]())
}

// Close cancels the auth-state mirror and any in-flight work.
func (vm *AuthViewModel) Close() {
	vm.cancel()
}
