package db

import (
	"context"

	"bazaar-backend-go/internal/models"
)

// AuthRepository defines the interface for identity and profile operations.
// Every fallible method returns an error instead of panicking; live streams
// close only when their context is cancelled.
type AuthRepository interface {
	// SignUp creates a platform identity and writes the matching profile
	// document. The two steps are not transactional: a profile-write failure
	// after identity creation leaves an orphaned identity.
	SignUp(ctx context.Context, email, password, name string) (*models.User, error)
	// SignIn authenticates with email and password and loads the profile
	// document. A missing profile yields a minimal User with an empty name
	// rather than an error.
	SignIn(ctx context.Context, email, password string) (*models.User, error)
	// SignOut ends the current session.
	SignOut(ctx context.Context) error
	// CurrentUser returns the signed-in user's profile, or nil when there is
	// no session or the profile fetch fails.
	CurrentUser(ctx context.Context) *models.User
	// AuthState emits the profile of the signed-in user (nil when signed out
	// or the profile fetch fails) on every auth transition. The channel is
	// closed when ctx is cancelled.
	AuthState(ctx context.Context) <-chan *models.User
}

// ProductRepository defines the interface for listing storage operations.
type ProductRepository interface {
	// CreateProduct uploads the images and then writes the listing document.
	// No document is written when any upload fails. Returns the new product ID.
	CreateProduct(ctx context.Context, product models.Product, images []models.ImageUpload) (string, error)
	// GetProducts emits the full listing collection ordered by creation time
	// descending, re-emitting on every change. Listener errors produce an
	// empty emission; the subscription stays alive until ctx is cancelled.
	GetProducts(ctx context.Context) <-chan []models.Product
	// GetProduct fetches a single listing by ID.
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
	// GetUserProducts emits the given owner's listings sorted by creation
	// time descending, with the same error semantics as GetProducts.
	GetUserProducts(ctx context.Context, ownerID string) <-chan []models.Product
	// UploadImages stores each image in input order and returns the download
	// URLs index-aligned with the input. It aborts on the first failure and
	// never returns a partial list.
	UploadImages(ctx context.Context, images []models.ImageUpload, productID string) ([]string, error)
	// DeleteProduct removes a listing owned by the caller together with its
	// stored images. Image deletion is best-effort; document deletion
	// failures are surfaced.
	DeleteProduct(ctx context.Context, productID string) error
	// WithSession returns a repository view bound to a different session,
	// used to scope operations to a request's verified caller.
	WithSession(session Session) ProductRepository
}

// Session exposes the authenticated caller to repositories. It is passed in
// explicitly rather than read from package state so request-scoped and
// long-lived sessions can coexist.
type Session interface {
	// Current returns the signed-in user, or nil when unauthenticated.
	Current() *models.User
}

// ImageStore abstracts the blob storage used for product images.
type ImageStore interface {
	// Upload writes the image bytes to objectPath and returns a public
	// download URL for it.
	Upload(ctx context.Context, objectPath, contentType string, data []byte) (string, error)
	// Delete removes the object referenced by a download URL previously
	// returned from Upload.
	Delete(ctx context.Context, downloadURL string) error
}
