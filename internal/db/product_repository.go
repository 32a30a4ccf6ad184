package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bazaar-backend-go/internal/models"
)

const productsCollection = "products"

// Delay before re-establishing a failed snapshot listener.
const listenerRetryDelay = time.Second

var (
	// ErrNotAuthenticated is returned when an operation requires a signed-in caller.
	ErrNotAuthenticated = errors.New("user not authenticated")
	// ErrNotOwner is returned when a caller tries to delete a listing they do not own.
	ErrNotOwner = errors.New("you can only delete your own products")
)

// FirestoreProductRepository implements ProductRepository over Firestore
// documents and blob storage for images.
type FirestoreProductRepository struct {
	client  *firestore.Client
	images  ImageStore
	session Session
	logger  *zap.Logger
}

// NewFirestoreProductRepository creates a new ProductRepository instance.
func NewFirestoreProductRepository(client *firestore.Client, images ImageStore, session Session, logger *zap.Logger) *FirestoreProductRepository {
	if client == nil || images == nil || session == nil {
		panic("FirestoreProductRepository: client, image store and session must be non-nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FirestoreProductRepository{client: client, images: images, session: session, logger: logger}
}

// WithSession returns a copy of the repository bound to a different session.
// Handlers use it to scope operations to the request's verified caller.
func (r *FirestoreProductRepository) WithSession(session Session) ProductRepository {
	if session == nil {
		panic("WithSession: session must be non-nil")
	}
	clone := *r
	clone.session = session
	return &clone
}

// CreateProduct uploads all images first and only then writes the listing
// document, so a failed upload never leaves an orphaned listing. The new
// document is keyed by a client-generated UUID.
func (r *FirestoreProductRepository) CreateProduct(ctx context.Context, product models.Product, images []models.ImageUpload) (string, error) {
	caller := r.session.Current()
	if caller == nil {
		return "", ErrNotAuthenticated
	}

	productID := uuid.NewString()

	imageURLs, err := r.UploadImages(ctx, images, productID)
	if err != nil {
		return "", err
	}

	record := product.WithImages(imageURLs)
	record.ID = productID
	record.OwnerID = caller.UID
	record.OwnerEmail = caller.Email
	if record.CreatedAt == 0 {
		record.CreatedAt = time.Now().UnixMilli()
	}

	if _, err := r.client.Collection(productsCollection).Doc(productID).Set(ctx, record); err != nil {
		return "", fmt.Errorf("failed to create product '%s': %w", productID, err)
	}
	return productID, nil
}

// UploadImages stores the images sequentially, in input order, and returns
// their download URLs index-aligned with the input. The first failure aborts
// the whole operation; already-uploaded images are not cleaned up here.
func (r *FirestoreProductRepository) UploadImages(ctx context.Context, images []models.ImageUpload, productID string) ([]string, error) {
	caller := r.session.Current()
	if caller == nil {
		return nil, ErrNotAuthenticated
	}

	urls := make([]string, 0, len(images))
	for i, img := range images {
		contentType := img.ContentType
		if contentType == "" {
			contentType = "image/jpeg"
		}
		objectPath := imageObjectPath(caller.UID, productID, i, time.Now().UnixMilli())
		downloadURL, err := r.images.Upload(ctx, objectPath, contentType, img.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to upload image %d: %w", i, err)
		}
		urls = append(urls, downloadURL)
	}
	return urls, nil
}

// GetProducts is a live subscription over all listings, newest first. The
// ordering comes from the query itself.
func (r *FirestoreProductRepository) GetProducts(ctx context.Context) <-chan []models.Product {
	query := r.client.Collection(productsCollection).OrderBy("createdAt", firestore.Desc)
	return r.watchQuery(ctx, query, false)
}

// GetUserProducts is a live subscription filtered to one owner. The query is
// unordered; each snapshot is sorted by creation time descending client-side.
func (r *FirestoreProductRepository) GetUserProducts(ctx context.Context, ownerID string) <-chan []models.Product {
	query := r.client.Collection(productsCollection).Where("ownerId", "==", ownerID)
	return r.watchQuery(ctx, query, true)
}

// watchQuery runs a snapshot listener for the query and emits the decoded
// documents on every change. A listener error emits an empty slice and the
// listener is re-established after a short delay; only ctx cancellation ends
// the subscription.
func (r *FirestoreProductRepository) watchQuery(ctx context.Context, query firestore.Query, sortDesc bool) <-chan []models.Product {
	out := make(chan []models.Product, 1)

	go func() {
		defer close(out)
		for {
			snapshots := query.Snapshots(ctx)
			for {
				snap, err := snapshots.Next()
				if err != nil {
					snapshots.Stop()
					if ctx.Err() != nil || status.Code(err) == codes.Canceled {
						return
					}
					r.logger.Warn("Product snapshot listener failed; re-establishing", zap.Error(err))
					select {
					case out <- []models.Product{}:
					case <-ctx.Done():
						return
					}
					break
				}

				products := r.decodeSnapshot(snap)
				if sortDesc {
					sortProductsByCreatedAtDesc(products)
				}
				select {
				case out <- products:
				case <-ctx.Done():
					snapshots.Stop()
					return
				}
			}

			select {
			case <-time.After(listenerRetryDelay):
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// decodeSnapshot converts a query snapshot into products, skipping documents
// that fail to decode.
func (r *FirestoreProductRepository) decodeSnapshot(snap *firestore.QuerySnapshot) []models.Product {
	products := make([]models.Product, 0, snap.Size)
	for {
		doc, err := snap.Documents.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			r.logger.Warn("Failed to iterate product snapshot", zap.Error(err))
			break
		}
		var product models.Product
		if err := doc.DataTo(&product); err != nil {
			r.logger.Warn("Skipping undecodable product document", zap.String("id", doc.Ref.ID), zap.Error(err))
			continue
		}
		product.ID = doc.Ref.ID
		products = append(products, product)
	}
	return products
}

// GetProduct fetches a single listing by ID.
func (r *FirestoreProductRepository) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	if productID == "" {
		return nil, errors.New("productID cannot be empty for GetProduct operation")
	}
	docSnap, err := r.client.Collection(productsCollection).Doc(productID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("product '%s' not found: %w", productID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product '%s': %w", productID, err)
	}

	var product models.Product
	if err := docSnap.DataTo(&product); err != nil {
		return nil, fmt.Errorf("failed to decode product '%s': %w", productID, err)
	}
	product.ID = docSnap.Ref.ID

	return &product, nil
}

// DeleteProduct verifies existence and ownership, deletes the stored images
// best-effort (failures are logged and skipped) and finally deletes the
// document. A document-deletion failure is surfaced even though the images
// are already gone.
func (r *FirestoreProductRepository) DeleteProduct(ctx context.Context, productID string) error {
	caller := r.session.Current()
	if caller == nil {
		return ErrNotAuthenticated
	}

	product, err := r.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	return r.removeListing(ctx, product, caller)
}

// removeListing enforces ownership and then performs the destructive steps:
// best-effort image cleanup followed by the document deletion. A rejected
// caller leaves both the document and the images untouched.
func (r *FirestoreProductRepository) removeListing(ctx context.Context, product *models.Product, caller *models.User) error {
	if product.OwnerID != caller.UID {
		return ErrNotOwner
	}

	for _, imageURL := range product.ImageURLs {
		if err := r.images.Delete(ctx, imageURL); err != nil {
			r.logger.Warn("Failed to delete product image; continuing",
				zap.String("productId", product.ID), zap.String("imageUrl", imageURL), zap.Error(err))
		}
	}

	if _, err := r.client.Collection(productsCollection).Doc(product.ID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete product '%s': %w", product.ID, err)
	}
	return nil
}

// imageObjectPath builds the storage path for one product image. The filename
// incorporates the product ID, the image's input index and an upload
// timestamp so repeated uploads never collide.
func imageObjectPath(ownerUID, productID string, index int, timestampMillis int64) string {
	return fmt.Sprintf("%s/%s/%s_%d_%d.jpg", productsCollection, ownerUID, productID, index, timestampMillis)
}

// sortProductsByCreatedAtDesc orders newest first, in place.
func sortProductsByCreatedAtDesc(products []models.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].CreatedAt > products[j].CreatedAt
	})
}
