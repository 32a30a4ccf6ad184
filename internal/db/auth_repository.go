package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bazaar-backend-go/internal/models"
)

const usersCollection = "users"

// ErrNotFound is a common error for when a document is not found in Firestore.
var ErrNotFound = errors.New("document not found")

// FirebaseAuthRepository implements AuthRepository over the Firebase Auth
// service (identity), Firestore (profiles) and the Identity Toolkit REST API
// (password verification).
type FirebaseAuthRepository struct {
	authClient *auth.Client
	fsClient   *firestore.Client
	identity   *IdentityClient
	session    *AuthSession
	logger     *zap.Logger
}

// NewFirebaseAuthRepository creates a new AuthRepository instance bound to the
// given session.
func NewFirebaseAuthRepository(
	authClient *auth.Client,
	fsClient *firestore.Client,
	identity *IdentityClient,
	session *AuthSession,
	logger *zap.Logger,
) *FirebaseAuthRepository {
	if authClient == nil || fsClient == nil || identity == nil || session == nil {
		panic("FirebaseAuthRepository: all clients and the session must be non-nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FirebaseAuthRepository{
		authClient: authClient,
		fsClient:   fsClient,
		identity:   identity,
		session:    session,
		logger:     logger,
	}
}

// SignUp creates the platform identity first and the profile document second.
// The two writes are not transactional; a profile-write failure leaves an
// orphaned identity behind.
func (r *FirebaseAuthRepository) SignUp(ctx context.Context, email, password, name string) (*models.User, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(name)

	record, err := r.authClient.CreateUser(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity for '%s': %w", email, err)
	}

	user := &models.User{
		UID:       record.UID,
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().UnixMilli(),
	}

	if _, err := r.fsClient.Collection(usersCollection).Doc(user.UID).Set(ctx, user); err != nil {
		r.logger.Error("Profile write failed after identity creation; identity is orphaned",
			zap.String("uid", user.UID), zap.Error(err))
		return nil, fmt.Errorf("failed to write profile for '%s': %w", user.UID, err)
	}

	r.session.set(user)
	return user, nil
}

// SignIn verifies the credentials and loads the profile document. A missing
// profile yields a minimal user with an empty name.
func (r *FirebaseAuthRepository) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	user, _, err := r.SignInWithToken(ctx, email, password)
	return user, err
}

// SignInWithToken is SignIn plus the raw identity token, for callers that
// need to hand the token back to an HTTP client.
func (r *FirebaseAuthRepository) SignInWithToken(ctx context.Context, email, password string) (*models.User, *IdentityToken, error) {
	token, err := r.identity.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}

	user, err := r.fetchProfile(ctx, token.UID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, nil, fmt.Errorf("failed to load profile for '%s': %w", token.UID, err)
		}
		// Identity exists but the profile document was never written.
		user = &models.User{UID: token.UID, Email: email, Name: ""}
	}

	r.session.set(user)
	return user, token, nil
}

// SignOut clears the session. The platform holds no server-side session
// state for this flow, so there is nothing to revoke.
func (r *FirebaseAuthRepository) SignOut(ctx context.Context) error {
	r.session.set(nil)
	return nil
}

// CurrentUser re-fetches the signed-in user's profile. Errors are swallowed:
// no session or a failed fetch both return nil.
func (r *FirebaseAuthRepository) CurrentUser(ctx context.Context) *models.User {
	current := r.session.Current()
	if current == nil {
		return nil
	}
	user, err := r.fetchProfile(ctx, current.UID)
	if err != nil {
		return nil
	}
	return user
}

// AuthState re-fetches the profile document on every session transition and
// emits the result. A fetch failure emits nil but never terminates the
// subscription; the channel closes only when ctx is cancelled.
func (r *FirebaseAuthRepository) AuthState(ctx context.Context) <-chan *models.User {
	out := make(chan *models.User, 1)
	transitions := r.session.Subscribe(ctx)

	go func() {
		defer close(out)
		for current := range transitions {
			var emit *models.User
			if current != nil {
				user, err := r.fetchProfile(ctx, current.UID)
				if err != nil {
					r.logger.Warn("Auth-state profile fetch failed", zap.String("uid", current.UID), zap.Error(err))
				} else {
					emit = user
				}
			}
			select {
			case out <- emit:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// Profile reads a profile document by UID. Returns ErrNotFound (wrapped) when
// no profile document exists for the identity.
func (r *FirebaseAuthRepository) Profile(ctx context.Context, uid string) (*models.User, error) {
	return r.fetchProfile(ctx, uid)
}

// fetchProfile reads a profile document by UID.
func (r *FirebaseAuthRepository) fetchProfile(ctx context.Context, uid string) (*models.User, error) {
	docSnap, err := r.fsClient.Collection(usersCollection).Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("profile for '%s' not found: %w", uid, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile for '%s': %w", uid, err)
	}

	var user models.User
	if err := docSnap.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode profile for '%s': %w", uid, err)
	}
	user.UID = docSnap.Ref.ID // Ensure UID is populated from the document reference ID

	return &user, nil
}
