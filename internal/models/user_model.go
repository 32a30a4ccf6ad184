package models

// User represents a marketplace user profile.
// The UID (Firebase Auth UID) is the Firestore document ID in the "users" collection.
type User struct {
	UID       string `json:"uid" firestore:"uid"`
	Name      string `json:"name" firestore:"name"`
	Email     string `json:"email" firestore:"email"`
	CreatedAt int64  `json:"createdAt" firestore:"createdAt"` // epoch milliseconds
}
