package models

// Product represents a marketplace listing.
// The ID is generated client-side (UUID) at creation time and is also the
// Firestore document ID in the "products" collection.
type Product struct {
	ID            string   `json:"id" firestore:"id"`
	Title         string   `json:"title" firestore:"title"`
	Category      string   `json:"category" firestore:"category"` // display name from ProductCategories
	MRP           float64  `json:"mrp" firestore:"mrp"`
	AskingPrice   float64  `json:"askingPrice" firestore:"askingPrice"`
	Description   string   `json:"description" firestore:"description"`
	City          string   `json:"city" firestore:"city"`
	Year          int      `json:"year" firestore:"year"`
	Condition     string   `json:"condition" firestore:"condition"` // display name from ProductConditions
	ImageURLs     []string `json:"imageUrls" firestore:"imageUrls"`
	CoverImageURL string   `json:"coverImageUrl" firestore:"coverImageUrl"`
	Latitude      *float64 `json:"latitude,omitempty" firestore:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty" firestore:"longitude,omitempty"`
	OwnerID       string   `json:"ownerId" firestore:"ownerId"`
	OwnerEmail    string   `json:"ownerEmail" firestore:"ownerEmail"`
	CreatedAt     int64    `json:"createdAt" firestore:"createdAt"` // epoch milliseconds
}

// WithImages returns a copy of the product with the image URL list applied and
// the cover image derived from it (first URL, or empty when there are none).
func (p Product) WithImages(imageURLs []string) Product {
	p.ImageURLs = imageURLs
	if len(imageURLs) > 0 {
		p.CoverImageURL = imageURLs[0]
	} else {
		p.CoverImageURL = ""
	}
	return p
}

// ImageUpload carries the raw bytes of one image selected for upload.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ProductCategories is the closed set of category display names.
var ProductCategories = []string{
	"Electronics",
	"Clothing",
	"Furniture",
	"Vehicles",
	"Books",
	"Sports",
	"Home & Garden",
	"Other",
}

// ProductConditions is the closed set of condition display names.
var ProductConditions = []string{
	"New",
	"Like New",
	"Good",
	"Fair",
	"Poor",
}

// IsValidCategory reports whether the given display name is a known category.
func IsValidCategory(category string) bool {
	for _, c := range ProductCategories {
		if c == category {
			return true
		}
	}
	return false
}

// IsValidCondition reports whether the given display name is a known condition.
func IsValidCondition(condition string) bool {
	for _, c := range ProductConditions {
		if c == condition {
			return true
		}
	}
	return false
}
