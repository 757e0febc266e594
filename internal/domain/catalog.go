package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category identifies one of the five catalog collections.
type Category string

const (
	CategoryBase   Category = "base"
	CategorySauce  Category = "sauce"
	CategoryCheese Category = "cheese"
	CategoryVeggie Category = "veggie"
	CategoryMeat   Category = "meat"
)

// Categories lists every valid category in a stable order.
var Categories = []Category{
	CategoryBase,
	CategorySauce,
	CategoryCheese,
	CategoryVeggie,
	CategoryMeat,
}

// defaultThresholds holds the per-category restock threshold applied when an
// item is created without one.
var defaultThresholds = map[Category]int{
	CategoryBase:   20,
	CategorySauce:  15,
	CategoryCheese: 10,
	CategoryVeggie: 25,
	CategoryMeat:   15,
}

// ParseCategory validates a category path segment. An unknown value is a
// client error (400), never a lookup miss.
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	_, ok := defaultThresholds[c]
	return c, ok
}

// DefaultThreshold returns the restock threshold for a category.
func (c Category) DefaultThreshold() int {
	return defaultThresholds[c]
}

// CatalogItem is a purchasable pizza component. All five categories share this
// shape; the category tag decides which collection the item lives in.
type CatalogItem struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Category    Category  `json:"category" db:"-"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price" db:"price"`
	ImageURL    string    `json:"image_url" db:"image_url"`
	Stock       int       `json:"stock" db:"stock"`
	Threshold   int       `json:"threshold" db:"threshold"`
	IsAvailable bool      `json:"is_available" db:"is_available"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// IsStockLow reports whether the item needs a restock notification.
func (i *CatalogItem) IsStockLow() bool {
	return i.Stock <= i.Threshold
}
