package product

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID               int64           `json:"id" db:"product_id"`
	CategoryID       *int64          `json:"category" db:"category_id"`
	Title            string          `json:"title" db:"title"`
	DescriptionShort string          `json:"description" db:"description_short"`
	DescriptionFull  string          `json:"fullDescription" db:"description_full"`
	Price            decimal.Decimal `json:"price" db:"price"`
	Count            int             `json:"count" db:"count"`
	Available        bool            `json:"available" db:"available"`
	FreeDelivery     bool            `json:"freeDelivery" db:"free_delivery"`
	Rating           decimal.Decimal `json:"rating" db:"rating"`
	LimitedEdition   bool            `json:"limitedEdition" db:"limited_edition"`
	CreatedAt        time.Time       `json:"date" db:"created_at"`
	UpdatedAt        time.Time       `json:"-" db:"updated_at"`
}

type Category struct {
	ID       int64  `json:"id" db:"category_id"`
	ParentID *int64 `json:"-" db:"parent_id"`
	Title    string `json:"title" db:"title"`
	ImageSrc string `json:"-" db:"image_src"`
	ImageAlt string `json:"-" db:"image_alt"`
}

type CategoryNode struct {
	ID            int64          `json:"id"`
	Title         string         `json:"title"`
	Image         Image          `json:"image"`
	Subcategories []CategoryNode `json:"subcategories,omitempty"`
}

type Image struct {
	Src string `json:"src" db:"src"`
	Alt string `json:"alt" db:"alt"`
}

type Tag struct {
	ID   int64  `json:"id" db:"tag_id"`
	Name string `json:"name" db:"value"`
}

type Spec struct {
	Name  string `json:"name" db:"name"`
	Value string `json:"value" db:"value"`
}

type Review struct {
	Author string    `json:"author" db:"author"`
	Email  string    `json:"email" db:"email"`
	Text   string    `json:"text" db:"text"`
	Rate   int       `json:"rate" db:"rate"`
	Date   time.Time `json:"date" db:"created_at"`
}

type ReviewNew struct {
	Text string `json:"text" validate:"required"`
	Rate int    `json:"rate" validate:"required,gte=1,lte=5"`
}

type Sale struct {
	ID        int64           `json:"id" db:"product_id"`
	Price     decimal.Decimal `json:"price" db:"price"`
	SalePrice decimal.Decimal `json:"salePrice" db:"sale_price"`
	DateFrom  *time.Time      `json:"dateFrom" db:"date_from"`
	DateTo    *time.Time      `json:"dateTo" db:"date_to"`
	Title     string          `json:"title" db:"title"`
	Images    []Image         `json:"images" db:"-"`
}

// Listed is the short product form rendered in listings, carts and orders.
type Listed struct {
	ID           int64           `json:"id" db:"product_id"`
	Category     *int64          `json:"category" db:"category_id"`
	Title        string          `json:"title" db:"title"`
	Description  string          `json:"description" db:"description_short"`
	Price        decimal.Decimal `json:"price" db:"price"`
	FreeDelivery bool            `json:"freeDelivery" db:"free_delivery"`
	Date         time.Time       `json:"date" db:"created_at"`
	Rating       decimal.Decimal `json:"rating" db:"rating"`
	Images       []Image         `json:"images" db:"-"`
	Tags         []Tag           `json:"tags" db:"-"`
	Reviews      int             `json:"reviews" db:"reviews_count"`
	Count        int             `json:"count" db:"count"`
}

// Detailed is the full product form served by the single-product endpoint.
type Detailed struct {
	Listed
	Specifications  []Spec   `json:"specifications"`
	ReviewList      []Review `json:"reviewList"`
	FullDescription string   `json:"fullDescription"`
}

// Page wraps a paginated listing.
type Page struct {
	Items       []Listed `json:"items"`
	CurrentPage int      `json:"currentPage"`
	LastPage    int      `json:"lastPage"`
}

type SalesPage struct {
	Items       []Sale `json:"items"`
	CurrentPage int    `json:"currentPage"`
	LastPage    int    `json:"lastPage"`
}
