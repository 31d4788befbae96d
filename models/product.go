package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices go over the wire as JSON numbers (29.99), not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

type Product struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Price       decimal.Decimal     `json:"price"`
	SalePrice   decimal.NullDecimal `json:"sale_price"`
	Images      []string            `json:"images"`
	Brand       string              `json:"brand"`
	Inventory   int                 `json:"inventory"`
	Featured    bool                `json:"featured"`
	Rating      float64             `json:"rating"`
	NumReviews  int                 `json:"num_reviews"`
	CategoryID  *string             `json:"category_id"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// EffectivePrice is what a customer pays per unit: the sale price when one
// is set below the list price, otherwise the list price.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice.Valid && !p.SalePrice.Decimal.IsNegative() && p.SalePrice.Decimal.LessThan(p.Price) {
		return p.SalePrice.Decimal
	}
	return p.Price
}

// FirstImage is used for cart and order line thumbnails.
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// ProductFilter narrows a catalog listing. Zero values mean "any".
type ProductFilter struct {
	CategoryID string
	Featured   *bool
	Query      string
}

type CreateProductRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	SalePrice   *decimal.Decimal `json:"sale_price"`
	Images      []string         `json:"images"`
	Brand       string           `json:"brand"`
	Inventory   int              `json:"inventory"`
	Featured    bool             `json:"featured"`
	CategoryID  *string          `json:"category_id"`
}

func (r *CreateProductRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if r.Price.IsNegative() {
		return fmt.Errorf("price must not be negative")
	}
	if r.SalePrice != nil && r.SalePrice.IsNegative() {
		return fmt.Errorf("sale price must not be negative")
	}
	if r.Inventory < 0 {
		return fmt.Errorf("inventory must not be negative")
	}
	return nil
}

// ToProduct builds the product a create request describes.
func (r *CreateProductRequest) ToProduct() *Product {
	p := &Product{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Images:      r.Images,
		Brand:       r.Brand,
		Inventory:   r.Inventory,
		Featured:    r.Featured,
		CategoryID:  r.CategoryID,
	}
	if r.SalePrice != nil {
		p.SalePrice = decimal.NewNullDecimal(*r.SalePrice)
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return p
}

// UpdateProductRequest is a partial update. ClearSalePrice removes an
// existing sale price, since a nil SalePrice means "unchanged".
type UpdateProductRequest struct {
	Name           *string          `json:"name"`
	Description    *string          `json:"description"`
	Price          *decimal.Decimal `json:"price"`
	SalePrice      *decimal.Decimal `json:"sale_price"`
	ClearSalePrice bool             `json:"clear_sale_price"`
	Images         []string         `json:"images"`
	Brand          *string          `json:"brand"`
	Inventory      *int             `json:"inventory"`
	Featured       *bool            `json:"featured"`
	CategoryID     *string          `json:"category_id"`
}

func (r *UpdateProductRequest) Validate() error {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return fmt.Errorf("name cannot be empty")
		}
		r.Name = &name
	}
	if r.Price != nil && r.Price.IsNegative() {
		return fmt.Errorf("price must not be negative")
	}
	if r.SalePrice != nil && r.SalePrice.IsNegative() {
		return fmt.Errorf("sale price must not be negative")
	}
	if r.Inventory != nil && *r.Inventory < 0 {
		return fmt.Errorf("inventory must not be negative")
	}
	return nil
}

// Apply copies the set fields onto p.
func (r *UpdateProductRequest) Apply(p *Product) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	if r.ClearSalePrice {
		p.SalePrice = decimal.NullDecimal{}
	} else if r.SalePrice != nil {
		p.SalePrice = decimal.NewNullDecimal(*r.SalePrice)
	}
	if r.Images != nil {
		p.Images = r.Images
	}
	if r.Brand != nil {
		p.Brand = *r.Brand
	}
	if r.Inventory != nil {
		p.Inventory = *r.Inventory
	}
	if r.Featured != nil {
		p.Featured = *r.Featured
	}
	if r.CategoryID != nil {
		if *r.CategoryID == "" {
			p.CategoryID = nil
		} else {
			id := *r.CategoryID
			p.CategoryID = &id
		}
	}
}

// ImportResult summarizes a spreadsheet import.
type ImportResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped []string `json:"skipped"`
}
