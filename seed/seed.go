// Package seed loads the demo catalog, users and reviews into the store.
//
// The fixtures are demo data and are labelled as such in fixtures.yaml.
// Apply is idempotent: users are matched by email, categories and products
// by name, reviews by (product, user), so running it twice changes nothing.
package seed

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/kalp9197/luxe-ecommerce-site/database"
	"github.com/kalp9197/luxe-ecommerce-site/models"
	"github.com/kalp9197/luxe-ecommerce-site/pkg"
	"github.com/kalp9197/luxe-ecommerce-site/repository"
)

const fixturesFile = "fixtures.yaml"

//go:embed fixtures.yaml
var embedded embed.FS

type Fixtures struct {
	Users      []UserFixture     `yaml:"users"`
	Categories []CategoryFixture `yaml:"categories"`
	Products   []ProductFixture  `yaml:"products"`
	Reviews    []ReviewFixture   `yaml:"reviews"`
}

type UserFixture struct {
	Name     string      `yaml:"name"`
	Email    string      `yaml:"email"`
	Password string      `yaml:"password"`
	Role     models.Role `yaml:"role"`
	Phone    string      `yaml:"phone"`
	Address  string      `yaml:"address"`
}

type CategoryFixture struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Image       string `yaml:"image"`
}

// ProductFixture keeps prices as strings so YAML never turns them into floats.
type ProductFixture struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Price       string   `yaml:"price"`
	SalePrice   string   `yaml:"sale_price"`
	Images      []string `yaml:"images"`
	Brand       string   `yaml:"brand"`
	Inventory   int      `yaml:"inventory"`
	Featured    bool     `yaml:"featured"`
	Category    string   `yaml:"category"`
}

type ReviewFixture struct {
	Product string `yaml:"product"`
	User    string `yaml:"user"`
	Rating  int    `yaml:"rating"`
	Comment string `yaml:"comment"`
}

// Result lists every fixture user as stored, created or not.
type Result struct {
	Users             []models.User
	CreatedUsers      int
	CreatedCategories int
	CreatedProducts   int
	CreatedReviews    int
}

// Load parses fixtures.yaml from fsys.
func Load(fsys fs.FS) (*Fixtures, error) {
	data, err := fs.ReadFile(fsys, fixturesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fixturesFile, err)
	}

	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", fixturesFile, err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Default is Load over the fixtures compiled into the binary.
func Default() (*Fixtures, error) {
	return Load(embedded)
}

func (f *Fixtures) validate() error {
	for _, u := range f.Users {
		if u.Email == "" || u.Password == "" {
			return fmt.Errorf("user fixture %q needs email and password", u.Name)
		}
		if u.Role != "" && !u.Role.Valid() {
			return fmt.Errorf("user fixture %s: unknown role %q", u.Email, u.Role)
		}
	}
	for _, p := range f.Products {
		if _, err := decimal.NewFromString(p.Price); err != nil {
			return fmt.Errorf("product fixture %q: bad price %q", p.Name, p.Price)
		}
		if p.SalePrice != "" {
			if _, err := decimal.NewFromString(p.SalePrice); err != nil {
				return fmt.Errorf("product fixture %q: bad sale_price %q", p.Name, p.SalePrice)
			}
		}
	}
	for _, r := range f.Reviews {
		if r.Rating < 1 || r.Rating > 5 {
			return fmt.Errorf("review fixture for %q: rating %d out of range", r.Product, r.Rating)
		}
	}
	return nil
}

// Apply writes the fixtures in one transaction.
func Apply(ctx context.Context, db *sql.DB, f *Fixtures) (*Result, error) {
	result := &Result{}

	err := database.WithTx(ctx, db, func(tx *sql.Tx) error {
		users := repository.NewSQLiteUserRepo(tx)
		categories := repository.NewSQLiteCategoryRepo(tx)
		products := repository.NewSQLiteProductRepo(tx)
		reviews := repository.NewSQLiteReviewRepo(tx)

		byEmail := make(map[string]*models.User)
		for _, uf := range f.Users {
			u, created, err := ensureUser(ctx, users, uf)
			if err != nil {
				return err
			}
			if created {
				result.CreatedUsers++
			}
			byEmail[u.Email] = u
			result.Users = append(result.Users, *u)
		}

		categoryIDs := make(map[string]string)
		for _, cf := range f.Categories {
			c, err := categories.GetByName(ctx, cf.Name)
			if errors.Is(err, pkg.ErrNotFound) {
				c = &models.Category{Name: cf.Name, Description: cf.Description, Image: cf.Image}
				if err = categories.Create(ctx, c); err == nil {
					result.CreatedCategories++
				}
			}
			if err != nil {
				return fmt.Errorf("category %q: %w", cf.Name, err)
			}
			categoryIDs[c.Name] = c.ID
		}

		productIDs := make(map[string]string)
		for _, pf := range f.Products {
			p, err := products.GetByName(ctx, pf.Name)
			if errors.Is(err, pkg.ErrNotFound) {
				p = pf.toProduct(categoryIDs)
				if err = products.Create(ctx, p); err == nil {
					result.CreatedProducts++
				}
			}
			if err != nil {
				return fmt.Errorf("product %q: %w", pf.Name, err)
			}
			productIDs[p.Name] = p.ID
		}

		touched := make(map[string]bool)
		for _, rf := range f.Reviews {
			productID, ok := productIDs[rf.Product]
			if !ok {
				return fmt.Errorf("review references unknown product %q", rf.Product)
			}
			author, ok := byEmail[rf.User]
			if !ok {
				return fmt.Errorf("review references unknown user %q", rf.User)
			}

			err := reviews.Create(ctx, &models.Review{
				ProductID: productID,
				UserID:    author.ID,
				UserName:  author.Name,
				Rating:    rf.Rating,
				Comment:   rf.Comment,
			})
			switch {
			case errors.Is(err, pkg.ErrAlreadyExists):
				continue
			case err != nil:
				return fmt.Errorf("review of %q by %s: %w", rf.Product, rf.User, err)
			}
			result.CreatedReviews++
			touched[productID] = true
		}

		for productID := range touched {
			stats, err := reviews.Stats(ctx, productID)
			if err != nil {
				return err
			}
			if err := products.UpdateReviewStats(ctx, productID, stats); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply fixtures: %w", err)
	}

	log.Printf("[seed] demo data applied: %d users, %d categories, %d products, %d reviews created",
		result.CreatedUsers, result.CreatedCategories, result.CreatedProducts, result.CreatedReviews)
	return result, nil
}

func ensureUser(ctx context.Context, users repository.UserRepository, uf UserFixture) (*models.User, bool, error) {
	u, err := users.GetByEmail(ctx, uf.Email)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, pkg.ErrNotFound) {
		return nil, false, fmt.Errorf("user %s: %w", uf.Email, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(uf.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, fmt.Errorf("failed to hash password for %s: %w", uf.Email, err)
	}

	role := uf.Role
	if role == "" {
		role = models.RoleUser
	}
	u = &models.User{
		Name:         uf.Name,
		Email:        uf.Email,
		PasswordHash: string(hash),
		Role:         role,
		Phone:        uf.Phone,
		Address:      uf.Address,
	}
	if err := users.Create(ctx, u); err != nil {
		return nil, false, fmt.Errorf("user %s: %w", uf.Email, err)
	}
	return u, true, nil
}

func (pf ProductFixture) toProduct(categoryIDs map[string]string) *models.Product {
	p := &models.Product{
		Name:        pf.Name,
		Description: pf.Description,
		Price:       decimal.RequireFromString(pf.Price),
		Images:      pf.Images,
		Brand:       pf.Brand,
		Inventory:   pf.Inventory,
		Featured:    pf.Featured,
	}
	if pf.SalePrice != "" {
		p.SalePrice = decimal.NewNullDecimal(decimal.RequireFromString(pf.SalePrice))
	}
	if id, ok := categoryIDs[pf.Category]; ok {
		p.CategoryID = &id
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return p
}
