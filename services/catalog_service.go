package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"

	"github.com/kalp9197/luxe-ecommerce-site/models"
	"github.com/kalp9197/luxe-ecommerce-site/pkg"
	"github.com/kalp9197/luxe-ecommerce-site/pkg/cache"
	"github.com/kalp9197/luxe-ecommerce-site/pkg/clock"
	"github.com/kalp9197/luxe-ecommerce-site/repository"
)

const categoriesKey = "all"

// CatalogService serves products and categories. Single-product lookups and
// the category list are cached; every write drops what it touched.
type CatalogService interface {
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	// GetProducts resolves many ids at once; unknown ids are absent from the map.
	GetProducts(ctx context.Context, ids []string) (map[string]*models.Product, error)
	CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, req *models.UpdateProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	// InvalidateProduct drops a cached product after a change made outside
	// the catalog, such as new review stats.
	InvalidateProduct(id string)

	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id string) (*models.Category, error)
	CreateCategory(ctx context.Context, req *models.CreateCategoryRequest) (*models.Category, error)
	UpdateCategory(ctx context.Context, id string, req *models.UpdateCategoryRequest) (*models.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	// ExportProducts writes the catalog as an xlsx workbook.
	ExportProducts(ctx context.Context, w io.Writer) error
	// ImportProducts reads a workbook in the ExportProducts layout. Rows
	// with a known id update that product, the rest are created.
	ImportProducts(ctx context.Context, data []byte) (*models.ImportResult, error)

	Close()
}

type catalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository

	productCache  *cache.TTLCache[string, models.Product]
	categoryCache *cache.TTLCache[string, []models.Category]
}

func NewCatalogService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	ttl time.Duration,
	clk clock.Clock,
) CatalogService {
	return &catalogService{
		products:      products,
		categories:    categories,
		productCache:  cache.New[string, models.Product](ttl, time.Minute, clk),
		categoryCache: cache.New[string, []models.Category](ttl, 0, clk),
	}
}

func (s *catalogService) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	return s.products.List(ctx, filter)
}

func (s *catalogService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	if p, ok := s.productCache.Get(id); ok {
		return &p, nil
	}

	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.productCache.Set(id, *p)
	return p, nil
}

func (s *catalogService) GetProducts(ctx context.Context, ids []string) (map[string]*models.Product, error) {
	out := make(map[string]*models.Product, len(ids))
	var missing []string
	for _, id := range ids {
		if p, ok := s.productCache.Get(id); ok {
			out[id] = &p
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	found, err := s.products.GetByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, p := range found {
		s.productCache.Set(id, *p)
		out[id] = p
	}
	return out, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	p := req.ToProduct()
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id string, req *models.UpdateProductRequest) (*models.Product, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(p)

	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	s.productCache.Delete(id)
	return p, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.productCache.Delete(id)
	return nil
}

func (s *catalogService) InvalidateProduct(id string) {
	s.productCache.Delete(id)
}

func (s *catalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	if list, ok := s.categoryCache.Get(categoriesKey); ok {
		return list, nil
	}

	list, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	s.categoryCache.Set(categoriesKey, list)
	return list, nil
}

func (s *catalogService) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	return s.categories.GetByID(ctx, id)
}

func (s *catalogService) CreateCategory(ctx context.Context, req *models.CreateCategoryRequest) (*models.Category, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	c := &models.Category{Name: req.Name, Description: req.Description, Image: req.Image}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	s.categoryCache.Clear()
	return c, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, id string, req *models.UpdateCategoryRequest) (*models.Category, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(c)

	if err := s.categories.Update(ctx, c); err != nil {
		return nil, err
	}
	s.categoryCache.Clear()
	return c, nil
}

// DeleteCategory detaches the category's products, so every cached product
// may be stale afterwards.
func (s *catalogService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}
	s.categoryCache.Clear()
	s.productCache.Clear()
	return nil
}

var exportHeader = []string{
	"ID", "Name", "Description", "Price", "Sale Price", "Brand",
	"Inventory", "Featured", "Category ID", "Images", "Rating", "Reviews",
}

func (s *catalogService) ExportProducts(ctx context.Context, w io.Writer) error {
	products, err := s.products.List(ctx, models.ProductFilter{})
	if err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range exportHeader {
		header.AddCell().SetString(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetString(p.ID)
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(p.Description)
		row.AddCell().SetString(p.Price.StringFixed(2))
		if p.SalePrice.Valid {
			row.AddCell().SetString(p.SalePrice.Decimal.StringFixed(2))
		} else {
			row.AddCell().SetString("")
		}
		row.AddCell().SetString(p.Brand)
		row.AddCell().SetInt(p.Inventory)
		row.AddCell().SetBool(p.Featured)
		if p.CategoryID != nil {
			row.AddCell().SetString(*p.CategoryID)
		} else {
			row.AddCell().SetString("")
		}
		row.AddCell().SetString(strings.Join(p.Images, ","))
		row.AddCell().SetFloat(p.Rating)
		row.AddCell().SetInt(p.NumReviews)
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (s *catalogService) ImportProducts(ctx context.Context, data []byte) (*models.ImportResult, error) {
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, fmt.Errorf("%w: not a readable xlsx workbook", pkg.ErrBadRequest)
	}
	if len(file.Sheets) == 0 || len(file.Sheets[0].Rows) < 2 {
		return nil, fmt.Errorf("%w: workbook is empty or missing the header row", pkg.ErrBadRequest)
	}

	result := &models.ImportResult{}
	for i, row := range file.Sheets[0].Rows[1:] {
		line := i + 2
		get := func(col int) string {
			if row == nil || col >= len(row.Cells) {
				return ""
			}
			return strings.TrimSpace(row.Cells[col].String())
		}

		p, err := productFromRow(get)
		if err != nil {
			result.Skipped = append(result.Skipped, fmt.Sprintf("row %d: %v", line, err))
			continue
		}

		if p.ID != "" {
			existing, err := s.products.GetByID(ctx, p.ID)
			if err == nil {
				p.Rating, p.NumReviews = existing.Rating, existing.NumReviews
				if err := s.products.Update(ctx, p); err != nil {
					result.Skipped = append(result.Skipped, fmt.Sprintf("row %d: %v", line, err))
					continue
				}
				s.productCache.Delete(p.ID)
				result.Updated++
				continue
			}
		}

		if err := s.products.Create(ctx, p); err != nil {
			result.Skipped = append(result.Skipped, fmt.Sprintf("row %d: %v", line, err))
			continue
		}
		result.Created++
	}
	return result, nil
}

func productFromRow(get func(int) string) (*models.Product, error) {
	name := get(1)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	price, err := decimal.NewFromString(get(3))
	if err != nil || price.IsNegative() {
		return nil, fmt.Errorf("invalid price %q", get(3))
	}

	p := &models.Product{
		ID:          get(0),
		Name:        name,
		Description: get(2),
		Price:       price,
		Brand:       get(5),
		Images:      []string{},
	}

	if raw := get(4); raw != "" {
		sale, err := decimal.NewFromString(raw)
		if err != nil || sale.IsNegative() {
			return nil, fmt.Errorf("invalid sale price %q", raw)
		}
		p.SalePrice = decimal.NewNullDecimal(sale)
	}
	if raw := get(6); raw != "" {
		inv, err := decimal.NewFromString(raw)
		if err != nil || inv.IsNegative() {
			return nil, fmt.Errorf("invalid inventory %q", raw)
		}
		p.Inventory = int(inv.IntPart())
	}
	switch strings.ToLower(get(7)) {
	case "1", "true", "yes":
		p.Featured = true
	}
	if id := get(8); id != "" {
		p.CategoryID = &id
	}
	for _, img := range strings.Split(get(9), ",") {
		if img = strings.TrimSpace(img); img != "" {
			p.Images = append(p.Images, img)
		}
	}
	return p, nil
}

func (s *catalogService) Close() {
	s.productCache.Close()
	s.categoryCache.Close()
}
