package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/kalp9197/luxe-ecommerce-site/models"
	"github.com/kalp9197/luxe-ecommerce-site/pkg"
	"github.com/kalp9197/luxe-ecommerce-site/services"
)

// importMaxSize caps an uploaded catalog workbook.
const importMaxSize = 10 << 20

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ProductHandler struct {
	catalog services.CatalogService
}

func NewProductHandler(catalog services.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// List godoc
// GET /api/products?category=&featured=&q=
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := models.ProductFilter{
		CategoryID: query.Get("category"),
		Query:      query.Get("q"),
	}
	if raw := query.Get("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "featured must be true or false")
			return
		}
		filter.Featured = &featured
	}

	products, err := h.catalog.ListProducts(r.Context(), filter)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, products)
}

// Get godoc
// GET /api/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, product)
}

// Create godoc
// POST /api/products (admin)
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProductRequest
	if !decodeBody(w, r, &req) {
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, product)
}

// Update godoc
// PUT /api/products/{id} (admin)
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProductRequest
	if !decodeBody(w, r, &req) {
		return
	}

	product, err := h.catalog.UpdateProduct(r.Context(), r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, product)
}

// Delete godoc
// DELETE /api/products/{id} (admin)
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "product removed"})
}

// Export godoc
// GET /api/products/export (admin)
// Streams the whole catalog as an xlsx workbook.
func (h *ProductHandler) Export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="products.xlsx"`)

	if err := h.catalog.ExportProducts(r.Context(), w); err != nil {
		pkg.Error(w, err)
	}
}

// Import godoc
// POST /api/products/import (admin)
// Content-Type: multipart/form-data, field "file".
func (h *ProductHandler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := readUpload(r, importMaxSize)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	result, err := h.catalog.ImportProducts(r.Context(), data)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, result)
}

func readUpload(r *http.Request, maxSize int64) ([]byte, error) {
	if err := r.ParseMultipartForm(maxSize); err != nil {
		return nil, fmt.Errorf("%w: failed to parse multipart form", pkg.ErrBadRequest)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("%w: file field is required", pkg.ErrBadRequest)
	}
	defer file.Close()

	if header.Size > maxSize {
		return nil, fmt.Errorf("%w: file too large (max %dMB)", pkg.ErrBadRequest, maxSize>>20)
	}

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return data, nil
}
