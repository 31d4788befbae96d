package handlers

import (
	"net/http"

	"github.com/kalp9197/luxe-ecommerce-site/pkg"
)

// Health godoc
// GET /api/health
func Health(w http.ResponseWriter, _ *http.Request) {
	pkg.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
