package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/benvon/twin-insights/internal/models"
)

// ProductsHandler serves the product catalog shown on the selection page
type ProductsHandler struct{}

// NewProductsHandler creates a new products handler
func NewProductsHandler() *ProductsHandler {
	return &ProductsHandler{}
}

// RegisterRoutes registers product routes
func (h *ProductsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/products", h.ListProducts).Methods("GET")
	r.HandleFunc("/products/{id}", h.GetProduct).Methods("GET")
}

// ListProducts handles GET /api/v1/products
func (h *ProductsHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.Products())
}

// GetProduct handles GET /api/v1/products/{id}. Aliases resolve to the canonical entry.
func (h *ProductsHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := models.ParseProduct(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Product not found")
		return
	}
	info, _ := product.Info()
	respondJSON(w, http.StatusOK, info)
}
