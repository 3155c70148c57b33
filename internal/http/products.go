package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/robertarktes/event-marketplace/internal/product"
)

type productRequest struct {
	StallID     *uuid.UUID `json:"stall_id"`
	Name        string     `json:"name" validate:"required"`
	Description string     `json:"description"`
	Price       float64    `json:"price" validate:"gte=0"`
	Image       string     `json:"image"`
}

func (p productRequest) input() product.Input {
	return product.Input{StallID: p.StallID, Name: p.Name, Description: p.Description, Price: p.Price, Image: p.Image}
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.products.Create(r.Context(), principal(r).UserID, req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Product created successfully", p)
}

func (h *Handlers) MyProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListByVendor(r.Context(), principal(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Products retrieved", products)
}

func (h *Handlers) StallProducts(w http.ResponseWriter, r *http.Request) {
	stallID, err := pathID(r, "stall_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	products, err := h.products.ListByStall(r.Context(), stallID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Products retrieved", products)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req productRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.products.Update(r.Context(), principal(r).UserID, id, req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Product updated successfully", p)
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.products.Delete(r.Context(), principal(r).UserID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Product deleted successfully", nil)
}
