package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"shopcms/internal/catalog"
)

var productResource = resource{
	kind:         catalog.KindProduct,
	label:        "Product",
	plural:       "Products",
	listFields:   []string{"name", "category", "images", "sellingPrice", "discount", "originalPrice", "isPublic"},
	recentFields: []string{"name", "thumbnail", "images", "affiliateLink", "sellingPrice", "originalPrice"},
}

func (app *application) productRoutes(r chi.Router) {
	r.Post("/create", app.createProductHandler)
	r.Get("/get/all", app.listProductsHandler)
	r.Get("/get/recent", app.recentProductsHandler)
	r.Patch("/update/{id}", app.updateProductHandler)
	r.Delete("/delete/{id}", app.deleteProductHandler)
	r.Get("/{id}", app.getProductHandler)
	r.Get("/", app.searchProductsHandler)
}

// CreateProduct godoc
//
//	@Summary		Create a product
//	@Description	Creates a product. Images are uploaded to the media host before the product is stored.
//	@Tags			Products
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			name					formData	string	true	"Name (3-500 characters)"
//	@Param			productDescription		formData	string	false	"Description, may be empty"
//	@Param			productDetail			formData	string	true	"Detail"
//	@Param			affiliateLink			formData	string	true	"Affiliate URL"
//	@Param			category				formData	string	true	"Category name"
//	@Param			size					formData	string	true	"Size"
//	@Param			sellingPrice			formData	number	true	"Selling price"
//	@Param			originalPrice			formData	number	true	"Original price"
//	@Param			discount				formData	number	true	"Discount percentage (0-100)"
//	@Param			isPublic				formData	boolean	false	"Visible on the storefront (default true)"
//	@Param			thumbnail				formData	file	false	"Thumbnail"
//	@Param			images					formData	[]file	true	"Images (1-5)"
//	@Param			productDescriptionImage	formData	file	false	"Description image"
//	@Success		201						{object}	envelope	"Product id"
//	@Failure		400						{object}	envelope
//	@Failure		500						{object}	envelope
//	@Router			/products/create [post]
func (app *application) createProductHandler(w http.ResponseWriter, r *http.Request) {
	app.createItem(w, r, productResource)
}

// GetProduct godoc
//
//	@Summary	Fetch a product
//	@Tags		Products
//	@Produce	json
//	@Param		id	path		string	true	"Product ID"
//	@Success	200	{object}	envelope
//	@Failure	404	{object}	envelope
//	@Router		/products/{id} [get]
func (app *application) getProductHandler(w http.ResponseWriter, r *http.Request) {
	app.getItem(w, r, productResource)
}

// ListProducts godoc
//
//	@Summary		List products
//	@Description	Lists products newest first. Pass page or limit to get a window with pagination metadata.
//	@Tags			Products
//	@Produce		json
//	@Param			page	query		int	false	"Page number"
//	@Param			limit	query		int	false	"Items per page (max 30)"
//	@Success		200		{object}	envelope
//	@Failure		404		{object}	envelope	"No products"
//	@Router			/products/get/all [get]
func (app *application) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	app.listItems(w, r, productResource)
}

// RecentProducts godoc
//
//	@Summary	Four most recent products
//	@Tags		Products
//	@Produce	json
//	@Success	200	{object}	envelope
//	@Router		/products/get/recent [get]
func (app *application) recentProductsHandler(w http.ResponseWriter, r *http.Request) {
	app.recentItems(w, r, productResource)
}

// UpdateProduct godoc
//
//	@Summary		Update a product
//	@Description	Updates the fields that are sent. A slot that receives files replaces its old images, which are then deleted from the media host.
//	@Tags			Products
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			id			path		string	true	"Product ID"
//	@Param			name		formData	string	false	"Name"
//	@Param			discount	formData	number	false	"Discount percentage"
//	@Param			images		formData	[]file	false	"Replacement images (1-5)"
//	@Success		200			{object}	envelope	"Product id"
//	@Failure		400			{object}	envelope	"Validation error or nothing to update"
//	@Failure		404			{object}	envelope
//	@Failure		500			{object}	envelope
//	@Router			/products/update/{id} [patch]
func (app *application) updateProductHandler(w http.ResponseWriter, r *http.Request) {
	app.updateItem(w, r, productResource)
}

// DeleteProduct godoc
//
//	@Summary	Delete a product and its images
//	@Tags		Products
//	@Produce	json
//	@Param		id	path		string	true	"Product ID"
//	@Success	200	{object}	envelope
//	@Failure	404	{object}	envelope
//	@Failure	500	{object}	envelope
//	@Router		/products/delete/{id} [delete]
func (app *application) deleteProductHandler(w http.ResponseWriter, r *http.Request) {
	app.deleteItem(w, r, productResource)
}

// SearchProducts godoc
//
//	@Summary	Search products by name
//	@Tags		Products
//	@Produce	json
//	@Param		search	query		string	true	"Case-insensitive substring of the name"
//	@Success	200		{object}	envelope
//	@Failure	400		{object}	envelope
//	@Failure	404		{object}	envelope
//	@Router		/products [get]
func (app *application) searchProductsHandler(w http.ResponseWriter, r *http.Request) {
	app.searchItems(w, r, productResource)
}
