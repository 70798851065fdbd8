package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"shopcms/internal/catalog"
)

var categoryResource = resource{
	kind:   catalog.KindCategory,
	label:  "Category",
	plural: "Categories",
}

func (app *application) categoryRoutes(r chi.Router) {
	r.Post("/create", app.createCategoryHandler)
	r.Get("/get/all", app.listCategoriesHandler)
	r.Patch("/update/{id}", app.updateCategoryHandler)
	r.Delete("/delete/{id}", app.deleteCategoryHandler)
	r.Get("/{id}", app.getCategoryHandler)
	r.Get("/", app.searchCategoriesHandler)
}

// CreateCategory godoc
//
//	@Summary		Create a category
//	@Description	subCategories is a JSON array of {name, isPublic}. Names must be unique within the category.
//	@Tags			Categories
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			name			formData	string	true	"Name (3-50 characters)"
//	@Param			isPublic		formData	boolean	false	"Visible on the storefront (default true)"
//	@Param			subCategories	formData	string	false	"JSON array of sub categories"
//	@Param			thumbnail		formData	file	true	"Thumbnail"
//	@Success		201				{object}	envelope	"Category id"
//	@Failure		400				{object}	envelope
//	@Failure		500				{object}	envelope
//	@Router			/categories/create [post]
func (app *application) createCategoryHandler(w http.ResponseWriter, r *http.Request) {
	app.createItem(w, r, categoryResource)
}

// GetCategory godoc
//
//	@Summary	Fetch a category with its sub categories
//	@Tags		Categories
//	@Produce	json
//	@Param		id	path		string	true	"Category ID"
//	@Success	200	{object}	envelope
//	@Failure	404	{object}	envelope
//	@Router		/categories/{id} [get]
func (app *application) getCategoryHandler(w http.ResponseWriter, r *http.Request) {
	app.getItem(w, r, categoryResource)
}

// ListCategories godoc
//
//	@Summary	List categories, newest first
//	@Tags		Categories
//	@Produce	json
//	@Param		page	query		int	false	"Page number"
//	@Param		limit	query		int	false	"Items per page (max 30)"
//	@Success	200		{object}	envelope
//	@Failure	404		{object}	envelope
//	@Router		/categories/get/all [get]
func (app *application) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	app.listItems(w, r, categoryResource)
}

// UpdateCategory godoc
//
//	@Summary		Update a category
//	@Description	Sending subCategories replaces the whole list. Renaming a category does not touch products that reference the old name.
//	@Tags			Categories
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			id				path		string	true	"Category ID"
//	@Param			name			formData	string	false	"Name"
//	@Param			isPublic		formData	boolean	false	"Visibility"
//	@Param			subCategories	formData	string	false	"JSON array of sub categories"
//	@Param			thumbnail		formData	file	false	"Replacement thumbnail"
//	@Success		200				{object}	envelope	"Category id"
//	@Failure		400				{object}	envelope
//	@Failure		404				{object}	envelope
//	@Failure		500				{object}	envelope
//	@Router			/categories/update/{id} [patch]
func (app *application) updateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	app.updateItem(w, r, categoryResource)
}

// DeleteCategory godoc
//
//	@Summary	Delete a category and its thumbnail
//	@Tags		Categories
//	@Produce	json
//	@Param		id	path		string	true	"Category ID"
//	@Success	200	{object}	envelope
//	@Failure	404	{object}	envelope
//	@Failure	500	{object}	envelope
//	@Router		/categories/delete/{id} [delete]
func (app *application) deleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	app.deleteItem(w, r, categoryResource)
}

// SearchCategories godoc
//
//	@Summary	Search categories by name
//	@Tags		Categories
//	@Produce	json
//	@Param		search	query		string	true	"Case-insensitive substring of the name"
//	@Success	200		{object}	envelope
//	@Failure	400		{object}	envelope
//	@Failure	404		{object}	envelope
//	@Router		/categories [get]
func (app *application) searchCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	app.searchItems(w, r, categoryResource)
}
