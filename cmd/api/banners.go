package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"shopcms/internal/catalog"
)

var bannerResource = resource{
	kind:       catalog.KindBanner,
	label:      "Banner",
	plural:     "Banners",
	returnItem: true,
	noChange:   "There is no image to update",
}

func (app *application) bannerRoutes(r chi.Router) {
	r.Post("/create", app.createBannerHandler)
	r.Get("/get", app.getBannerHandler)
	r.Get("/get/all", app.listBannersHandler)
	r.Patch("/update/{id}", app.updateBannerHandler)
	r.Delete("/delete/{id}", app.deleteBannerHandler)
}

// CreateBanner godoc
//
//	@Summary	Create a banner from three images
//	@Tags		Banners
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		imageOne	formData	file	true	"First image"
//	@Param		imageTwo	formData	file	true	"Second image"
//	@Param		imageThree	formData	file	true	"Third image"
//	@Success	201			{object}	envelope
//	@Failure	400			{object}	envelope
//	@Failure	500			{object}	envelope
//	@Router		/banners/create [post]
func (app *application) createBannerHandler(w http.ResponseWriter, r *http.Request) {
	app.createItem(w, r, bannerResource)
}

// GetBanner godoc
//
//	@Summary	Fetch the current banner
//	@Tags		Banners
//	@Produce	json
//	@Success	200	{object}	envelope
//	@Failure	404	{object}	envelope
//	@Router		/banners/get [get]
func (app *application) getBannerHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	banners, err := app.repo.FindRecent(ctx, catalog.KindBanner, 1)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if len(banners) == 0 {
		app.notFoundResponse(w, r, errors.New("Banner not found"))
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "Banner found successfully", banners[0]); err != nil {
		app.internalServerError(w, r, err)
	}
}

// ListBanners godoc
//
//	@Summary	List banners, newest first
//	@Tags		Banners
//	@Produce	json
//	@Success	200	{object}	envelope
//	@Failure	404	{object}	envelope
//	@Router		/banners/get/all [get]
func (app *application) listBannersHandler(w http.ResponseWriter, r *http.Request) {
	app.listItems(w, r, bannerResource)
}

// UpdateBanner godoc
//
//	@Summary	Replace some of a banner's images
//	@Tags		Banners
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		id			path		string	true	"Banner ID"
//	@Param		imageOne	formData	file	false	"First image"
//	@Param		imageTwo	formData	file	false	"Second image"
//	@Param		imageThree	formData	file	false	"Third image"
//	@Success	200			{object}	envelope
//	@Failure	400			{object}	envelope	"No image sent"
//	@Failure	404			{object}	envelope
//	@Failure	500			{object}	envelope
//	@Router		/banners/update/{id} [patch]
func (app *application) updateBannerHandler(w http.ResponseWriter, r *http.Request) {
	app.updateItem(w, r, bannerResource)
}

// DeleteBanner godoc
//
//	@Summary	Delete a banner and its images
//	@Tags		Banners
//	@Produce	json
//	@Param		id	path		string	true	"Banner ID"
//	@Success	200	{object}	envelope
//	@Failure	404	{object}	envelope
//	@Failure	500	{object}	envelope
//	@Router		/banners/delete/{id} [delete]
func (app *application) deleteBannerHandler(w http.ResponseWriter, r *http.Request) {
	app.deleteItem(w, r, bannerResource)
}
