package main

import (
	"context"
	"net/http"

	"shopcms/internal/catalog"
)

type countResponse struct {
	ProductCount  int `json:"productCount"`
	BlogCount     int `json:"blogCount"`
	CategoryCount int `json:"categoryCount"`
}

// Count godoc
//
//	@Summary	Dashboard counts
//	@Tags		Base
//	@Produce	json
//	@Success	200	{object}	envelope{data=countResponse}
//	@Failure	500	{object}	envelope
//	@Router		/base/count [get]
func (app *application) countHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	var resp countResponse
	for _, c := range []struct {
		kind catalog.Kind
		dst  *int
	}{
		{catalog.KindProduct, &resp.ProductCount},
		{catalog.KindBlog, &resp.BlogCount},
		{catalog.KindCategory, &resp.CategoryCount},
	} {
		n, err := app.repo.Count(ctx, c.kind)
		if err != nil {
			app.internalServerError(w, r, err)
			return
		}
		*c.dst = n
	}

	if err := app.jsonResponse(w, http.StatusOK, "Counts found successfully", resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

// HealthCheck godoc
//
//	@Summary	Health check
//	@Tags		Ops
//	@Produce	json
//	@Success	200	{object}	envelope
//	@Router		/health [get]
func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	data := map[string]string{
		"status":  "ok",
		"env":     app.config.env,
		"version": version,
		"store":   app.config.db.driver,
	}

	if err := app.jsonResponse(w, http.StatusOK, "ok", data); err != nil {
		app.internalServerError(w, r, err)
	}
}
