package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"shopcms/internal/catalog"
	"shopcms/internal/params"
)

const (
	readTimeout  = 10 * time.Second
	writeTimeout = 60 * time.Second // covers media uploads
	recentLimit  = 4
)

// resource describes how one kind is exposed over HTTP.
type resource struct {
	kind   catalog.Kind
	label  string // "Product"
	plural string // "Products"

	// listFields projects get/all and search results; nil keeps everything.
	listFields []string
	// recentFields projects get/recent results.
	recentFields []string
	// returnItem makes create/update answer with the whole item instead of its id.
	returnItem bool
	// noChange overrides the no-op update message.
	noChange string
}

func (res resource) noChangeMessage() string {
	if res.noChange != "" {
		return res.noChange
	}
	return "No fields to update"
}

func (res resource) result(item *catalog.Item) any {
	if res.returnItem {
		return item
	}
	return item.ID
}

func project(items []*catalog.Item, fields []string) []any {
	out := make([]any, len(items))
	for i, it := range items {
		if fields == nil {
			out[i] = it
			continue
		}
		out[i] = it.Project(fields...)
	}
	return out
}

type listResponse struct {
	Items      []any             `json:"items"`
	Pagination params.Pagination `json:"pagination"`
}

func (app *application) createItem(w http.ResponseWriter, r *http.Request, res resource) (*catalog.Item, bool) {
	form, err := app.readForm(w, r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return nil, false
	}

	in, err := app.validator.Create(res.kind, form.values)
	if err != nil {
		app.catalogError(w, r, res, err)
		return nil, false
	}
	in.Media = form.blobs

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	item, err := app.catalog.Create(ctx, res.kind, in)
	if err != nil {
		app.catalogError(w, r, res, err)
		return nil, false
	}

	app.logger.Infow("created", "kind", res.kind, "id", item.ID, "media", len(item.References()))
	if err := app.jsonResponse(w, http.StatusCreated, res.label+" created successfully", res.result(item)); err != nil {
		app.internalServerError(w, r, err)
	}
	return item, true
}

func (app *application) getItem(w http.ResponseWriter, r *http.Request, res resource) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	item, err := app.repo.FindByID(ctx, res.kind, chi.URLParam(r, "id"))
	if err != nil {
		app.catalogError(w, r, res, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, res.label+" found successfully", item); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listItems lists newest first. With ?page or ?limit the result is
// windowed and carries pagination metadata.
func (app *application) listItems(w http.ResponseWriter, r *http.Request, res resource) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	q := r.URL.Query()
	paged := params.Requested(q)
	p := params.ParsePagination(q)

	page := catalog.Page{}
	if paged {
		page = catalog.Page{Limit: p.Limit, Offset: p.Offset}
	}

	items, err := app.repo.FindAll(ctx, res.kind, page)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if len(items) == 0 {
		app.notFoundResponse(w, r, fmt.Errorf("%s not found", res.plural))
		return
	}

	var data any = project(items, res.listFields)
	if paged {
		total, err := app.repo.Count(ctx, res.kind)
		if err != nil {
			app.internalServerError(w, r, err)
			return
		}
		p.ComputeMeta(total)
		data = listResponse{Items: project(items, res.listFields), Pagination: p}
	}

	if err := app.jsonResponse(w, http.StatusOK, res.plural+" found successfully", data); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) recentItems(w http.ResponseWriter, r *http.Request, res resource) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	items, err := app.repo.FindRecent(ctx, res.kind, recentLimit)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, res.plural+" found successfully", project(items, res.recentFields)); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) updateItem(w http.ResponseWriter, r *http.Request, res resource) {
	id := chi.URLParam(r, "id")

	form, err := app.readForm(w, r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	in, err := app.validator.Update(res.kind, form.values)
	if err != nil {
		app.catalogError(w, r, res, err)
		return
	}
	in.Media = form.blobs

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	existing, err := app.repo.FindByID(ctx, res.kind, id)
	if err != nil {
		app.catalogError(w, r, res, err)
		return
	}

	updated, err := app.catalog.Update(ctx, existing, in)
	if err != nil {
		app.catalogError(w, r, res, err)
		return
	}

	app.logger.Infow("updated", "kind", res.kind, "id", updated.ID)
	if err := app.jsonResponse(w, http.StatusOK, res.label+" updated successfully", res.result(updated)); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) deleteItem(w http.ResponseWriter, r *http.Request, res resource) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	item, err := app.catalog.Delete(ctx, res.kind, chi.URLParam(r, "id"))
	if err != nil {
		app.catalogError(w, r, res, err)
		return
	}

	app.logger.Infow("deleted", "kind", res.kind, "id", item.ID)
	if err := app.jsonResponse(w, http.StatusOK, res.label+" deleted successfully", item.ID); err != nil {
		app.internalServerError(w, r, err)
	}
}

// searchItems matches ?search= against the kind's search field.
func (app *application) searchItems(w http.ResponseWriter, r *http.Request, res resource) {
	text := strings.TrimSpace(r.URL.Query().Get("search"))
	if text == "" {
		app.badRequestResponse(w, r, errors.New("Search query is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	field := catalog.MustSchema(res.kind).SearchField
	items, err := app.repo.Search(ctx, res.kind, field, text)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if len(items) == 0 {
		app.notFoundResponse(w, r, fmt.Errorf("%s not found", res.plural))
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, res.plural+" found successfully", project(items, res.listFields)); err != nil {
		app.internalServerError(w, r, err)
	}
}
