package main

import (
	"errors"
	"fmt"
	"net/http"

	"shopcms/internal/catalog"
)

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.serverErrorResponse(w, r, err, "the server encountered a problem")
}

func (app *application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error, message string) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	writeJSONError(w, http.StatusInternalServerError, message)
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	writeJSONError(w, http.StatusBadRequest, err.Error())
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("not found error", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	writeJSONError(w, http.StatusNotFound, err.Error())
}

func (app *application) unauthorizedBasicErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized basic error", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)
	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter string) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path)
	w.Header().Set("Retry-After", retryAfter)
	writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, retry after: "+retryAfter)
}

// catalogError maps reconciler, validator and repository errors onto
// responses worded for res.
func (app *application) catalogError(w http.ResponseWriter, r *http.Request, res resource, err error) {
	var (
		verr    *catalog.ValidationError
		missing *catalog.MissingMediaError
		upErr   *catalog.MediaUploadError
	)

	switch {
	case errors.As(err, &verr), errors.As(err, &missing):
		app.badRequestResponse(w, r, err)
	case errors.Is(err, catalog.ErrNoOpUpdate):
		app.badRequestResponse(w, r, errors.New(res.noChangeMessage()))
	case errors.Is(err, catalog.ErrNotUpdatable):
		app.badRequestResponse(w, r, fmt.Errorf("%s cannot be updated", res.label))
	// a failed delete may wrap a not-found from a concurrent removal
	case errors.Is(err, catalog.ErrDeleteFailed):
		app.serverErrorResponse(w, r, err, res.label+" deletion failed")
	case errors.Is(err, catalog.ErrNotFound):
		app.notFoundResponse(w, r, fmt.Errorf("%s not found", res.label))
	case errors.As(err, &upErr):
		app.serverErrorResponse(w, r, err, "Image upload failed")
	case errors.Is(err, catalog.ErrPersistFailed):
		app.serverErrorResponse(w, r, err, res.label+" could not be saved")
	default:
		app.internalServerError(w, r, err)
	}
}
