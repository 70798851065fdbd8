package main

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gabriel-vasile/mimetype"

	"shopcms/internal/catalog"
	"shopcms/internal/media"
)

const (
	maxUploadBytes = 25 << 20 // whole multipart body
	maxMemoryBytes = 8 << 20  // larger parts spill to disk
)

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp"}

// requestForm is a request body reduced to string values and image blobs,
// whatever encoding it arrived in.
type requestForm struct {
	values map[string][]string
	blobs  map[string][]media.Blob
}

// readForm accepts multipart, urlencoded and JSON bodies. JSON scalars are
// flattened to their string form; arrays and objects are kept as raw JSON.
func (app *application) readForm(w http.ResponseWriter, r *http.Request) (requestForm, error) {
	form := requestForm{values: map[string][]string{}, blobs: map[string][]media.Blob{}}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxMemoryBytes); err != nil {
			return form, fmt.Errorf("failed to parse form: %w", err)
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()

		form.values = r.MultipartForm.Value
		blobs, err := readBlobs(r.MultipartForm.File)
		if err != nil {
			return form, err
		}
		form.blobs = blobs

	case "application/json":
		var body map[string]any
		if err := readJSON(w, r, &body); err != nil {
			if err == io.EOF {
				return form, nil
			}
			return form, fmt.Errorf("invalid JSON body: %w", err)
		}
		values, err := flattenJSON(body)
		if err != nil {
			return form, err
		}
		form.values = values

	default:
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		if err := r.ParseForm(); err != nil {
			return form, fmt.Errorf("failed to parse form: %w", err)
		}
		form.values = r.PostForm
	}

	return form, nil
}

func flattenJSON(body map[string]any) (map[string][]string, error) {
	values := make(map[string][]string, len(body))
	for key, v := range body {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			values[key] = []string{val}
		case json.Number:
			values[key] = []string{val.String()}
		case bool:
			values[key] = []string{strconv.FormatBool(val)}
		default:
			raw, err := json.Marshal(val)
			if err != nil {
				return nil, fmt.Errorf("encode %q: %w", key, err)
			}
			values[key] = []string{string(raw)}
		}
	}
	return values, nil
}

// readBlobs loads every uploaded file, keyed by its form field. Files are
// sniffed from their bytes, not their declared content type.
func readBlobs(files map[string][]*multipart.FileHeader) (map[string][]media.Blob, error) {
	blobs := make(map[string][]media.Blob, len(files))
	for field, headers := range files {
		for _, fh := range headers {
			// browsers send an empty part for an untouched file input
			if fh.Filename == "" && fh.Size == 0 {
				continue
			}
			blob, err := readBlob(field, fh)
			if err != nil {
				return nil, err
			}
			blobs[field] = append(blobs[field], blob)
		}
	}
	return blobs, nil
}

func readBlob(field string, fh *multipart.FileHeader) (media.Blob, error) {
	file, err := fh.Open()
	if err != nil {
		return media.Blob{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return media.Blob{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	if len(data) == 0 {
		return media.Blob{}, &catalog.ValidationError{Field: field, Reason: fmt.Sprintf("%q must not be empty", field)}
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedImageTypes...) {
		return media.Blob{}, &catalog.ValidationError{
			Field:  field,
			Reason: fmt.Sprintf("%q must be a JPEG, PNG or WebP image, got %s", field, mtype.String()),
		}
	}

	return media.Blob{
		Filename:    fh.Filename,
		ContentType: mtype.String(),
		Data:        data,
	}, nil
}
