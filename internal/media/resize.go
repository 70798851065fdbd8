package media

import (
	"bytes"
	"context"
	"fmt"

	"github.com/disintegration/imaging"
)

// Resizer shrinks JPEG and PNG images so neither side exceeds MaxDimension
// before handing them to the wrapped store. Other formats pass through.
type Resizer struct {
	Store
	MaxDimension int
}

func NewResizer(store Store, maxDimension int) *Resizer {
	return &Resizer{Store: store, MaxDimension: maxDimension}
}

var resizableFormats = map[string]imaging.Format{
	"image/jpeg": imaging.JPEG,
	"image/png":  imaging.PNG,
}

func (r *Resizer) Upload(ctx context.Context, folder string, blob Blob) (string, error) {
	resized, err := r.resize(blob)
	if err != nil {
		return "", err
	}
	return r.Store.Upload(ctx, folder, resized)
}

func (r *Resizer) resize(blob Blob) (Blob, error) {
	format, ok := resizableFormats[blob.ContentType]
	if !ok || r.MaxDimension <= 0 {
		return blob, nil
	}

	img, err := imaging.Decode(bytes.NewReader(blob.Data), imaging.AutoOrientation(true))
	if err != nil {
		return Blob{}, fmt.Errorf("decode %s: %w", blob.Filename, err)
	}

	b := img.Bounds()
	if b.Dx() <= r.MaxDimension && b.Dy() <= r.MaxDimension {
		return blob, nil
	}

	fitted := imaging.Fit(img, r.MaxDimension, r.MaxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, format, imaging.JPEGQuality(85)); err != nil {
		return Blob{}, fmt.Errorf("encode %s: %w", blob.Filename, err)
	}

	blob.Data = buf.Bytes()
	return blob, nil
}
