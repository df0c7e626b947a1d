package ocr

import "errors"

// ErrNoPages is returned when rasterization produced no page images.
var ErrNoPages = errors.New("no pages rendered")
