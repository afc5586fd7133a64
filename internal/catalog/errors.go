package catalog

import "errors"

var (
	ErrInvalidInput = errors.New("catalog: invalid input")
	ErrNotFound     = errors.New("catalog: not found")
	ErrConflict     = errors.New("catalog: resource conflict")
)
