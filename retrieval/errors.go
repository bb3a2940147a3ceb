package retrieval

import "errors"

var (
	// ErrEmptyVector indicates a query with no embedding vector.
	ErrEmptyVector = errors.New("query vector is empty")
	// ErrEmptyScope indicates a query with no course scope.
	ErrEmptyScope = errors.New("query scope is empty")
	// ErrDimensionMismatch indicates vectors of different lengths were compared.
	ErrDimensionMismatch = errors.New("vector dimensions do not match")
)
