package types

import "errors"

// Domain errors for type conversion
var (
	// ErrInvalidSymbolKind is returned when a kind name is not part of the taxonomy
	ErrInvalidSymbolKind = errors.New("invalid symbol kind")
)
