package types

import (
	"bytes"
	"strings"
)

// Symbol is a uniquely identified, kind-tagged program entity from the index
type Symbol struct {
	USR  string // Unified symbol resolution key, opaque to this package
	Name string // Display name, not unique
	Kind SymbolKind
}

// NewSymbol creates a symbol from explicit field values
func NewSymbol(usr, name string, kind SymbolKind) Symbol {
	return Symbol{USR: usr, Name: name, Kind: kind}
}

// SymbolHandle is a borrowed reference to a symbol owned by the native index
// engine. Byte slices returned by its accessors may be NUL-terminated and are
// only valid until the owner reuses or releases the handle.
type SymbolHandle interface {
	USR() []byte
	Name() []byte
	KindCode() KindCode
}

// SymbolFromHandle copies a symbol out of a native handle.
// The returned Symbol shares no memory with h, so the caller may release h
// immediately afterwards. h must be non-nil.
func SymbolFromHandle(h SymbolHandle) Symbol {
	return Symbol{
		USR:  cString(h.USR()),
		Name: cString(h.Name()),
		Kind: SymbolKindFromCode(h.KindCode()),
	}
}

// cString decodes a possibly NUL-terminated buffer into an owned string
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// Equal reports whether s and other have the same USR, name and kind
func (s Symbol) Equal(other Symbol) bool {
	return s == other
}

// Compare orders symbols by USR, then name. Kind does not take part, so two
// symbols that differ only in kind compare as 0 while not being Equal.
func (s Symbol) Compare(other Symbol) int {
	if c := strings.Compare(s.USR, other.USR); c != 0 {
		return c
	}
	return strings.Compare(s.Name, other.Name)
}

// Less reports whether s sorts before other
func (s Symbol) Less(other Symbol) bool {
	return s.Compare(other) < 0
}

// String renders "<name> | <kind> | <usr>" for diagnostics
func (s Symbol) String() string {
	return s.Name + " | " + s.Kind.String() + " | " + s.USR
}

// SymbolOption overrides one field in Symbol.With
type SymbolOption func(*Symbol)

// WithUSR replaces the USR
func WithUSR(usr string) SymbolOption {
	return func(s *Symbol) { s.USR = usr }
}

// WithName replaces the display name
func WithName(name string) SymbolOption {
	return func(s *Symbol) { s.Name = name }
}

// WithKind replaces the kind
func WithKind(kind SymbolKind) SymbolOption {
	return func(s *Symbol) { s.Kind = kind }
}

// With returns a copy of s with the given fields replaced
func (s Symbol) With(opts ...SymbolOption) Symbol {
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// At returns an occurrence of s at location with the given roles
func (s Symbol) At(location SymbolLocation, roles SymbolRole) SymbolOccurrence {
	return SymbolOccurrence{
		Symbol:   s,
		Location: location,
		Roles:    roles,
	}
}
