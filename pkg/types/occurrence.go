package types

import (
	"fmt"
	"strings"
)

// SymbolLocation is a position in a source file as reported by the index
type SymbolLocation struct {
	Path       string
	ModuleName string
	IsSystem   bool
	Line       int // 1-based
	UTF8Column int // 1-based, counted in UTF-8 bytes
}

// String renders "path:line:column"
func (l SymbolLocation) String() string {
	return fmt.Sprintf("%s:%d:%d", l.Path, l.Line, l.UTF8Column)
}

// SymbolRole is a set of roles a symbol plays at an occurrence.
// Bit values match the native engine's role constants.
type SymbolRole uint64

const (
	RoleDeclaration SymbolRole = 1 << iota
	RoleDefinition
	RoleReference
	RoleRead
	RoleWrite
	RoleCall
	RoleDynamic
	RoleAddressOf
	RoleImplicit

	// Relation roles
	RoleChildOf
	RoleBaseOf
	RoleOverrideOf
	RoleReceivedBy
	RoleCalledBy
	RoleExtendedBy
	RoleAccessorOf
	RoleContainedBy
	RoleIBTypeOf
	RoleSpecializationOf

	RoleCanonical SymbolRole = 1 << 63

	RoleAll SymbolRole = 1<<19 - 1 | RoleCanonical
)

var roleNames = []struct {
	role SymbolRole
	name string
}{
	{RoleDeclaration, "declaration"},
	{RoleDefinition, "definition"},
	{RoleReference, "reference"},
	{RoleRead, "read"},
	{RoleWrite, "write"},
	{RoleCall, "call"},
	{RoleDynamic, "dynamic"},
	{RoleAddressOf, "addressOf"},
	{RoleImplicit, "implicit"},
	{RoleChildOf, "childOf"},
	{RoleBaseOf, "baseOf"},
	{RoleOverrideOf, "overrideOf"},
	{RoleReceivedBy, "receivedBy"},
	{RoleCalledBy, "calledBy"},
	{RoleExtendedBy, "extendedBy"},
	{RoleAccessorOf, "accessorOf"},
	{RoleContainedBy, "containedBy"},
	{RoleIBTypeOf, "ibTypeOf"},
	{RoleSpecializationOf, "specializationOf"},
	{RoleCanonical, "canonical"},
}

// Contains reports whether every role in other is set in r
func (r SymbolRole) Contains(other SymbolRole) bool {
	return r&other == other
}

// ContainsAny reports whether r and other share at least one role
func (r SymbolRole) ContainsAny(other SymbolRole) bool {
	return r&other != 0
}

// String lists the set roles, e.g. "[definition|call]"
func (r SymbolRole) String() string {
	var names []string
	for _, rn := range roleNames {
		if r.Contains(rn.role) {
			names = append(names, rn.name)
		}
	}
	return "[" + strings.Join(names, "|") + "]"
}

// SymbolOccurrence is a symbol paired with where it appears and how it is used there
type SymbolOccurrence struct {
	Symbol   Symbol
	Location SymbolLocation
	Roles    SymbolRole
}

// String renders "<location> <roles> | <symbol>"
func (o SymbolOccurrence) String() string {
	return fmt.Sprintf("%s %s | %s", o.Location, o.Roles, o.Symbol)
}
