// Package types provides the symbol data model shared by every component of
// indexstore-mcp.
//
// # Symbol Kinds
//
// SymbolKind is a closed taxonomy of symbol categories recognized by the native
// index engine. Each kind has exactly one native integer code:
//
//	code := types.KindInstanceMethod.Code()   // 16
//	kind := types.SymbolKindFromCode(code)    // KindInstanceMethod
//
// Codes that this build does not recognize convert to KindUnknown instead of
// failing, so newer engines keep working:
//
//	types.SymbolKindFromCode(4242) // KindUnknown
//
// # Symbols
//
// Symbol bundles a USR, a display name and a kind. Symbols are plain values:
//
//	sym := types.NewSymbol("s:3foo3BarC", "Bar", types.KindClass)
//	renamed := sym.With(types.WithName("Baz"))
//	fmt.Println(renamed) // Baz | class | s:3foo3BarC
//
// Symbols read from the engine arrive as a SymbolHandle whose buffers belong to
// the engine. SymbolFromHandle copies every field out, so the handle can be
// released as soon as it returns:
//
//	sym := types.SymbolFromHandle(h)
//	h.Release()
//
// # Ordering
//
// Compare and Less order by USR and then name. Kind is not part of the ordering
// key, so two symbols that differ only by kind sort as equal while Equal
// reports false.
//
// # Occurrences
//
// At attaches a location and a role set to a symbol:
//
//	occ := sym.At(types.SymbolLocation{Path: "Bar.swift", Line: 3, UTF8Column: 7},
//	    types.RoleDefinition|types.RoleCanonical)
package types
