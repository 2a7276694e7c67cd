package types

import "fmt"

// SymbolKind is the category of an indexed symbol
type SymbolKind int

const (
	KindUnknown SymbolKind = iota
	KindModule
	KindNamespace
	KindNamespaceAlias
	KindMacro
	KindEnum
	KindStruct
	KindClass
	KindProtocol
	KindExtension
	KindUnion
	KindTypeAlias
	KindFunction
	KindVariable
	KindField
	KindEnumConstant
	KindInstanceMethod
	KindClassMethod
	KindStaticMethod
	KindInstanceProperty
	KindClassProperty
	KindStaticProperty
	KindConstructor
	KindDestructor
	KindConversionFunction
	KindParameter
	KindUsing
	KindCommentTag
)

// KindCode is the native index engine's integer encoding of a symbol kind
// (indexstoredb_symbol_kind_t).
type KindCode uint32

const (
	KindCodeUnknown            KindCode = 0
	KindCodeModule             KindCode = 1
	KindCodeNamespace          KindCode = 2
	KindCodeNamespaceAlias     KindCode = 3
	KindCodeMacro              KindCode = 4
	KindCodeEnum               KindCode = 5
	KindCodeStruct             KindCode = 6
	KindCodeClass              KindCode = 7
	KindCodeProtocol           KindCode = 8
	KindCodeExtension          KindCode = 9
	KindCodeUnion              KindCode = 10
	KindCodeTypeAlias          KindCode = 11
	KindCodeFunction           KindCode = 12
	KindCodeVariable           KindCode = 13
	KindCodeField              KindCode = 14
	KindCodeEnumConstant       KindCode = 15
	KindCodeInstanceMethod     KindCode = 16
	KindCodeClassMethod        KindCode = 17
	KindCodeStaticMethod       KindCode = 18
	KindCodeInstanceProperty   KindCode = 19
	KindCodeClassProperty      KindCode = 20
	KindCodeStaticProperty     KindCode = 21
	KindCodeConstructor        KindCode = 22
	KindCodeDestructor         KindCode = 23
	KindCodeConversionFunction KindCode = 24
	KindCodeParameter          KindCode = 25
	KindCodeUsing              KindCode = 26
	KindCodeCommentTag         KindCode = 1000
)

// kindTable holds one row per SymbolKind, indexed by the kind itself
var kindTable = [...]struct {
	name string
	code KindCode
}{
	KindUnknown:            {"unknown", KindCodeUnknown},
	KindModule:             {"module", KindCodeModule},
	KindNamespace:          {"namespace", KindCodeNamespace},
	KindNamespaceAlias:     {"namespaceAlias", KindCodeNamespaceAlias},
	KindMacro:              {"macro", KindCodeMacro},
	KindEnum:               {"enum", KindCodeEnum},
	KindStruct:             {"struct", KindCodeStruct},
	KindClass:              {"class", KindCodeClass},
	KindProtocol:           {"protocol", KindCodeProtocol},
	KindExtension:          {"extension", KindCodeExtension},
	KindUnion:              {"union", KindCodeUnion},
	KindTypeAlias:          {"typealias", KindCodeTypeAlias},
	KindFunction:           {"function", KindCodeFunction},
	KindVariable:           {"variable", KindCodeVariable},
	KindField:              {"field", KindCodeField},
	KindEnumConstant:       {"enumConstant", KindCodeEnumConstant},
	KindInstanceMethod:     {"instanceMethod", KindCodeInstanceMethod},
	KindClassMethod:        {"classMethod", KindCodeClassMethod},
	KindStaticMethod:       {"staticMethod", KindCodeStaticMethod},
	KindInstanceProperty:   {"instanceProperty", KindCodeInstanceProperty},
	KindClassProperty:      {"classProperty", KindCodeClassProperty},
	KindStaticProperty:     {"staticProperty", KindCodeStaticProperty},
	KindConstructor:        {"constructor", KindCodeConstructor},
	KindDestructor:         {"destructor", KindCodeDestructor},
	KindConversionFunction: {"conversionFunction", KindCodeConversionFunction},
	KindParameter:          {"parameter", KindCodeParameter},
	KindUsing:              {"using", KindCodeUsing},
	KindCommentTag:         {"commentTag", KindCodeCommentTag},
}

// codeTable maps native codes back to kinds
var codeTable = func() map[KindCode]SymbolKind {
	m := make(map[KindCode]SymbolKind, len(kindTable))
	for k, row := range kindTable {
		m[row.code] = SymbolKind(k)
	}
	return m
}()

// SymbolKindFromCode converts a native kind code to a SymbolKind.
// Codes this build does not recognize map to KindUnknown.
func SymbolKindFromCode(code KindCode) SymbolKind {
	if k, ok := codeTable[code]; ok {
		return k
	}
	return KindUnknown
}

// Code returns the native kind code for k
func (k SymbolKind) Code() KindCode {
	if !k.IsValid() {
		return KindCodeUnknown
	}
	return kindTable[k].code
}

// IsValid reports whether k is one of the declared kinds
func (k SymbolKind) IsValid() bool {
	return k >= KindUnknown && int(k) < len(kindTable)
}

// String returns the kind's variant name, e.g. "instanceMethod"
func (k SymbolKind) String() string {
	if !k.IsValid() {
		return kindTable[KindUnknown].name
	}
	return kindTable[k].name
}

// ParseSymbolKind is the inverse of SymbolKind.String
func ParseSymbolKind(name string) (SymbolKind, error) {
	for k, row := range kindTable {
		if row.name == name {
			return SymbolKind(k), nil
		}
	}
	return KindUnknown, fmt.Errorf("%w: %q", ErrInvalidSymbolKind, name)
}

// AllSymbolKinds returns every kind in declaration order
func AllSymbolKinds() []SymbolKind {
	kinds := make([]SymbolKind, len(kindTable))
	for i := range kindTable {
		kinds[i] = SymbolKind(i)
	}
	return kinds
}
