// Package model defines core data structures for bat-cli.
package model

// SymbolKind indicates the syntactic kind of a tree-sitter definition.
type SymbolKind string

const (
	Function       SymbolKind = "function"
	Struct         SymbolKind = "struct"
	Module         SymbolKind = "module"
	Trait          SymbolKind = "trait"
	Implementation SymbolKind = "implementation"
)

// Tag represents a single definition extracted from source code by parsing.
type Tag struct {
	Name       string
	SymbolKind SymbolKind
	Line       int // 1-based start line
	EndLine    int // 1-based end line
	File       string
	// Target is the implementing type of an Implementation tag.
	Target string
}

// MetadataType names one metadata file of the store.
type MetadataType string

const (
	Functions   MetadataType = "functions"
	Structs     MetadataType = "structs"
	Traits      MetadataType = "traits"
	Entrypoints MetadataType = "entrypoints"
)

// MetadataTypes lists every metadata type in store order.
var MetadataTypes = []MetadataType{Functions, Structs, Traits, Entrypoints}

// FunctionType classifies a function.
type FunctionType string

const (
	EntrypointFunction FunctionType = "entrypoint"
	HandlerFunction    FunctionType = "handler"
	ValidatorFunction  FunctionType = "validator"
	HelperFunction     FunctionType = "helper"
	OtherFunction      FunctionType = "other"
)

// StructType classifies a struct.
type StructType string

const (
	ContextAccountsStruct StructType = "context_accounts"
	AccountStruct         StructType = "account"
	InputStruct           StructType = "input"
	OtherStruct           StructType = "other"
)

// TraitType classifies a trait record.
type TraitType string

const (
	TraitDefinition     TraitType = "definition"
	TraitImplementation TraitType = "implementation"
)

// Location identifies a declaration persisted in the metadata store.
// Line numbers are 1-based and inclusive.
type Location struct {
	ID        string
	Name      string
	Path      string
	StartLine int
	EndLine   int
}

// FunctionMetadata describes a function found in the program sources.
type FunctionMetadata struct {
	Location
	Type         FunctionType
	Public       bool
	Dependencies []string
}

// StructMetadata describes a struct found in the program sources.
type StructMetadata struct {
	Location
	Type   StructType
	Public bool
}

// TraitMetadata describes a trait definition or implementation.
type TraitMetadata struct {
	Location
	Type TraitType
	// Target is the implementing type for implementations.
	Target string
}

// EntrypointMetadata describes a public function of the program module.
type EntrypointMetadata struct {
	Location
	ContextAccounts string
	Handler         string
	Parameters      []string
}

// Metadata is the full metadata store.
type Metadata struct {
	Functions   []FunctionMetadata
	Structs     []StructMetadata
	Traits      []TraitMetadata
	Entrypoints []EntrypointMetadata
}

// Locations returns the locations of every record of type t.
func (m *Metadata) Locations(t MetadataType) []Location {
	var out []Location
	switch t {
	case Functions:
		for i := range m.Functions {
			out = append(out, m.Functions[i].Location)
		}
	case Structs:
		for i := range m.Structs {
			out = append(out, m.Structs[i].Location)
		}
	case Traits:
		for i := range m.Traits {
			out = append(out, m.Traits[i].Location)
		}
	case Entrypoints:
		for i := range m.Entrypoints {
			out = append(out, m.Entrypoints[i].Location)
		}
	}
	return out
}
