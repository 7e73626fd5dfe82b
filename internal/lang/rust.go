package lang

import (
	"github.com/smacker/go-tree-sitter/rust"
)

// Rust is the contract language audited by bat-cli.
var Rust = &Language{
	Name:       "rust",
	Extensions: []string{".rs"},
	lang:       rust.GetLanguage(),
}
