// Package sonar locates declarations in Rust-like source text by lexical
// pattern matching on lines and indentation.
package sonar

import "fmt"

// Kind selects which declaration a scan looks for.
type Kind int

const (
	Function Kind = iota
	Struct
	Module
	Conditional
	ValidationCall
	AccountContext
)

// NoName is the Result.Name of kinds that have no nameable token.
const NoName = "NO_NAME"

// Filter holds the token sets that drive a scan for one kind.
type Filter struct {
	// Open tokens must start the trimmed opening line.
	Open []string
	// Confirm tokens must also appear somewhere on the opening line.
	Confirm []string
	// Close tokens, reproduced at the opening indentation, mark the closing line.
	Close []string
}

type kindSpec struct {
	name   string
	filter Filter
	// named kinds extract a name and visibility from the opening line.
	named bool
	// containsClose matches closing lines by containment instead of equality.
	containsClose bool
	// singleLine lets an opening line that already holds a close token close itself.
	singleLine bool
}

var kinds = map[Kind]kindSpec{
	Function: {
		name:   "function",
		filter: Filter{Open: []string{"fn", "pub fn"}, Confirm: []string{"("}, Close: []string{"}"}},
		named:  true,
	},
	Struct: {
		name:   "struct",
		filter: Filter{Open: []string{"struct", "pub struct"}, Confirm: []string{"{"}, Close: []string{"}"}},
		named:  true,
	},
	Module: {
		name:   "module",
		filter: Filter{Open: []string{"mod", "pub mod"}, Confirm: []string{"{"}, Close: []string{"}"}},
		named:  true,
	},
	Conditional: {
		name:   "if",
		filter: Filter{Open: []string{"if"}, Confirm: []string{"{"}, Close: []string{"}"}},
	},
	ValidationCall: {
		name:       "validation",
		filter:     Filter{Open: []string{"require", "valid", "assert", "verify"}, Confirm: []string{"("}, Close: []string{");", ")?;"}},
		singleLine: true,
	},
	AccountContext: {
		name:          "context_accounts",
		filter:        Filter{Open: []string{"#[account"}, Confirm: []string{"("}, Close: []string{"pub"}},
		containsClose: true,
	},
}

// Kinds lists every kind in declaration order.
func Kinds() []Kind {
	return []Kind{Function, Struct, Module, Conditional, ValidationCall, AccountContext}
}

// Filters returns the token sets for k.
func Filters(k Kind) Filter {
	return kinds[k].filter
}

// Named reports whether results of k carry a real name and visibility.
func (k Kind) Named() bool {
	return kinds[k].named
}

func (k Kind) String() string {
	if s, ok := kinds[k]; ok {
		return s.name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind returns the kind whose String form is s.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if kinds[k].name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown declaration kind %q", s)
}
