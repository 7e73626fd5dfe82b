// Package parse extracts definition tags from Rust sources using tree-sitter
// and uses them to confirm lexical scan candidates.
package parse

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/bat-cli/internal/lang"
	"github.com/phobologic/bat-cli/internal/model"
	"github.com/phobologic/bat-cli/internal/sonar"
)

var captureMap = map[string]model.SymbolKind{
	"definition.function":       model.Function,
	"definition.struct":         model.Struct,
	"definition.module":         model.Module,
	"definition.trait":          model.Trait,
	"definition.implementation": model.Implementation,
}

// ExtractTags parses a source file and returns its definition tags.
// The parser must be created for the correct language.
// filePath is used only for Tag.File and should be the program-relative path.
func ExtractTags(parser *sitter.Parser, query *sitter.Query, source []byte, filePath string) []model.Tag {
	if len(source) == 0 {
		return nil
	}

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil
	}
	defer tree.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, tree.RootNode())

	var tags []model.Tag

	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, source)

		var nameNode, defNode *sitter.Node
		var kind model.SymbolKind

		for _, c := range match.Captures {
			cname := query.CaptureNameForId(c.Index)
			if cname == "name" {
				nameNode = c.Node
			} else if k, ok := captureMap[cname]; ok {
				kind = k
				defNode = c.Node
			}
		}

		if nameNode == nil || defNode == nil {
			continue
		}

		tag := model.Tag{
			Name:       lang.NodeText(nameNode, source),
			SymbolKind: kind,
			Line:       int(defNode.StartPoint().Row) + 1,
			EndLine:    int(defNode.EndPoint().Row) + 1,
			File:       filePath,
		}
		if kind == model.Implementation {
			if target := defNode.ChildByFieldName("type"); target != nil {
				tag.Target = lang.NodeText(target, source)
			}
		}
		tags = append(tags, tag)
	}

	return tags
}

// Tags parses source with the Rust grammar.
func Tags(source []byte, filePath string) ([]model.Tag, error) {
	q, err := lang.Rust.GetTagQuery()
	if err != nil {
		return nil, err
	}
	return ExtractTags(lang.Rust.NewParser(), q, source, filePath), nil
}

var scanKinds = map[sonar.Kind]model.SymbolKind{
	sonar.Function: model.Function,
	sonar.Struct:   model.Struct,
	sonar.Module:   model.Module,
}

// Confirmer returns a sonar.Decision that accepts a named candidate only
// when the parse has a definition of the same kind and name starting on the
// candidate's opening line. Unnamed kinds are always accepted.
func Confirmer(tags []model.Tag) sonar.Decision {
	type key struct {
		line int
		kind model.SymbolKind
		name string
	}
	defs := make(map[key]struct{}, len(tags))
	for _, t := range tags {
		defs[key{t.Line - 1, t.SymbolKind, t.Name}] = struct{}{}
	}

	return func(candidate sonar.Result) (bool, error) {
		kind, ok := scanKinds[candidate.Kind]
		if !ok {
			return true, nil
		}
		_, found := defs[key{candidate.StartLine, kind, candidate.Name}]
		return found, nil
	}
}

// Filter returns the tags of the given kinds.
func Filter(tags []model.Tag, kinds ...model.SymbolKind) []model.Tag {
	var out []model.Tag
	for _, t := range tags {
		for _, k := range kinds {
			if t.SymbolKind == k {
				out = append(out, t)
				break
			}
		}
	}
	return out
}
