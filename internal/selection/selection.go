// Package selection filters metadata records for listing and lookup.
package selection

import (
	"errors"
	"fmt"
	"strings"

	"github.com/phobologic/bat-cli/internal/model"
)

var (
	ErrNotFound  = errors.New("metadata not found")
	ErrAmbiguous = errors.New("ambiguous metadata name")
)

// Record is one metadata entry with its type and sub-type.
type Record struct {
	Type    model.MetadataType
	SubType string // function_type, struct_type or trait_type; empty for entrypoints
	model.Location
}

// Query selects records. Zero fields match everything.
type Query struct {
	Type    model.MetadataType
	Filter  string // case-insensitive substring of the name or path
	SubType string
}

// Records flattens the records of type t in store order.
func Records(md *model.Metadata, t model.MetadataType) []Record {
	var out []Record
	switch t {
	case model.Functions:
		for _, f := range md.Functions {
			out = append(out, Record{Type: t, SubType: string(f.Type), Location: f.Location})
		}
	case model.Structs:
		for _, s := range md.Structs {
			out = append(out, Record{Type: t, SubType: string(s.Type), Location: s.Location})
		}
	case model.Traits:
		for _, tr := range md.Traits {
			out = append(out, Record{Type: t, SubType: string(tr.Type), Location: tr.Location})
		}
	case model.Entrypoints:
		for _, ep := range md.Entrypoints {
			out = append(out, Record{Type: t, Location: ep.Location})
		}
	}
	return out
}

// Select returns the records matching q.
func Select(md *model.Metadata, q Query) []Record {
	types := model.MetadataTypes
	if q.Type != "" {
		types = []model.MetadataType{q.Type}
	}
	lower := strings.ToLower(q.Filter)

	var out []Record
	for _, t := range types {
		for _, r := range Records(md, t) {
			if q.SubType != "" && r.SubType != q.SubType {
				continue
			}
			if lower != "" &&
				!strings.Contains(strings.ToLower(r.Name), lower) &&
				!strings.Contains(strings.ToLower(r.Path), lower) {
				continue
			}
			out = append(out, r)
		}
	}
	return out
}

// Find returns the record of type t named name. A name shared by several
// records can be qualified with its path as "path:name".
func Find(md *model.Metadata, t model.MetadataType, name string) (Record, error) {
	path := ""
	if i := strings.LastIndex(name, ":"); i >= 0 {
		path, name = name[:i], name[i+1:]
	}

	var matches []Record
	for _, r := range Records(md, t) {
		if r.Name == name && (path == "" || r.Path == path) {
			matches = append(matches, r)
		}
	}

	switch len(matches) {
	case 0:
		return Record{}, fmt.Errorf("%w: %s %q", ErrNotFound, t, name)
	case 1:
		return matches[0], nil
	}
	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = fmt.Sprintf("%s:%d", m.Path, m.StartLine)
	}
	return Record{}, fmt.Errorf("%w: %s %q defined at %s", ErrAmbiguous, t, name, strings.Join(paths, ", "))
}

// Entrypoint returns the entrypoint named name.
func Entrypoint(md *model.Metadata, name string) (model.EntrypointMetadata, error) {
	for _, ep := range md.Entrypoints {
		if ep.Name == name {
			return ep, nil
		}
	}
	return model.EntrypointMetadata{}, fmt.Errorf("%w: entrypoint %q", ErrNotFound, name)
}
