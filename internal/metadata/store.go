package metadata

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/phobologic/bat-cli/internal/layout"
	"github.com/phobologic/bat-cli/internal/markdown"
	"github.com/phobologic/bat-cli/internal/model"
)

const (
	fieldID              = "metadata_id"
	fieldPath            = "path"
	fieldStart           = "start_line_index"
	fieldEnd             = "end_line_index"
	fieldPublic          = "is_public"
	fieldFunctionType    = "function_type"
	fieldStructType      = "struct_type"
	fieldTraitType       = "trait_type"
	fieldTarget          = "target"
	fieldDependencies    = "dependencies"
	fieldContextAccounts = "context_accounts"
	fieldHandler         = "handler"
	fieldParameters      = "parameters"

	listSeparator = ", "
)

var titles = map[model.MetadataType]string{
	model.Functions:   "Functions",
	model.Structs:     "Structs",
	model.Traits:      "Traits",
	model.Entrypoints: "Entrypoints",
}

// Store reads and writes the metadata files of a notes layout.
type Store struct {
	layout layout.Layout
}

func NewStore(l layout.Layout) *Store {
	return &Store{layout: l}
}

// Save replaces every metadata file with the contents of md.
func (s *Store) Save(md *model.Metadata) error {
	if err := os.MkdirAll(s.layout.Metadata(), 0o755); err != nil {
		return fmt.Errorf("creating metadata dir: %w", err)
	}
	for _, t := range model.MetadataTypes {
		doc := Encode(md, t)
		p := s.layout.MetadataFile(t)
		if err := os.WriteFile(p, []byte(markdown.Encode(doc)), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", filepath.Base(p), err)
		}
	}
	return nil
}

// Load reads every metadata file. Missing files yield no records.
func (s *Store) Load() (*model.Metadata, error) {
	md := &model.Metadata{}
	for _, t := range model.MetadataTypes {
		p := s.layout.MetadataFile(t)
		data, err := os.ReadFile(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", filepath.Base(p), err)
		}
		doc, err := markdown.Parse(string(data))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", filepath.Base(p), err)
		}
		if err := Decode(doc, t, md); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", filepath.Base(p), err)
		}
	}
	return md, nil
}

// Encode renders the records of type t as a Markdown document.
func Encode(md *model.Metadata, t model.MetadataType) markdown.Document {
	doc := markdown.Document{Title: titles[t]}
	add := func(loc model.Location, fields ...markdown.Field) {
		head := []markdown.Field{
			{Key: fieldID, Value: loc.ID},
			{Key: fieldPath, Value: loc.Path},
		}
		doc.Sections = append(doc.Sections, markdown.Section{
			Title:  loc.Name,
			Fields: append(head, fields...),
		})
	}

	switch t {
	case model.Functions:
		for _, f := range md.Functions {
			add(f.Location,
				markdown.Field{Key: fieldFunctionType, Value: string(f.Type)},
				startField(f.Location), endField(f.Location),
				markdown.Field{Key: fieldPublic, Value: strconv.FormatBool(f.Public)},
				markdown.Field{Key: fieldDependencies, Value: strings.Join(f.Dependencies, listSeparator)},
			)
		}
	case model.Structs:
		for _, st := range md.Structs {
			add(st.Location,
				markdown.Field{Key: fieldStructType, Value: string(st.Type)},
				startField(st.Location), endField(st.Location),
				markdown.Field{Key: fieldPublic, Value: strconv.FormatBool(st.Public)},
			)
		}
	case model.Traits:
		for _, tr := range md.Traits {
			add(tr.Location,
				markdown.Field{Key: fieldTraitType, Value: string(tr.Type)},
				markdown.Field{Key: fieldTarget, Value: tr.Target},
				startField(tr.Location), endField(tr.Location),
			)
		}
	case model.Entrypoints:
		for _, ep := range md.Entrypoints {
			fields := []markdown.Field{
				startField(ep.Location), endField(ep.Location),
				{Key: fieldContextAccounts, Value: ep.ContextAccounts},
				{Key: fieldHandler, Value: ep.Handler},
			}
			// One field per parameter: types such as [u8; 32] contain
			// every separator worth joining on.
			for _, p := range ep.Parameters {
				fields = append(fields, markdown.Field{Key: fieldParameters, Value: p})
			}
			add(ep.Location, fields...)
		}
	}
	return doc
}

// Decode appends the records of doc, a document of type t, to md.
func Decode(doc markdown.Document, t model.MetadataType, md *model.Metadata) error {
	for i := range doc.Sections {
		s := &doc.Sections[i]
		loc, err := decodeLocation(s)
		if err != nil {
			return err
		}

		switch t {
		case model.Functions:
			f := model.FunctionMetadata{Location: loc}
			v, err := s.Require(fieldFunctionType)
			if err != nil {
				return err
			}
			f.Type = model.FunctionType(v)
			if f.Public, err = boolField(s, fieldPublic); err != nil {
				return err
			}
			deps, _ := s.Get(fieldDependencies)
			f.Dependencies = splitList(deps, listSeparator)
			md.Functions = append(md.Functions, f)
		case model.Structs:
			st := model.StructMetadata{Location: loc}
			v, err := s.Require(fieldStructType)
			if err != nil {
				return err
			}
			st.Type = model.StructType(v)
			if st.Public, err = boolField(s, fieldPublic); err != nil {
				return err
			}
			md.Structs = append(md.Structs, st)
		case model.Traits:
			tr := model.TraitMetadata{Location: loc}
			v, err := s.Require(fieldTraitType)
			if err != nil {
				return err
			}
			tr.Type = model.TraitType(v)
			tr.Target, _ = s.Get(fieldTarget)
			md.Traits = append(md.Traits, tr)
		case model.Entrypoints:
			ep := model.EntrypointMetadata{Location: loc}
			ep.ContextAccounts, _ = s.Get(fieldContextAccounts)
			ep.Handler, _ = s.Get(fieldHandler)
			for _, p := range s.All(fieldParameters) {
				if p = strings.TrimSpace(p); p != "" {
					ep.Parameters = append(ep.Parameters, p)
				}
			}
			md.Entrypoints = append(md.Entrypoints, ep)
		default:
			return fmt.Errorf("unknown metadata type %q", t)
		}
	}
	return nil
}

func decodeLocation(s *markdown.Section) (model.Location, error) {
	loc := model.Location{Name: s.Title}
	var err error
	if loc.ID, err = s.Require(fieldID); err != nil {
		return loc, err
	}
	if loc.Path, err = s.Require(fieldPath); err != nil {
		return loc, err
	}
	if loc.StartLine, err = intField(s, fieldStart); err != nil {
		return loc, err
	}
	if loc.EndLine, err = intField(s, fieldEnd); err != nil {
		return loc, err
	}
	return loc, nil
}

func startField(loc model.Location) markdown.Field {
	return markdown.Field{Key: fieldStart, Value: strconv.Itoa(loc.StartLine)}
}

func endField(loc model.Location) markdown.Field {
	return markdown.Field{Key: fieldEnd, Value: strconv.Itoa(loc.EndLine)}
}

func intField(s *markdown.Section, key string) (int, error) {
	v, err := s.Require(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("field %q in section %q: %w", key, s.Title, err)
	}
	return n, nil
}

func boolField(s *markdown.Section, key string) (bool, error) {
	v, err := s.Require(key)
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("field %q in section %q: %w", key, s.Title, err)
	}
	return b, nil
}

func splitList(v, sep string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, strings.TrimSpace(sep))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
