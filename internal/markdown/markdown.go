// Package markdown encodes and decodes the Markdown documents used by the
// metadata store: an H1 title followed by H2 sections of "- key: value"
// fields and an optional free-form body.
package markdown

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrMissingField is returned by Section.Require.
	ErrMissingField = errors.New("missing field")
	// ErrMissingTitle is returned by Parse when the document has no H1 title.
	ErrMissingTitle = errors.New("missing document title")
)

var fieldLine = regexp.MustCompile(`^- ([a-z][a-z0-9_]*):(?: (.*))?$`)

// Field is one "- key: value" line.
type Field struct {
	Key   string
	Value string
}

// Section is an H2 heading with its fields and remaining body lines.
type Section struct {
	Title  string
	Fields []Field
	Body   []string
}

// Document is an H1 title followed by sections.
type Document struct {
	Title    string
	Sections []Section
}

// Get returns the value of key.
func (s *Section) Get(key string) (string, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// All returns the values of every field named key, in order.
func (s *Section) All(key string) []string {
	var out []string
	for _, f := range s.Fields {
		if f.Key == key {
			out = append(out, f.Value)
		}
	}
	return out
}

// Require returns the value of key or an error wrapping ErrMissingField.
func (s *Section) Require(key string) (string, error) {
	v, ok := s.Get(key)
	if !ok {
		return "", fmt.Errorf("%w %q in section %q", ErrMissingField, key, s.Title)
	}
	return v, nil
}

// Set replaces the value of key, appending the field if absent.
func (s *Section) Set(key, value string) {
	for i := range s.Fields {
		if s.Fields[i].Key == key {
			s.Fields[i].Value = value
			return
		}
	}
	s.Fields = append(s.Fields, Field{Key: key, Value: value})
}

// Section returns the first section titled title.
func (d *Document) Section(title string) (*Section, bool) {
	for i := range d.Sections {
		if d.Sections[i].Title == title {
			return &d.Sections[i], true
		}
	}
	return nil, false
}

// Encode renders doc. Newlines inside titles and field values become spaces
// so the output always parses back.
func Encode(doc Document) string {
	var b strings.Builder

	b.WriteString("# ")
	b.WriteString(oneLine(doc.Title))
	b.WriteString("\n")

	for _, s := range doc.Sections {
		b.WriteString("\n## ")
		b.WriteString(oneLine(s.Title))
		b.WriteString("\n")
		if len(s.Fields) > 0 {
			b.WriteString("\n")
		}
		for _, f := range s.Fields {
			b.WriteString("- ")
			b.WriteString(f.Key)
			b.WriteString(":")
			if v := oneLine(f.Value); v != "" {
				b.WriteString(" ")
				b.WriteString(v)
			}
			b.WriteString("\n")
		}
		if len(s.Body) > 0 {
			b.WriteString("\n")
			b.WriteString(strings.Join(s.Body, "\n"))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// Parse decodes text produced by Encode or written by hand in the same
// layout. Fields are the contiguous "- key: value" lines directly under a
// heading; every later line of the section belongs to its body.
func Parse(text string) (Document, error) {
	var doc Document
	var cur *Section
	titled := false
	inFields := false

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "## "):
			doc.Sections = append(doc.Sections, Section{Title: strings.TrimSpace(line[3:])})
			cur = &doc.Sections[len(doc.Sections)-1]
			inFields = true
			continue
		case !titled && strings.HasPrefix(line, "# "):
			doc.Title = strings.TrimSpace(line[2:])
			titled = true
			continue
		}

		if cur == nil {
			if strings.TrimSpace(line) != "" && !titled {
				return Document{}, ErrMissingTitle
			}
			continue
		}

		if inFields {
			if m := fieldLine.FindStringSubmatch(line); m != nil {
				cur.Fields = append(cur.Fields, Field{Key: m[1], Value: strings.TrimSpace(m[2])})
				continue
			}
			if strings.TrimSpace(line) == "" && len(cur.Fields) == 0 {
				continue
			}
			inFields = false
		}
		cur.Body = append(cur.Body, line)
	}

	if !titled {
		return Document{}, ErrMissingTitle
	}
	for i := range doc.Sections {
		doc.Sections[i].Body = trimBlank(doc.Sections[i].Body)
	}
	return doc, nil
}

func trimBlank(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	if start == end {
		return nil
	}
	return lines[start:end]
}

var newlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func oneLine(s string) string {
	return strings.TrimSpace(newlines.Replace(s))
}
