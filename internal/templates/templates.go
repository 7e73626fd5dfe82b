// Package templates renders the Markdown files of the review workflow.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
	"unicode"
)

//go:embed files/*.tmpl
var files embed.FS

// Pending marks a code-overhaul section the auditor has not written yet.
const Pending = "_pending_"

var tmpl = template.Must(template.ParseFS(files, "files/*.tmpl"))

// Finding is the data of a finding file.
type Finding struct {
	Name  string
	Title string
}

// NewFinding derives the finding title from its file name.
func NewFinding(name string) Finding {
	return Finding{Name: name, Title: SentenceCase(name)}
}

// CodeOverhaul is the data of a code-overhaul report.
type CodeOverhaul struct {
	Entrypoint         string
	Path               string
	StartLine          int
	EndLine            int
	ContextAccounts    string
	Handler            string
	Auditor            string
	Signers            []string
	Parameters         []string
	AccountConstraints []string
	Validations        []string
}

// ResultFinding is one accepted finding of the findings result. The risk
// levels are empty for informational findings.
type ResultFinding struct {
	Code       string
	Title      string
	Severity   string
	Status     string
	Impact     string
	Likelihood string
	Difficulty string
	Content    string
}

// Pending is exposed to the template.
func (CodeOverhaul) Pending() string { return Pending }

// RenderFinding renders a finding, or an informational finding.
func RenderFinding(f Finding, informational bool) (string, error) {
	name := "finding.md.tmpl"
	if informational {
		name = "informational.md.tmpl"
	}
	return render(name, f)
}

func RenderCodeOverhaul(co CodeOverhaul) (string, error) {
	return render("code_overhaul.md.tmpl", co)
}

// RenderResult renders the table and the list of the accepted findings.
func RenderResult(findings []ResultFinding) (string, error) {
	return render("findings_result.md.tmpl", struct{ Findings []ResultFinding }{findings})
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}

// SentenceCase turns a file style name into a title:
// "hello_how Are-you" becomes "Hello how are you".
func SentenceCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})
	if len(words) == 0 {
		return ""
	}
	title := strings.ToLower(strings.Join(words, " "))
	r := []rune(title)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
