package review

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/phobologic/bat-cli/internal/layout"
	"github.com/phobologic/bat-cli/internal/model"
	"github.com/phobologic/bat-cli/internal/sonar"
	"github.com/phobologic/bat-cli/internal/templates"
)

// SourceReader returns the content of a program file by its metadata path.
type SourceReader func(path string) (string, error)

// NewCodeOverhaul assembles the report data of an entrypoint from the
// metadata and the program sources.
func NewCodeOverhaul(md *model.Metadata, ep model.EntrypointMetadata, read SourceReader, auditor string) (templates.CodeOverhaul, error) {
	co := templates.CodeOverhaul{
		Entrypoint:      ep.Name,
		Path:            ep.Path,
		StartLine:       ep.StartLine,
		EndLine:         ep.EndLine,
		ContextAccounts: ep.ContextAccounts,
		Handler:         ep.Handler,
		Auditor:         auditor,
		Parameters:      ep.Parameters,
	}

	body, err := locationContent(read, ep.Location)
	if err != nil {
		return co, err
	}
	validations, err := collectValidations(body)
	if err != nil {
		return co, fmt.Errorf("scanning %s: %w", ep.Name, err)
	}

	if loc, ok := handler(md, ep.Handler); ok {
		content, err := locationContent(read, loc)
		if err != nil {
			return co, err
		}
		more, err := collectValidations(content)
		if err != nil {
			return co, fmt.Errorf("scanning %s: %w", loc.Name, err)
		}
		validations = append(validations, more...)
	}
	co.Validations = validations

	if loc, ok := contextStruct(md, ep.ContextAccounts); ok {
		content, err := locationContent(read, loc)
		if err != nil {
			return co, err
		}
		co.Signers = signers(content)
		results, err := sonar.Scan(content, sonar.AccountContext)
		if err != nil {
			return co, fmt.Errorf("scanning %s: %w", loc.Name, err)
		}
		for _, r := range results {
			co.AccountConstraints = append(co.AccountConstraints, dedent(r.Content))
		}
	}
	return co, nil
}

func locationContent(read SourceReader, loc model.Location) (string, error) {
	content, err := read(loc.Path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", loc.Path, err)
	}
	return sonar.Slice(content, loc.StartLine-1, loc.EndLine-1), nil
}

func handler(md *model.Metadata, name string) (model.Location, bool) {
	if name == "" {
		return model.Location{}, false
	}
	for _, f := range md.Functions {
		if f.Name == name && f.Type == model.HandlerFunction {
			return f.Location, true
		}
	}
	return model.Location{}, false
}

func contextStruct(md *model.Metadata, name string) (model.Location, bool) {
	if name == "" {
		return model.Location{}, false
	}
	for _, s := range md.Structs {
		if s.Name == name && s.Type == model.ContextAccountsStruct {
			return s.Location, true
		}
	}
	return model.Location{}, false
}

// collectValidations returns the validation calls of content and the conditionals
// that return an error, in source order.
func collectValidations(content string) ([]string, error) {
	calls, err := sonar.Scan(content, sonar.ValidationCall)
	if err != nil {
		return nil, err
	}
	conds, err := sonar.Scan(content, sonar.Conditional)
	if err != nil {
		return nil, err
	}
	for _, c := range conds {
		if strings.Contains(c.Content, "Err(") || strings.Contains(c.Content, "err!(") {
			calls = append(calls, c)
		}
	}
	sort.SliceStable(calls, func(i, j int) bool { return calls[i].StartLine < calls[j].StartLine })

	out := make([]string, 0, len(calls))
	for _, c := range calls {
		out = append(out, dedent(c.Content))
	}
	return out, nil
}

// signers returns the fields of an accounts struct typed Signer.
func signers(content string) []string {
	var out []string
	for _, line := range sonar.SplitLines(content) {
		if !strings.Contains(line, "Signer<") {
			continue
		}
		field, _, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		field = strings.TrimSpace(strings.TrimPrefix(field, "pub "))
		if field != "" {
			out = append(out, field)
		}
	}
	return out
}

// dedent removes the indentation common to every non-blank line.
func dedent(content string) string {
	lines := strings.Split(content, "\n")
	common := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " \t"))
		if common < 0 || n < common {
			common = n
		}
	}
	if common <= 0 {
		return content
	}
	for i, l := range lines {
		if len(l) >= common {
			lines[i] = l[common:]
		} else {
			lines[i] = strings.TrimLeft(l, " \t")
		}
	}
	return strings.Join(lines, "\n")
}

// CreateCodeOverhaul writes the code-overhaul file of co.Entrypoint to
// code-overhaul/to-review. It reports false when the entrypoint already has
// a file in any stage.
func (r *Reviewer) CreateCodeOverhaul(co templates.CodeOverhaul) (string, bool, error) {
	file, err := fileName(co.Entrypoint)
	if err != nil {
		return "", false, err
	}
	for _, stage := range layout.CodeOverhaulStages {
		if path := filepath.Join(r.layout.CodeOverhaul(stage), file); exists(path) {
			return path, false, nil
		}
	}

	content, err := templates.RenderCodeOverhaul(co)
	if err != nil {
		return "", false, err
	}
	dir := r.layout.CodeOverhaul(layout.ToReview)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, fmt.Errorf("creating %s: %w", dir, err)
	}
	path := filepath.Join(dir, file)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", false, fmt.Errorf("writing %s: %w", file, err)
	}
	r.logger.Info("code-overhaul file created", zap.String("path", path))
	return path, true, nil
}

// StartCodeOverhaul moves an entrypoint's file from to-review to started.
func (r *Reviewer) StartCodeOverhaul(entrypoint string) (Move, error) {
	return r.advance(entrypoint, layout.ToReview, layout.Started, false)
}

// FinishCodeOverhaul moves an entrypoint's file from started to finished.
// Files that still hold pending sections are refused.
func (r *Reviewer) FinishCodeOverhaul(entrypoint string) (Move, error) {
	return r.advance(entrypoint, layout.Started, layout.Finished, true)
}

func (r *Reviewer) advance(entrypoint string, from, to layout.Stage, complete bool) (Move, error) {
	file, err := fileName(entrypoint)
	if err != nil {
		return Move{}, err
	}
	src := filepath.Join(r.layout.CodeOverhaul(from), file)
	if !exists(src) {
		return Move{}, fmt.Errorf("%w: %s in %s", ErrCodeOverhaulNotFound, file, from)
	}
	if complete {
		data, err := os.ReadFile(src)
		if err != nil {
			return Move{}, fmt.Errorf("reading %s: %w", file, err)
		}
		if n := strings.Count(string(data), templates.Pending); n > 0 {
			return Move{}, fmt.Errorf("%w: %s has %d", ErrCodeOverhaulIncomplete, file, n)
		}
	}
	return r.move(src, filepath.Join(r.layout.CodeOverhaul(to), file))
}

// Status lists the file names of every review stage.
type Status struct {
	Findings     map[layout.Stage][]string
	CodeOverhaul map[layout.Stage][]string
}

func (r *Reviewer) Status() (Status, error) {
	st := Status{
		Findings:     make(map[layout.Stage][]string),
		CodeOverhaul: make(map[layout.Stage][]string),
	}
	for _, s := range layout.FindingStages {
		names, err := layout.MarkdownFiles(r.layout.Findings(s))
		if err != nil {
			return st, err
		}
		st.Findings[s] = names
	}
	for _, s := range layout.CodeOverhaulStages {
		names, err := layout.MarkdownFiles(r.layout.CodeOverhaul(s))
		if err != nil {
			return st, err
		}
		st.CodeOverhaul[s] = names
	}
	return st, nil
}
