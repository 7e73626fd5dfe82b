// Package metadata builds program metadata from Rust sources with the sonar
// scanner and persists it in the Markdown metadata store.
package metadata

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/phobologic/bat-cli/internal/callgraph"
	"github.com/phobologic/bat-cli/internal/model"
	"github.com/phobologic/bat-cli/internal/parse"
	"github.com/phobologic/bat-cli/internal/progress"
	"github.com/phobologic/bat-cli/internal/sonar"
)

// ProgramMarker opens the module holding the program entrypoints.
const ProgramMarker = "#[program]"

// Source is a program file; Path is relative to the program root.
type Source struct {
	Path    string
	Content string
}

// ScannerFactory returns the scanner used for one source file. tags are the
// tree-sitter definitions of that file.
type ScannerFactory func(src Source, tags []model.Tag) *sonar.Scanner

// Builder extracts metadata from program sources.
type Builder struct {
	logger     *zap.Logger
	newID      func() string
	reporter   progress.Reporter
	scannerFor ScannerFactory
}

// Option configures a Builder.
type Option func(*Builder)

func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithIDs replaces the uuid generator for metadata ids.
func WithIDs(fn func() string) Option {
	return func(b *Builder) { b.newID = fn }
}

func WithReporter(r progress.Reporter) Option {
	return func(b *Builder) { b.reporter = r }
}

func WithScannerFactory(f ScannerFactory) Option {
	return func(b *Builder) { b.scannerFor = f }
}

// NewBuilder returns a Builder; by default every candidate is accepted and
// malformed signatures abort the build.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		logger:   zap.NewNop(),
		newID:    uuid.NewString,
		reporter: progress.Nop{},
		scannerFor: func(Source, []model.Tag) *sonar.Scanner {
			return sonar.New()
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type scannedFunction struct {
	meta    model.FunctionMetadata
	content string
	params  []string
}

// Build scans every source and returns the combined metadata. Records keep
// source order; within a file they are sorted by name.
func (b *Builder) Build(ctx context.Context, sources []Source) (*model.Metadata, error) {
	md := &model.Metadata{}
	var funcs []scannedFunction

	b.reporter.Start(len(sources))
	defer b.reporter.Done()

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tags, err := parse.Tags([]byte(src.Content), src.Path)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", src.Path, err)
		}
		scanner := b.scannerFor(src, tags)

		structs, err := b.structs(scanner, src)
		if err != nil {
			return nil, err
		}
		md.Structs = append(md.Structs, structs...)

		fs, err := b.functions(scanner, src)
		if err != nil {
			return nil, err
		}
		funcs = append(funcs, fs...)

		md.Traits = append(md.Traits, b.traits(src, tags)...)

		b.logger.Debug("scanned source",
			zap.String("path", src.Path),
			zap.Int("structs", len(structs)),
			zap.Int("functions", len(fs)),
		)
		b.reporter.Step(src.Path)
	}

	cg, err := b.dependencies(funcs)
	if err != nil {
		return nil, err
	}

	types := make(map[string]model.FunctionType, len(funcs))
	for i := range funcs {
		types[funcs[i].meta.Name] = funcs[i].meta.Type
	}

	for i := range funcs {
		f := &funcs[i]
		f.meta.Dependencies = cg.Dependencies(f.meta.Name)
		md.Functions = append(md.Functions, f.meta)

		if f.meta.Type != model.EntrypointFunction {
			continue
		}
		ep := model.EntrypointMetadata{
			Location:        f.meta.Location,
			ContextAccounts: ContextAccounts(f.params),
			Parameters:      f.params,
		}
		ep.ID = b.newID()
		for _, dep := range callgraph.Calls(f.content) {
			if types[dep] == model.HandlerFunction {
				ep.Handler = dep
				break
			}
		}
		md.Entrypoints = append(md.Entrypoints, ep)
	}

	b.logger.Info("metadata built",
		zap.Int("functions", len(md.Functions)),
		zap.Int("structs", len(md.Structs)),
		zap.Int("traits", len(md.Traits)),
		zap.Int("entrypoints", len(md.Entrypoints)),
	)
	return md, nil
}

func (b *Builder) structs(scanner *sonar.Scanner, src Source) ([]model.StructMetadata, error) {
	results, err := scanner.Scan(src.Content, sonar.Struct)
	if err != nil {
		return nil, fmt.Errorf("scanning structs in %s: %w", src.Path, err)
	}
	lines := sonar.SplitLines(src.Content)

	out := make([]model.StructMetadata, 0, len(results))
	for _, r := range results {
		out = append(out, model.StructMetadata{
			Location: b.location(src, r),
			Type:     classifyStruct(r, attributes(lines, r.StartLine)),
			Public:   r.IsPublic,
		})
	}
	return out, nil
}

func (b *Builder) functions(scanner *sonar.Scanner, src Source) ([]scannedFunction, error) {
	results, err := scanner.Scan(src.Content, sonar.Function)
	if err != nil {
		return nil, fmt.Errorf("scanning functions in %s: %w", src.Path, err)
	}

	entrypoints, err := b.entrypointLines(src)
	if err != nil {
		return nil, err
	}

	out := make([]scannedFunction, 0, len(results))
	for _, r := range results {
		_, isEntrypoint := entrypoints[r.StartLine]
		f := scannedFunction{
			meta: model.FunctionMetadata{
				Location: b.location(src, r),
				Type:     classifyFunction(r, isEntrypoint),
				Public:   r.IsPublic,
			},
			content: r.Content,
		}
		if isEntrypoint {
			f.params = sonar.ExtractParameters(r.Content)
		}
		out = append(out, f)
	}
	return out, nil
}

// regionScanner scans the program module. Its lines are region relative, so
// confirmation happens on the whole-file scan the results are matched with.
var regionScanner = sonar.New(sonar.WithSkipMalformed(nil))

// entrypointLines returns the opening lines of the top level functions of
// the program module, when src is the program lib.rs.
func (b *Builder) entrypointLines(src Source) (map[int]struct{}, error) {
	if path.Base(src.Path) != "lib.rs" || !strings.Contains(src.Content, ProgramMarker) {
		return nil, nil
	}

	region, err := sonar.FindRegion(src.Content, ProgramMarker, sonar.Module)
	if err != nil {
		return nil, fmt.Errorf("locating program module in %s: %w", src.Path, err)
	}
	results, err := regionScanner.Scan(region.Content, sonar.Function)
	if err != nil {
		return nil, fmt.Errorf("scanning entrypoints in %s: %w", src.Path, err)
	}
	results = region.Offset(results)

	top := -1
	for _, r := range results {
		if top < 0 || r.Indentation < top {
			top = r.Indentation
		}
	}
	lines := make(map[int]struct{})
	for _, r := range results {
		if r.Indentation == top {
			lines[r.StartLine] = struct{}{}
		}
	}
	return lines, nil
}

func (b *Builder) traits(src Source, tags []model.Tag) []model.TraitMetadata {
	var out []model.TraitMetadata
	for _, t := range parse.Filter(tags, model.Trait, model.Implementation) {
		tm := model.TraitMetadata{
			Location: model.Location{
				ID:        b.newID(),
				Name:      t.Name,
				Path:      src.Path,
				StartLine: t.Line,
				EndLine:   t.EndLine,
			},
			Type:   model.TraitDefinition,
			Target: t.Target,
		}
		if t.SymbolKind == model.Implementation {
			tm.Type = model.TraitImplementation
		}
		out = append(out, tm)
	}
	return out
}

func (b *Builder) dependencies(funcs []scannedFunction) (*callgraph.Graph, error) {
	in := make([]callgraph.Function, len(funcs))
	for i := range funcs {
		in[i] = callgraph.Function{Name: funcs[i].meta.Name, Content: funcs[i].content}
	}
	g, err := callgraph.Build(in)
	if err != nil {
		return nil, fmt.Errorf("building call graph: %w", err)
	}
	return g, nil
}

func (b *Builder) location(src Source, r sonar.Result) model.Location {
	return model.Location{
		ID:        b.newID(),
		Name:      r.Name,
		Path:      src.Path,
		StartLine: r.StartLine + 1,
		EndLine:   r.EndLine + 1,
	}
}
