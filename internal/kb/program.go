package kb

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	"github.com/google/mangle/parse"
)

// Program is the immutable rule base shared by a template and every snapshot
// cloned from it: the vocabulary declarations plus whatever declarations,
// facts and rules the template source contributed.
type Program struct {
	unit parse.SourceUnit
	info *analysis.ProgramInfo
}

// ParseProgram parses Mangle source and merges it with the vocabulary.
// Declarations of vocabulary predicates in src are dropped; the built-in
// declarations win.
func ParseProgram(src string) (*Program, error) {
	vocab, err := parse.Unit(strings.NewReader(vocabularySource))
	if err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary: %w", err)
	}

	unit := parse.SourceUnit{
		Decls:   append([]ast.Decl(nil), vocab.Decls...),
		Clauses: append([]ast.Clause(nil), vocab.Clauses...),
	}

	if strings.TrimSpace(src) != "" {
		extra, err := parse.Unit(strings.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("failed to parse template: %w", err)
		}
		for _, decl := range extra.Decls {
			if IsVocabulary(decl.DeclaredAtom.Predicate.Symbol) {
				continue
			}
			unit.Decls = append(unit.Decls, decl)
		}
		unit.Clauses = append(unit.Clauses, extra.Clauses...)
	}

	info, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze template: %w", err)
	}

	return &Program{unit: unit, info: info}, nil
}

// Unit returns a copy of the merged source unit.
func (p *Program) Unit() parse.SourceUnit {
	return parse.SourceUnit{
		Decls:   append([]ast.Decl(nil), p.unit.Decls...),
		Clauses: append([]ast.Clause(nil), p.unit.Clauses...),
	}
}

// Info returns the analysis of the program.
func (p *Program) Info() *analysis.ProgramInfo { return p.info }

// Extend analyzes the program together with additional source, typically the
// rules that come with a query. The program itself is not modified.
func (p *Program) Extend(extra parse.SourceUnit) (*analysis.ProgramInfo, error) {
	unit := p.Unit()
	unit.Decls = append(unit.Decls, extra.Decls...)
	unit.Clauses = append(unit.Clauses, extra.Clauses...)
	return analysis.AnalyzeOneUnit(unit, nil)
}

// InitialFacts are the ground facts written in the template source.
func (p *Program) InitialFacts() []ast.Atom {
	if p.info == nil {
		return nil
	}
	return p.info.InitialFacts
}

// ParseTemplate builds a template snapshot from Mangle source. The template
// carries the source's ground facts; its rules are evaluated at query time.
func ParseTemplate(src string, opts ...Option) (*Snapshot, error) {
	program, err := ParseProgram(src)
	if err != nil {
		return nil, err
	}

	snap := newSnapshot(program, opts...)
	for _, atom := range program.InitialFacts() {
		if err := snap.add(atom); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

// LoadTemplate reads a Mangle template file (.mg).
func LoadTemplate(path string, opts ...Option) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file %s: %w", path, err)
	}
	return ParseTemplate(string(data), opts...)
}

// PrefixFromIRI derives a name prefix from an ontology IRI. An empty IRI
// yields an empty prefix.
func PrefixFromIRI(iri string) string {
	iri = strings.TrimSpace(iri)
	if iri == "" {
		return ""
	}
	if strings.HasSuffix(iri, "#") || strings.HasSuffix(iri, "/") {
		return iri
	}
	return iri + "#"
}
