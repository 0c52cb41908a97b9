package config

import "github.com/lu-w/stars-logic-mtcq/internal/kb"

// OntologyConfig locates the template knowledge base.
type OntologyConfig struct {
	// TemplatePath is a Mangle source file (.mg) with the terminology.
	TemplatePath string `yaml:"template_path"`
	// IRI of the ontology; the name prefix is derived from it unless Prefix
	// is set.
	IRI    string `yaml:"iri"`
	Prefix string `yaml:"prefix"`
	// FactLimit caps the facts per snapshot; 0 means unlimited.
	FactLimit int `yaml:"fact_limit"`
}

// NamePrefix returns Prefix, or the prefix derived from IRI.
func (c OntologyConfig) NamePrefix() string {
	if c.Prefix != "" {
		return c.Prefix
	}
	return kb.PrefixFromIRI(c.IRI)
}

// LoadTemplate reads the template with the configured fact limit. Without a
// template path it returns an empty snapshot.
func (c OntologyConfig) LoadTemplate() (*kb.Snapshot, error) {
	var opts []kb.Option
	if c.FactLimit > 0 {
		opts = append(opts, kb.WithFactLimit(c.FactLimit))
	}
	if c.TemplatePath == "" {
		return kb.NewSnapshot(opts...), nil
	}
	return kb.LoadTemplate(c.TemplatePath, opts...)
}

// MappingConfig controls which values the mapper turns into facts.
type MappingConfig struct {
	// MappableTypes names scenario types admitted besides marked ones.
	MappableTypes  []string `yaml:"mappable_types"`
	StrictIdentity bool     `yaml:"strict_identity"`
}

// AssemblyConfig controls temporal assembly.
type AssemblyConfig struct {
	Workers int `yaml:"workers"`
}

// QueryConfig controls query evaluation.
type QueryConfig struct {
	Timeout          string `yaml:"timeout"`
	DerivedFactLimit int    `yaml:"derived_fact_limit"`
}
