package kb

import "github.com/google/mangle/ast"

// Vocabulary predicates. Every snapshot stores its facts under these names;
// templates and queries refer to them directly.
const (
	PredConcept        = "concept"         // concept(Class)
	PredIndividual     = "individual"      // individual(Individual)
	PredInstanceOf     = "instance_of"     // instance_of(Individual, Class)
	PredObjectProperty = "object_property" // object_property(Property)
	PredDataProperty   = "data_property"   // data_property(Property)
	PredRelation       = "relation"        // relation(Property, Subject, Object)
	PredAttribute      = "attribute"       // attribute(Property, Subject, Value)
)

// vocabularySource declares the vocabulary for the Mangle analyzer.
const vocabularySource = `
Decl concept(Class).
Decl individual(Individual).
Decl instance_of(Individual, Class).
Decl object_property(Property).
Decl data_property(Property).
Decl relation(Property, Subject, Object).
Decl attribute(Property, Subject, Value).
`

var (
	symConcept        = ast.PredicateSym{Symbol: PredConcept, Arity: 1}
	symIndividual     = ast.PredicateSym{Symbol: PredIndividual, Arity: 1}
	symInstanceOf     = ast.PredicateSym{Symbol: PredInstanceOf, Arity: 2}
	symObjectProperty = ast.PredicateSym{Symbol: PredObjectProperty, Arity: 1}
	symDataProperty   = ast.PredicateSym{Symbol: PredDataProperty, Arity: 1}
	symRelation       = ast.PredicateSym{Symbol: PredRelation, Arity: 3}
	symAttribute      = ast.PredicateSym{Symbol: PredAttribute, Arity: 3}
)

var vocabulary = map[string]ast.PredicateSym{
	PredConcept:        symConcept,
	PredIndividual:     symIndividual,
	PredInstanceOf:     symInstanceOf,
	PredObjectProperty: symObjectProperty,
	PredDataProperty:   symDataProperty,
	PredRelation:       symRelation,
	PredAttribute:      symAttribute,
}

// IsVocabulary reports whether predicate is one of the built-in predicates.
func IsVocabulary(predicate string) bool {
	_, ok := vocabulary[predicate]
	return ok
}
