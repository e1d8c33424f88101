// Package ast defines the parse tree for the recipe description language.
//
// This is the contract between the parser and the compiler: names are raw
// scalable strings (case preserved; the compiler compares them
// case-insensitively), numbers are exact rationals, and every node records
// the source offset of the text it was parsed from so diagnostics can point
// at the offending characters.
package ast

import "github.com/vk/recipegrid/internal/number"

// Recipe is the root node: the statements of one recipe source block.
type Recipe struct {
	Stmts []*Stmt
}

// Offset returns the source offset of the first statement.
func (r *Recipe) Offset() int {
	if len(r.Stmts) == 0 {
		return 0
	}
	return r.Stmts[0].Offset()
}

// Stmt is one statement: an optional output list, an optional `=`/`:=`
// marker and an expression.
type Stmt struct {
	// Outputs is the explicitly named output list, nil when the statement
	// has no `=` target.
	Outputs []*String

	// Labelled is true for the `:=` form, which asks for the sub recipe to
	// be visibly named and outlined in the rendered output.
	Labelled bool

	Expr Expr
}

// Offset returns the source offset of the statement.
func (s *Stmt) Offset() int {
	if len(s.Outputs) > 0 {
		return s.Outputs[0].Offset()
	}
	return s.Expr.Offset()
}

// Expr is a node in a statement's expression tree: either a Step or a
// Reference. The set of variants is closed.
type Expr interface {
	Offset() int
	exprNode()
}

// Step is a processing step, e.g. `mix(tomatoes, herbs)`. Input order is the
// written order and is significant.
type Step struct {
	Name   *String
	Inputs []Expr
}

func (s *Step) Offset() int { return s.Name.Offset() }
func (*Step) exprNode()     {}

// Reference names an ingredient or an earlier sub recipe output; which of
// the two it is cannot be known until compilation. Amount is nil when no
// quantity or proportion prefix was written.
type Reference struct {
	Name   *String
	Amount Amount
}

func (r *Reference) Offset() int {
	if r.Amount != nil {
		return r.Amount.Offset()
	}
	return r.Name.Offset()
}
func (*Reference) exprNode() {}

// Amount is a quantity or proportion prefix on a Reference.
type Amount interface {
	Offset() int
	amountNode()
}

// Quantity is an absolute amount, e.g. "50g" or "{2 sacks}".
type Quantity struct {
	Off   int
	Value number.Number

	// Unit is nil for unitless quantities (e.g. "3 eggs").
	Unit *String

	// ValueUnitSpacing preserves the whitespace written between the value
	// and the unit, and Preposition any trailing unquoted preposition (the
	// " of" in "50g of butter"). Both are display-only.
	ValueUnitSpacing string
	Preposition      string
}

func (q *Quantity) Offset() int { return q.Off }
func (*Quantity) amountNode()   {}

// Proportion is a relative amount of a referenced output, e.g. "1/2 of" or
// "25%" or "rest of the". A nil Value means the remainder.
type Proportion struct {
	Off   int
	Value *number.Number

	// Percentage is true when the value was written as a percentage (the
	// stored Value is already divided by 100).
	Percentage bool

	// RemainderWording is the wording used for a remainder proportion
	// ("rest" in "rest of the sauce"); empty when Value is non-nil.
	RemainderWording string

	// Preposition preserves the words and symbols following the value, e.g.
	// " of the", "%", " *".
	Preposition string
}

func (p *Proportion) Offset() int { return p.Off }
func (*Proportion) amountNode()   {}

// String is a string which may contain embedded scalable numbers, recorded
// as a sequence of parts.
type String struct {
	Parts []StringPart
}

// Offset returns the source offset of the first part.
func (s *String) Offset() int {
	if len(s.Parts) == 0 {
		return 0
	}
	return s.Parts[0].Off
}

// Text returns a String holding a single literal part, for tests and
// synthesised nodes.
func Text(off int, text string) *String {
	return &String{Parts: []StringPart{{Off: off, Text: text}}}
}

// StringPart is either a literal substring or an interpolated scalable
// value.
type StringPart struct {
	Off     int
	Text    string
	Value   number.Number
	IsValue bool
}
