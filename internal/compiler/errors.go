package compiler

import (
	"fmt"
	"strings"

	"github.com/vk/recipegrid/internal/parser"
)

// ErrorKind classifies the semantic errors compilation can produce.
type ErrorKind int

const (
	// UndefinedReference reports a name which resolves to neither a visible
	// sub recipe output nor a plain ingredient. The only way to hit this is
	// to prefix an unknown name with a proportion, which only makes sense
	// for a reference.
	UndefinedReference ErrorKind = iota + 1

	// DuplicateOutputName reports an output name which is already defined.
	DuplicateOutputName

	// ForwardReference reports a use of an output name before the statement
	// defining it.
	ForwardReference

	// OverConsumption reports references which together use more of an
	// output than its total amount.
	OverConsumption

	// CyclicDependency reports a sub recipe which transitively depends on
	// itself.
	CyclicDependency

	// IncompatibleUnit reports a reference amount whose unit has the wrong
	// dimension for the referenced output.
	IncompatibleUnit

	// EmptyRecipe reports a recipe block with no statements.
	EmptyRecipe
)

func (k ErrorKind) String() string {
	switch k {
	case UndefinedReference:
		return "undefined reference"
	case DuplicateOutputName:
		return "duplicate output name"
	case ForwardReference:
		return "forward reference"
	case OverConsumption:
		return "over consumption"
	case CyclicDependency:
		return "cyclic dependency"
	case IncompatibleUnit:
		return "incompatible unit"
	case EmptyRecipe:
		return "empty recipe"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is a semantic error found during compilation, located in the recipe
// source.
type Error struct {
	Kind    ErrorKind
	Line    int
	Column  int
	Snippet string
	Message string
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "At line %d column %d:\n", e.Line, e.Column)
	b.WriteString(strings.TrimRight("    "+e.Snippet, " \t"))
	b.WriteString("\n    ")
	b.WriteString(strings.Repeat(" ", e.Column-1))
	b.WriteString("^\n")
	b.WriteString(e.Message)
	return b.String()
}

// errorAt builds an Error pointing at a source offset.
func errorAt(kind ErrorKind, source string, offset int, format string, args ...any) *Error {
	line, column, snippet := parser.Describe(source, offset)
	return &Error{
		Kind:    kind,
		Line:    line,
		Column:  column,
		Snippet: snippet,
		Message: fmt.Sprintf(format, args...),
	}
}
