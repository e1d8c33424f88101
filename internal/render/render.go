// Package render turns laid out recipe tables into HTML.
//
// The generated markup carries CSS classes rather than inline styling so a
// stylesheet decides the final appearance:
//
//   - rg-table on every <table>.
//   - rg-ingredient, rg-reference, rg-step, rg-sub-recipe-header and
//     rg-sub-recipe-outputs on cells, by content.
//   - rg-border-<edge>-none and rg-border-<edge>-sub-recipe on cells whose
//     edge deviates from a normal border. Both sides of a shared edge carry
//     the matching class.
//   - rg-quantity-unitless, rg-quantity-with-conversions,
//     rg-quantity-without-conversions and rg-quantity-conversions around
//     quantities and their alternative unit listings.
//   - rg-proportion and rg-proportion-remainder around reference amounts.
//   - rg-sub-recipe-output-list on the output name listing of a multiple
//     output sub recipe.
//   - rg-scaled-value around every string fragment that re-scales with the
//     recipe.
//
// Reference cells link to the table or output list entry holding their
// target, via anchor ids derived from the output names.
package render

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"

	"github.com/vk/recipegrid/internal/number"
	"github.com/vk/recipegrid/internal/recipe"
	"github.com/vk/recipegrid/internal/svs"
	"github.com/vk/recipegrid/internal/table"
	"github.com/vk/recipegrid/internal/units"
)

// DefaultIDPrefix is prepended to generated anchor ids when no other prefix
// is configured.
const DefaultIDPrefix = "sub-recipe-"

// Renderer renders recipe trees and tables to HTML. The registry provides
// the alternative unit listings shown next to quantities; it may be nil to
// disable them. A page holding several separate recipes must use a distinct
// IDPrefix per recipe so anchor ids do not collide.
type Renderer struct {
	Registry *units.Registry
	IDPrefix string
}

// NewRenderer returns a renderer using the given unit registry and the
// default anchor id prefix.
func NewRenderer(reg *units.Registry) *Renderer {
	return &Renderer{Registry: reg, IDPrefix: DefaultIDPrefix}
}

// RecipeTree lays a recipe tree out and renders it as an HTML table. Tables
// rooted at a single output sub recipe carry that output's anchor id so
// references elsewhere can link to them.
func (r *Renderer) RecipeTree(n recipe.Node) (string, error) {
	tbl, err := table.FromRecipeTree(n)
	if err != nil {
		return "", err
	}

	id := ""
	if sr, ok := n.(*recipe.SubRecipe); ok && len(sr.OutputNames) == 1 {
		id = r.outputID(sr, 0)
	}
	return r.Table(tbl, id), nil
}

// Table renders a laid out table as HTML. A non-empty id is set as the
// table's id attribute verbatim, without the renderer's prefix.
func (r *Renderer) Table(tbl *table.Table, id string) string {
	rows := make([]string, 0, tbl.Rows())
	for _, rowCells := range tbl.Cells {
		var tds []string
		for _, el := range rowCells {
			if cell, ok := el.(*table.Cell); ok {
				tds = append(tds, r.cell(cell))
			}
		}
		rows = append(rows, Tag("tr", strings.Join(tds, "\n")))
	}

	attrs := []Attr{{"class", "rg-table"}}
	if id != "" {
		attrs = append(attrs, Attr{"id", id})
	}
	return Tag("table", strings.Join(rows, "\n"), attrs...)
}

func (r *Renderer) cell(cell *table.Cell) string {
	classes := []string{}
	var body string

	switch node := cell.Node.(type) {
	case *recipe.Ingredient:
		classes = append(classes, "rg-ingredient")
		body = r.ingredient(node)
	case *recipe.Reference:
		classes = append(classes, "rg-reference")
		body = r.reference(node)
	case *recipe.Step:
		classes = append(classes, "rg-step")
		body = ScaledString(node.Description)
	case *recipe.SubRecipe:
		if len(node.OutputNames) == 1 {
			classes = append(classes, "rg-sub-recipe-header")
			body = ScaledString(node.OutputNames[0])
		} else {
			classes = append(classes, "rg-sub-recipe-outputs")
			body = r.subRecipeOutputs(node)
		}
	default:
		body = html.EscapeString(fmt.Sprintf("%v", cell.Node))
	}

	for _, edge := range []struct {
		name   string
		border table.BorderType
	}{
		{"left", cell.BorderLeft},
		{"right", cell.BorderRight},
		{"top", cell.BorderTop},
		{"bottom", cell.BorderBottom},
	} {
		if edge.border != table.BorderNormal {
			classes = append(classes, "rg-border-"+edge.name+"-"+edge.border.String())
		}
	}

	attrs := []Attr{{"class", strings.Join(classes, " ")}}
	if cell.Columns != 1 {
		attrs = append(attrs, Attr{"colspan", fmt.Sprintf("%d", cell.Columns)})
	}
	if cell.Rows != 1 {
		attrs = append(attrs, Attr{"rowspan", fmt.Sprintf("%d", cell.Rows)})
	}
	return Tag("td", body, attrs...)
}

func (r *Renderer) ingredient(ingredient *recipe.Ingredient) string {
	quantity := ""
	if ingredient.Quantity != nil {
		quantity = r.quantity(ingredient.Quantity) + " "
	}
	return quantity + ScaledString(ingredient.Description)
}

func (r *Renderer) reference(ref *recipe.Reference) string {
	amount := ""
	switch amt := ref.Amount.(type) {
	case *recipe.Quantity:
		amount = r.quantity(amt) + " "
	case *recipe.Proportion:
		if amt.Value == nil || !amt.Value.Equal(wholeAmount) {
			amount = proportion(amt) + " "
		}
	}

	name := ScaledString(ref.SubRecipe.OutputNames[ref.OutputIndex])
	return Tag("a", amount+name,
		Attr{"href", "#" + r.outputID(ref.SubRecipe, ref.OutputIndex)})
}

func (r *Renderer) subRecipeOutputs(sr *recipe.SubRecipe) string {
	items := make([]string, len(sr.OutputNames))
	for i, name := range sr.OutputNames {
		items[i] = Tag("li", ScaledString(name), Attr{"id", r.outputID(sr, i)})
	}
	return Tag("ul", strings.Join(items, "\n"),
		Attr{"class", "rg-sub-recipe-output-list"})
}

var idUnsafe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// outputID derives the anchor id of a sub recipe output from its name.
func (r *Renderer) outputID(sr *recipe.SubRecipe, index int) string {
	name := sr.OutputNames[index].String()
	return r.IDPrefix + strings.Trim(idUnsafe.ReplaceAllString(name, "-"), "-")
}

var wholeAmount = number.FromInt(1)

// quantity renders a quantity, listing equivalent amounts in related units
// as a nested <ul> for stylesheets to present as a hint.
func (r *Renderer) quantity(q *recipe.Quantity) string {
	if q.Unit == "" {
		return Tag("span", Number(q.Value),
			Attr{"class", "rg-quantity-unitless rg-scaled-value"}) +
			html.EscapeString(q.Preposition)
	}

	type form struct {
		value number.Number
		unit  string
	}
	forms := []form{{q.Value, q.Unit}}
	if r.Registry != nil {
		if convs, err := r.Registry.Conversions(q.Unit); err == nil {
			// The written unit goes first, then exact conversions, then
			// approximate ones, each group ordered by name.
			sort.SliceStable(convs, func(i, j int) bool {
				ci, cj := convs[i], convs[j]
				if a, b := !ci.Factor.Equal(wholeAmount), !cj.Factor.Equal(wholeAmount); a != b {
					return !a
				}
				if a, b := ci.Factor.Decimal(), cj.Factor.Decimal(); a != b {
					return !a
				}
				return ci.Name < cj.Name
			})
			// convs[0] is the written unit itself; keep its spelling.
			for _, conv := range convs[1:] {
				forms = append(forms, form{q.Value.Mul(conv.Factor), conv.Name})
			}
		}
	}

	rendered := make([]string, len(forms))
	for i, f := range forms {
		rendered[i] = Number(f.value) +
			html.EscapeString(q.ValueUnitSpacing) +
			html.EscapeString(f.unit)
	}

	if len(rendered) == 1 {
		return Tag("span", rendered[0],
			Attr{"class", "rg-quantity-without-conversions rg-scaled-value"}) +
			html.EscapeString(q.Preposition)
	}

	items := make([]string, len(rendered)-1)
	for i, f := range rendered[1:] {
		items[i] = Tag("li", f)
	}
	conversions := Tag("ul", strings.Join(items, "\n"),
		Attr{"class", "rg-quantity-conversions"})
	return Tag("span", rendered[0]+conversions,
		Attr{"class", "rg-quantity-with-conversions rg-scaled-value"},
		Attr{"tabindex", "0"}) +
		html.EscapeString(q.Preposition)
}

func proportion(p *recipe.Proportion) string {
	if p.Value == nil {
		return Tag("span", html.EscapeString(p.RemainderWording+p.Preposition),
			Attr{"class", "rg-proportion-remainder"})
	}
	value := *p.Value
	if p.Percentage {
		value = value.Mul(number.FromInt(100))
	}
	preposition := strings.ReplaceAll(html.EscapeString(p.Preposition), "*", "&times;")
	return Tag("span", Number(value)+preposition,
		Attr{"class", "rg-proportion"})
}

// ScaledString renders a scaled value string, wrapping each embedded value
// so stylesheets can highlight what changes when the recipe is scaled.
func ScaledString(s svs.String) string {
	return s.Render(
		func(n number.Number) string {
			return Tag("span", Number(n), Attr{"class", "rg-scaled-value"})
		},
		html.EscapeString,
	)
}

var fractionPattern = regexp.MustCompile(`^((?:\d+ )?)(\d+)/(\d+)$`)

// Number formats a number, typesetting fractions with superscript and
// subscript digits around a fraction slash.
func Number(n number.Number) string {
	s := n.String()
	m := fractionPattern.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	return m[1] + Tag("sup", m[2]) + "&frasl;" + Tag("sub", m[3])
}

// Attr is one HTML attribute, emitted in the order given.
type Attr struct {
	Name, Value string
}

// Tag builds an HTML element. Multi-line bodies are indented one level with
// the tags on their own lines.
func Tag(name, body string, attrs ...Attr) string {
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(name)
	for _, a := range attrs {
		b.WriteString(" ")
		b.WriteString(a.Name)
		b.WriteString("=\"")
		b.WriteString(html.EscapeString(a.Value))
		b.WriteString("\"")
	}
	b.WriteString(">")
	if strings.Contains(body, "\n") {
		body = "\n" + indent(body) + "\n"
	}
	b.WriteString(body)
	b.WriteString("</")
	b.WriteString(name)
	b.WriteString(">")
	return b.String()
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = "  " + line
		}
	}
	return strings.TrimRight(strings.Join(lines, "\n"), " \t\n")
}
