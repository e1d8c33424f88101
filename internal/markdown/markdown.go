// Package markdown compiles markdown documents with embedded recipe code
// blocks into scalable HTML.
//
// Recipe sources live in the document's code blocks: every indented code
// block and every fenced block tagged "recipe" or "new-recipe" is compiled
// as recipe source. Consecutive blocks form one recipe, with later blocks
// able to reference outputs of earlier ones; a "new-recipe" block starts a
// fresh, independent recipe. Outside code blocks, {braced} expressions embed
// values that rescale with the recipe, and a leading level one heading is
// recognised as the document title, including a serving count such as
// "for 4" or "serves 2".
//
// Compilation renders the surrounding markdown once. Recipe blocks, scaled
// values and the title markup are held as placeholders in the rendered HTML
// so a compiled Document can be rendered repeatedly at different scales
// without re-parsing anything.
package markdown

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"math/big"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	gparser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	ghtml "github.com/yuin/goldmark/renderer/html"
	gtext "github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/vk/recipegrid/internal/compiler"
	"github.com/vk/recipegrid/internal/ctxlog"
	"github.com/vk/recipegrid/internal/number"
	"github.com/vk/recipegrid/internal/recipe"
	"github.com/vk/recipegrid/internal/render"
	"github.com/vk/recipegrid/internal/svs"
	"github.com/vk/recipegrid/internal/units"
)

// Document is a compiled markdown document, ready to be rendered at any
// scale.
type Document struct {
	// Title is the text of the document's leading level one heading, or ""
	// when the document has none (or its heading contains markup).
	Title string

	// Servings is the serving count read from the title, or 0 when the
	// title carries none.
	Servings int

	html      string
	registry  *units.Registry
	values    map[string]svs.String
	blocks    []*recipeBlock
	groups    [][]*recipe.Recipe
	preTitle  string
	postTitle string
}

// recipeBlock ties a placeholder in the rendered HTML to the recipe compiled
// from the corresponding code block.
type recipeBlock struct {
	placeholder string
	group       int
	index       int
}

// Compile renders a markdown document and compiles the recipes embedded in
// its code blocks. The registry resolves units in recipe sources and
// provides the alternative unit listings in the rendered tables; it may be
// nil to disable both.
//
// Recipe syntax and semantic errors are reported with positions relative to
// the markdown document, not the code block.
func Compile(ctx context.Context, source string, reg *units.Registry) (*Document, error) {
	log := ctxlog.FromContext(ctx)

	st := &state{values: make(map[string]svs.String), group: -1}
	md := goldmark.New(
		goldmark.WithExtensions(&extension{st: st}),
		goldmark.WithRendererOptions(ghtml.WithUnsafe()),
	)
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return nil, err
	}

	doc := &Document{
		html:     buf.String(),
		registry: reg,
		values:   st.values,
	}
	doc.extractTitle()

	groupSources := make([][]string, st.group+1)
	for _, b := range st.blocks {
		doc.blocks = append(doc.blocks, &recipeBlock{
			placeholder: b.placeholder,
			group:       b.group,
			index:       len(groupSources[b.group]),
		})
		groupSources[b.group] = append(groupSources[b.group], b.source)
	}
	doc.groups = make([][]*recipe.Recipe, len(groupSources))
	for g, sources := range groupSources {
		result, err := compiler.Compile(ctx, sources, reg)
		if err != nil {
			return nil, err
		}
		doc.groups[g] = result.Recipes
	}

	log.Debug("compiled markdown document",
		"recipeBlocks", len(doc.blocks),
		"recipeGroups", len(doc.groups),
		"scaledValues", len(doc.values))
	return doc, nil
}

// Recipes returns the compiled recipes, one slice per independent recipe
// with an entry per code block.
func (d *Document) Recipes() [][]*recipe.Recipe { return d.groups }

// Render renders the document with every recipe and scalable value
// multiplied by scale. A title heading gains a note describing the rescaling
// unless scale is 1.
func (d *Document) Render(scale number.Number) (string, error) {
	out := d.html

	for placeholder, value := range d.values {
		out = strings.ReplaceAll(out, placeholder, render.ScaledString(value.Scale(scale)))
	}

	scaledGroups := make([][]*recipe.Recipe, len(d.groups))
	for g, recipes := range d.groups {
		if len(recipes) == 0 {
			continue
		}
		// Scaling the last recipe scales the whole chain, keeping sub
		// recipes shared between blocks shared in the copies.
		chain := recipes[len(recipes)-1].Scale(scale)
		scaledGroups[g] = make([]*recipe.Recipe, len(recipes))
		for i := len(recipes) - 1; i >= 0; i-- {
			scaledGroups[g][i] = chain
			chain = chain.Follows
		}
	}

	for _, b := range d.blocks {
		renderer := &render.Renderer{Registry: d.registry, IDPrefix: groupIDPrefix(b.group)}
		rec := scaledGroups[b.group][b.index]
		tables := make([]string, len(rec.Trees))
		for i, tree := range rec.Trees {
			tbl, err := renderer.RecipeTree(tree)
			if err != nil {
				return "", err
			}
			tables[i] = tbl
		}
		div := render.Tag("div", strings.Join(tables, "\n"),
			render.Attr{Name: "class", Value: "rg-recipe-block"})
		out = strings.ReplaceAll(out, b.placeholder, div)
	}

	if d.preTitle != "" {
		out = strings.Replace(out, d.preTitle, "<header>", 1)
		post := "</header>"
		if !scale.Equal(number.FromInt(1)) {
			if d.Servings > 0 {
				noun := "servings"
				if d.Servings == 1 {
					noun = "serving"
				}
				post = fmt.Sprintf(
					`<p>Rescaled from <span class="rg-original-servings">%d %s</span>.</p></header>`,
					d.Servings, noun)
			} else {
				post = `<p>Scaled <span class="rg-scaling-factor">` +
					render.Number(scale) + `&times;</span></p></header>`
			}
		}
		out = strings.Replace(out, d.postTitle, post, 1)
	}

	return out, nil
}

// groupIDPrefix returns the anchor id prefix for a recipe group. Each group
// gets its own prefix so a page holding several recipes has no id clashes.
func groupIDPrefix(group int) string {
	if group == 0 {
		return "recipe-"
	}
	return fmt.Sprintf("recipe%d-", group+1)
}

var (
	headingPattern  = regexp.MustCompile(`(?s)<h([1-6])[^>]*>(.*?)</h[1-6]>`)
	servingsPattern = regexp.MustCompile(`(?i)\b((?:(?:to\s+)?serves?|for|makes|serving)\s+)([0-9]+)\s*$`)
)

// extractTitle recognises the document's first heading as its title when it
// is a plain level one heading. The heading is swapped for scalable title
// markup framed by placeholders that Render fills with <header> tags and,
// when rescaled, a note about the original size.
func (d *Document) extractTitle() {
	m := headingPattern.FindStringSubmatchIndex(d.html)
	if m == nil {
		return
	}
	level := d.html[m[2]:m[3]]
	inner := d.html[m[4]:m[5]]
	// Titles holding markup (or a scaled value placeholder) are left alone.
	if level != "1" || strings.ContainsAny(inner, "<%") {
		return
	}

	var h1 string
	if sm := servingsPattern.FindStringSubmatchIndex(inner); sm != nil {
		preposition := inner[sm[2]:sm[3]]
		servings, err := strconv.Atoi(inner[sm[4]:sm[5]])
		if err != nil {
			return
		}
		d.Title = html.UnescapeString(strings.TrimRight(inner[:sm[2]], " \t"))
		d.Servings = servings

		placeholder := generatePlaceholder()
		d.values[placeholder] = svs.FromValue(number.FromInt(int64(servings)))
		h1 = `<h1 class="rg-title-scalable">` + inner[:sm[2]] +
			`<span class="rg-serving-count">` + preposition + placeholder +
			`</span></h1>`
	} else {
		d.Title = html.UnescapeString(inner)
		h1 = `<h1 class="rg-title-unscalable">` + inner + `</h1>`
	}

	d.preTitle = generatePlaceholder()
	d.postTitle = generatePlaceholder()
	d.html = d.html[:m[0]] + d.preTitle + h1 + d.postTitle + d.html[m[1]:]
}

const placeholderLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// generatePlaceholder returns a random marker that is stable under both
// markdown rendering and HTML escaping, used to hold a place in rendered
// HTML for content only known at scaling time.
func generatePlaceholder() string {
	b := make([]byte, 34)
	b[0] = '%'
	for i := 1; i < 33; i++ {
		b[i] = placeholderLetters[rand.IntN(len(placeholderLetters))]
	}
	b[33] = '%'
	return string(b)
}

// state collects what the goldmark pass finds: scaled value expressions and
// recipe code block sources, grouped into independent recipes.
type state struct {
	values map[string]svs.String
	blocks []*pendingBlock
	group  int
}

type pendingBlock struct {
	placeholder string
	group       int
	source      string
}

// extension wires recipe handling into goldmark: an inline parser for
// {braced} scaled value expressions and a renderer that captures recipe code
// blocks.
type extension struct {
	st *state
}

func (e *extension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(gparser.WithInlineParsers(
		util.Prioritized(&scaledValueParser{}, 500),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&blockRenderer{st: e.st}, 100),
	))
}

// scaledValueNode is an inline node holding a parsed scaled value
// expression.
type scaledValueNode struct {
	gast.BaseInline
	value svs.String
}

var kindScaledValue = gast.NewNodeKind("ScaledValue")

func (n *scaledValueNode) Kind() gast.NodeKind { return kindScaledValue }

func (n *scaledValueNode) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, map[string]string{"Value": n.value.String()}, nil)
}

// scaledValueParser parses {braced} expressions into scaled value strings.
// The braces must close on the same line; an unclosed brace is left as
// literal text.
type scaledValueParser struct{}

func (p *scaledValueParser) Trigger() []byte { return []byte{'{'} }

func (p *scaledValueParser) Parse(parent gast.Node, block gtext.Reader, pc gparser.Context) gast.Node {
	line, _ := block.PeekLine()
	end := -1
	for i := 1; i < len(line) && end < 0; i++ {
		switch line[i] {
		case '\\':
			i++
		case '}':
			end = i
		}
	}
	if end < 0 {
		return nil
	}
	value := parseScaledValue(line[1:end])
	block.Advance(end + 1)
	return &scaledValueNode{value: value}
}

var (
	fractionValue = regexp.MustCompile(`^(?:([0-9]+)[ \t]+)?([0-9]+)[ \t]*/[ \t]*([0-9]+)`)
	decimalValue  = regexp.MustCompile(`^(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+)`)
	allZeroDigits = regexp.MustCompile(`^0+$`)
)

// parseScaledValue splits a brace expression into text and numbers. Numbers
// written as fractions or integers stay exact; numbers with a decimal point
// scale as decimals. A backslash escapes the following character.
func parseScaledValue(content []byte) svs.String {
	var parts []svs.Part
	var textBuf []byte
	flush := func() {
		if len(textBuf) > 0 {
			parts = append(parts, svs.Text(string(textBuf)))
			textBuf = nil
		}
	}

	i := 0
	for i < len(content) {
		c := content[i]
		if c == '\\' && i+1 < len(content) {
			textBuf = append(textBuf, content[i+1])
			i += 2
			continue
		}
		if isDigit(c) || (c == '.' && i+1 < len(content) && isDigit(content[i+1])) {
			if m := fractionValue.FindSubmatch(content[i:]); m != nil && !allZeroDigits.Match(m[3]) {
				flush()
				parts = append(parts, svs.Value(fractionNumber(m)))
				i += len(m[0])
				continue
			}
			if m := decimalValue.Find(content[i:]); m != nil {
				if n, ok := decimalNumber(m); ok {
					flush()
					parts = append(parts, svs.Value(n))
					i += len(m)
					continue
				}
			}
		}
		textBuf = append(textBuf, c)
		i++
	}
	flush()
	return svs.New(parts...)
}

func fractionNumber(m [][]byte) number.Number {
	num, _ := new(big.Int).SetString(string(m[2]), 10)
	den, _ := new(big.Int).SetString(string(m[3]), 10)
	r := new(big.Rat).SetFrac(num, den)
	if len(m[1]) > 0 {
		whole, _ := new(big.Int).SetString(string(m[1]), 10)
		r.Add(r, new(big.Rat).SetInt(whole))
	}
	return number.FromRat(r)
}

func decimalNumber(m []byte) (number.Number, bool) {
	s := string(m)
	if !strings.Contains(s, ".") {
		r, ok := new(big.Rat).SetString(s)
		if !ok {
			return number.Number{}, false
		}
		return number.FromRat(r), true
	}
	if s[0] == '.' {
		s = "0" + s
	}
	n, err := number.FromDecimal(s)
	if err != nil {
		return number.Number{}, false
	}
	return n, true
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

// blockRenderer renders scaled value nodes and code blocks. Recipe code
// blocks render as placeholders that Render replaces with the laid out
// recipe tables; other fenced blocks keep their ordinary form.
type blockRenderer struct {
	st *state
}

func (r *blockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(kindScaledValue, r.renderScaledValue)
	reg.Register(gast.KindCodeBlock, r.renderCodeBlock)
	reg.Register(gast.KindFencedCodeBlock, r.renderCodeBlock)
}

func (r *blockRenderer) renderScaledValue(w util.BufWriter, source []byte, node gast.Node, entering bool) (gast.WalkStatus, error) {
	if !entering {
		return gast.WalkContinue, nil
	}
	placeholder := generatePlaceholder()
	r.st.values[placeholder] = node.(*scaledValueNode).value
	_, _ = w.WriteString(placeholder)
	return gast.WalkContinue, nil
}

func (r *blockRenderer) renderCodeBlock(w util.BufWriter, source []byte, node gast.Node, entering bool) (gast.WalkStatus, error) {
	if !entering {
		return gast.WalkContinue, nil
	}

	lang := ""
	if fenced, ok := node.(*gast.FencedCodeBlock); ok {
		lang = string(fenced.Language(source))
		if lang != "recipe" && lang != "new-recipe" {
			r.writeVerbatim(w, source, node, lang)
			return gast.WalkContinue, nil
		}
	}

	lines := node.Lines()
	var b strings.Builder
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		b.Write(line.Value(source))
	}
	// Pad with the lines preceding the block so error positions within the
	// recipe source match the markdown document.
	offset := 0
	if lines.Len() > 0 {
		offset = bytes.Count(source[:lines.At(0).Start], []byte("\n"))
	}

	if lang == "new-recipe" || r.st.group < 0 {
		r.st.group++
	}
	placeholder := generatePlaceholder()
	r.st.blocks = append(r.st.blocks, &pendingBlock{
		placeholder: placeholder,
		group:       r.st.group,
		source:      strings.Repeat("\n", offset) + b.String(),
	})
	_, _ = w.WriteString(placeholder)
	return gast.WalkContinue, nil
}

// writeVerbatim renders a non-recipe fenced code block the way goldmark
// does by default.
func (r *blockRenderer) writeVerbatim(w util.BufWriter, source []byte, node gast.Node, lang string) {
	_, _ = w.WriteString("<pre><code")
	if lang != "" {
		_, _ = w.WriteString(` class="language-`)
		_, _ = w.Write(util.EscapeHTML([]byte(lang)))
		_, _ = w.WriteString(`"`)
	}
	_, _ = w.WriteString(">")
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		_, _ = w.Write(util.EscapeHTML(line.Value(source)))
	}
	_, _ = w.WriteString("</code></pre>\n")
}
