// Package parser parses recipe description language source into the parse
// tree defined by package ast.
//
// The language is line-oriented: one statement per line, except inside
// parentheses where newlines are insignificant. The parser is a hand written
// recursive descent matcher with ordered alternatives and possessive
// optionals: once an optional prefix (an output list, a quantity) has
// matched, the parser commits to it. Errors report the farthest point the
// parser reached and what it would have accepted there.
package parser

import (
	"fmt"
	"math/big"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/vk/recipegrid/internal/ast"
	"github.com/vk/recipegrid/internal/number"
	"github.com/vk/recipegrid/internal/units"
)

// Error is a syntax error, locating the offending character and listing
// what the parser would have accepted in its place.
type Error struct {
	Line     int
	Column   int
	Snippet  string
	Expected []string
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "At line %d column %d:\n", e.Line, e.Column)
	b.WriteString(strings.TrimRight("    "+e.Snippet, " \t"))
	b.WriteString("\n    ")
	b.WriteString(strings.Repeat(" ", e.Column-1))
	b.WriteString("^\nExpected ")
	b.WriteString(strings.Join(e.Expected, " or "))
	return b.String()
}

// Describe locates a source offset, returning its 1-based line and column
// numbers and the text of the line containing it. Columns count runes.
func Describe(source string, offset int) (line, column int, snippet string) {
	if offset > len(source) {
		offset = len(source)
	}
	line = 1
	lineStart := 0
	for i := 0; i < offset; i++ {
		switch source[i] {
		case '\n':
			line++
			lineStart = i + 1
		case '\r':
			if i+1 < len(source) && source[i+1] == '\n' {
				continue
			}
			line++
			lineStart = i + 1
		}
	}
	end := len(source)
	for i := lineStart; i < len(source); i++ {
		if source[i] == '\n' || source[i] == '\r' {
			end = i
			break
		}
	}
	return line, utf8.RuneCountInString(source[lineStart:offset]) + 1, source[lineStart:end]
}

// Parse parses source into a parse tree. Unit names from reg are used to
// recognise the unit in implicit quantities such as "2 cloves garlic"; a
// nil registry disables implicit unit recognition.
func Parse(source string, reg *units.Registry) (*ast.Recipe, error) {
	p := &parser{src: source, errPos: -1}
	if reg != nil {
		p.unitNames = reg.Names()
	}
	var stmts []*ast.Stmt
	p.skipBlank()
	for p.pos < len(p.src) {
		st := p.parseStmt()
		if st == nil {
			return nil, p.err()
		}
		stmts = append(stmts, st)
		p.skipBlank()
	}
	if len(stmts) == 0 {
		p.expect(p.pos, "<action> or <ingredient> or <quantity>")
		return nil, p.err()
	}
	return &ast.Recipe{Stmts: stmts}, nil
}

type parser struct {
	src       string
	pos       int
	depth     int // parenthesis nesting; newlines are whitespace inside
	unitNames []string

	// Farthest failure so far and the labels expected there.
	errPos    int
	errLabels map[string]struct{}
}

// Expectations for line ends are only reported when nothing else would
// have been accepted.
var lastResort = map[string]bool{"<newline>": true, "<end of file>": true}

func (p *parser) err() *Error {
	off := p.errPos
	if off < 0 {
		off = p.pos
	}
	line, col, snippet := Describe(p.src, off)
	var labels []string
	for l := range p.errLabels {
		if !lastResort[l] {
			labels = append(labels, l)
		}
	}
	if len(labels) == 0 {
		for l := range p.errLabels {
			labels = append(labels, l)
		}
	}
	sort.Strings(labels)
	return &Error{Line: line, Column: col, Snippet: snippet, Expected: labels}
}

func (p *parser) expect(pos int, label string) {
	if pos < p.errPos {
		return
	}
	if pos > p.errPos {
		p.errPos = pos
		p.errLabels = make(map[string]struct{})
	}
	p.errLabels[label] = struct{}{}
}

// enter and leave bracket an attempt at a labelled construct. If the
// attempt fails without progressing past its start the expectations it
// recorded are collapsed into the construct's own label; otherwise the
// inner expectations stand.
func (p *parser) enter() (int, map[string]struct{}) {
	savePos, saveLabels := p.errPos, p.errLabels
	p.errPos, p.errLabels = -1, nil
	return savePos, saveLabels
}

func (p *parser) leave(label string, start int, ok bool, savePos int, saveLabels map[string]struct{}) {
	innerPos, innerLabels := p.errPos, p.errLabels
	p.errPos, p.errLabels = savePos, saveLabels
	if !ok && innerPos <= start {
		p.expect(start, label)
		return
	}
	for l := range innerLabels {
		p.expect(innerPos, l)
	}
}

func (p *parser) hsp() string {
	start := p.pos
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) sp() {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == ' ' || c == '\t' || (p.depth > 0 && (c == '\n' || c == '\r')) {
			p.pos++
		} else {
			return
		}
	}
}

func (p *parser) skipBlank() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) lit(ch byte, label string) bool {
	if p.pos < len(p.src) && p.src[p.pos] == ch {
		p.pos++
		return true
	}
	p.expect(p.pos, label)
	return false
}

// word matches w case-insensitively as a whole word, without recording an
// expectation on failure.
func (p *parser) word(w string) bool {
	end := p.pos + len(w)
	if end > len(p.src) || !strings.EqualFold(p.src[p.pos:end], w) {
		return false
	}
	if end < len(p.src) && isWordChar(p.src[end]) {
		return false
	}
	p.pos = end
	return true
}

func isWordChar(c byte) bool {
	return c == '_' ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z') ||
		('0' <= c && c <= '9')
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func (p *parser) parseStmt() *ast.Stmt {
	savePos, saveLabels := p.enter()
	start := p.pos
	st := p.parseStmtInner()
	p.leave("<action> or <ingredient> or <quantity>", start, st != nil, savePos, saveLabels)
	if st == nil {
		p.pos = start
	}
	return st
}

func (p *parser) parseStmtInner() *ast.Stmt {
	st := &ast.Stmt{}
	if outs, named, ok := p.parseTarget(); ok {
		st.Outputs = outs
		st.Labelled = named
	}
	st.Expr = p.parseLTR()
	if st.Expr == nil {
		return nil
	}
	if !p.eol() {
		return nil
	}
	return st
}

func (p *parser) parseTarget() ([]*ast.String, bool, bool) {
	start := p.pos
	outs := p.parseOutputList()
	if outs == nil {
		p.pos = start
		return nil, false, false
	}
	p.hsp()
	named, ok := p.assign()
	if !ok {
		p.pos = start
		return nil, false, false
	}
	p.hsp()
	return outs, named, true
}

func (p *parser) assign() (named, ok bool) {
	if strings.HasPrefix(p.src[p.pos:], ":=") {
		p.pos += 2
		return true, true
	}
	if p.pos < len(p.src) && p.src[p.pos] == '=' {
		p.pos++
		return false, true
	}
	p.expect(p.pos, "'=' or ':='")
	return false, false
}

func (p *parser) parseOutputList() []*ast.String {
	first := p.parseNamed("<output>")
	if first == nil {
		return nil
	}
	outs := []*ast.String{first}
	for {
		save := p.pos
		p.hsp()
		if !p.lit(',', "','") {
			p.pos = save
			break
		}
		p.hsp()
		next := p.parseNamed("<output>")
		if next == nil {
			p.pos = save
			break
		}
		outs = append(outs, next)
	}
	return outs
}

// parseNamed parses a string which plays a named grammatical role (an
// output, an action, an ingredient) so that errors can say which.
func (p *parser) parseNamed(label string) *ast.String {
	savePos, saveLabels := p.enter()
	start := p.pos
	s := p.parseString()
	p.leave(label, start, s != nil, savePos, saveLabels)
	return s
}

// parseLTR parses an expression followed by any number of ", action"
// suffixes, nesting each action around what came before.
func (p *parser) parseLTR() ast.Expr {
	savePos, saveLabels := p.enter()
	start := p.pos
	e := p.parseLTRInner()
	p.leave("<ingredient> or <quantity>", start, e != nil, savePos, saveLabels)
	if e == nil {
		p.pos = start
	}
	return e
}

func (p *parser) parseLTRInner() ast.Expr {
	e := p.parseExpr()
	if e == nil {
		return nil
	}
	for {
		save := p.pos
		p.sp()
		if !p.lit(',', "','") {
			p.pos = save
			break
		}
		p.sp()
		name := p.parseNamed("<action>")
		if name == nil {
			p.pos = save
			break
		}
		e = &ast.Step{Name: name, Inputs: []ast.Expr{e}}
	}
	return e
}

func (p *parser) parseExpr() ast.Expr {
	savePos, saveLabels := p.enter()
	start := p.pos
	e := p.parseExprInner()
	p.leave("<action> or <ingredient> or <quantity>", start, e != nil, savePos, saveLabels)
	if e == nil {
		p.pos = start
	}
	return e
}

func (p *parser) parseExprInner() ast.Expr {
	if st := p.parseStep(); st != nil {
		return st
	}
	if r := p.parseReference(); r != nil {
		return r
	}
	// Parenthesised left-to-right shorthand.
	start := p.pos
	if !p.lit('(', "'('") {
		return nil
	}
	p.depth++
	p.sp()
	e := p.parseLTR()
	if e != nil {
		p.sp()
		if !p.lit(')', "')'") {
			e = nil
		}
	}
	p.depth--
	if e == nil {
		p.pos = start
	}
	return e
}

func (p *parser) parseStep() ast.Expr {
	start := p.pos
	name := p.parseNamed("<action>")
	if name == nil {
		return nil
	}
	p.hsp()
	if !p.lit('(', "'('") {
		p.pos = start
		return nil
	}
	p.depth++
	p.sp()
	var inputs []ast.Expr
	if first := p.parseExpr(); first != nil {
		inputs = append(inputs, first)
		for {
			save := p.pos
			p.sp()
			if !p.lit(',', "','") {
				p.pos = save
				break
			}
			p.sp()
			next := p.parseExpr()
			if next == nil {
				p.pos = save
				break
			}
			inputs = append(inputs, next)
		}
		// Trailing comma.
		save := p.pos
		p.sp()
		if !p.lit(',', "','") {
			p.pos = save
		}
		p.sp()
		if !p.lit(')', "')'") {
			inputs = nil
		}
	}
	p.depth--
	if inputs == nil {
		p.pos = start
		return nil
	}
	return &ast.Step{Name: name, Inputs: inputs}
}

func (p *parser) parseReference() ast.Expr {
	start := p.pos
	amt := p.parseAmount()
	if amt != nil {
		p.hsp()
	}
	name := p.parseNamed("<ingredient>")
	if name == nil {
		p.pos = start
		return nil
	}
	return &ast.Reference{Name: name, Amount: amt}
}

func (p *parser) parseAmount() ast.Amount {
	if pr := p.parseProportion(); pr != nil {
		return pr
	}
	if q := p.parseExplicitQuantity(); q != nil {
		return q
	}
	return p.parseImplicitQuantity()
}

func (p *parser) parseProportion() ast.Amount {
	start := p.pos
	if wording := p.matchRemainder(); wording != "" {
		return &ast.Proportion{Off: start, RemainderWording: wording, Preposition: p.matchOfThe()}
	}
	n, off, ok := p.parseNumber("<number>")
	if !ok {
		return nil
	}
	if prep := p.matchOfThe(); prep != "" {
		return &ast.Proportion{Off: off, Value: &n, Preposition: prep}
	}
	save := p.pos
	ws := p.hsp()
	if p.lit('%', "'%'") {
		v := n.Div(number.FromInt(100))
		return &ast.Proportion{Off: off, Value: &v, Percentage: true, Preposition: ws + "%" + p.matchOfThe()}
	}
	p.pos = save
	ws = p.hsp()
	if p.lit('*', "'*'") {
		return &ast.Proportion{Off: off, Value: &n, Preposition: ws + "*"}
	}
	p.pos = start
	return nil
}

func (p *parser) matchRemainder() string {
	start := p.pos
	for _, w := range []string{"remaining", "remainder", "rest"} {
		if p.word(w) {
			return p.src[start:p.pos]
		}
	}
	if p.word("left") {
		if ws := p.hsp(); ws != "" && p.word("over") {
			return p.src[start:p.pos]
		}
		p.pos = start
	}
	return ""
}

// matchOfThe consumes an "of" or "of the" preposition, returning it with
// its leading whitespace, or nothing.
func (p *parser) matchOfThe() string {
	start := p.pos
	if ws := p.hsp(); ws == "" || !p.word("of") {
		p.pos = start
		return ""
	}
	mid := p.pos
	if ws := p.hsp(); ws == "" || !p.word("the") {
		p.pos = mid
	}
	return p.src[start:p.pos]
}

func (p *parser) parseExplicitQuantity() ast.Amount {
	start := p.pos
	if !p.lit('{', "'{'") {
		return nil
	}
	p.hsp()
	n, _, ok := p.parseNumber("<number>")
	if !ok {
		p.pos = start
		return nil
	}
	var unit *ast.String
	spacing := ""
	save := p.pos
	ws := p.hsp()
	if u := p.parseString(); u != nil {
		unit, spacing = u, ws
	} else {
		p.pos = save
	}
	p.hsp()
	if !p.lit('}', "'}'") {
		p.pos = start
		return nil
	}
	return &ast.Quantity{
		Off:              start,
		Value:            n,
		Unit:             unit,
		ValueUnitSpacing: spacing,
		Preposition:      p.matchOfThe(),
	}
}

func (p *parser) parseImplicitQuantity() ast.Amount {
	n, off, ok := p.parseNumber("<number>")
	if !ok {
		return nil
	}
	var unit *ast.String
	spacing := ""
	save := p.pos
	ws := p.hsp()
	if name, unitOff, found := p.matchUnit(); found {
		unit = ast.Text(unitOff, name)
		spacing = ws
	} else {
		p.pos = save
	}
	return &ast.Quantity{
		Off:              off,
		Value:            n,
		Unit:             unit,
		ValueUnitSpacing: spacing,
		Preposition:      p.matchOfThe(),
	}
}

// matchUnit matches a registered unit name at the cursor. Names are tried
// longest first so "tea spoons" wins over any shorter prefix, and a match
// must end at a word boundary so "cloves" is never read out of
// "clovesgarlic". The source spelling is preserved.
func (p *parser) matchUnit() (string, int, bool) {
	for _, name := range p.unitNames {
		end := p.pos + len(name)
		if end > len(p.src) || !strings.EqualFold(p.src[p.pos:end], name) {
			continue
		}
		if end < len(p.src) && isWordChar(p.src[end]) {
			continue
		}
		off := p.pos
		p.pos = end
		return p.src[off:end], off, true
	}
	return "", 0, false
}

func (p *parser) parseNumber(label string) (number.Number, int, bool) {
	savePos, saveLabels := p.enter()
	start := p.pos
	n, ok := p.parseNumberInner()
	p.leave(label, start, ok, savePos, saveLabels)
	if !ok {
		p.pos = start
	}
	return n, start, ok
}

func (p *parser) parseNumberInner() (number.Number, bool) {
	if n, ok := p.tryFraction(); ok {
		return n, true
	}
	return p.tryDecimal()
}

func (p *parser) digits() string {
	start := p.pos
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

// tryFraction matches "2/3" or a mixed number like "1 2/3".
func (p *parser) tryFraction() (number.Number, bool) {
	var zero number.Number
	start := p.pos
	d1 := p.digits()
	if d1 == "" {
		return zero, false
	}
	whole, numer := "", d1
	afterFirst := p.pos
	if ws := p.hsp(); ws != "" {
		if d2 := p.digits(); d2 != "" {
			whole, numer = d1, d2
		} else {
			p.pos = afterFirst
		}
	}
	p.hsp()
	if !p.lit('/', "'/'") {
		p.pos = start
		return zero, false
	}
	p.hsp()
	denom := p.digits()
	if denom == "" {
		p.expect(p.pos, "<number>")
		p.pos = start
		return zero, false
	}
	r, ok := new(big.Rat).SetString(numer + "/" + denom)
	if !ok {
		p.expect(p.pos, "<number>")
		p.pos = start
		return zero, false
	}
	n := number.FromRat(r)
	if whole != "" {
		w, _ := new(big.Rat).SetString(whole)
		n = number.FromRat(w).Add(n)
	}
	return n, true
}

func (p *parser) tryDecimal() (number.Number, bool) {
	var zero number.Number
	d := p.digits()
	if d == "" {
		return zero, false
	}
	if p.pos+1 < len(p.src) && p.src[p.pos] == '.' && isDigit(p.src[p.pos+1]) {
		p.pos++
		n, err := number.FromDecimal(d + "." + p.digits())
		if err != nil {
			return zero, false
		}
		return n, true
	}
	r, _ := new(big.Rat).SetString(d)
	return number.FromRat(r), true
}

func (p *parser) parseString() *ast.String {
	savePos, saveLabels := p.enter()
	start := p.pos
	parts := p.parseStringInner()
	p.leave("<text>", start, parts != nil, savePos, saveLabels)
	if parts == nil {
		p.pos = start
		return nil
	}
	return &ast.String{Parts: parts}
}

// parseStringInner parses one or more adjacent string segments. The
// whitespace between segments is kept as a part of its own.
func (p *parser) parseStringInner() []ast.StringPart {
	parts := p.parseSegment()
	if parts == nil {
		return nil
	}
	for {
		save := p.pos
		ws := p.hsp()
		more := p.parseSegment()
		if more == nil {
			p.pos = save
			break
		}
		if ws != "" {
			parts = append(parts, ast.StringPart{Off: save, Text: ws})
		}
		parts = append(parts, more...)
	}
	return parts
}

func (p *parser) parseSegment() []ast.StringPart {
	savePos, saveLabels := p.enter()
	start := p.pos
	parts := p.parseSegmentInner()
	p.leave("<text>", start, parts != nil, savePos, saveLabels)
	if parts == nil {
		p.pos = start
	}
	return parts
}

func (p *parser) parseSegmentInner() []ast.StringPart {
	if p.pos >= len(p.src) {
		return nil
	}
	switch c := p.src[p.pos]; c {
	case '\'', '"':
		return p.parseQuoted(c)
	case '{':
		return p.parseBraced()
	default:
		return p.parseNaked()
	}
}

// Naked strings carry names without quoting. They stop at structural
// punctuation and at digits (scalable numbers must be written in braces),
// and never start with or end in whitespace.
func isNakedChar(c byte) bool {
	switch c {
	case '\n', '\r', '{', '}', '(', ')', ',', '=', ':', '\'', '"', '\\', '/', '*', '%':
		return false
	}
	return c < '0' || c > '9'
}

func isNakedStart(c byte) bool {
	return isNakedChar(c) && c != ' ' && c != '\t'
}

func (p *parser) parseNaked() []ast.StringPart {
	start := p.pos
	if !isNakedStart(p.src[p.pos]) {
		return nil
	}
	i := p.pos
	for i < len(p.src) && isNakedChar(p.src[i]) {
		i++
	}
	for i > start && (p.src[i-1] == ' ' || p.src[i-1] == '\t') {
		i--
	}
	p.pos = i
	return []ast.StringPart{{Off: start, Text: p.src[start:i]}}
}

var escapes = map[rune]rune{
	'\\': '\\',
	'\'': '\'',
	'"':  '"',
	'a':  '\a',
	'b':  '\b',
	'f':  '\f',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'v':  '\v',
}

// escape consumes a backslash escape. Unrecognised escapes yield the
// escaped character itself.
func (p *parser) escape() (rune, bool) {
	if p.pos+1 >= len(p.src) {
		p.pos++
		return 0, false
	}
	r, size := utf8.DecodeRuneInString(p.src[p.pos+1:])
	if r == '\n' || r == '\r' {
		p.pos++
		return 0, false
	}
	p.pos += 1 + size
	if e, ok := escapes[r]; ok {
		return e, true
	}
	return r, true
}

func (p *parser) parseQuoted(q byte) []ast.StringPart {
	start := p.pos
	p.pos++
	closeLabel := `'"'`
	if q == '\'' {
		closeLabel = `"'"`
	}
	var b strings.Builder
	for {
		if p.pos >= len(p.src) || p.src[p.pos] == '\n' || p.src[p.pos] == '\r' {
			p.expect(p.pos, closeLabel)
			p.expect(p.pos, "<text>")
			p.pos = start
			return nil
		}
		switch c := p.src[p.pos]; {
		case c == q:
			p.pos++
			return []ast.StringPart{{Off: start, Text: b.String()}}
		case c == '\\':
			r, ok := p.escape()
			if !ok {
				p.expect(p.pos, "<text>")
				p.pos = start
				return nil
			}
			b.WriteRune(r)
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
}

// parseBraced parses a "{...}" string segment, in which runs of digits are
// numbers to be scaled with the recipe.
func (p *parser) parseBraced() []ast.StringPart {
	start := p.pos
	p.pos++
	var parts []ast.StringPart
	var text strings.Builder
	textOff := start
	flush := func() {
		if text.Len() > 0 {
			parts = append(parts, ast.StringPart{Off: textOff, Text: text.String()})
			text.Reset()
		}
		textOff = -1
	}
	for {
		if p.pos >= len(p.src) || p.src[p.pos] == '\n' || p.src[p.pos] == '\r' {
			p.expect(p.pos, "'}'")
			p.expect(p.pos, "<text>")
			p.pos = start
			return nil
		}
		switch c := p.src[p.pos]; {
		case c == '}':
			p.pos++
			flush()
			if len(parts) == 0 {
				parts = append(parts, ast.StringPart{Off: start, Text: ""})
			}
			return parts
		case c == '{':
			p.expect(p.pos, "'}'")
			p.expect(p.pos, "<text>")
			p.pos = start
			return nil
		case c == '\\':
			off := p.pos
			r, ok := p.escape()
			if !ok {
				p.expect(p.pos, "<text>")
				p.pos = start
				return nil
			}
			if textOff < 0 {
				textOff = off
			}
			text.WriteRune(r)
		case isDigit(c):
			flush()
			n, off, ok := p.parseNumber("<text>")
			if !ok {
				p.pos = start
				return nil
			}
			parts = append(parts, ast.StringPart{Off: off, Value: n, IsValue: true})
		default:
			if textOff < 0 {
				textOff = p.pos
			}
			text.WriteByte(c)
			p.pos++
		}
	}
}

func (p *parser) eol() bool {
	p.hsp()
	if p.pos >= len(p.src) {
		return true
	}
	if c := p.src[p.pos]; c == '\n' || c == '\r' {
		return true
	}
	p.expect(p.pos, "<newline>")
	p.expect(p.pos, "<end of file>")
	return false
}
