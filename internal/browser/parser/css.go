// internal/browser/parser/css.go
package parser

import (
	"strings"
	"unicode"
)

// Declaration is one property/value pair from a rule or a style attribute.
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// Rule applies a declaration block to every selector in its list.
type Rule struct {
	Selectors    []Selector
	Declarations []Declaration
}

// StyleSheet is an ordered list of rules. Source order breaks specificity ties.
type StyleSheet struct {
	Rules []Rule
}

// Combinator joins two compounds of a Selector.
type Combinator int

const (
	CombinatorNone Combinator = iota
	CombinatorDescendant
	CombinatorChild
)

// Compound is a run of simple selectors with no combinator between them,
// such as a.nav[href].
type Compound struct {
	Combinator Combinator
	Tag        string
	ID         string
	Classes    []string
	Attributes []AttributeSelector
	// Pseudo holds pseudo-classes. Selectors carrying state pseudo-classes
	// (:hover, :focus) never match a static render.
	Pseudo []string
}

// AttributeSelector is [name], [name=value] or a prefix/suffix/substring form.
type AttributeSelector struct {
	Name     string
	Operator string
	Value    string
}

// Selector is a complex selector, compounds ordered left to right.
type Selector struct {
	Compounds []Compound
}

// Specificity returns the (id, class, type) counts.
func (s Selector) Specificity() [3]int {
	var spec [3]int
	for _, c := range s.Compounds {
		if c.ID != "" {
			spec[0]++
		}
		spec[1] += len(c.Classes) + len(c.Attributes) + len(c.Pseudo)
		if c.Tag != "" && c.Tag != "*" {
			spec[2]++
		}
	}
	return spec
}

// Parse reads a style sheet. Malformed rules and at-rules are skipped.
func Parse(input string) StyleSheet {
	p := &cssParser{input: stripComments(input)}
	var sheet StyleSheet
	for {
		p.skipSpace()
		if p.eof() {
			return sheet
		}
		if p.peek() == '@' {
			p.skipAtRule()
			continue
		}
		prelude := p.readUntil('{')
		if p.eof() {
			return sheet
		}
		p.pos++ // {
		block := p.readBlock()
		selectors := ParseSelectorList(prelude)
		if len(selectors) == 0 {
			continue
		}
		sheet.Rules = append(sheet.Rules, Rule{Selectors: selectors, Declarations: ParseDeclarations(block)})
	}
}

// ParseDeclarations reads a declaration block body or a style attribute.
func ParseDeclarations(block string) []Declaration {
	var decls []Declaration
	for _, part := range strings.Split(block, ";") {
		name, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(value)
		if name == "" || value == "" {
			continue
		}
		important := false
		if i := strings.Index(strings.ToLower(value), "!important"); i >= 0 {
			important = true
			value = strings.TrimSpace(value[:i])
		}
		decls = append(decls, Declaration{Property: name, Value: value, Important: important})
	}
	return decls
}

// ParseSelectorList parses a comma-separated selector list. Unparseable
// entries are dropped.
func ParseSelectorList(input string) []Selector {
	var out []Selector
	for _, part := range strings.Split(input, ",") {
		if sel, ok := parseSelector(strings.TrimSpace(part)); ok {
			out = append(out, sel)
		}
	}
	return out
}

func parseSelector(input string) (Selector, bool) {
	if input == "" {
		return Selector{}, false
	}
	var sel Selector
	next := CombinatorNone
	p := &cssParser{input: input}
	for {
		sawSpace := p.skipSpace()
		if p.eof() {
			break
		}
		if p.peek() == '>' {
			p.pos++
			next = CombinatorChild
			continue
		}
		if p.peek() == '+' || p.peek() == '~' {
			// Sibling combinators are not supported.
			return Selector{}, false
		}
		if sawSpace && len(sel.Compounds) > 0 && next == CombinatorNone {
			next = CombinatorDescendant
		}
		c, ok := p.compound()
		if !ok {
			return Selector{}, false
		}
		if len(sel.Compounds) == 0 {
			c.Combinator = CombinatorNone
		} else {
			if next == CombinatorNone {
				next = CombinatorDescendant
			}
			c.Combinator = next
		}
		sel.Compounds = append(sel.Compounds, c)
		next = CombinatorNone
	}
	return sel, len(sel.Compounds) > 0
}

type cssParser struct {
	input string
	pos   int
}

func (p *cssParser) eof() bool  { return p.pos >= len(p.input) }
func (p *cssParser) peek() byte { return p.input[p.pos] }

func (p *cssParser) skipSpace() bool {
	start := p.pos
	for !p.eof() && unicode.IsSpace(rune(p.peek())) {
		p.pos++
	}
	return p.pos > start
}

func (p *cssParser) readUntil(stop byte) string {
	start := p.pos
	for !p.eof() && p.peek() != stop {
		p.pos++
	}
	return p.input[start:p.pos]
}

// readBlock consumes up to the matching close brace.
func (p *cssParser) readBlock() string {
	start, depth := p.pos, 1
	for !p.eof() {
		switch p.peek() {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				body := p.input[start:p.pos]
				p.pos++
				return body
			}
		}
		p.pos++
	}
	return p.input[start:]
}

func (p *cssParser) skipAtRule() {
	for !p.eof() {
		switch p.peek() {
		case ';':
			p.pos++
			return
		case '{':
			p.pos++
			p.readBlock()
			return
		}
		p.pos++
	}
}

func (p *cssParser) ident() string {
	start := p.pos
	for !p.eof() {
		ch := rune(p.peek())
		if !(unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '-' || ch == '_') {
			break
		}
		p.pos++
	}
	return p.input[start:p.pos]
}

func (p *cssParser) compound() (Compound, bool) {
	var c Compound
	if p.peek() == '*' {
		c.Tag = "*"
		p.pos++
	} else if name := p.ident(); name != "" {
		c.Tag = strings.ToLower(name)
	}
	for !p.eof() {
		switch p.peek() {
		case '#':
			p.pos++
			c.ID = p.ident()
		case '.':
			p.pos++
			c.Classes = append(c.Classes, p.ident())
		case '[':
			p.pos++
			attr, ok := p.attribute()
			if !ok {
				return Compound{}, false
			}
			c.Attributes = append(c.Attributes, attr)
		case ':':
			p.pos++
			if !p.eof() && p.peek() == ':' {
				p.pos++
			}
			c.Pseudo = append(c.Pseudo, strings.ToLower(p.ident()))
		default:
			return c, c.Tag != "" || c.ID != "" || len(c.Classes) > 0 || len(c.Attributes) > 0 || len(c.Pseudo) > 0
		}
	}
	return c, true
}

func (p *cssParser) attribute() (AttributeSelector, bool) {
	body := p.readUntil(']')
	if p.eof() {
		return AttributeSelector{}, false
	}
	p.pos++ // ]
	for _, op := range []string{"^=", "$=", "*=", "~=", "|=", "="} {
		if name, value, ok := strings.Cut(body, op); ok {
			value = strings.Trim(strings.TrimSpace(value), `"'`)
			return AttributeSelector{Name: strings.ToLower(strings.TrimSpace(name)), Operator: op, Value: value}, true
		}
	}
	name := strings.ToLower(strings.TrimSpace(body))
	return AttributeSelector{Name: name}, name != ""
}

func stripComments(s string) string {
	var b strings.Builder
	for {
		i := strings.Index(s, "/*")
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		j := strings.Index(s[i+2:], "*/")
		if j < 0 {
			return b.String()
		}
		s = s[i+2+j+2:]
	}
}
