package load

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Parse parses the contents of a single definition source. The name is
// used for positions in errors and declarations.
func Parse(name string, src []byte) (*File, error) {
	docs, err := scanComments(name, src)
	if err != nil {
		return nil, err
	}
	ast, err := definitionParser.ParseBytes(name, src)
	if err != nil {
		return nil, syntaxError(name, src, err)
	}
	b := &builder{file: name, docs: docs, names: make(map[string]Position)}
	return b.build(ast)
}

// comments holds the comments of a source that stand on their own line,
// keyed by line, and the lines carrying any other token.
type comments struct {
	own   map[int]string
	lines map[int]bool
}

// doc returns the comment block directly above line. A blank line or a
// line with other tokens ends the block.
func (c *comments) doc(line int) string {
	var block []string
	for l := line - 1; l > 0 && !c.lines[l]; l-- {
		text, ok := c.own[l]
		if !ok {
			break
		}
		block = append([]string{text}, block...)
	}
	return strings.Join(block, "\n")
}

// scanComments runs the lexer alone to collect doc comments, which the
// grammar elides.
func scanComments(name string, src []byte) (*comments, error) {
	lex, err := definitionLexer.Lex(name, bytes.NewReader(src))
	if err != nil {
		return nil, syntaxError(name, src, err)
	}
	toks, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, syntaxError(name, src, err)
	}
	c := &comments{own: make(map[int]string), lines: make(map[int]bool)}
	for _, t := range toks {
		switch t.Type {
		case lexer.EOF, tokWhitespace:
		case tokBadString:
			return nil, errorAt(position(name, t.Pos), "unterminated string literal")
		case tokComment:
			text := strings.TrimPrefix(t.Value, "#")
			if strings.HasPrefix(t.Value, "//") {
				text = t.Value[2:]
			}
			if !c.lines[t.Pos.Line] {
				c.own[t.Pos.Line] = strings.TrimSpace(text)
			}
		default:
			c.lines[t.Pos.Line] = true
		}
	}
	return c, nil
}

// syntaxError converts lexer and grammar failures to a ParseError.
func syntaxError(name string, src []byte, err error) error {
	var lexErr *lexer.Error
	if errors.As(err, &lexErr) {
		pos := lexErr.Pos
		if pos.Offset < len(src) {
			r, _ := utf8.DecodeRune(src[pos.Offset:])
			return errorAt(position(name, pos), fmt.Sprintf("unexpected character %q", r))
		}
		return errorAt(position(name, pos), lexErr.Msg)
	}
	var perr participle.Error
	if errors.As(err, &perr) {
		return errorAt(position(name, perr.Position()), perr.Message())
	}
	return &ParseError{File: name, Message: "cannot parse definition", Cause: err}
}

func position(name string, pos lexer.Position) Position {
	return Position{File: name, Line: pos.Line, Column: pos.Column}
}

// builder turns the syntax tree of one file into declarations, checking
// the rules the grammar leaves open.
type builder struct {
	file  string
	docs  *comments
	names map[string]Position
	ns    string
	// last is the line of the last token of the previous declaration.
	last int
}

func (b *builder) pos(p lexer.Position) Position { return position(b.file, p) }

func (b *builder) build(ast *fileNode) (*File, error) {
	f := &File{Path: b.file}
	if ns := ast.Namespace; ns != nil {
		for _, part := range strings.Split(ns.Name.Name, ".") {
			if !validName(part) {
				return nil, errorAt(b.pos(ns.Name.Pos), fmt.Sprintf("invalid namespace %q", ns.Name.Name))
			}
		}
		b.ns, f.Namespace = ns.Name.Name, ns.Name.Name
		b.last = ns.Name.Pos.Line
	}
	for _, node := range ast.Decls {
		if node.Pos.Line == b.last {
			return nil, errorAt(b.pos(node.Pos), fmt.Sprintf("unexpected %q after declaration", firstWord(node)))
		}
		d, err := b.decl(node)
		if err != nil {
			return nil, err
		}
		if prev, ok := b.names[d.Name]; ok {
			return nil, errorAt(d.Pos, fmt.Sprintf("duplicate declaration %q (first declared at %s)", d.Name, prev))
		}
		b.names[d.Name] = d.Pos
		b.last = lastLine(node)
		f.Decls = append(f.Decls, d)
	}
	return f, nil
}

func firstWord(node *declNode) string {
	if node.Open {
		return "open"
	}
	return node.Keyword.Name
}

func lastLine(node *declNode) int {
	switch {
	case node.Body != nil && node.Body.End != nil:
		return node.Body.End.Pos.Line
	case node.Body != nil:
		return node.Body.Pos.Line
	case node.Extends != nil:
		return node.Extends.Names[len(node.Extends.Names)-1].Pos.Line
	case node.Name != nil:
		return node.Name.Pos.Line
	default:
		return node.Keyword.Pos.Line
	}
}

func (b *builder) decl(node *declNode) (*Declaration, error) {
	d := &Declaration{Namespace: b.ns, Comment: b.docs.doc(node.Pos.Line), Pos: b.pos(node.Pos), Open: node.Open}
	kw := node.Keyword
	switch kw.Name {
	case "record":
		d.Kind = KindRecord
	case "interface":
		d.Kind = KindInterface
	case "enum":
		d.Kind = KindEnum
	default:
		return nil, errorAt(b.pos(kw.Pos), fmt.Sprintf("expected record, interface or enum, found %q", kw.Name))
	}
	if node.Open && d.Kind != KindInterface {
		return nil, errorAt(b.pos(kw.Pos), fmt.Sprintf("expected \"interface\" after \"open\", found %q", kw.Name))
	}
	if node.Name == nil {
		return nil, errorAt(b.pos(kw.Pos), fmt.Sprintf("expected %s name", d.Kind))
	}
	if err := b.checkName(node.Name); err != nil {
		return nil, err
	}
	d.Name = node.Name.Name
	if ext := node.Extends; ext != nil {
		if d.Kind == KindEnum {
			return nil, errorAt(b.pos(ext.Pos), fmt.Sprintf("enum %s cannot extend other types", d.Name))
		}
		seen := make(map[string]bool)
		for _, n := range ext.Names {
			if seen[n.Name] {
				return nil, errorAt(b.pos(n.Pos), fmt.Sprintf("%s listed twice in extends clause", n.Name))
			}
			seen[n.Name] = true
			d.Extends = append(d.Extends, n.Name)
		}
	}
	body := node.Body
	if body != nil && body.End == nil {
		return nil, errorAt(d.Pos, fmt.Sprintf("%s %s: missing closing brace", d.Kind, d.Name))
	}
	var err error
	switch d.Kind {
	case KindRecord:
		if body != nil {
			d.Fields, err = b.fields(d, body.Members)
		}
	case KindInterface:
		if body != nil && len(body.Members) > 0 {
			return nil, errorAt(b.pos(body.Pos), fmt.Sprintf("interface %s cannot declare a body", d.Name))
		}
	case KindEnum:
		if body == nil {
			return nil, errorAt(d.Pos, fmt.Sprintf("enum %s: expected \"{\" after name", d.Name))
		}
		d.Constants, err = b.constants(d, body)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// separated checks that members on the same line are separated by commas.
// Members on their own lines need no separator.
func separated(members []*memberNode, i int) bool {
	if i == 0 || members[i-1].Comma {
		return true
	}
	return members[i].Pos.Line != memberLine(members[i-1])
}

func memberLine(m *memberNode) int {
	switch {
	case m.Field == nil:
		return m.Pos.Line
	case m.Field.Default != nil:
		return m.Field.Default.Pos.Line
	default:
		return m.Field.Type.Pos.Line
	}
}

func (b *builder) fields(d *Declaration, members []*memberNode) ([]*Field, error) {
	var (
		fields []*Field
		seen   = make(map[string]Position)
	)
	for i, m := range members {
		fd := &Field{Name: m.Name, Position: i, Comment: b.docs.doc(m.Pos.Line), Pos: b.pos(m.Pos)}
		if !separated(members, i) {
			return nil, errorAt(fd.Pos, fmt.Sprintf("record %s: malformed field list: unexpected %q after field %q", d.Name, m.Name, members[i-1].Name))
		}
		if m.Field == nil {
			found := "}"
			if i+1 < len(members) {
				found = members[i+1].Name
			}
			return nil, errorAt(fd.Pos, fmt.Sprintf("malformed field %q: expected \":\" before type, found %q", m.Name, found))
		}
		if err := b.checkName(&identNode{Pos: m.Pos, Name: m.Name}); err != nil {
			return nil, err
		}
		if prev, ok := seen[fd.Name]; ok {
			return nil, errorAt(fd.Pos, fmt.Sprintf("record %s: duplicate field %q (first declared at %s)", d.Name, fd.Name, prev))
		}
		seen[fd.Name] = fd.Pos
		ref, err := b.typeRef(m.Field.Type)
		if err != nil {
			return nil, err
		}
		fd.Type, fd.Nullable = ref, m.Field.Nullable
		if m.Field.Default != nil {
			if fd.Default, err = b.literal(m.Field.Default); err != nil {
				return nil, err
			}
		}
		fields = append(fields, fd)
	}
	return fields, nil
}

func (b *builder) typeRef(t *typeNode) (*TypeRef, error) {
	if t.Seq != nil {
		elem, err := b.typeRef(t.Seq)
		if err != nil {
			return nil, err
		}
		return &TypeRef{Kind: RefSequence, Elem: elem, Pos: b.pos(t.Pos)}, nil
	}
	name, pos := t.Ref.Name, b.pos(t.Ref.Pos)
	if t.Ref.Arg == nil {
		if IsPrimitive(name) {
			return &TypeRef{Kind: RefPrimitive, Name: name, Pos: pos}, nil
		}
		if strings.Contains(name, "-") {
			return nil, errorAt(pos, fmt.Sprintf("invalid type name %q", name))
		}
		return &TypeRef{Kind: RefNamed, Name: name, Pos: pos}, nil
	}
	ref := &TypeRef{Pos: pos}
	switch name {
	case "sequence-of", "sequence":
		ref.Kind = RefSequence
	case "optional", "optional-of":
		ref.Kind = RefOptional
	default:
		return nil, errorAt(pos, fmt.Sprintf("unknown type constructor %q", name))
	}
	elem, err := b.typeRef(t.Ref.Arg)
	if err != nil {
		return nil, err
	}
	ref.Elem = elem
	return ref, nil
}

func (b *builder) literal(l *literalNode) (*Literal, error) {
	lit := &Literal{Pos: b.pos(l.Pos)}
	switch {
	case l.String != nil:
		s, err := unquote(*l.String)
		if err != nil {
			return nil, errorAt(lit.Pos, err.Error())
		}
		lit.Kind, lit.Value = LitString, s
	case l.Number != nil:
		lit.Kind, lit.Value = LitInt, *l.Number
		if strings.Contains(*l.Number, ".") {
			lit.Kind = LitFloat
		}
	default:
		lit.Kind, lit.Value = LitIdent, *l.Ident
		if lit.Value == "true" || lit.Value == "false" {
			lit.Kind = LitBool
		}
	}
	return lit, nil
}

// unquote decodes a string literal. Only \n, \t, \" and \\ are escapes.
func unquote(s string) (string, error) {
	s = s[1 : len(s)-1]
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case '"', '\\':
			b.WriteByte(s[i])
		default:
			return "", fmt.Errorf("unknown escape sequence \\%c", s[i])
		}
	}
	return b.String(), nil
}

func (b *builder) constants(d *Declaration, body *bodyNode) ([]string, error) {
	if len(body.Members) == 0 {
		return nil, errorAt(d.Pos, fmt.Sprintf("enum %s declares no constants", d.Name))
	}
	var (
		consts []string
		seen   = make(map[string]bool)
	)
	for i, m := range body.Members {
		pos := b.pos(m.Pos)
		if !separated(body.Members, i) {
			return nil, errorAt(pos, fmt.Sprintf("enum %s: unexpected %q", d.Name, m.Name))
		}
		if m.Field != nil {
			return nil, errorAt(b.pos(m.Field.Pos), fmt.Sprintf("enum %s: constant %q cannot have a type", d.Name, m.Name))
		}
		if err := b.checkName(&identNode{Pos: m.Pos, Name: m.Name}); err != nil {
			return nil, err
		}
		if seen[m.Name] {
			return nil, errorAt(pos, fmt.Sprintf("enum %s: duplicate constant %q", d.Name, m.Name))
		}
		seen[m.Name] = true
		consts = append(consts, m.Name)
	}
	return consts, nil
}

func (b *builder) checkName(n *identNode) error {
	switch {
	case !validName(n.Name):
		return errorAt(b.pos(n.Pos), fmt.Sprintf("invalid name %q", n.Name))
	case keywords[n.Name], IsPrimitive(n.Name):
		return errorAt(b.pos(n.Pos), fmt.Sprintf("%q is reserved", n.Name))
	default:
		return nil
	}
}
