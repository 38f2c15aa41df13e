package load

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// definitionLexer tokenizes definition sources. Identifiers may contain
// dots (qualified names) and inner hyphens (sequence-of, optional-of).
// BadString is never accepted by the grammar; it only exists so an
// unterminated literal is reported as such.
var definitionLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `(?:#|//)[^\n]*`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "String", Pattern: `"(?:\\.|[^"\\\n])*"`},
	{Name: "BadString", Pattern: `"(?:\\.|[^"\\\n])*`},
	{Name: "Number", Pattern: `-?[0-9][0-9._]*`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*(?:[-.][A-Za-z_][A-Za-z0-9_]*)*`},
	{Name: "Punct", Pattern: `[{},:<>?=\[\]]`},
})

var (
	tokComment    = definitionLexer.Symbols()["Comment"]
	tokWhitespace = definitionLexer.Symbols()["Whitespace"]
	tokBadString  = definitionLexer.Symbols()["BadString"]
)

// definitionParser accepts a superset of the definition language. Rules
// that depend on the declaration kind or on line layout are checked while
// building the Schema, where they can be reported with a precise message.
var definitionParser = participle.MustBuild[fileNode](
	participle.Lexer(definitionLexer),
	participle.Elide("Whitespace", "Comment"),
)

type fileNode struct {
	Namespace *namespaceNode `parser:"@@?"`
	Decls     []*declNode    `parser:"@@*"`
}

type namespaceNode struct {
	Pos  lexer.Position
	Name *identNode `parser:"'namespace' @@"`
}

type declNode struct {
	Pos     lexer.Position
	Open    bool         `parser:"@'open'?"`
	Keyword *identNode   `parser:"@@"`
	Name    *identNode   `parser:"@@?"`
	Extends *extendsNode `parser:"@@?"`
	Body    *bodyNode    `parser:"@@?"`
}

type extendsNode struct {
	Pos   lexer.Position
	Names []*identNode `parser:"'extends' @@ (',' @@)*"`
}

type bodyNode struct {
	Pos     lexer.Position
	Members []*memberNode `parser:"'{' @@*"`
	End     *endNode      `parser:"@@?"`
}

type endNode struct {
	Pos   lexer.Position
	Brace string `parser:"@'}'"`
}

// memberNode is a record field or an enum constant.
type memberNode struct {
	Pos   lexer.Position
	Name  string     `parser:"@Ident"`
	Field *fieldNode `parser:"@@?"`
	Comma bool       `parser:"@','?"`
}

type fieldNode struct {
	Pos      lexer.Position
	Type     *typeNode    `parser:"':' @@"`
	Nullable bool         `parser:"@'?'?"`
	Default  *literalNode `parser:"('=' @@)?"`
}

type typeNode struct {
	Pos lexer.Position
	Seq *typeNode `parser:"  '[' ']' @@"`
	Ref *refNode  `parser:"| @@"`
}

type refNode struct {
	Pos  lexer.Position
	Name string    `parser:"@Ident"`
	Arg  *typeNode `parser:"('<' @@ '>')?"`
}

type literalNode struct {
	Pos    lexer.Position
	String *string `parser:"  @String"`
	Number *string `parser:"| @Number"`
	Ident  *string `parser:"| @Ident"`
}

type identNode struct {
	Pos  lexer.Position
	Name string `parser:"@Ident"`
}
