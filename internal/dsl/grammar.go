package dsl

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// queryLexer defines the token types of the query language.
var queryLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Number", Pattern: `\d+(?:\.\d+)?`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*`},

	// Two-character operators must precede their one-character prefixes.
	{Name: "Operator", Pattern: `=>|==|!=|>=|<=|&&|\|\||[<>!+*-]`},
	{Name: "Punct", Pattern: `[().,]`},

	{Name: "Whitespace", Pattern: `\s+`},
})

// chain is a primary followed by member accesses and method calls. A whole
// query is a chain rooted at the collection name.
type chain struct {
	Pos     lexer.Position
	Primary *primary  `@@`
	Members []*member `( "." @@ )*`
}

type member struct {
	Pos  lexer.Position
	Name string    `@Ident`
	Call *callArgs `@@?`
}

type callArgs struct {
	Open string `@"("`
	Args []*arg `( @@ ( "," @@ )* )? ")"`
}

type arg struct {
	Lambda *lambda `  @@`
	Value  *orExpr `| @@`
}

type lambda struct {
	Pos   lexer.Position
	Param string  `@Ident "=>"`
	Body  *orExpr `@@`
}

type orExpr struct {
	Left  *andExpr   `@@`
	Right []*andExpr `( "||" @@ )*`
}

type andExpr struct {
	Left  *cmpExpr   `@@`
	Right []*cmpExpr `( "&&" @@ )*`
}

type cmpExpr struct {
	Left *addExpr `@@`
	Tail *cmpTail `@@?`
}

type cmpTail struct {
	Op    string   `@( "==" | "!=" | ">=" | "<=" | ">" | "<" )`
	Right *addExpr `@@`
}

type addExpr struct {
	Left *mulExpr `@@`
	Rest []*addOp `@@*`
}

type addOp struct {
	Op    string   `@( "+" | "-" )`
	Right *mulExpr `@@`
}

type mulExpr struct {
	Left  *unaryExpr   `@@`
	Right []*unaryExpr `( "*" @@ )*`
}

type unaryExpr struct {
	Not   *unaryExpr `  "!" @@`
	Value *chain     `| @@`
}

type primary struct {
	Pos    lexer.Position
	String *string `  @String`
	Number *string `| @Number`
	Bool   *string `| @( "true" | "false" )`
	Null   bool    `| @"null"`
	Ident  *string `| @Ident`
	Group  *orExpr `| "(" @@ ")"`
}

var parser = participle.MustBuild[chain](
	participle.Lexer(queryLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)
