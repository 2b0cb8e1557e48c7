// Package boolean parses and evaluates boolean set queries over the inverted
// index. Queries are lexed into tokens, parsed by recursive descent into an
// operator tree and evaluated bottom-up on roaring bitmaps.
//
//	expr     := or_expr
//	or_expr  := and_expr ( "or" and_expr )*
//	and_expr := not_expr ( "and" not_expr )*
//	not_expr := "not" not_expr | primary
//	primary  := term | "(" expr ")"
//
// Keywords are case-insensitive. A term equal to a keyword is written quoted.
package boolean

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenKind classifies a lexed token.
type TokenKind int

const (
	TokenTerm TokenKind = iota
	TokenAnd
	TokenOr
	TokenNot
	TokenLParen
	TokenRParen
	TokenEOF
)

func (k TokenKind) String() string {
	switch k {
	case TokenTerm:
		return "term"
	case TokenAnd:
		return "'and'"
	case TokenOr:
		return "'or'"
	case TokenNot:
		return "'not'"
	case TokenLParen:
		return "'('"
	case TokenRParen:
		return "')'"
	default:
		return "end of query"
	}
}

// Token is a lexeme with its byte offset in the query.
type Token struct {
	Kind   TokenKind
	Text   string
	Pos    int
	Quoted bool
}

var keywords = map[string]TokenKind{
	"and": TokenAnd,
	"or":  TokenOr,
	"not": TokenNot,
}

// Lex splits query into tokens terminated by a TokenEOF. Terms are
// lower-cased; quoted terms keep everything between the quotes.
func Lex(query string) ([]Token, error) {
	var tokens []Token
	i := 0
	for i < len(query) {
		r, size := utf8.DecodeRuneInString(query[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case r == '(':
			tokens = append(tokens, Token{Kind: TokenLParen, Text: "(", Pos: i})
			i += size
		case r == ')':
			tokens = append(tokens, Token{Kind: TokenRParen, Text: ")", Pos: i})
			i += size
		case r == '"':
			end := strings.IndexByte(query[i+1:], '"')
			if end < 0 {
				return nil, newSyntaxError(query, i, "unterminated quoted term")
			}
			literal := query[i+1 : i+1+end]
			if strings.TrimSpace(literal) == "" {
				return nil, newSyntaxError(query, i, "empty quoted term")
			}
			tokens = append(tokens, Token{Kind: TokenTerm, Text: strings.ToLower(literal), Pos: i, Quoted: true})
			i += end + 2
		default:
			start := i
			for i < len(query) {
				r, size := utf8.DecodeRuneInString(query[i:])
				if unicode.IsSpace(r) || r == '(' || r == ')' || r == '"' {
					break
				}
				i += size
			}
			word := strings.ToLower(query[start:i])
			kind, isKeyword := keywords[word]
			if !isKeyword {
				kind = TokenTerm
			}
			tokens = append(tokens, Token{Kind: kind, Text: word, Pos: start})
		}
	}
	tokens = append(tokens, Token{Kind: TokenEOF, Pos: len(query)})
	return tokens, nil
}
