package exprlang

import (
	"fmt"
	"strconv"

	"github.com/vinayprograms/agentkit/logging"
)

var log = logging.New().WithComponent("exprlang")

// precedence levels, lowest to highest.
const (
	precLowest = iota
	precOr
	precAnd
	precNot
	precCompare
	precAdditive
	precMultiplicative
	precUnary
	precPostfix
)

var precedences = map[TokenType]int{
	TokenOr:        precOr,
	TokenAnd:       precAnd,
	TokenEq:        precCompare,
	TokenNeq:       precCompare,
	TokenLt:        precCompare,
	TokenLte:       precCompare,
	TokenGt:        precCompare,
	TokenGte:       precCompare,
	TokenIn:        precCompare,
	TokenIs:        precCompare,
	TokenPlus:      precAdditive,
	TokenMinus:     precAdditive,
	TokenStar:      precMultiplicative,
	TokenSlash:     precMultiplicative,
	TokenPercent:   precMultiplicative,
	TokenFloorDiv:  precMultiplicative,
	TokenDot:       precPostfix,
	TokenLBracket:  precPostfix,
}

// ParseError carries the offending text and why it was rejected. The
// message always mentions "not allowed" or "invalid expression" so
// callers and tests can assert on that substring.
type ParseError struct {
	Expr   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid expression %q: %s", e.Expr, e.Reason)
}

// Parser is a Pratt parser over the whitelisted expression grammar.
type Parser struct {
	l         *Lexer
	source    string
	curToken  Token
	peekToken Token
	err       *ParseError
}

// NewParser creates a parser for source.
func NewParser(source string) *Parser {
	p := &Parser{l: NewLexer(source), source: source}
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses source as a single expression and returns its AST, or a
// ParseError if the input uses any construct outside the whitelist.
func Parse(source string) (Node, error) {
	p := NewParser(source)
	node := p.parseExpression(precLowest)
	if p.err != nil {
		return nil, p.err
	}
	if p.peekToken.Type != TokenEOF {
		return nil, &ParseError{Expr: source, Reason: fmt.Sprintf("unexpected token %q after expression — not allowed", p.peekToken.Literal)}
	}
	return node, nil
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) fail(reason string) {
	if p.err == nil {
		p.err = &ParseError{Expr: p.source, Reason: reason}
	}
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peekToken.Type]; ok {
		return pr
	}
	return precLowest
}

// parseExpression implements Pratt parsing plus the trailing
// `if cond else alt` conditional form, which in this grammar binds
// looser than everything else (it wraps the already-parsed "then" value).
func (p *Parser) parseExpression(minPrec int) Node {
	left := p.parsePrefix()
	if p.err != nil {
		return nil
	}

	for p.err == nil && p.peekToken.Type != TokenEOF && p.peekPrecedence() > minPrec {
		op := p.peekToken.Type
		switch op {
		case TokenOr, TokenAnd, TokenEq, TokenNeq, TokenLt, TokenLte, TokenGt, TokenGte, TokenIn,
			TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenPercent, TokenFloorDiv:
			p.nextToken()
			prec := precedences[op]
			p.nextToken()
			right := p.parseExpression(prec)
			left = &Binary{Op: op, Left: left, Right: right}
		case TokenIs:
			p.nextToken() // now at 'is'
			negate := false
			if p.peekToken.Type == TokenNot {
				negate = true
				p.nextToken()
			}
			p.nextToken() // now at null/None
			if p.curToken.Type != TokenNull {
				p.fail("'is' is only permitted against null — not allowed")
				return left
			}
			left = &IsNull{Expr: left, Negate: negate}
		case TokenDot:
			p.nextToken()
			if p.peekToken.Type != TokenIdent {
				p.fail("expected field name after '.' — invalid expression")
				return left
			}
			p.nextToken()
			left = &Attr{Target: left, Field: p.curToken.Literal}
		case TokenLBracket:
			p.nextToken() // curToken = '['
			p.nextToken() // curToken = start of key expression
			key := p.parseExpression(precLowest)
			if p.err != nil {
				return left
			}
			if p.peekToken.Type != TokenRBracket {
				p.fail("expected ']' — invalid expression")
				return left
			}
			p.nextToken() // curToken = ']'
			left = &Index{Target: left, Key: key}
		default:
			return left
		}
	}

	// Trailing conditional: `<then> if <cond> else <else>`
	if p.err == nil && p.peekToken.Type == TokenIf && minPrec == precLowest {
		p.nextToken() // consume 'if'
		p.nextToken()
		cond := p.parseExpression(precLowest)
		if p.err != nil {
			return left
		}
		if p.peekToken.Type != TokenElse {
			p.fail("expected 'else' in conditional expression — invalid expression")
			return left
		}
		p.nextToken() // consume 'else'
		p.nextToken()
		alt := p.parseExpression(precLowest)
		left = &Conditional{Then: left, Cond: cond, Else: alt}
	}

	return left
}

func (p *Parser) parsePrefix() Node {
	switch p.curToken.Type {
	case TokenNot:
		p.nextToken()
		expr := p.parseExpression(precNot)
		return &Unary{Op: TokenNot, Expr: expr}
	case TokenMinus:
		p.nextToken()
		expr := p.parseExpression(precUnary)
		return &Unary{Op: TokenMinus, Expr: expr}
	case TokenLParen:
		p.nextToken()
		expr := p.parseExpression(precLowest)
		if p.err != nil {
			return nil
		}
		if p.peekToken.Type != TokenRParen {
			p.fail("expected ')' — invalid expression")
			return nil
		}
		p.nextToken()
		return expr
	case TokenNumber:
		return p.parseNumber()
	case TokenString:
		s := &StringLit{Value: p.curToken.Literal}
		return s
	case TokenTrue:
		return &BoolLit{Value: true}
	case TokenFalse:
		return &BoolLit{Value: false}
	case TokenNull:
		return &NullLit{}
	case TokenIdent:
		return &Name{Ident: p.curToken.Literal}
	case TokenLBracket:
		return p.parseListLit()
	case TokenLBrace:
		return p.parseMapLit()
	default:
		reason := fmt.Sprintf("unexpected token %q — not allowed", p.curToken.Literal)
		log.SecurityWarning("rejected expression construct outside the whitelisted grammar", map[string]interface{}{
			"expr":  p.source,
			"token": p.curToken.Literal,
		})
		p.fail(reason)
		return nil
	}
}

func (p *Parser) parseNumber() Node {
	lit := p.curToken.Literal
	if containsByte(lit, '.') {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			p.fail("malformed number — invalid expression")
			return nil
		}
		return &FloatLit{Value: f}
	}
	i, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		p.fail("malformed number — invalid expression")
		return nil
	}
	return &IntLit{Value: i}
}

func (p *Parser) parseListLit() Node {
	lit := &ListLit{}
	p.nextToken() // consume [
	if p.curToken.Type == TokenRBracket {
		return lit
	}
	lit.Items = append(lit.Items, p.parseExpression(precLowest))
	for p.peekToken.Type == TokenComma {
		p.nextToken() // consume item end
		p.nextToken() // consume comma
		lit.Items = append(lit.Items, p.parseExpression(precLowest))
	}
	if p.peekToken.Type != TokenRBracket {
		p.fail("expected ']' — invalid expression")
		return lit
	}
	p.nextToken()
	return lit
}

func (p *Parser) parseMapLit() Node {
	lit := &MapLit{}
	p.nextToken() // consume {
	if p.curToken.Type == TokenRBrace {
		return lit
	}
	for {
		key := p.parseExpression(precLowest)
		if p.peekToken.Type != TokenColon {
			p.fail("expected ':' in map literal — invalid expression")
			return lit
		}
		p.nextToken() // move to colon
		p.nextToken() // move past colon
		val := p.parseExpression(precLowest)
		lit.Keys = append(lit.Keys, key)
		lit.Values = append(lit.Values, val)
		if p.peekToken.Type == TokenComma {
			p.nextToken()
			p.nextToken()
			continue
		}
		break
	}
	if p.peekToken.Type != TokenRBrace {
		p.fail("expected '}' — invalid expression")
		return lit
	}
	p.nextToken()
	return lit
}

func containsByte(s string, b byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return true
		}
	}
	return false
}
