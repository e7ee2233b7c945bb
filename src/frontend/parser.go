// parser.go replaces the teacher's goyacc-driven VSL grammar with a
// hand-written recursive-descent parser: the source language's grammar
// bears no resemblance to VSL's begin/end block syntax, and goyacc
// cannot be regenerated without running the Go toolchain, so there is
// nothing left of the teacher's grammar file to adapt. What carries
// over is the *shape* teacher's Parse function took — hand the
// concurrent lexer's token stream to a parser that builds a tree and
// returns it — just with one method per grammar production instead of
// one BNF rule per .y clause.
package frontend

import (
	"fmt"
	"strconv"

	"tplc/src/ast"
)

// Parser consumes the token stream produced by a lexer and builds an
// ast.Program. One Parser is used for exactly one source file.
type Parser struct {
	l   *lexer
	tok item
}

// Parse lexes and parses src, returning the resulting program or the
// first syntax error encountered.
func Parse(src string) (*ast.Program, error) {
	l := newLexer(src, lexLineStart)
	go l.run()
	p := &Parser{l: l}
	p.advance()
	return p.parseProgram()
}

func (p *Parser) advance() {
	p.tok = p.l.nextItem()
}

func (p *Parser) pos() ast.Pos {
	return ast.Pos{Line: p.tok.line, Col: p.tok.pos}
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%d:%d: syntax error: %s", p.tok.line, p.tok.pos, fmt.Sprintf(format, args...))
}

// expect consumes the current token if it has type tt, else reports a
// syntax error naming what was expected.
func (p *Parser) expect(tt itemType) (item, error) {
	if p.tok.typ == itemError {
		return item{}, p.errorf("%s", p.tok.val)
	}
	if p.tok.typ != tt {
		return item{}, p.errorf("expected %s, got %s", tt, p.describeTok())
	}
	tok := p.tok
	p.advance()
	return tok, nil
}

func (p *Parser) describeTok() string {
	if p.tok.typ == itemEOF {
		return "EOF"
	}
	if p.tok.val != "" {
		return fmt.Sprintf("%s %q", p.tok.typ, p.tok.val)
	}
	return p.tok.typ.String()
}

// parseProgram parses a sequence of top-level statements until EOF.
func (p *Parser) parseProgram() (*ast.Program, error) {
	var decls []ast.Stmt
	for p.tok.typ != itemEOF {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		if s != nil {
			decls = append(decls, s)
		}
	}
	return &ast.Program{Decls: decls}, nil
}

// parseBlock parses ": NEWLINE INDENT stmt+ DEDENT", the common suite
// every compound statement (if/while/def/class) introduces.
func (p *Parser) parseBlock() ([]ast.Stmt, error) {
	if _, err := p.expect(COLON); err != nil {
		return nil, err
	}
	if _, err := p.expect(NEWLINE); err != nil {
		return nil, err
	}
	if _, err := p.expect(INDENT); err != nil {
		return nil, err
	}
	var body []ast.Stmt
	for p.tok.typ != DEDENT {
		if p.tok.typ == itemEOF {
			return nil, p.errorf("unexpected EOF inside block")
		}
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		if s != nil {
			body = append(body, s)
		}
	}
	if _, err := p.expect(DEDENT); err != nil {
		return nil, err
	}
	return body, nil
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch p.tok.typ {
	case IF:
		return p.parseIf()
	case WHILE:
		return p.parseWhile()
	case DEF:
		return p.parseFuncDef(false)
	case CLASS:
		return p.parseClassDef()
	case PASS:
		pos := p.pos()
		p.advance()
		if _, err := p.expect(NEWLINE); err != nil {
			return nil, err
		}
		return ast.NewPass(pos), nil
	case RETURN:
		return p.parseReturn()
	case PRINT:
		return p.parsePrint()
	case IMPORT:
		return p.parseImport()
	case itemError:
		return nil, p.errorf("%s", p.tok.val)
	default:
		return p.parseSimpleOrAssign()
	}
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	pos := p.pos()
	p.advance()
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	els, err := p.parseIfTail()
	if err != nil {
		return nil, err
	}
	return ast.NewIf(cond, then, els, pos), nil
}

// parseIfTail parses an optional elif/else tail, desugaring "elif" into
// a nested If wrapped in a single-element Else slice, the same way
// Python's own grammar treats elif as sugar for "else: if ...".
func (p *Parser) parseIfTail() ([]ast.Stmt, error) {
	switch p.tok.typ {
	case ELIF:
		pos := p.pos()
		p.advance()
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		then, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		els, err := p.parseIfTail()
		if err != nil {
			return nil, err
		}
		return []ast.Stmt{ast.NewIf(cond, then, els, pos)}, nil
	case ELSE:
		p.advance()
		return p.parseBlock()
	default:
		return nil, nil
	}
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	pos := p.pos()
	p.advance()
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return ast.NewWhile(cond, body, pos), nil
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	pos := p.pos()
	p.advance()
	if p.tok.typ == NEWLINE {
		p.advance()
		return ast.NewReturn(nil, pos), nil
	}
	v, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(NEWLINE); err != nil {
		return nil, err
	}
	return ast.NewReturn(v, pos), nil
}

func (p *Parser) parsePrint() (ast.Stmt, error) {
	pos := p.pos()
	p.advance()
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	args, err := p.parseExprList(RPAREN)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(NEWLINE); err != nil {
		return nil, err
	}
	return ast.NewPrint(args, pos), nil
}

func (p *Parser) parseImport() (ast.Stmt, error) {
	pos := p.pos()
	p.advance()
	name, err := p.expect(IDENTIFIER)
	if err != nil {
		return nil, err
	}
	module := name.val
	for p.tok.typ == DOT {
		p.advance()
		part, err := p.expect(IDENTIFIER)
		if err != nil {
			return nil, err
		}
		module += "." + part.val
	}
	if _, err := p.expect(NEWLINE); err != nil {
		return nil, err
	}
	return ast.NewImportStmt(module, pos), nil
}

// parseSimpleOrAssign parses an expression-led statement: a bare
// expression (evaluated for effect), or one of Assign/IndexAssign/
// AttrAssign depending on what expression ends up on the left of '='.
func (p *Parser) parseSimpleOrAssign() (ast.Stmt, error) {
	pos := p.pos()
	lhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.tok.typ == ASSIGN {
		p.advance()
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(NEWLINE); err != nil {
			return nil, err
		}
		switch target := lhs.(type) {
		case *ast.Var:
			return ast.NewAssign(target.Name, value, pos), nil
		case *ast.Index:
			return ast.NewIndexAssign(target.Container, target.Key, value, pos), nil
		case *ast.Attribute:
			return ast.NewAttrAssign(target.Obj, target.Name, value, pos), nil
		default:
			return nil, p.errorf("invalid assignment target")
		}
	}
	if _, err := p.expect(NEWLINE); err != nil {
		return nil, err
	}
	return ast.NewExprStmt(lhs, pos), nil
}

func (p *Parser) parseFuncDef(isMethod bool) (*ast.FuncDef, error) {
	pos := p.pos()
	p.advance()
	name, err := p.expect(IDENTIFIER)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	// A method's written leading `self` is dropped: codegen adds the
	// typed self parameter to every method itself (see ast.FuncDef.IsMethod).
	if isMethod && len(params) > 0 && params[0].Name == "self" {
		params = params[1:]
	}
	declaredReturn := ""
	if p.tok.typ == ARROW {
		p.advance()
		t, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		declaredReturn = t
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	fn := ast.NewFuncDef(name.val, params, declaredReturn, body, pos)
	fn.IsMethod = isMethod
	return fn, nil
}

func (p *Parser) parseParams() ([]ast.Param, error) {
	var params []ast.Param
	for p.tok.typ != RPAREN {
		name, err := p.expect(IDENTIFIER)
		if err != nil {
			return nil, err
		}
		declared := ""
		if p.tok.typ == COLON {
			p.advance()
			t, err := p.parseTypeExpr()
			if err != nil {
				return nil, err
			}
			declared = t
		}
		params = append(params, ast.Param{Name: name.val, DeclaredType: declared})
		if p.tok.typ == COMMA {
			p.advance()
			continue
		}
		break
	}
	return params, nil
}

// parseTypeExpr parses a declared type annotation and re-renders it as
// the exact "name" / "list<elem>" / "dict<key,val>" text
// types.Registry.ParseSignature expects (§4.1).
func (p *Parser) parseTypeExpr() (string, error) {
	name, err := p.expect(IDENTIFIER)
	if err != nil {
		return "", err
	}
	if p.tok.typ != LT {
		return name.val, nil
	}
	p.advance()
	first, err := p.parseTypeExpr()
	if err != nil {
		return "", err
	}
	out := name.val + "<" + first
	for p.tok.typ == COMMA {
		p.advance()
		next, err := p.parseTypeExpr()
		if err != nil {
			return "", err
		}
		out += "," + next
	}
	if _, err := p.expect(GT); err != nil {
		return "", err
	}
	return out + ">", nil
}

func (p *Parser) parseClassDef() (ast.Stmt, error) {
	pos := p.pos()
	p.advance()
	name, err := p.expect(IDENTIFIER)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COLON); err != nil {
		return nil, err
	}
	if _, err := p.expect(NEWLINE); err != nil {
		return nil, err
	}
	if _, err := p.expect(INDENT); err != nil {
		return nil, err
	}
	var fields []ast.Param
	var methods []*ast.FuncDef
	for p.tok.typ != DEDENT {
		switch p.tok.typ {
		case itemEOF:
			return nil, p.errorf("unexpected EOF inside class body")
		case PASS:
			p.advance()
			if _, err := p.expect(NEWLINE); err != nil {
				return nil, err
			}
		case DEF:
			m, err := p.parseFuncDef(true)
			if err != nil {
				return nil, err
			}
			methods = append(methods, m)
		default:
			fname, err := p.expect(IDENTIFIER)
			if err != nil {
				return nil, err
			}
			declared := ""
			if p.tok.typ == COLON {
				p.advance()
				t, err := p.parseTypeExpr()
				if err != nil {
					return nil, err
				}
				declared = t
			}
			if _, err := p.expect(NEWLINE); err != nil {
				return nil, err
			}
			fields = append(fields, ast.Param{Name: fname.val, DeclaredType: declared})
		}
	}
	if _, err := p.expect(DEDENT); err != nil {
		return nil, err
	}
	return ast.NewClassDef(name.val, fields, methods, pos), nil
}

// ---- expressions, precedence climbing low to high ----

func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseComparison()
}

var compareTokens = map[itemType]string{
	EQ: "==", NE: "!=", LT: "<", LE: "<=", GT: ">", GE: ">=",
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if op, ok := compareTokens[p.tok.typ]; ok {
		pos := p.pos()
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return ast.NewBinary(op, left, right, pos), nil
	}
	return left, nil
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.tok.typ == PLUS || p.tok.typ == MINUS {
		op := "+"
		if p.tok.typ == MINUS {
			op = "-"
		}
		pos := p.pos()
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinary(op, left, right, pos)
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.typ == STAR || p.tok.typ == SLASH || p.tok.typ == PERCENT {
		var op string
		switch p.tok.typ {
		case STAR:
			op = "*"
		case SLASH:
			op = "/"
		case PERCENT:
			op = "%"
		}
		pos := p.pos()
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinary(op, left, right, pos)
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	switch p.tok.typ {
	case MINUS:
		pos := p.pos()
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.NewUnary("-", operand, pos), nil
	case NOT:
		pos := p.pos()
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.NewUnary("not", operand, pos), nil
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.tok.typ {
		case LPAREN:
			pos := p.pos()
			p.advance()
			args, err := p.parseExprList(RPAREN)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RPAREN); err != nil {
				return nil, err
			}
			e = ast.NewCall(e, args, pos)
		case LBRACK:
			pos := p.pos()
			p.advance()
			key, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RBRACK); err != nil {
				return nil, err
			}
			e = ast.NewIndex(e, key, pos)
		case DOT:
			pos := p.pos()
			p.advance()
			name, err := p.expect(IDENTIFIER)
			if err != nil {
				return nil, err
			}
			e = ast.NewAttribute(e, name.val, pos)
		default:
			return e, nil
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	pos := p.pos()
	switch p.tok.typ {
	case NUMBER:
		v, err := strconv.ParseInt(p.tok.val, 10, 64)
		if err != nil {
			return nil, p.errorf("invalid integer literal %q", p.tok.val)
		}
		p.advance()
		return ast.NewNumber(v, pos), nil
	case FLOAT:
		v, err := strconv.ParseFloat(p.tok.val, 64)
		if err != nil {
			return nil, p.errorf("invalid float literal %q", p.tok.val)
		}
		p.advance()
		return ast.NewFloat(v, pos), nil
	case STRING:
		v := p.tok.val
		p.advance()
		return ast.NewStr(v, pos), nil
	case TRUE:
		p.advance()
		return ast.NewBool(true, pos), nil
	case FALSE:
		p.advance()
		return ast.NewBool(false, pos), nil
	case NONE:
		p.advance()
		return ast.NewNone(pos), nil
	case IDENTIFIER:
		name := p.tok.val
		p.advance()
		return ast.NewVar(name, pos), nil
	case LPAREN:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	case LBRACK:
		p.advance()
		elems, err := p.parseExprList(RBRACK)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RBRACK); err != nil {
			return nil, err
		}
		return ast.NewListLit(elems, pos), nil
	case LBRACE:
		p.advance()
		pairs, err := p.parseKVList()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RBRACE); err != nil {
			return nil, err
		}
		return ast.NewDictLit(pairs, pos), nil
	default:
		return nil, p.errorf("unexpected token %s", p.describeTok())
	}
}

func (p *Parser) parseExprList(end itemType) ([]ast.Expr, error) {
	var out []ast.Expr
	if p.tok.typ == end {
		return out, nil
	}
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		if p.tok.typ == COMMA {
			p.advance()
			continue
		}
		break
	}
	return out, nil
}

func (p *Parser) parseKVList() ([]ast.KV, error) {
	var out []ast.KV
	if p.tok.typ == RBRACE {
		return out, nil
	}
	for {
		k, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(COLON); err != nil {
			return nil, err
		}
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, ast.KV{Key: k, Value: v})
		if p.tok.typ == COMMA {
			p.advance()
			continue
		}
		break
	}
	return out, nil
}
