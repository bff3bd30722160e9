package ast

import (
	"strings"

	"aurora/interpreter-go/pkg/token"
)

const indentUnit = "  "

// Format renders node as multi-line source: one statement per line, each
// terminated by ';', blocks indented, and only the parentheses that the
// operator precedences require. The output parses back to an identical tree.
func Format(node Node) string {
	p := &printer{}
	switch n := node.(type) {
	case *Program:
		for _, stmt := range n.Statements {
			p.statement(stmt)
		}
	case *BlockStatement:
		p.block(n)
		p.buf.WriteString("\n")
	case Statement:
		p.statement(n)
	case Expression:
		p.expression(n, token.LOWEST)
		p.buf.WriteString("\n")
	}
	return p.buf.String()
}

type printer struct {
	buf   strings.Builder
	depth int
}

func (p *printer) indent() {
	for i := 0; i < p.depth; i++ {
		p.buf.WriteString(indentUnit)
	}
}

func (p *printer) statement(stmt Statement) {
	p.indent()
	switch s := stmt.(type) {
	case *LetStatement:
		p.buf.WriteString("let ")
		p.buf.WriteString(s.Name.Name)
		p.buf.WriteString(" = ")
		p.expression(s.Value, token.LOWEST)
	case *ReturnStatement:
		p.buf.WriteString("return ")
		p.expression(s.Value, token.LOWEST)
	case *ExpressionStatement:
		p.expression(s.Expression, token.LOWEST)
	case *BlockStatement:
		p.block(s)
	}
	p.buf.WriteString(";\n")
}

func (p *printer) block(b *BlockStatement) {
	if len(b.Statements) == 0 {
		p.buf.WriteString("{}")
		return
	}
	p.buf.WriteString("{\n")
	p.depth++
	for _, stmt := range b.Statements {
		p.statement(stmt)
	}
	p.depth--
	p.indent()
	p.buf.WriteString("}")
}

// expression writes e, parenthesised when it binds looser than min.
func (p *printer) expression(e Expression, min int) {
	prec := expressionPrecedence(e)
	wrap := prec < min
	if wrap {
		p.buf.WriteString("(")
	}
	switch n := e.(type) {
	case *Identifier, *IntegerLiteral, *BooleanLiteral:
		p.buf.WriteString(n.String())
	case *PrefixExpression:
		p.buf.WriteString(n.Operator)
		p.expression(n.Right, token.PREFIX)
	case *InfixExpression:
		// Left-associative: an equal-precedence right operand needs parentheses.
		p.expression(n.Left, prec)
		p.buf.WriteString(" " + n.Operator + " ")
		p.expression(n.Right, prec+1)
	case *IfExpression:
		p.buf.WriteString("if (")
		p.expression(n.Condition, token.LOWEST)
		p.buf.WriteString(") ")
		p.block(n.Consequence)
		if n.Alternative != nil {
			p.buf.WriteString(" else ")
			p.block(n.Alternative)
		}
	case *FunctionLiteral:
		p.buf.WriteString("fn(")
		p.buf.WriteString(joinIdentifiers(n.Parameters))
		p.buf.WriteString(") ")
		p.block(n.Body)
	case *CallExpression:
		p.expression(n.Function, token.CALL)
		p.buf.WriteString("(")
		for i, arg := range n.Arguments {
			if i > 0 {
				p.buf.WriteString(", ")
			}
			p.expression(arg, token.LOWEST)
		}
		p.buf.WriteString(")")
	}
	if wrap {
		p.buf.WriteString(")")
	}
}

// expressionPrecedence is the binding strength of e's outermost operator.
// Atoms bind tighter than anything.
func expressionPrecedence(e Expression) int {
	switch n := e.(type) {
	case *InfixExpression:
		return token.Precedence(token.Type(n.Operator))
	case *PrefixExpression:
		return token.PREFIX
	case *CallExpression:
		return token.CALL
	case *IntegerLiteral:
		if n.Value < 0 {
			return token.PREFIX
		}
		return token.CALL + 1
	default:
		return token.CALL + 1
	}
}
