package ast

// Short constructors for building trees by hand in tests and tooling.

func Prog(stmts ...Statement) *Program {
	if stmts == nil {
		stmts = []Statement{}
	}
	return NewProgram(stmts)
}

func Let(name string, value Expression) *LetStatement {
	return NewLetStatement(NewIdentifier(name), value)
}

func Ret(value Expression) *ReturnStatement { return NewReturnStatement(value) }

func ExprStmt(expr Expression) *ExpressionStatement { return NewExpressionStatement(expr) }

// Block wraps bare expressions in ExpressionStatements.
func Block(nodes ...Node) *BlockStatement {
	return NewBlockStatement(toStatements(nodes))
}

func ID(name string) *Identifier { return NewIdentifier(name) }

func Int(value int64) *IntegerLiteral { return NewIntegerLiteral(value) }

func Bool(value bool) *BooleanLiteral { return NewBooleanLiteral(value) }

func Prefix(op string, right Expression) *PrefixExpression { return NewPrefixExpression(op, right) }

func Bin(op string, left, right Expression) *InfixExpression {
	return NewInfixExpression(op, left, right)
}

func IfExpr(cond Expression, consequence, alternative *BlockStatement) *IfExpression {
	return NewIfExpression(cond, consequence, alternative)
}

func Fn(params []string, body ...Node) *FunctionLiteral {
	ids := make([]*Identifier, 0, len(params))
	for _, p := range params {
		ids = append(ids, NewIdentifier(p))
	}
	return NewFunctionLiteral(ids, Block(body...))
}

func CallExpr(fn Expression, args ...Expression) *CallExpression {
	if args == nil {
		args = []Expression{}
	}
	return NewCallExpression(fn, args)
}

func toStatements(nodes []Node) []Statement {
	stmts := make([]Statement, 0, len(nodes))
	for _, n := range nodes {
		switch v := n.(type) {
		case Statement:
			stmts = append(stmts, v)
		case Expression:
			stmts = append(stmts, NewExpressionStatement(v))
		}
	}
	return stmts
}
