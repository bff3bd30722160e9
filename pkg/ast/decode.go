package ast

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeProgram reads a JSON-encoded program, the format produced by
// json.Marshal on a *Program.
func DecodeProgram(data []byte) (*Program, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("ast: decode program: %w", err)
	}
	node, err := decodeNode(raw)
	if err != nil {
		return nil, err
	}
	program, ok := node.(*Program)
	if !ok {
		return nil, fmt.Errorf("ast: expected Program at root, got %s", node.NodeType())
	}
	return program, nil
}

func decodeNode(node map[string]any) (Node, error) {
	typ, _ := node["type"].(string)
	switch NodeType(typ) {
	case NodeProgram:
		stmts, err := decodeStatements(node["statements"])
		if err != nil {
			return nil, err
		}
		return NewProgram(stmts), nil
	case NodeLetStatement:
		name, err := decodeIdentifier(node["name"])
		if err != nil {
			return nil, fmt.Errorf("ast: let statement name: %w", err)
		}
		value, err := decodeExpression(node["value"])
		if err != nil {
			return nil, fmt.Errorf("ast: let statement value: %w", err)
		}
		return NewLetStatement(name, value), nil
	case NodeReturnStatement:
		value, err := decodeExpression(node["value"])
		if err != nil {
			return nil, fmt.Errorf("ast: return statement: %w", err)
		}
		return NewReturnStatement(value), nil
	case NodeExpressionStatement:
		expr, err := decodeExpression(node["expression"])
		if err != nil {
			return nil, fmt.Errorf("ast: expression statement: %w", err)
		}
		return NewExpressionStatement(expr), nil
	case NodeBlockStatement:
		stmts, err := decodeStatements(node["statements"])
		if err != nil {
			return nil, err
		}
		return NewBlockStatement(stmts), nil
	case NodeIdentifier:
		name, _ := node["name"].(string)
		if name == "" {
			return nil, fmt.Errorf("ast: identifier missing name")
		}
		return NewIdentifier(name), nil
	case NodeIntegerLiteral:
		num, ok := node["value"].(json.Number)
		if !ok {
			return nil, fmt.Errorf("ast: integer literal value %v is not a number", node["value"])
		}
		val, err := num.Int64()
		if err != nil {
			return nil, fmt.Errorf("ast: integer literal: %w", err)
		}
		return NewIntegerLiteral(val), nil
	case NodeBooleanLiteral:
		val, ok := node["value"].(bool)
		if !ok {
			return nil, fmt.Errorf("ast: boolean literal value %v is not a bool", node["value"])
		}
		return NewBooleanLiteral(val), nil
	case NodePrefixExpression:
		op, _ := node["operator"].(string)
		right, err := decodeExpression(node["right"])
		if err != nil {
			return nil, fmt.Errorf("ast: prefix expression operand: %w", err)
		}
		return NewPrefixExpression(op, right), nil
	case NodeInfixExpression:
		op, _ := node["operator"].(string)
		left, err := decodeExpression(node["left"])
		if err != nil {
			return nil, fmt.Errorf("ast: infix expression left: %w", err)
		}
		right, err := decodeExpression(node["right"])
		if err != nil {
			return nil, fmt.Errorf("ast: infix expression right: %w", err)
		}
		return NewInfixExpression(op, left, right), nil
	case NodeIfExpression:
		cond, err := decodeExpression(node["condition"])
		if err != nil {
			return nil, fmt.Errorf("ast: if condition: %w", err)
		}
		consequence, err := decodeBlock(node["consequence"])
		if err != nil {
			return nil, fmt.Errorf("ast: if consequence: %w", err)
		}
		var alternative *BlockStatement
		if raw, ok := node["alternative"]; ok && raw != nil {
			alternative, err = decodeBlock(raw)
			if err != nil {
				return nil, fmt.Errorf("ast: if alternative: %w", err)
			}
		}
		return NewIfExpression(cond, consequence, alternative), nil
	case NodeFunctionLiteral:
		rawParams, _ := node["parameters"].([]any)
		params := make([]*Identifier, 0, len(rawParams))
		for _, raw := range rawParams {
			id, err := decodeIdentifier(raw)
			if err != nil {
				return nil, fmt.Errorf("ast: function parameter: %w", err)
			}
			params = append(params, id)
		}
		body, err := decodeBlock(node["body"])
		if err != nil {
			return nil, fmt.Errorf("ast: function body: %w", err)
		}
		return NewFunctionLiteral(params, body), nil
	case NodeCallExpression:
		fn, err := decodeExpression(node["function"])
		if err != nil {
			return nil, fmt.Errorf("ast: call target: %w", err)
		}
		rawArgs, _ := node["arguments"].([]any)
		args := make([]Expression, 0, len(rawArgs))
		for _, raw := range rawArgs {
			arg, err := decodeExpression(raw)
			if err != nil {
				return nil, fmt.Errorf("ast: call argument: %w", err)
			}
			args = append(args, arg)
		}
		return NewCallExpression(fn, args), nil
	default:
		return nil, fmt.Errorf("ast: unsupported node type %q", typ)
	}
}

func decodeChild(raw any) (Node, error) {
	child, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected node object, got %T", raw)
	}
	return decodeNode(child)
}

func decodeExpression(raw any) (Expression, error) {
	node, err := decodeChild(raw)
	if err != nil {
		return nil, err
	}
	expr, ok := node.(Expression)
	if !ok {
		return nil, fmt.Errorf("%s is not an expression", node.NodeType())
	}
	return expr, nil
}

func decodeIdentifier(raw any) (*Identifier, error) {
	node, err := decodeChild(raw)
	if err != nil {
		return nil, err
	}
	id, ok := node.(*Identifier)
	if !ok {
		return nil, fmt.Errorf("expected Identifier, got %s", node.NodeType())
	}
	return id, nil
}

func decodeBlock(raw any) (*BlockStatement, error) {
	node, err := decodeChild(raw)
	if err != nil {
		return nil, err
	}
	block, ok := node.(*BlockStatement)
	if !ok {
		return nil, fmt.Errorf("expected BlockStatement, got %s", node.NodeType())
	}
	return block, nil
}

func decodeStatements(raw any) ([]Statement, error) {
	items, _ := raw.([]any)
	stmts := make([]Statement, 0, len(items))
	for _, item := range items {
		node, err := decodeChild(item)
		if err != nil {
			return nil, fmt.Errorf("ast: statement: %w", err)
		}
		stmt, ok := node.(Statement)
		if !ok {
			return nil, fmt.Errorf("ast: %s is not a statement", node.NodeType())
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}
