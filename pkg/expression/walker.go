package expression

import (
	"fmt"
	"sort"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
)

// identifierCollector gathers the variables an expression reads
type identifierCollector struct {
	identifiers map[string]bool
	callees     map[string]bool
}

// Visit implements ast.Visitor
func (c *identifierCollector) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.IdentifierNode:
		c.identifiers[n.Value] = true
	case *ast.CallNode:
		if id, ok := n.Callee.(*ast.IdentifierNode); ok {
			c.callees[id.Value] = true
		}
	}
}

// Identifiers returns the sorted top-level variable names an expression
// references. Function names are not included.
func Identifiers(expression string) ([]string, error) {
	tree, err := parser.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("failed to parse expression: %w", err)
	}

	c := &identifierCollector{
		identifiers: make(map[string]bool),
		callees:     make(map[string]bool),
	}
	ast.Walk(&tree.Node, c)

	names := make([]string, 0, len(c.identifiers))
	for name := range c.identifiers {
		if c.callees[name] {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
