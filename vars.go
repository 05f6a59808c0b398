package tplmgr

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"text/template/parse"
)

// ErrInvalidVars indicates VarsFromStruct got something other than a struct with tpl tags.
var ErrInvalidVars = errors.New("tplmgr: vars must be a struct with tpl tags")

type varsField struct {
	index int
	tag   string
}

var varsCache sync.Map // reflect.Type -> []varsField

// VarsFromStruct builds a render variable map from a struct whose fields carry `tpl:"name"` tags.
// Untagged fields and fields tagged "-" are skipped.
func VarsFromStruct(v any) (map[string]any, error) {
	if v == nil {
		return nil, ErrInvalidVars
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, ErrInvalidVars
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, ErrInvalidVars
	}
	typ := rv.Type()
	var fields []varsField
	if cached, ok := varsCache.Load(typ); ok {
		fields = cached.([]varsField)
	} else {
		for i := 0; i < typ.NumField(); i++ {
			tag := typ.Field(i).Tag.Get("tpl")
			if tag == "" || tag == "-" {
				continue
			}
			fields = append(fields, varsField{index: i, tag: tag})
		}
		if len(fields) == 0 {
			return nil, ErrInvalidVars
		}
		varsCache.Store(typ, fields)
	}
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		val := rv.Field(f.index)
		if val.CanInterface() {
			out[f.tag] = val.Interface()
		}
	}
	return out, nil
}

// isNilNode returns true if node is nil or an interface holding a nil pointer (e.g. *parse.ListNode).
func isNilNode(node parse.Node) bool {
	if node == nil {
		return true
	}
	v := reflect.ValueOf(node)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// walkParseNodes visits node and its children. scoped is true for nodes inside the body
// of a range or with action, where dot no longer refers to the render variables.
func walkParseNodes(node parse.Node, scoped bool, visit func(n parse.Node, scoped bool)) {
	if isNilNode(node) {
		return
	}
	visit(node, scoped)
	switch n := node.(type) {
	case *parse.ListNode:
		for _, c := range n.Nodes {
			walkParseNodes(c, scoped, visit)
		}
	case *parse.ActionNode:
		walkParseNodes(n.Pipe, scoped, visit)
	case *parse.PipeNode:
		for _, c := range n.Cmds {
			walkParseNodes(c, scoped, visit)
		}
	case *parse.CommandNode:
		for _, a := range n.Args {
			walkParseNodes(a, scoped, visit)
		}
	case *parse.IfNode:
		walkParseNodes(n.Pipe, scoped, visit)
		walkParseNodes(n.List, scoped, visit)
		walkParseNodes(n.ElseList, scoped, visit)
	case *parse.RangeNode:
		walkParseNodes(n.Pipe, scoped, visit)
		walkParseNodes(n.List, true, visit)
		walkParseNodes(n.ElseList, scoped, visit)
	case *parse.WithNode:
		walkParseNodes(n.Pipe, scoped, visit)
		walkParseNodes(n.List, true, visit)
		walkParseNodes(n.ElseList, scoped, visit)
	}
}

// extractVarsFromTree collects the paths a caller supplies: arguments of rewritten lookup
// calls, .field chains and $.field chains. Dot-relative paths inside range and with bodies
// resolve against the current element and are skipped.
func extractVarsFromTree(tree *parse.Tree) []string {
	if tree == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	walkParseNodes(tree.Root, false, func(n parse.Node, scoped bool) {
		switch x := n.(type) {
		case *parse.CommandNode:
			if scoped || len(x.Args) != 3 {
				return
			}
			id, ok := x.Args[0].(*parse.IdentifierNode)
			if !ok || id.Ident != "lookup" {
				return
			}
			if _, ok := x.Args[1].(*parse.DotNode); !ok {
				return
			}
			if s, ok := x.Args[2].(*parse.StringNode); ok {
				add(s.Text)
			}
		case *parse.FieldNode:
			if !scoped {
				add(strings.Join(x.Ident, "."))
			}
		case *parse.VariableNode:
			if len(x.Ident) > 1 && x.Ident[0] == "$" {
				add(strings.Join(x.Ident[1:], "."))
			}
		}
	})
	return out
}
