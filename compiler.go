package tplmgr

import (
	"fmt"
	"maps"
	"regexp"
	"strconv"
	"strings"
	"text/template"

	"github.com/oxtoacart/bpool"
)

// Default interpolation delimiters.
const (
	DefaultLeftDelim  = "{{"
	DefaultRightDelim = "}}"
)

// Renderer is a compiled template. Render is pure: identical vars give identical output.
type Renderer interface {
	Render(vars map[string]any) (string, error)
	// Variables returns the placeholder paths referenced by the template, in first-seen order.
	Variables() []string
}

// Compiler turns raw template text into a Renderer.
type Compiler interface {
	Compile(name, raw string) (Renderer, error)
}

// CompilerOption configures TextCompiler (functional options pattern).
type CompilerOption func(*TextCompiler)

// WithCompilerDelims sets the interpolation delimiters. Empty values keep the defaults.
func WithCompilerDelims(left, right string) CompilerOption {
	return func(c *TextCompiler) {
		if left != "" {
			c.left = left
		}
		if right != "" {
			c.right = right
		}
	}
}

// WithCompilerFuncs adds functions available to native actions; they override defaults with the same name.
func WithCompilerFuncs(funcs template.FuncMap) CompilerOption {
	return func(c *TextCompiler) {
		maps.Copy(c.funcs, funcs)
	}
}

// TextCompiler compiles mustache-style templates on top of text/template.
//
// A tag whose trimmed body is a variable path (name, user.name, .items.0) is an
// interpolation: the value is looked up in the render variables and a missing
// value renders as the empty string. A bare name that is also a template function
// ({{ year }}) calls the function; use {{ .year }} to read a variable of that name.
// Inside range and with bodies paths resolve against the current element.
// Any other tag body is passed to text/template unchanged, so {{ if .x }}...{{ end }}
// and function calls keep working.
// Output is not HTML-escaped.
type TextCompiler struct {
	left    string
	right   string
	funcs   template.FuncMap
	tagRe   *regexp.Regexp
	bufpool *bpool.BufferPool
}

var _ Compiler = (*TextCompiler)(nil)

// pathRe matches interpolation bodies; an optional leading dot accepts text/template field style.
var pathRe = regexp.MustCompile(`^\.?[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z0-9_]+)*$`)

// keywords are bare identifiers text/template gives a meaning of their own.
var keywords = map[string]bool{
	"end": true, "else": true, "break": true, "continue": true,
	"nil": true, "true": true, "false": true,
}

// NewCompiler returns a TextCompiler with {{ }} delimiters and the default func map.
func NewCompiler(opts ...CompilerOption) *TextCompiler {
	c := &TextCompiler{
		left:    DefaultLeftDelim,
		right:   DefaultRightDelim,
		funcs:   defaultFuncMap(),
		bufpool: bpool.NewBufferPool(64),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.tagRe = regexp.MustCompile(regexp.QuoteMeta(c.left) + `(.+?)` + regexp.QuoteMeta(c.right))
	return c
}

// Compile parses raw into a Renderer. Returns a *TemplateError wrapping ErrTemplateParse on malformed syntax.
func (c *TextCompiler) Compile(name, raw string) (Renderer, error) {
	src := c.rewrite(raw)
	tpl, err := template.New(name).
		Delims(c.left, c.right).
		Funcs(c.funcs).
		Option("missingkey=zero").
		Parse(src)
	if err != nil {
		return nil, &TemplateError{Name: name, Err: fmt.Errorf("%w: %w", ErrTemplateParse, err)}
	}
	return &compiledTemplate{
		name:    name,
		tpl:     tpl,
		vars:    extractVarsFromTree(tpl.Tree),
		bufpool: c.bufpool,
	}, nil
}

// rewrite turns every interpolation tag into a lookup call and leaves other tags alone.
func (c *TextCompiler) rewrite(raw string) string {
	return c.tagRe.ReplaceAllStringFunc(raw, func(tag string) string {
		inner := tag[len(c.left) : len(tag)-len(c.right)]
		var ltrim, rtrim string
		if strings.HasPrefix(inner, "- ") {
			ltrim, inner = "-", inner[1:]
		}
		if strings.HasSuffix(inner, " -") {
			rtrim, inner = "-", inner[:len(inner)-1]
		}
		body := strings.TrimSpace(inner)
		if !pathRe.MatchString(body) || keywords[body] {
			return tag
		}
		if _, isFunc := c.funcs[body]; isFunc {
			return tag
		}
		return c.left + ltrim + " lookup . " + strconv.Quote(strings.TrimPrefix(body, ".")) + " " + rtrim + c.right
	})
}

type compiledTemplate struct {
	name    string
	tpl     *template.Template
	vars    []string
	bufpool *bpool.BufferPool
}

func (t *compiledTemplate) Render(vars map[string]any) (string, error) {
	if vars == nil {
		vars = map[string]any{}
	}
	buf := t.bufpool.Get()
	defer t.bufpool.Put(buf)
	if err := t.tpl.Execute(buf, vars); err != nil {
		return "", &TemplateError{Name: t.name, Err: fmt.Errorf("%w: %w", ErrTemplateRender, err)}
	}
	return buf.String(), nil
}

func (t *compiledTemplate) Variables() []string {
	return append([]string(nil), t.vars...)
}
