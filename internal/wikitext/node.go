// Package wikitext parses MediaWiki markup into a tree of nodes, exposing
// template invocations with their names and ordered parameters.
//
// The parser is lossless: Wikicode.String() reproduces the input exactly.
// Malformed markup never fails; unclosed constructs are kept as text.
package wikitext

import (
	"strings"
)

// Node is one element of parsed wikitext.
type Node interface {
	String() string
}

// Wikicode is an ordered list of nodes.
type Wikicode struct {
	Nodes []Node
}

func (w *Wikicode) String() string {
	if w == nil {
		return ""
	}
	var b strings.Builder
	for _, n := range w.Nodes {
		b.WriteString(n.String())
	}
	return b.String()
}

// Templates returns every template in the tree, including nested ones, in
// document order. A template precedes the templates nested inside it.
func (w *Wikicode) Templates() []*Template {
	var out []*Template
	w.walk(func(t *Template) {
		out = append(out, t)
	})
	return out
}

func (w *Wikicode) walk(fn func(*Template)) {
	if w == nil {
		return
	}
	for _, n := range w.Nodes {
		switch n := n.(type) {
		case *Template:
			fn(n)
			n.name.walk(fn)
			for _, p := range n.Params {
				if p.Showkey {
					p.Name.walk(fn)
				}
				p.Value.walk(fn)
			}
		case *Link:
			n.Inner.walk(fn)
		case *Argument:
			n.Inner.walk(fn)
		}
	}
}

// Text is a run of plain markup.
type Text struct {
	Value string
}

func (t *Text) String() string { return t.Value }

// Comment is an HTML comment. An unterminated comment runs to the end of input.
type Comment struct {
	Contents string
	closed   bool
}

func (c *Comment) String() string {
	if c.closed {
		return "<!--" + c.Contents + "-->"
	}
	return "<!--" + c.Contents
}

// Link is a wikilink, [[target|label]].
type Link struct {
	Inner *Wikicode
}

func (l *Link) String() string { return "[[" + l.Inner.String() + "]]" }

// Argument is a template argument reference, {{{name|default}}}.
type Argument struct {
	Inner *Wikicode
}

func (a *Argument) String() string { return "{{{" + a.Inner.String() + "}}}" }

// Template is a template invocation, {{name|key=value|positional}}.
type Template struct {
	name   *Wikicode
	Params []*Parameter
}

func (t *Template) String() string {
	var b strings.Builder
	b.WriteString("{{")
	b.WriteString(t.name.String())
	for _, p := range t.Params {
		b.WriteByte('|')
		b.WriteString(p.String())
	}
	b.WriteString("}}")
	return b.String()
}

// Name returns the template name with surrounding whitespace removed.
func (t *Template) Name() string {
	return strings.TrimSpace(t.name.String())
}

// Has reports whether a parameter with the given trimmed name exists.
func (t *Template) Has(key string) bool {
	_, ok := t.Get(key)
	return ok
}

// Get returns the parameter with the given trimmed name. When the name
// repeats, the last occurrence wins, as it does when MediaWiki renders.
func (t *Template) Get(key string) (*Parameter, bool) {
	for i := len(t.Params) - 1; i >= 0; i-- {
		if t.Params[i].Key() == key {
			return t.Params[i], true
		}
	}
	return nil, false
}

// Param returns the trimmed value of the named parameter.
func (t *Template) Param(key string) (string, bool) {
	p, ok := t.Get(key)
	if !ok {
		return "", false
	}
	return p.TrimmedValue(), true
}

// Field is one name/value pair of a template's parameter snapshot.
type Field struct {
	Name  string
	Value string
}

// Fields returns all parameters as trimmed name/value pairs. Each name
// appears once, at the position of its first occurrence, holding the value
// of its last occurrence.
func (t *Template) Fields() []Field {
	index := make(map[string]int, len(t.Params))
	fields := make([]Field, 0, len(t.Params))
	for _, p := range t.Params {
		key := p.Key()
		if i, ok := index[key]; ok {
			fields[i].Value = p.TrimmedValue()
			continue
		}
		index[key] = len(fields)
		fields = append(fields, Field{Name: key, Value: p.TrimmedValue()})
	}
	return fields
}

// Parameter is one template parameter. Positional parameters have Showkey
// false and a generated name ("1", "2", ...).
type Parameter struct {
	Name    *Wikicode
	Value   *Wikicode
	Showkey bool
}

func (p *Parameter) String() string {
	if p.Showkey {
		return p.Name.String() + "=" + p.Value.String()
	}
	return p.Value.String()
}

// Key returns the trimmed parameter name.
func (p *Parameter) Key() string { return strings.TrimSpace(p.Name.String()) }

// TrimmedValue returns the raw parameter value without surrounding whitespace.
func (p *Parameter) TrimmedValue() string { return strings.TrimSpace(p.Value.String()) }
