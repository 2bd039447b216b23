package wikitext

import (
	"strconv"
	"strings"
)

// construct kinds remembered when they fail to close at a position.
const (
	kindTemplate = 't'
	kindArgument = 'a'
	kindLink     = 'l'
)

type failKey struct {
	pos  int
	kind byte
}

// stopSet is a terminator set used while scanning inside a construct. Every
// construct that scans with a non-zero id fails when the scan reaches EOF.
type stopSet struct {
	id    byte
	stops []string
}

var (
	topLevel     = stopSet{}
	nameOrValue  = stopSet{id: 1, stops: []string{"|", "}}"}}
	paramHead    = stopSet{id: 2, stops: []string{"|", "}}", "="}}
	argumentBody = stopSet{id: 3, stops: []string{"}}}"}}
	linkBody     = stopSet{id: 4, stops: []string{"]]"}}
)

type deadKey struct {
	pos int
	set byte
}

// parser is a recursive-descent scanner over the source text. Nested
// constructs define their own terminators, so whether a construct closes
// depends only on where it starts. Failed openers are memoized per kind.
// Scan positions that run off the end of the input are memoized per stop
// set, as are template separators whose parameter list never closes, so
// unbalanced input parses in linear time.
type parser struct {
	src      string
	pos      int
	failed   map[failKey]struct{}
	dead     map[deadKey]struct{}
	deadSeps map[int]struct{}
}

// Parse parses wikitext into a node tree. It never fails.
func Parse(text string) *Wikicode {
	p := &parser{
		src:      text,
		failed:   make(map[failKey]struct{}),
		dead:     make(map[deadKey]struct{}),
		deadSeps: make(map[int]struct{}),
	}
	return p.parseCode(topLevel)
}

// parseCode consumes nodes until one of the set's stops is found at this
// nesting level or the input ends. The stop itself is not consumed.
func (p *parser) parseCode(set stopSet) *Wikicode {
	code := &Wikicode{}
	var text strings.Builder
	var visited []int

	flush := func() {
		if text.Len() > 0 {
			code.Nodes = append(code.Nodes, &Text{Value: text.String()})
			text.Reset()
		}
	}

	for p.pos < len(p.src) {
		if p.atAny(set.stops) {
			break
		}
		if set.id != 0 {
			if _, ok := p.dead[deadKey{pos: p.pos, set: set.id}]; ok {
				// The enclosing construct cannot close; its nodes are discarded.
				p.pos = len(p.src)
				break
			}
			visited = append(visited, p.pos)
		}

		rest := p.src[p.pos:]
		var node Node
		switch {
		case strings.HasPrefix(rest, "<!--"):
			node = p.parseComment()
		case hasPrefixFold(rest, "<nowiki>"):
			node = p.parseNowiki()
		case strings.HasPrefix(rest, "{{{"):
			node = p.tryArgument()
			if node == nil {
				node = p.tryTemplate()
			}
		case strings.HasPrefix(rest, "{{"):
			node = p.tryTemplate()
		case strings.HasPrefix(rest, "[["):
			node = p.tryLink()
		}

		if node != nil {
			flush()
			code.Nodes = append(code.Nodes, node)
			continue
		}

		text.WriteByte(p.src[p.pos])
		p.pos++
	}

	if p.pos >= len(p.src) {
		for _, pos := range visited {
			p.dead[deadKey{pos: pos, set: set.id}] = struct{}{}
		}
	}

	flush()
	return code
}

func (p *parser) atAny(stops []string) bool {
	for _, s := range stops {
		if strings.HasPrefix(p.src[p.pos:], s) {
			return true
		}
	}
	return false
}

func (p *parser) hasFailed(start int, kind byte) bool {
	_, ok := p.failed[failKey{pos: start, kind: kind}]
	return ok
}

func (p *parser) fail(start int, kind byte) Node {
	p.failed[failKey{pos: start, kind: kind}] = struct{}{}
	p.pos = start
	return nil
}

func (p *parser) tryTemplate() Node {
	start := p.pos
	if p.hasFailed(start, kindTemplate) {
		return nil
	}
	p.pos += 2

	tmpl := &Template{name: p.parseCode(nameOrValue)}
	positional := 0
	var seps []int
	for {
		_, deadSep := p.deadSeps[p.pos]
		if p.pos >= len(p.src) || deadSep {
			for _, sep := range seps {
				p.deadSeps[sep] = struct{}{}
			}
			return p.fail(start, kindTemplate)
		}
		if strings.HasPrefix(p.src[p.pos:], "}}") {
			p.pos += 2
			return tmpl
		}

		// At a parameter separator.
		seps = append(seps, p.pos)
		p.pos++
		head := p.parseCode(paramHead)
		if p.pos < len(p.src) && p.src[p.pos] == '=' {
			p.pos++
			value := p.parseCode(nameOrValue)
			tmpl.Params = append(tmpl.Params, &Parameter{Name: head, Value: value, Showkey: true})
			continue
		}

		positional++
		tmpl.Params = append(tmpl.Params, &Parameter{
			Name:  &Wikicode{Nodes: []Node{&Text{Value: strconv.Itoa(positional)}}},
			Value: head,
		})
	}
}

func (p *parser) tryArgument() Node {
	start := p.pos
	if p.hasFailed(start, kindArgument) {
		return nil
	}
	p.pos += 3

	inner := p.parseCode(argumentBody)
	if p.pos >= len(p.src) {
		return p.fail(start, kindArgument)
	}
	p.pos += 3
	return &Argument{Inner: inner}
}

func (p *parser) tryLink() Node {
	start := p.pos
	if p.hasFailed(start, kindLink) {
		return nil
	}
	p.pos += 2

	inner := p.parseCode(linkBody)
	if p.pos >= len(p.src) {
		return p.fail(start, kindLink)
	}
	p.pos += 2
	return &Link{Inner: inner}
}

func (p *parser) parseComment() Node {
	body := p.src[p.pos+len("<!--"):]
	end := strings.Index(body, "-->")
	if end < 0 {
		p.pos = len(p.src)
		return &Comment{Contents: body}
	}
	p.pos += len("<!--") + end + len("-->")
	return &Comment{Contents: body[:end], closed: true}
}

// parseNowiki keeps <nowiki>…</nowiki> as opaque text. Without a closing tag
// the opening tag is ordinary text.
func (p *parser) parseNowiki() Node {
	const closeTag = "</nowiki>"
	rest := p.src[p.pos:]
	end := indexFold(rest, closeTag)
	if end < 0 {
		return nil
	}
	span := rest[:end+len(closeTag)]
	p.pos += len(span)
	return &Text{Value: span}
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// indexFold is an ASCII case-insensitive strings.Index that keeps byte
// offsets into s intact.
func indexFold(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(sub)], sub) {
			return i
		}
	}
	return -1
}
