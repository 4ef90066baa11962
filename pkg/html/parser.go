package html

import (
	"fmt"

	"webcore/internal/htmlsink"
)

type Parser struct {
	tokenizer *Tokenizer
	doc       *Document
	stack     []*Node // Phase 2: Stack for tracking nested elements
}

func NewParser(html string) *Parser {
	return &Parser{
		tokenizer: NewTokenizer(html),
		doc:       NewDocument(),
	}
}

func (p *Parser) Parse() (*Document, error) {
	// Phase 2: Initialize stack with root node
	p.stack = []*Node{p.doc.Root}

	for {
		token, err := p.tokenizer.NextToken()
		if err != nil {
			return nil, fmt.Errorf("tokenizer error: %w", err)
		}
		if token.Type == TokenEOF {
			break
		}

		switch token.Type {
		case TokenStartTag:
			// <style> text goes to Document.Stylesheets, not into the tree.
			if token.TagName == "style" {
				next, err := p.tokenizer.NextToken()
				if err != nil {
					return nil, fmt.Errorf("tokenizer error: %w", err)
				}
				if next.Type == TokenText {
					p.doc.Stylesheets = append(p.doc.Stylesheets, next.Text)
					if _, err := p.tokenizer.NextToken(); err != nil { // </style>
						return nil, fmt.Errorf("tokenizer error: %w", err)
					}
				}
				continue
			}
			// Create new element node
			node := &Node{
				Type:       ElementNode,
				TagName:    token.TagName,
				Attributes: token.Attributes,
				Children:   make([]*Node, 0),
			}

			// Add to current parent (top of stack)
			parent := p.currentParent()
			parent.AddChild(node)

			// Check if this is a self-closing/void element
			if !p.isSelfClosing(token.TagName) {
				// Push onto stack to become new parent
				p.push(node)
			}

		case TokenText:
			// Add text to current parent
			if token.Text != "" {
				parent := p.currentParent()
				parent.AppendText(token.Text)
			}

		case TokenEndTag:
			// Pop from stack (close current element)
			if len(p.stack) > 1 {
				p.pop()
			}
		}
	}

	return p.doc, nil
}

// currentParent returns the current parent node (top of stack)
func (p *Parser) currentParent() *Node {
	if len(p.stack) == 0 {
		return p.doc.Root
	}
	return p.stack[len(p.stack)-1]
}

// push adds a node to the stack
func (p *Parser) push(node *Node) {
	p.stack = append(p.stack, node)
}

// pop removes the top node from the stack
func (p *Parser) pop() *Node {
	if len(p.stack) == 0 {
		return nil
	}
	node := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	return node
}

// isSelfClosing returns true for void/self-closing HTML elements
func (p *Parser) isSelfClosing(tagName string) bool {
	selfClosingTags := map[string]bool{
		"br": true, "hr": true, "img": true, "input": true,
		"meta": true, "link": true, "area": true, "base": true,
		"col": true, "embed": true, "param": true, "source": true,
		"track": true, "wbr": true,
	}
	return selfClosingTags[tagName]
}

func Parse(html string) (*Document, error) {
	parser := NewParser(html)
	return parser.Parse()
}

// ParseIntoSink drives sink (typically an htmlsink.DOMBuilderSink
// backed by an internal/domstore.Store) directly from the tokenizer,
// the same token loop as Parse but emitting HTMLEventSink calls
// instead of building a *Document.
func ParseIntoSink(htmlSrc string, sink htmlsink.HTMLEventSink) error {
	tok := NewTokenizer(htmlSrc)
	for {
		token, err := tok.NextToken()
		if err != nil {
			return fmt.Errorf("tokenizer error: %w", err)
		}
		if token.Type == TokenEOF {
			return nil
		}
		switch token.Type {
		case TokenStartTag:
			attrs := make([]htmlsink.Attr, 0, len(token.Attributes))
			for name, value := range token.Attributes {
				attrs = append(attrs, htmlsink.Attr{Name: name, Value: value})
			}
			sink.StartElement(token.TagName, attrs)
		case TokenText:
			if token.Text != "" {
				sink.Text(token.Text)
			}
		case TokenEndTag:
			sink.EndElement(token.TagName)
		}
	}
}
