package selector

import "strings"

// Parse parses a CSS selector string into a Selector, grounded on
// pkg/css/stylesheet.go's parseSelector/parseSelectorPart/
// tokenizeSelector (combinator tokenizing, bracket-aware scanning,
// specificity accumulation), adapted to this package's Selector/
// SelectorPart/AttributeOp types.
func Parse(raw string) Selector {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Selector{Raw: raw}
	}

	pseudoElement := ""
	for _, marker := range []string{"::before", "::after", ":before", ":after"} {
		if idx := strings.Index(s, marker); idx != -1 {
			pseudoElement = strings.TrimPrefix(strings.TrimPrefix(marker, "::"), ":")
			s = strings.TrimSpace(strings.Replace(s, marker, "", 1))
			break
		}
	}

	tokens := tokenize(s)
	var parts []SelectorPart
	var combinators []CombinatorType
	current := ""

	flush := func() {
		if current != "" {
			parts = append(parts, parsePart(current))
			current = ""
		}
	}

	for _, tok := range tokens {
		switch tok {
		case ">", "+", "~":
			flush()
			var comb CombinatorType
			switch tok {
			case ">":
				comb = Child
			case "+":
				comb = AdjacentSibling
			case "~":
				comb = GeneralSibling
			}
			if len(combinators) > 0 && len(combinators) == len(parts) {
				combinators[len(combinators)-1] = comb
			} else {
				combinators = append(combinators, comb)
			}
		case " ":
			if current != "" {
				flush()
				combinators = append(combinators, Descendant)
			}
		default:
			current += tok
		}
	}
	flush()

	sel := Selector{
		Raw:           raw,
		Parts:         parts,
		Combinators:   combinators,
		PseudoElement: pseudoElement,
	}
	sel.Specificity = ComputeSpecificity(&sel)
	return sel
}

// tokenize splits a selector string into element/combinator tokens,
// treating "[...]" as opaque so combinator characters inside attribute
// value strings are not mistaken for combinators.
func tokenize(s string) []string {
	var tokens []string
	current := ""
	inBracket := false

	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '[':
			inBracket = true
			current += string(ch)
		case ch == ']':
			inBracket = false
			current += string(ch)
		case !inBracket && (ch == '>' || ch == '+' || ch == '~' || ch == ' '):
			if current != "" {
				tokens = append(tokens, current)
				current = ""
			}
			if ch == ' ' {
				if len(tokens) > 0 {
					last := tokens[len(tokens)-1]
					if last != ">" && last != "+" && last != "~" && last != " " {
						tokens = append(tokens, " ")
					}
				}
			} else {
				tokens = append(tokens, string(ch))
			}
		default:
			current += string(ch)
		}
	}
	if current != "" {
		tokens = append(tokens, current)
	}
	return tokens
}

func isSpecialChar(b byte) bool {
	return b == '.' || b == '#' || b == '[' || b == ':'
}

func parsePart(s string) SelectorPart {
	var part SelectorPart
	s = strings.TrimSpace(s)
	if s == "" {
		return part
	}

	i := 0
	if !isSpecialChar(s[0]) {
		j := i
		for j < len(s) && !isSpecialChar(s[j]) {
			j++
		}
		if s[i:j] != "*" {
			part.Tag = s[i:j]
		}
		i = j
	}

	for i < len(s) {
		switch s[i] {
		case '.':
			i++
			j := i
			for j < len(s) && !isSpecialChar(s[j]) {
				j++
			}
			part.Classes = append(part.Classes, s[i:j])
			i = j
		case '#':
			i++
			j := i
			for j < len(s) && !isSpecialChar(s[j]) {
				j++
			}
			part.ID = s[i:j]
			i = j
		case ':':
			if i+1 < len(s) && s[i+1] == ':' {
				i = len(s)
				break
			}
			i++
			j := i
			for j < len(s) && !isSpecialChar(s[j]) {
				j++
			}
			if j > i {
				part.PseudoClasses = append(part.PseudoClasses, s[i:j])
			}
			i = j
		case '[':
			j := i + 1
			for j < len(s) && s[j] != ']' {
				j++
			}
			if j >= len(s) {
				i = len(s)
				break
			}
			part.Attrs = append(part.Attrs, parseAttr(s[i+1:j]))
			i = j + 1
		default:
			i++
		}
	}
	return part
}

func parseAttr(s string) AttributeSelector {
	ops := []struct {
		tok string
		op  AttributeOp
	}{
		{"^=", AttrPrefix},
		{"$=", AttrSuffix},
		{"*=", AttrSubstring},
		{"~=", AttrIncludes},
		{"=", AttrEquals},
	}
	for _, o := range ops {
		if idx := strings.Index(s, o.tok); idx != -1 {
			name := strings.TrimSpace(s[:idx])
			value := strings.TrimSpace(s[idx+len(o.tok):])
			value = strings.Trim(value, `"'`)
			return AttributeSelector{Name: name, Op: o.op, Value: value}
		}
	}
	return AttributeSelector{Name: strings.TrimSpace(s), Op: AttrPresent}
}
