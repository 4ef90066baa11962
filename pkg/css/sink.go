package css

import (
	"strings"

	"webcore/internal/htmlsink"
)

// ParseStylesheetIntoSink drives sink directly from the same
// comment-stripped, brace-balanced rule split that ParseStylesheet
// uses, emitting CSSRuleSink calls instead of building a *Stylesheet.
// Grouped selectors ("h1, h2 { ... }") are split on top-level commas
// before being handed to StartRule; ParseStylesheet itself does not
// split these since Rule carries only a single Selector.
func ParseStylesheetIntoSink(css string, sink htmlsink.CSSRuleSink) error {
	css = stripCSSComments(css)
	css = strings.TrimSpace(css)
	if css == "" {
		return nil
	}

	for _, ruleStr := range splitRules(css) {
		trimmed := strings.TrimSpace(ruleStr)
		if len(trimmed) > 0 && trimmed[0] == '@' {
			emitAtRuleIntoSink(ruleStr, sink)
			continue
		}
		emitStyleRuleIntoSink(ruleStr, sink)
	}
	return nil
}

func emitStyleRuleIntoSink(ruleStr string, sink htmlsink.CSSRuleSink) {
	bracePos := strings.IndexByte(ruleStr, '{')
	if bracePos == -1 {
		return
	}
	selectorStr := strings.TrimSpace(ruleStr[:bracePos])
	if !isValidSelector(selectorStr) {
		return
	}

	declStart := bracePos + 1
	declEnd := strings.LastIndexByte(ruleStr, '}')
	if declEnd == -1 {
		declEnd = len(ruleStr)
	}

	sink.StartRule(splitTopLevelCommas(selectorStr))
	emitDeclarationsIntoSink(ruleStr[declStart:declEnd], sink)
	sink.EndRule()
}

// emitAtRuleIntoSink reports @media (and any other at-rule) to the
// sink as a single AtRule call carrying the at-keyword's name and its
// raw, unparsed remainder (conditions and, if present, body text);
// unlike ParseStylesheet's parseMediaRule, the sink never expands a
// @media body into separate StartRule/Declaration calls.
func emitAtRuleIntoSink(ruleStr string, sink htmlsink.CSSRuleSink) {
	bracePos := strings.IndexByte(ruleStr, '{')
	if bracePos == -1 {
		sink.AtRule(strings.TrimSpace(ruleStr), "")
		return
	}
	prelude := strings.TrimSpace(ruleStr[:bracePos])
	declEnd := strings.LastIndexByte(ruleStr, '}')
	body := ""
	if declEnd > bracePos {
		body = ruleStr[bracePos+1 : declEnd]
	}
	name, rest := splitAtRuleName(prelude)
	sink.AtRule(name, strings.TrimSpace(rest+" "+body))
}

func emitDeclarationsIntoSink(declStr string, sink htmlsink.CSSRuleSink) {
	for _, part := range splitDeclarationParts(declStr) {
		property, value, important, ok := parseDeclarationPart(part)
		if !ok {
			continue
		}
		sink.Declaration(property, value, important)
	}
}

// parseDeclarationPart extracts property/value/important from a single
// ";"-delimited segment, the same validation parseDeclarations applies
// before it expands shorthand properties into a map.
func parseDeclarationPart(part string) (property, value string, important, ok bool) {
	part = strings.TrimSpace(part)
	if part == "" {
		return "", "", false, false
	}
	colonPos := strings.IndexByte(part, ':')
	if colonPos == -1 {
		return "", "", false, false
	}
	property = strings.TrimSpace(part[:colonPos])
	value = strings.TrimSpace(part[colonPos+1:])
	if property == "" || value == "" {
		return "", "", false, false
	}
	if property[0] != '-' && (property[0] < 'a' || property[0] > 'z') && (property[0] < 'A' || property[0] > 'Z') {
		return "", "", false, false
	}

	if bangIdx := strings.IndexByte(value, '!'); bangIdx != -1 {
		afterBang := strings.TrimSpace(value[bangIdx+1:])
		if strings.EqualFold(afterBang, "important") {
			value = strings.TrimSpace(value[:bangIdx])
			important = true
		} else {
			return "", "", false, false
		}
	}

	if isLengthProperty(property) && isInvalidBareNumber(value) {
		return "", "", false, false
	}

	return property, value, important, true
}

// splitTopLevelCommas splits a selector list on commas outside of
// attribute-selector brackets, e.g. "a[href=\"a,b\"], p" -> ["a[href=\"a,b\"]", "p"].
func splitTopLevelCommas(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				if seg := strings.TrimSpace(s[start:i]); seg != "" {
					out = append(out, seg)
				}
				start = i + 1
			}
		}
	}
	if seg := strings.TrimSpace(s[start:]); seg != "" {
		out = append(out, seg)
	}
	if len(out) == 0 {
		return []string{strings.TrimSpace(s)}
	}
	return out
}

// splitAtRuleName splits "@media screen and (min-width: 768px)" into
// ("@media", "screen and (min-width: 768px)").
func splitAtRuleName(prelude string) (name, rest string) {
	for i := 0; i < len(prelude); i++ {
		if prelude[i] == ' ' {
			return prelude[:i], prelude[i+1:]
		}
	}
	return prelude, ""
}
