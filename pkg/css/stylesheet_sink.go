package css

// AtRuleText is an at-rule recorded verbatim by StylesheetBuilderSink,
// since CSSRuleSink.AtRule leaves its body out of scope for parsing.
type AtRuleText struct {
	Name    string
	Prelude string
}

// StylesheetBuilderSink is a CSSRuleSink that accumulates into a
// Stylesheet, the sink-driven counterpart to ParseStylesheet: calling
// ParseStylesheetIntoSink(src, sink) and then reading sink.Stylesheet()
// produces the same rules ParseStylesheet(src) would, except that
// grouped selectors are expanded into one Rule per selector (Rule
// carries a single Selector) and @media bodies are recorded only as
// AtRules, never added to the Stylesheet.
type StylesheetBuilderSink struct {
	sheet     Stylesheet
	atRules   []AtRuleText
	selectors []string
	decls     map[string]string
	inRule    bool
}

// NewStylesheetBuilderSink returns an empty sink ready to receive
// ParseStylesheetIntoSink callbacks.
func NewStylesheetBuilderSink() *StylesheetBuilderSink {
	return &StylesheetBuilderSink{}
}

// Stylesheet returns the rules accumulated so far.
func (s *StylesheetBuilderSink) Stylesheet() *Stylesheet {
	return &s.sheet
}

// AtRules returns the at-rules (e.g. @media, @import) seen so far,
// verbatim and unparsed.
func (s *StylesheetBuilderSink) AtRules() []AtRuleText {
	return s.atRules
}

// StartRule implements htmlsink.CSSRuleSink.
func (s *StylesheetBuilderSink) StartRule(selectors []string) {
	s.selectors = selectors
	s.decls = make(map[string]string)
	s.inRule = true
}

// Declaration implements htmlsink.CSSRuleSink.
func (s *StylesheetBuilderSink) Declaration(property, value string, important bool) {
	if !s.inRule {
		return
	}
	style := NewStyle()
	expandShorthand(style, property, value)
	for k, v := range style.Properties {
		s.decls[k] = v
	}
}

// EndRule implements htmlsink.CSSRuleSink, emitting one Rule per
// selector in the group that was opened via StartRule.
func (s *StylesheetBuilderSink) EndRule() {
	if !s.inRule {
		return
	}
	for _, sel := range s.selectors {
		s.sheet.Rules = append(s.sheet.Rules, Rule{
			Selector:     parseSelector(sel),
			Declarations: s.decls,
		})
	}
	s.selectors = nil
	s.decls = nil
	s.inRule = false
}

// AtRule implements htmlsink.CSSRuleSink by recording the at-rule
// verbatim; unlike ParseStylesheet's @media handling, the sink never
// expands an at-rule's body into rules of its own.
func (s *StylesheetBuilderSink) AtRule(name, prelude string) {
	s.atRules = append(s.atRules, AtRuleText{Name: name, Prelude: prelude})
}
