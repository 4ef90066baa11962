// Package renderer composes the per-tab pipeline spec §4 describes
// (fetch, DOM/CSS parse, selector match, layout, script execution)
// into a single process.FrameHost, the same role the teacher's
// cmd/l14/main.go fills inline with resource.Louis14Renderer but
// generalized to the arena-backed internal/domstore, internal/selector,
// and internal/layout components rather than the teacher's pointer-tree
// pkg/html/pkg/css/pkg/layout pipeline. One Renderer is built per tab
// and handed to process.Supervisor either directly (single-process
// mode) or driven by cmd/renderer over internal/ipc.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"webcore/internal/domstore"
	"webcore/internal/fixed"
	"webcore/internal/htmlsink"
	"webcore/internal/jsvalue"
	"webcore/internal/jsvm"
	"webcore/internal/layout"
	"webcore/internal/navigation"
	"webcore/internal/netfetch"
	"webcore/internal/process"
	"webcore/internal/scheduler"
	"webcore/internal/scripthost"
	"webcore/internal/selector"
	"webcore/pkg/css"
	"webcore/pkg/html"
)

// Renderer implements process.FrameHost for one tab.
type Renderer struct {
	TabID   uint64
	fetcher netfetch.NetworkFetcher
	nav     *navigation.Controller
	sched   *scheduler.Scheduler
	script  *scripthost.VMHost
	log     *zap.Logger

	viewportWidth, viewportHeight fixed.Q16

	mu      sync.Mutex
	store   *domstore.Store
	matcher *selector.Matcher
	decls   []map[string]string // parallel to matcher's rule order
	scriptC *scripthost.Context
	title   string
	loading bool
	lastBox *layout.Box
}

// New builds a Renderer for tabID, fetching pages through fetcher and
// laying them out against a viewportWidth x viewportHeight viewport.
func New(tabID uint64, fetcher netfetch.NetworkFetcher, viewportWidth, viewportHeight float64, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{
		TabID:          tabID,
		fetcher:        fetcher,
		nav:            navigation.New(log),
		sched:          scheduler.New(log),
		script:         scripthost.NewVMHost(),
		log:            log,
		viewportWidth:  fixed.FromFloat(viewportWidth),
		viewportHeight: fixed.FromFloat(viewportHeight),
	}
}

// Navigate implements process.FrameHost.
func (r *Renderer) Navigate(ctx context.Context, url string) (process.NavigationResult, error) {
	r.nav.Navigate(url)
	return r.loadAndRender(ctx, url)
}

// Reload implements process.FrameHost by re-fetching the current URL
// without touching the history vector.
func (r *Renderer) Reload(ctx context.Context) (process.NavigationResult, error) {
	cur := r.nav.Current()
	if cur == nil {
		return process.NavigationResult{Kind: process.NavFailed, FailedKind: process.FailUnknown}, fmt.Errorf("renderer: no current page to reload")
	}
	return r.loadAndRender(ctx, cur.URL)
}

// GoBack implements process.FrameHost, moving the history index back
// and re-rendering the entry now current.
func (r *Renderer) GoBack(ctx context.Context) (process.NavigationResult, error) {
	e := r.nav.GoBack()
	if e == nil {
		return process.NavigationResult{Kind: process.NavCancelled}, nil
	}
	return r.loadAndRender(ctx, e.URL)
}

// GoForward implements process.FrameHost, the GoBack mirror.
func (r *Renderer) GoForward(ctx context.Context) (process.NavigationResult, error) {
	e := r.nav.GoForward()
	if e == nil {
		return process.NavigationResult{Kind: process.NavCancelled}, nil
	}
	return r.loadAndRender(ctx, e.URL)
}

// Stop implements process.FrameHost. There is no in-flight cancellation
// plumbing yet (fetch/layout run synchronously within loadAndRender),
// so Stop only marks the tab as no longer loading.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loading = false
	return nil
}

// URL implements process.FrameHost.
func (r *Renderer) URL() string {
	if e := r.nav.Current(); e != nil {
		return e.URL
	}
	return ""
}

// Title implements process.FrameHost.
func (r *Renderer) Title() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.title
}

// IsLoading implements process.FrameHost.
func (r *Renderer) IsLoading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading
}

// LastLayout returns the most recently computed layout tree, or nil if
// no page has rendered yet. Exposed for a paint step (out of scope for
// this package) or for tests asserting on box geometry.
func (r *Renderer) LastLayout() *layout.Box {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastBox
}

func (r *Renderer) setLoading(v bool) {
	r.mu.Lock()
	r.loading = v
	r.mu.Unlock()
}

// loadAndRender fetches url, transitions the navigation state machine
// across its milestones, and on success parses/matches/lays out the
// response body, storing the result for LastLayout/Title.
func (r *Renderer) loadAndRender(ctx context.Context, url string) (process.NavigationResult, error) {
	r.setLoading(true)
	defer r.setLoading(false)

	_ = r.nav.Transition(navigation.Receiving)

	result, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		_ = r.nav.Transition(navigation.Failed)
		kind := process.FailUnknown
		var ferr *netfetch.FetchError
		if errors.As(err, &ferr) {
			kind = toFailureKind(ferr.Kind)
		}
		return process.NavigationResult{Kind: process.NavFailed, FailedKind: kind}, nil
	}

	_ = r.nav.Transition(navigation.Processing)

	store := domstore.New(nil)
	root, err := store.Insert(0, 0, domstore.KindDocument, "#document")
	if err != nil {
		_ = r.nav.Transition(navigation.Failed)
		return process.NavigationResult{Kind: process.NavFailed, FailedKind: process.FailUnknown}, err
	}
	sink := htmlsink.NewDOMBuilderSink(store, root)
	if err := html.ParseIntoSink(string(result.Body), sink); err != nil {
		_ = r.nav.Transition(navigation.Failed)
		return process.NavigationResult{Kind: process.NavFailed, FailedKind: process.FailUnknown}, err
	}

	matcher := selector.NewMatcher(store)
	var decls []map[string]string
	collectStylesheets(store, root, matcher, &decls)

	title := findTitle(store, root)

	scriptCtx := r.script.NewContext(url)
	runScripts(r.script, scriptCtx, store, root)
	r.sched.RunAll()

	box := layoutDocument(store, root, matcher, decls, r.viewportWidth, r.viewportHeight)

	r.mu.Lock()
	r.store = store
	r.matcher = matcher
	r.decls = decls
	r.scriptC = scriptCtx
	r.title = title
	r.lastBox = box
	r.mu.Unlock()

	_ = r.nav.Transition(navigation.Complete)
	return process.NavigationResult{Kind: process.NavSuccess, URL: url, Status: result.StatusCode}, nil
}

// ExecuteScript implements process.FrameHost: it evaluates src in the
// current page's script context and renders the result to text.
func (r *Renderer) ExecuteScript(ctx context.Context, src string) (string, error) {
	r.mu.Lock()
	scriptCtx := r.scriptC
	r.mu.Unlock()
	if scriptCtx == nil {
		return "", fmt.Errorf("renderer: no page loaded")
	}
	v, err := r.script.Eval(scriptCtx, src)
	if err != nil {
		return "", err
	}
	return stringifyJsVal(scriptCtx.VM(), v), nil
}

// stringifyJsVal renders a JsVal to text for ExecuteScript's string
// return, resolving string handles through vm's own table (see
// jsvm.VM.ResolveString) since a JsVal's string payload is only ever
// meaningful relative to the VM that interned it.
func stringifyJsVal(vm *jsvm.VM, v jsvalue.JsVal) string {
	switch v.TypeOf() {
	case jsvalue.TypeUndefined:
		return "undefined"
	case jsvalue.TypeNull:
		return "null"
	case jsvalue.TypeBoolean:
		return strconv.FormatBool(v.BoolValue())
	case jsvalue.TypeNumber:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case jsvalue.TypeString:
		return vm.ResolveString(v.Handle())
	default:
		return fmt.Sprintf("[%s]", v.TypeOf())
	}
}

// collectStylesheets walks store for <style> elements and registers
// every rule their content parses into onto matcher, appending each
// rule's declarations onto *decls in the same order matcher.AddRule
// assigns (so MatchedRule.Order indexes directly into *decls).
func collectStylesheets(store *domstore.Store, root domstore.NodeId, matcher *selector.Matcher, decls *[]map[string]string) {
	var walk func(id domstore.NodeId)
	walk = func(id domstore.NodeId) {
		children, err := store.Children(id)
		if err != nil {
			return
		}
		for _, child := range children {
			tag, _ := store.TagName(child)
			if tag == "style" {
				registerStylesheet(store, child, matcher, decls)
			}
			walk(child)
		}
	}
	walk(root)
}

func registerStylesheet(store *domstore.Store, styleNode domstore.NodeId, matcher *selector.Matcher, decls *[]map[string]string) {
	children, err := store.Children(styleNode)
	if err != nil {
		return
	}
	var src strings.Builder
	for _, c := range children {
		text, err := store.Text(c)
		if err == nil {
			src.WriteString(text)
		}
	}

	sink := css.NewStylesheetBuilderSink()
	if err := css.ParseStylesheetIntoSink(src.String(), sink); err != nil {
		return
	}
	for _, rule := range sink.Stylesheet().Rules {
		matcher.AddRule(selector.Parse(rule.Selector.Raw))
		*decls = append(*decls, rule.Declarations)
	}
}

func findTitle(store *domstore.Store, root domstore.NodeId) string {
	var found string
	var walk func(id domstore.NodeId) bool
	walk = func(id domstore.NodeId) bool {
		children, err := store.Children(id)
		if err != nil {
			return false
		}
		for _, child := range children {
			tag, _ := store.TagName(child)
			if tag == "title" {
				textChildren, _ := store.Children(child)
				var b strings.Builder
				for _, tc := range textChildren {
					t, err := store.Text(tc)
					if err == nil {
						b.WriteString(t)
					}
				}
				found = b.String()
				return true
			}
			if walk(child) {
				return true
			}
		}
		return false
	}
	walk(root)
	return found
}

// runScripts finds <script> elements with inline text content and
// Exec's each one in turn, the same single-pass-per-navigation model
// the teacher's Louis14Renderer.Render uses (one JS execution pass,
// re-layout after), minus the teacher's second render pass since
// paint is out of this package's scope.
func runScripts(host *scripthost.VMHost, ctx *scripthost.Context, store *domstore.Store, root domstore.NodeId) {
	var walk func(id domstore.NodeId)
	walk = func(id domstore.NodeId) {
		children, err := store.Children(id)
		if err != nil {
			return
		}
		for _, child := range children {
			tag, _ := store.TagName(child)
			if tag == "script" {
				textChildren, _ := store.Children(child)
				var b strings.Builder
				for _, tc := range textChildren {
					t, err := store.Text(tc)
					if err == nil {
						b.WriteString(t)
					}
				}
				if src := strings.TrimSpace(b.String()); src != "" {
					_ = host.Exec(ctx, src)
				}
			}
			walk(child)
		}
	}
	walk(root)
}

// layoutDocument converts the parsed document into a layout.Node tree,
// resolving each element's style from matcher/decls, and runs it
// through a fresh layout.Engine. The engine is built per navigation
// rather than held on Renderer: domstore.NodeId restarts from the same
// small integers on every domstore.New(), so a solution cache keyed by
// NodeId would serve stale boxes across navigations if reused.
func layoutDocument(store *domstore.Store, root domstore.NodeId, matcher *selector.Matcher, decls []map[string]string, viewportWidth, viewportHeight fixed.Q16) *layout.Box {
	node := buildLayoutNode(store, root, matcher, decls)
	engine := layout.NewEngine(0, nil)
	return engine.Layout(uint64(root), node, viewportWidth)
}

// nonRenderedTags holds elements whose content never becomes visible
// boxes: head-like metadata that the pipeline reads directly out of
// the DOM tree (collectStylesheets, findTitle, runScripts) rather than
// laying out.
var nonRenderedTags = map[string]bool{
	"style":  true,
	"script": true,
	"title":  true,
	"head":   true,
}

func buildLayoutNode(store *domstore.Store, id domstore.NodeId, matcher *selector.Matcher, decls []map[string]string) *layout.Node {
	kind, err := store.Kind(id)
	if err != nil {
		return &layout.Node{NodeID: uint64(id)}
	}
	if kind == domstore.KindText {
		text, _ := store.Text(id)
		return &layout.Node{NodeID: uint64(id), Text: text, Style: layout.Style{Display: layout.DisplayInline}}
	}

	node := &layout.Node{NodeID: uint64(id), Style: resolveStyle(store, id, matcher, decls)}
	children, _ := store.Children(id)
	for _, child := range children {
		if ck, err := store.Kind(child); err == nil && ck == domstore.KindElement {
			if tag, _ := store.TagName(child); nonRenderedTags[tag] {
				continue
			}
		}
		node.Children = append(node.Children, buildLayoutNode(store, child, matcher, decls))
	}
	return node
}

// resolveStyle merges every declaration block matching id, in the
// ascending-specificity/document-order sequence Matcher.Match already
// guarantees, so later entries in decls overwrite earlier ones exactly
// like cascade "last wins" — no separate cascade engine is needed.
func resolveStyle(store *domstore.Store, id domstore.NodeId, matcher *selector.Matcher, decls []map[string]string) layout.Style {
	merged := css.NewStyle()
	for _, matched := range matcher.Match(id) {
		if matched.Order < 0 || matched.Order >= len(decls) {
			continue
		}
		for prop, val := range decls[matched.Order] {
			merged.Set(prop, val)
		}
	}
	return cssStyleToLayoutStyle(merged)
}

func cssStyleToLayoutStyle(s *css.Style) layout.Style {
	var style layout.Style

	switch s.GetDisplay() {
	case css.DisplayInline:
		style.Display = layout.DisplayInline
	case css.DisplayInlineBlock:
		style.Display = layout.DisplayInlineBlock
	case css.DisplayNone:
		style.Display = layout.DisplayNone
	default:
		style.Display = layout.DisplayBlock
	}
	if display, ok := s.Get("display"); ok && display == "flex" {
		style.Display = layout.DisplayFlex
	}

	if w, ok := s.GetLength("width"); ok {
		style.Width = fixed.FromFloat(w)
		style.HasWidth = true
	}
	if h, ok := s.GetLength("height"); ok {
		style.Height = fixed.FromFloat(h)
		style.HasHeight = true
	}

	m := s.GetMargin()
	style.Margin = edgeFromBoxEdge(m)
	p := s.GetPadding()
	style.Padding = edgeFromBoxEdge(p)
	b := s.GetBorderWidth()
	style.Border = edgeFromBoxEdge(b)

	switch dir, _ := s.Get("flex-direction"); dir {
	case "row-reverse":
		style.FlexDirection = layout.FlexRowReverse
	case "column":
		style.FlexDirection = layout.FlexColumn
	case "column-reverse":
		style.FlexDirection = layout.FlexColumnReverse
	default:
		style.FlexDirection = layout.FlexRow
	}

	style.FlexGrow = parseFlexFactor(s, "flex-grow", 0)
	style.FlexShrink = parseFlexFactor(s, "flex-shrink", 1)

	if basis, ok := s.Get("flex-basis"); ok {
		if basis == "auto" {
			style.FlexBasisAuto = true
		} else if v, ok := css.ParseLength(basis); ok {
			style.FlexBasis = fixed.FromFloat(v)
			style.HasFlexBasis = true
		}
	} else {
		style.FlexBasisAuto = true
	}

	isRow := style.FlexDirection == layout.FlexRow || style.FlexDirection == layout.FlexRowReverse
	minProp, maxProp := "min-height", "max-height"
	if isRow {
		minProp, maxProp = "min-width", "max-width"
	}
	if v, ok := s.GetLength(minProp); ok {
		style.MinMainSize = fixed.FromFloat(v)
		style.HasMinMainSize = true
	}
	if v, ok := s.GetLength(maxProp); ok {
		style.MaxMainSize = fixed.FromFloat(v)
		style.HasMaxMainSize = true
	}

	return style
}

func edgeFromBoxEdge(e css.BoxEdge) layout.Edge {
	return layout.Edge{
		Top:    fixed.FromFloat(e.Top),
		Right:  fixed.FromFloat(e.Right),
		Bottom: fixed.FromFloat(e.Bottom),
		Left:   fixed.FromFloat(e.Left),
	}
}

func parseFlexFactor(s *css.Style, property string, fallback float64) fixed.Q16 {
	if val, ok := s.Get(property); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return fixed.FromFloat(f)
		}
	}
	return fixed.FromFloat(fallback)
}

func toFailureKind(k netfetch.Kind) process.FailureKind {
	switch k {
	case netfetch.KindNetwork:
		return process.FailNetwork
	case netfetch.KindDNS:
		return process.FailDNS
	case netfetch.KindSSL:
		return process.FailSSL
	case netfetch.KindHTTP:
		return process.FailHTTP
	case netfetch.KindBlocked:
		return process.FailBlocked
	case netfetch.KindTimeout:
		return process.FailTimeout
	default:
		return process.FailUnknown
	}
}
