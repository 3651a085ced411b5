// Package engine implements the tree analyzer and action executor
// (component E): a concurrent recursive walk of the desired configuration
// tree that produces a flat action list, followed by a strictly serial
// dispatch of that list against the device.
//
// The engine depends on two collaborators it does not implement itself —
// Transport (the HTTP client to the device) and Reporter (progress
// rendering) — both specified here only as interfaces, so the core
// decision logic never depends on a concrete I/O implementation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/edirooss/mtsync/internal/action"
	"github.com/edirooss/mtsync/internal/idcodec"
	"github.com/edirooss/mtsync/internal/imagined"
	"github.com/edirooss/mtsync/internal/model"
	"github.com/edirooss/mtsync/internal/reconcile"
	"github.com/edirooss/mtsync/internal/tree"
)

// Error kinds surfaced to the top level.
var (
	ErrMalformedInput     = errors.New("engine: malformed input")
	ErrDeviceError        = errors.New("engine: device error")
	ErrInvariantViolation = errors.New("engine: invariant violation")
)

// Response is the parsed result of executing one Action. A nil Response
// (or one with an empty Error) means the device accepted the mutation.
type Response struct {
	Error  string
	Detail string
}

// Transport is the device REST client the engine depends on. Its
// implementation (connection setup, TLS, basic auth, retries-or-lack-
// thereof) lives outside the core, in internal/deviceapi.
type Transport interface {
	// GetCollection issues a GET against path with dynamic=false and a
	// .proplist restricted to proplist, returning the current items.
	GetCollection(ctx context.Context, path string, proplist []string) ([]model.Item, error)
	// GetLeaf issues a plain GET against path, returning the current
	// settings map.
	GetLeaf(ctx context.Context, path string) (model.Item, error)
	// Execute issues the HTTP call a.Kind maps to and returns the parsed
	// response, or nil if the body was empty.
	Execute(ctx context.Context, a action.Action) (*Response, error)
}

// Reporter observes analysis and execution progress. All methods must
// tolerate being called concurrently (analysis fans out across
// goroutines). A nil Options.Reporter is replaced by NopReporter{} in New.
type Reporter interface {
	AnalysisStarted()
	AnalysisDone(actions []action.Action)
	ActionStarting(a action.Action)
	ActionDone(a action.Action, err error)
	ActionSkipped(a action.Action, reason string)
}

// NopReporter discards every event.
type NopReporter struct{}

func (NopReporter) AnalysisStarted()                        {}
func (NopReporter) AnalysisDone(actions []action.Action)     {}
func (NopReporter) ActionStarting(a action.Action)           {}
func (NopReporter) ActionDone(a action.Action, err error)    {}
func (NopReporter) ActionSkipped(a action.Action, reason string) {}

// Options configures an Engine. The zero value is usable: it applies
// DefaultMaxConcurrentReads, reconcile.DefaultNonMovablePaths, a
// NopReporter and zap.NewNop().
type Options struct {
	// MaxConcurrentReads bounds how many GETs the analysis phase may have
	// in flight at once, protecting a small embedded device from a wide
	// desired tree opening too many simultaneous connections.
	MaxConcurrentReads int
	NonMovable         map[string]struct{}
	Reporter           Reporter
	Logger             *zap.Logger
}

// DefaultMaxConcurrentReads is used when Options.MaxConcurrentReads <= 0.
const DefaultMaxConcurrentReads = 8

// Engine ties the tree analyzer and action executor to one Transport.
type Engine struct {
	transport  Transport
	codec      *idcodec.Codec
	nonMovable map[string]struct{}
	reporter   Reporter
	log        *zap.Logger
	sem        chan struct{}
}

// New constructs an Engine. codec may be shared across Engines; it is
// safe for concurrent use.
func New(transport Transport, codec *idcodec.Codec, opts Options) *Engine {
	if opts.MaxConcurrentReads <= 0 {
		opts.MaxConcurrentReads = DefaultMaxConcurrentReads
	}
	if opts.NonMovable == nil {
		opts.NonMovable = reconcile.DefaultNonMovablePaths()
	}
	if opts.Reporter == nil {
		opts.Reporter = NopReporter{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Engine{
		transport:  transport,
		codec:      codec,
		nonMovable: opts.NonMovable,
		reporter:   opts.Reporter,
		log:        opts.Logger.Named("engine"),
		sem:        make(chan struct{}, opts.MaxConcurrentReads),
	}
}

// Analyze walks root (the desired tree with "metadata" already stripped)
// and returns the full, unsorted action list.
func (e *Engine) Analyze(ctx context.Context, root map[string]json.RawMessage) ([]action.Action, error) {
	e.reporter.AnalysisStarted()
	actions, err := e.analyzeChildren(ctx, "", root)
	if err != nil {
		return nil, err
	}
	e.reporter.AnalysisDone(actions)
	return actions, nil
}

// Run analyzes root, sorts the resulting actions, and executes them. It is
// the one-shot synchronizer entry point.
func (e *Engine) Run(ctx context.Context, root map[string]json.RawMessage) ([]action.Action, error) {
	actions, err := e.Analyze(ctx, root)
	if err != nil {
		return nil, err
	}
	if len(actions) == 0 {
		return actions, nil
	}
	action.SortStable(actions)
	if err := e.Execute(ctx, actions); err != nil {
		return actions, err
	}
	return actions, nil
}

func (e *Engine) analyzeChildren(ctx context.Context, path string, children map[string]json.RawMessage) ([]action.Action, error) {
	keys := make([]string, 0, len(children))
	for k := range children {
		keys = append(keys, k)
	}
	// Sorting keys only makes the *join order* deterministic for easier
	// testing/debugging; only the eventual union matters, not a
	// particular interleaving.
	sort.Strings(keys)

	results := make([][]action.Action, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	for i, k := range keys {
		i, k := i, k
		raw := children[k]
		g.Go(func() error {
			childPath := path + "/" + k
			acts, err := e.analyzeNode(gctx, childPath, raw)
			if err != nil {
				return err
			}
			results[i] = acts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []action.Action
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func (e *Engine) analyzeNode(ctx context.Context, path string, raw json.RawMessage) ([]action.Action, error) {
	node, err := tree.Classify(path, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	switch node.Kind {
	case tree.Null:
		return nil, nil
	case tree.Collection:
		return e.analyzeCollection(ctx, path, node.Items)
	case tree.Leaf:
		return e.analyzeLeaf(ctx, path, node.Settings)
	case tree.Container:
		return e.analyzeChildren(ctx, path, node.Children)
	default:
		return nil, fmt.Errorf("%w: %s: unrecognized node kind", ErrMalformedInput, path)
	}
}

func (e *Engine) analyzeCollection(ctx context.Context, path string, desired []model.Item) ([]action.Action, error) {
	proplist := unionKeys(desired)

	e.acquire()
	current, err := e.transport.GetCollection(ctx, path, proplist)
	e.release()
	if err != nil {
		return nil, fmt.Errorf("engine: GET %s: %w", path, err)
	}

	actions, err := reconcile.List(e.codec, path, current, desired, e.nonMovable)
	if err != nil {
		var ive *imagined.InvariantViolationError
		if errors.As(err, &ive) {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvariantViolation, path, err)
		}
		return nil, err
	}
	return actions, nil
}

func (e *Engine) analyzeLeaf(ctx context.Context, path string, desired model.Item) ([]action.Action, error) {
	e.acquire()
	current, err := e.transport.GetLeaf(ctx, path)
	e.release()
	if err != nil {
		return nil, fmt.Errorf("engine: GET %s: %w", path, err)
	}
	return reconcile.Dict(path, current, desired), nil
}

func (e *Engine) acquire() { e.sem <- struct{}{} }
func (e *Engine) release() { <-e.sem }

// Execute dispatches actions strictly sequentially, in the order given
// (callers must have already applied action.SortStable). The only
// tolerated device failure is a "no such command" response to a /move
// POST, which older firmware returns for collections not captured in the
// static non-movable set.
func (e *Engine) Execute(ctx context.Context, actions []action.Action) error {
	for _, a := range actions {
		e.reporter.ActionStarting(a)
		resp, err := e.transport.Execute(ctx, a)
		if err != nil {
			e.reporter.ActionDone(a, err)
			return fmt.Errorf("%w: %s %s: %v", ErrDeviceError, a.Kind, a.Path, err)
		}

		if resp != nil && resp.Error != "" {
			if strings.HasSuffix(a.Path, "/move") && resp.Detail == "no such command" {
				e.reporter.ActionSkipped(a, "device does not support move on this collection")
				continue
			}
			deviceErr := fmt.Errorf("%s (detail: %s)", resp.Error, resp.Detail)
			e.reporter.ActionDone(a, deviceErr)
			return fmt.Errorf("%w: %s %s: %v", ErrDeviceError, a.Kind, a.Path, deviceErr)
		}

		e.reporter.ActionDone(a, nil)
	}
	return nil
}

func unionKeys(items []model.Item) []string {
	set := map[string]struct{}{model.IDKey: {}}
	for _, it := range items {
		for k := range it {
			set[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
