// Package tree decodes a desired-configuration JSON document into a tree of
// typed nodes, replacing the "first value by insertion order"
// classification (undefined on a Go map) with deterministic trial decoding.
package tree

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/edirooss/mtsync/internal/model"
	"github.com/edirooss/mtsync/pkg/jsonx"
)

// Kind tags what a node represents once classified.
type Kind int

const (
	// Null is a no-op node: the corresponding key is present with a JSON
	// null value, or absent entirely.
	Null Kind = iota
	// Collection is a list-valued subtree, reconciled by the list
	// reconciler against a REST collection endpoint.
	Collection
	// Leaf is a settings map reconciled against a single REST endpoint
	// via its "set" action.
	Leaf
	// Container is an intermediate mapping; the analyzer recurses into
	// its children.
	Container
)

// Node is one classified point in the desired tree.
type Node struct {
	Kind       Kind
	Items      []model.Item          // Collection
	Settings   model.Item            // Leaf
	Children   map[string]json.RawMessage // Container
}

// MetadataKey is consumed by settings loading and stripped from the tree
// before analysis.
const MetadataKey = "metadata"

// Decode strictly parses the root JSON document: it must be exactly one
// JSON object, with no trailing data after it (jsonx.DecodeObject). The
// top-level "metadata" key, if present, is extracted into metadata and
// removed from the returned root container before classification.
func Decode(raw []byte) (root map[string]json.RawMessage, metadata json.RawMessage, err error) {
	if err := jsonx.DecodeObject(bytes.NewReader(raw), &root); err != nil {
		return nil, nil, fmt.Errorf("tree: root document is not a JSON object: %w", err)
	}
	if m, ok := root[MetadataKey]; ok {
		metadata = m
		delete(root, MetadataKey)
	}
	return root, metadata, nil
}

// Classify determines what kind of node raw represents.
//
// Dispatch order: JSON null; then a list of string maps (Collection); then
// a non-empty map whose values are all strings (Leaf); then a map of
// further JSON values, or an empty map (Container); anything else
// (a bare scalar, a list of non-objects) is a decode error.
func Classify(path string, raw json.RawMessage) (Node, error) {
	trimmed := trimSpace(raw)
	if string(trimmed) == "null" || len(trimmed) == 0 {
		return Node{Kind: Null}, nil
	}

	if trimmed[0] == '[' {
		var items []model.Item
		if err := json.Unmarshal(raw, &items); err != nil {
			return Node{}, fmt.Errorf("tree: %s: expected a list of string maps: %w", path, err)
		}
		return Node{Kind: Collection, Items: items}, nil
	}

	if trimmed[0] != '{' {
		return Node{}, fmt.Errorf("tree: %s: expected an object, a list, or null", path)
	}

	var children map[string]json.RawMessage
	if err := json.Unmarshal(raw, &children); err != nil {
		return Node{}, fmt.Errorf("tree: %s: expected an object: %w", path, err)
	}

	// An empty object has nothing to classify as leaf settings; treat it
	// like an empty container (recursing into it yields no actions).
	if len(children) == 0 {
		return Node{Kind: Container, Children: children}, nil
	}

	if allStrings(children) {
		leaf := make(model.Item, len(children))
		for k, v := range children {
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return Node{}, fmt.Errorf("tree: %s: expected string value for %q: %w", path, k, err)
			}
			leaf[k] = s
		}
		return Node{Kind: Leaf, Settings: leaf}, nil
	}

	return Node{Kind: Container, Children: children}, nil
}

// allStrings reports whether every value in children decodes as a JSON
// string, the signal that distinguishes a leaf settings map from an
// intermediate container.
func allStrings(children map[string]json.RawMessage) bool {
	for _, v := range children {
		t := trimSpace(v)
		if len(t) == 0 || t[0] != '"' {
			return false
		}
	}
	return true
}

func trimSpace(b []byte) []byte {
	start, end := 0, len(b)
	for start < end && isSpace(b[start]) {
		start++
	}
	for end > start && isSpace(b[end-1]) {
		end--
	}
	return b[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
