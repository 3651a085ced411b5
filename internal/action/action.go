// Package action defines the mutation actions the reconciler produces and
// the order they must execute in.
package action

import (
	"fmt"
	"sort"

	json "github.com/goccy/go-json"

	"github.com/edirooss/mtsync/internal/model"
)

// Kind tags the HTTP verb an Action maps to. The numeric values are the
// execution order: PATCH before PUT before DELETE before POST, so that
// patches land against known ids, inserts happen next, deletes renumber
// the id space last among mutations, and reorder POSTs — which depend on
// the final id layout — run only once everything else has settled.
type Kind int

const (
	PATCH Kind = 1
	PUT   Kind = 2
	DELETE Kind = 3
	POST  Kind = 4
)

func (k Kind) String() string {
	switch k {
	case PATCH:
		return "PATCH"
	case PUT:
		return "PUT"
	case DELETE:
		return "DELETE"
	case POST:
		return "POST"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Action is a single planned mutation against the device.
type Action struct {
	Kind        Kind
	Path        string
	SetDict     model.Item
	CurrentDict model.Item
}

// MarshalJSON renders the set dict as the action's body for logging/tests;
// CurrentDict is diagnostic-only and deliberately excluded from the wire
// representation.
func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string     `json:"kind"`
		Path string     `json:"path"`
		Set  model.Item `json:"set_dict,omitempty"`
	}{Kind: a.Kind.String(), Path: a.Path, Set: a.SetDict})
}

// Diff renders per-key before/after lines for human-readable output. It has
// no effect on execution; CurrentDict/SetDict are only ever compared here.
func (a Action) Diff() []string {
	keys := make(map[string]struct{})
	for k := range a.SetDict {
		if k != model.IDKey {
			keys[k] = struct{}{}
		}
	}
	for k := range a.CurrentDict {
		if k != model.IDKey {
			keys[k] = struct{}{}
		}
	}

	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	var lines []string
	for _, k := range sorted {
		left, hasLeft := a.CurrentDict[k]
		right, hasRight := a.SetDict[k]

		leftDisp, rightDisp := "[empty]", "[empty]"
		if hasLeft {
			leftDisp = left
		}
		if hasRight {
			rightDisp = right
		}
		if leftDisp != rightDisp {
			lines = append(lines, fmt.Sprintf("%s: %s -> %s", k, leftDisp, rightDisp))
		}
	}
	return lines
}

// SortStable orders actions by Kind, preserving relative order within a
// kind (pairing order for PATCH, desired-list order for PUT, current-list
// order for DELETE, per-collection order for POST). This is the only
// ordering the device observes.
func SortStable(actions []Action) {
	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].Kind < actions[j].Kind
	})
}
