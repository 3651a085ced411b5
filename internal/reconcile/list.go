// Package reconcile implements the list and leaf-settings reconciliation
// algorithms (component D): pairing current against desired items,
// emitting patch/put/delete actions, and planning a reorder pass against
// the resulting imagined state.
package reconcile

import (
	"fmt"

	"github.com/edirooss/mtsync/internal/action"
	"github.com/edirooss/mtsync/internal/idcodec"
	"github.com/edirooss/mtsync/internal/imagined"
	"github.com/edirooss/mtsync/internal/match"
	"github.com/edirooss/mtsync/internal/model"
)

// List reconciles one collection at path: current is the live snapshot
// from the device (each item carries model.IDKey), desired is the
// caller's declarative list (no ids). It returns, in order, every PATCH,
// PUT and DELETE from phase 1 followed by every POST /move from phase 2.
//
// nonMovable, if it contains path, suppresses phase 2 entirely.
func List(codec *idcodec.Codec, path string, current, desired []model.Item, nonMovable map[string]struct{}) ([]action.Action, error) {
	img := imagined.New(codec, current)

	var actions []action.Action

	pairs, unmatchedCurrent, unmatchedDesired := match.GreedyPairs(current, desired)

	for _, p := range pairs {
		c := current[p.CurrentIndex]
		d := desired[p.DesiredIndex]

		if needsPatch(c, d) {
			actions = append(actions, action.Action{
				Kind:        action.PATCH,
				Path:        fmt.Sprintf("%s/%s", path, c[model.IDKey]),
				SetDict:     d,
				CurrentDict: c,
			})
			img.Update(c[model.IDKey], d)
		}
	}

	for _, di := range unmatchedDesired {
		d := desired[di]
		actions = append(actions, action.Action{
			Kind:    action.PUT,
			Path:    path,
			SetDict: d,
		})
		img.Append(d)
	}

	for _, ci := range unmatchedCurrent {
		c := current[ci]
		actions = append(actions, action.Action{
			Kind:        action.DELETE,
			Path:        fmt.Sprintf("%s/%s", path, c[model.IDKey]),
			CurrentDict: c,
		})
		img.Delete(c[model.IDKey])
	}

	if _, skip := nonMovable[path]; skip {
		return actions, nil
	}

	reorder, err := planReorder(img, path, desired)
	if err != nil {
		return nil, err
	}
	return append(actions, reorder...), nil
}

// needsPatch reports whether setting d onto c would change anything: a key
// absent from c with a non-empty desired value, or a key present in c with
// a different desired value. A desired key with value "" that is simply
// absent from current is treated as "no change needed" — the asymmetry
// documented in DESIGN.md's "empty-string payload values" resolution.
func needsPatch(c, d model.Item) bool {
	for k, v := range d {
		if k == model.IDKey {
			continue
		}
		cv, ok := c[k]
		if !ok {
			if v != "" {
				return true
			}
			continue
		}
		if cv != v {
			return true
		}
	}
	return false
}

// planReorder walks desired left to right, comparing against the imagined
// state at the same position; whenever they disagree it looks ahead in the
// imagined state for the item that belongs there and moves it into place.
// Positions it cannot resolve are left as-is: phase 1 has already
// accounted for every item's presence, so a miss here means the add/remove
// phase already covered the discrepancy and reorder is best-effort.
func planReorder(img *imagined.List, path string, desired []model.Item) ([]action.Action, error) {
	var actions []action.Action

	for i := range desired {
		state := img.State()
		if i >= len(state) {
			break
		}
		if match.Equal(desired[i], state[i]) {
			continue
		}

		foundIdx := -1
		for j := i + 1; j < len(state); j++ {
			if match.Equal(desired[i], state[j]) {
				foundIdx = j
				break
			}
		}
		if foundIdx < 0 {
			continue
		}

		sourceID := state[foundIdx][model.IDKey]
		destID := state[i][model.IDKey]

		actions = append(actions, action.Action{
			Kind: action.POST,
			Path: path + "/move",
			SetDict: model.Item{
				"numbers":     sourceID,
				"destination": destID,
			},
		})

		if err := img.Move(sourceID, destID); err != nil {
			return nil, fmt.Errorf("reconcile: reorder %s: %w", path, err)
		}
	}

	return actions, nil
}
