package reconcile

import (
	"github.com/edirooss/mtsync/internal/action"
	"github.com/edirooss/mtsync/internal/model"
)

// Dict reconciles one leaf settings endpoint: current is the live GET
// response, desired is the caller's declarative map. If every desired key
// already has the desired value, Dict returns no actions; otherwise it
// returns a single POST to path+"/set" carrying the entire desired map —
// the device's set endpoint is idempotent and accepts partial payloads.
func Dict(path string, current, desired model.Item) []action.Action {
	for k, v := range desired {
		if current[k] != v {
			return []action.Action{{
				Kind:        action.POST,
				Path:        path + "/set",
				SetDict:     desired,
				CurrentDict: current,
			}}
		}
	}
	return nil
}
