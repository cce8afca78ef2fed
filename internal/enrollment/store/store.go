// Package store persists the enrollment model as a single snapshot.
//
// The whole model is rewritten on every mutation; there are no partial
// updates. A missing snapshot loads as an empty model.
package store

import (
	"encoding/json"
	"fmt"

	"rosterlink/internal/enrollment/models"
	"rosterlink/pkg/platform/sentinel"
)

const snapshotVersion = 1

// snapshot is the persisted envelope around the model.
type snapshot struct {
	Version int          `json:"version"`
	Model   models.Model `json:"model"`
}

func encode(m models.Model) ([]byte, error) {
	payload, err := json.Marshal(snapshot{Version: snapshotVersion, Model: m})
	if err != nil {
		return nil, fmt.Errorf("marshal model snapshot: %w", err)
	}
	return payload, nil
}

func decode(payload []byte) (models.Model, error) {
	var snap snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return models.Model{}, fmt.Errorf("unmarshal model snapshot: %w: %w", sentinel.ErrCorrupt, err)
	}
	if snap.Version != snapshotVersion {
		return models.Model{}, fmt.Errorf("model snapshot version %d: %w", snap.Version, sentinel.ErrCorrupt)
	}
	// Clone normalizes nil maps left by an empty snapshot.
	return snap.Model.Clone(), nil
}
