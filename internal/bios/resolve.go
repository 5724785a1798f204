// Package bios resolves selected bio ids to bio records and stores bios.
package bios

import "proposal-generator/internal/model"

// Resolve maps ids to records from available, keeping the order of ids.
// Ids without a record are dropped.
func Resolve(ids []string, available []model.Bio) []model.Bio {
	byID := make(map[string]model.Bio, len(available))
	for _, b := range available {
		byID[b.ID] = b
	}

	out := make([]model.Bio, 0, len(ids))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			out = append(out, b)
		}
	}
	return out
}

// ToIDs projects bios to their ids.
func ToIDs(bios []model.Bio) []string {
	ids := make([]string, len(bios))
	for i, b := range bios {
		ids[i] = b.ID
	}
	return ids
}
