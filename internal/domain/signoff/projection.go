package signoff

import "sort"

// Entry is the minimal slice of a ledger record the projections need.
type Entry struct {
	ID         uint64
	EntityType EntityType
	EntityID   string
	Action     Action
	CreatedAt  string
}

// EntityKey identifies one approvable artifact within a tenant+program scope.
type EntityKey struct {
	EntityType EntityType
	EntityID   string
}

// LatestByEntity projects an append-only history down to the authoritative
// record per entity: order by (created_at, id) ascending, take last. The id
// tie-break covers records created in the same instant.
func LatestByEntity(entries []Entry) map[EntityKey]Entry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt != sorted[j].CreatedAt {
			return sorted[i].CreatedAt < sorted[j].CreatedAt
		}
		return sorted[i].ID < sorted[j].ID
	})

	latest := make(map[EntityKey]Entry, len(sorted))
	for _, entry := range sorted {
		latest[EntityKey{EntityType: entry.EntityType, EntityID: entry.EntityID}] = entry
	}
	return latest
}

// Pending returns entities whose latest record exists but does not approve
// (revoked and never re-approved). Entities with no record at all never enter
// a history slice, so they are naturally excluded: not started, not pending.
func Pending(latest map[EntityKey]Entry) []Entry {
	out := make([]Entry, 0, len(latest))
	for _, entry := range latest {
		if !entry.Action.Approves() {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EntityType != out[j].EntityType {
			return out[i].EntityType < out[j].EntityType
		}
		return out[i].EntityID < out[j].EntityID
	})
	return out
}

// Tally is the per-entity-type roll-up of latest states.
type Tally struct {
	Total    int
	Approved int
	Revoked  int
	Override int
}

// Summarize counts latest records per entity type. An override approval
// counts toward both Override and Approved.
func Summarize(latest map[EntityKey]Entry) map[EntityType]Tally {
	out := make(map[EntityType]Tally)
	for key, entry := range latest {
		tally := out[key.EntityType]
		tally.Total++
		switch entry.Action {
		case ActionApproved:
			tally.Approved++
		case ActionOverrideApproved:
			tally.Approved++
			tally.Override++
		case ActionRevoked:
			tally.Revoked++
		}
		out[key.EntityType] = tally
	}
	return out
}
