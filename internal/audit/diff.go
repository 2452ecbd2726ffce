// Package audit builds the change payloads stored on audit trail rows and
// ships committed entries to optional external destinations.
//
// Audit rows are written by the repositories inside the same transaction as
// the mutation they record; this package only computes the JSON payloads and
// handles post-commit delivery to external sinks. The payload shapes are part
// of the stored contract:
//
//	create:  the full field map of the new record
//	update:  changed field → [old, new], immutable fields skipped
//	delete:  {"deleted": true} plus a snapshot of the deleted record
//	convert: {"converted_to_disciple_id": <id>}
package audit

// Field maps passed to this package are the canonical AuditFields maps from
// the models package: values are strings, bools, integers, nil, or nested
// string-keyed maps. Timestamps arrive already normalized to ISO-8601 strings.

// CreateChanges returns the payload for a create action: the full new state.
func CreateChanges(state map[string]interface{}) map[string]interface{} {
	return state
}

// UpdateChanges returns the payload for an update action: each changed field
// mapped to a two-element [old, new] array. Fields named in immutable are
// never reported even if they differ. An empty map is a valid result and
// means the update was a no-op.
func UpdateChanges(oldState, newState map[string]interface{}, immutable ...string) map[string]interface{} {
	skip := make(map[string]bool, len(immutable))
	for _, f := range immutable {
		skip[f] = true
	}

	changes := make(map[string]interface{})
	for field, newVal := range newState {
		if skip[field] {
			continue
		}
		oldVal, ok := oldState[field]
		if !ok {
			oldVal = nil
		}
		if !valueEqual(oldVal, newVal) {
			changes[field] = []interface{}{oldVal, newVal}
		}
	}
	return changes
}

// DeleteChanges returns the payload for a delete action. The snapshot
// preserves the record's final state so deletions remain reconstructable
// from the trail alone.
func DeleteChanges(snapshot map[string]interface{}) map[string]interface{} {
	changes := map[string]interface{}{"deleted": true}
	if snapshot != nil {
		changes["snapshot"] = snapshot
	}
	return changes
}

// ConvertChanges returns the payload for a potential-to-disciple conversion.
func ConvertChanges(discipleID int64) map[string]interface{} {
	return map[string]interface{}{"converted_to_disciple_id": discipleID}
}

// valueEqual compares two canonical field values. Nested maps (contact_info)
// are compared structurally; a change anywhere inside reports as a change of
// the parent field.
func valueEqual(a, b interface{}) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case int:
		return intEqual(int64(av), b)
	case int64:
		return intEqual(av, b)
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			ov, present := bv[k]
			if !present || !valueEqual(v, ov) {
				return false
			}
		}
		return true
	}
	return false
}

// intEqual compares an int64 against a value that may be int or int64.
// JSON round-trips turn integers into float64, but canonical field maps are
// built in-process, so only the integer kinds need to match up.
func intEqual(a int64, b interface{}) bool {
	switch bv := b.(type) {
	case int:
		return a == int64(bv)
	case int64:
		return a == bv
	}
	return false
}
