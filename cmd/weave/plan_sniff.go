package main

import "encoding/json"

// looksLikePlan reports whether data is a JSON object with a top-level
// "actions" array, the shape a deployment plan (spec §6) always has.
func looksLikePlan(data []byte) bool {
	var probe struct {
		Actions []json.RawMessage `json:"actions"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	return probe.Actions != nil
}
