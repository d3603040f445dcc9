package quirks

// MatchForTest exposes pattern-only resolution for external tests.
func MatchForTest(r *Registry, id string) Quirks {
	return r.match(id)
}

// KnownModelsForTest exposes the built-in table for external tests.
func KnownModelsForTest() map[string]Quirks {
	return knownModels
}
