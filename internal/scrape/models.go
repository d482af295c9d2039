package scrape

import "strings"

// ModelPrefix is the manufacturer prefix a model code must carry to be kept.
const ModelPrefix = "SM-"

// NormalizeModels derives the model code set from the free-text "Models"
// specification field: split on commas, keep the segment before the first
// "/", trim whitespace, and drop anything without the expected prefix.
// First-seen order is preserved and duplicates are dropped, so the
// operation is idempotent.
func NormalizeModels(raw string) []string {
	models := []string{}
	seen := map[string]struct{}{}
	for _, segment := range strings.Split(raw, ",") {
		model, _, _ := strings.Cut(segment, "/")
		model = strings.TrimSpace(model)
		if !strings.HasPrefix(model, ModelPrefix) {
			continue
		}
		if _, dup := seen[model]; dup {
			continue
		}
		seen[model] = struct{}{}
		models = append(models, model)
	}
	return models
}

// Supername returns the longest common prefix shared by all model codes.
// It is a grouping and sort key, not an identifier: zero models yield the
// empty string and a single model is its own supername.
func Supername(models []string) string {
	if len(models) == 0 {
		return ""
	}
	prefix := models[0]
	for _, model := range models[1:] {
		for !strings.HasPrefix(model, prefix) {
			prefix = prefix[:len(prefix)-1]
			if prefix == "" {
				return ""
			}
		}
	}
	return prefix
}
