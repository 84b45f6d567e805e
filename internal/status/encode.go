// internal/status/encode.go
package status

// Encode flattens a Snapshot for JSON responses.
// No IO. No side effects.
func Encode(s Snapshot) map[string]any {
	modules := make(map[string]string, len(s.Modules))
	for k, v := range s.Modules {
		modules[k] = v
	}

	return map[string]any{
		"health":        HealthName(s.Health),
		"health_code":   s.Health,
		"modules":       modules,
		"visualization": s.Visualization,
		"elapsed_ms":    s.ElapsedMs,
		"instances":     s.Instances,
		"subscribers":   s.Subscribers,
		"locale":        s.Locale,
	}
}
