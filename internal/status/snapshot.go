// internal/status/snapshot.go
package status

// Snapshot is what the SDK reports about itself at one instant.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health        uint16
	Modules       map[string]string // module name -> pending|loaded|failed
	Visualization bool
	ElapsedMs     int64 // since SDK construction
	Instances     int
	Subscribers   int
	Locale        string
}
