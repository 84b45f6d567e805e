// internal/status/constants.go
package status

// Health codes reported for the SDK.
// These values are part of the status endpoint contract and MUST NOT be configurable.

// HealthUnknown represents the state before module loading starts.
const HealthUnknown uint16 = 0

// HealthLoading means third-party modules are still loading inside the budget.
const HealthLoading uint16 = 1

// HealthOK means the module readiness gate is open.
const HealthOK uint16 = 2

// HealthError means a module failed or the load budget elapsed first.
const HealthError uint16 = 3

// HealthClosed means the SDK has been torn down.
const HealthClosed uint16 = 4

// HealthName returns the wire name of a health code.
func HealthName(h uint16) string {
	switch h {
	case HealthLoading:
		return "loading"
	case HealthOK:
		return "ok"
	case HealthError:
		return "error"
	case HealthClosed:
		return "closed"
	default:
		return "unknown"
	}
}
