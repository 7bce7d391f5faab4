//go:build noprom

package metrics

// Built with -tags noprom: Init keeps the no-op recorder.
func enablePrometheus(string) error { return nil }
