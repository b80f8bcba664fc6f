// Package workers runs the daemon's background loops. It defines the Worker
// interface and a Workers aggregate that starts every registered worker in
// a unified way.
package workers

// Worker is a background loop of the daemon. Run starts it; implementations
// either block for the duration of their work or spawn goroutines internally.
type Worker interface {
	Run()
}
