// Package schedule drives graph.Graph.Run on a schedule — either a fixed
// tick or a cron expression — instead of the caller stepping it manually.
package schedule

import "context"

// Driver starts and stops a recurring invocation of some work function.
type Driver interface {
	Start(ctx context.Context) error
	Stop() error
}
