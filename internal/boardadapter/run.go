package boardadapter

import (
	"context"
	"time"
)

// Loop drives the board-walk state machine starting from maxItem:
// compute a window, subtract SeenIDs, fetch the remainder, submit
// anything useful, and persist the *entire* raw window into SeenIDs only
// after a successful submit — advancing maxItem either way (see
// DESIGN.md), so a single bad batch cannot wedge the walk on the same
// window forever.
type Loop struct {
	Adapter     *Adapter
	Submit      Submitter
	NumItems    int
	SubmitWait  time.Duration
	SubmitTries int
}

// Iterate runs a single window of the board-adapter walk and returns the
// next maxItem to use.
func (l *Loop) Iterate(ctx context.Context, maxItem int64) (int64, error) {
	window := Window(maxItem, l.NumItems)

	results, err := l.Adapter.FetchFresh(ctx, window)
	if err != nil {
		return maxItem - int64(l.NumItems), err
	}

	if len(results) == 0 {
		return maxItem - int64(l.NumItems), nil
	}

	if err := l.Submit.SubmitWithRetry(ctx, results, l.SubmitWait, l.SubmitTries); err != nil {
		return maxItem - int64(l.NumItems), err
	}

	if err := l.Adapter.Seen.Insert(window); err != nil {
		return maxItem - int64(l.NumItems), err
	}
	return maxItem - int64(l.NumItems), nil
}

// Run drives Iterate forever starting from an initial maxItem fetched
// from the board API, logging and sleeping iterationBackoff after any
// Iterate error before continuing the walk. If the initial MaxItem read
// fails, the error is passed to onError and Run returns without walking.
func (l *Loop) Run(ctx context.Context, iterationBackoff time.Duration, onError func(error)) {
	maxItem, err := l.Adapter.MaxItem(ctx)
	if err != nil {
		if onError != nil {
			onError(err)
		}
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		next, err := l.Iterate(ctx, maxItem)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(iterationBackoff):
			}
		}
		maxItem = next
	}
}
