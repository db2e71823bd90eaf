package core

import (
	"context"
	"errors"
	"fmt"
	"popstudy/pkg/sourceapi"

	"golang.org/x/sync/errgroup"
)

// fanOut calls every target concurrently, one worker each, and waits for all
// of them. Notices, returned or carried by a Table, are recorded on r. Any
// other failure, including a panic, is logged and the target contributes
// nothing. Only a connection-unavailable fault is returned, after every worker
// has finished.
func fanOut[S any, T any](ctx context.Context, r *run, targets []S, name func(S) string,
	call func(context.Context, S) (T, error), empty func(T) bool) ([]T, error) {
	values := make([]T, len(targets))
	got := make([]bool, len(targets))
	notes := make([][]string, len(targets))

	var g errgroup.Group
	g.SetLimit(len(targets))
	for i, target := range targets {
		i, target := i, target
		src := name(target)
		g.Go(func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					r.log.Error("source panicked", "source", src, "panic", fmt.Sprint(p))
					r.metrics.ObserveSource(r.op, src, OutcomeFailure)
					err = nil
				}
			}()
			v, callErr := call(ctx, target)
			if t, ok := any(v).(sourceapi.Table); ok && callErr == nil {
				notes[i] = append(notes[i], t.Notices...)
			}
			switch {
			case callErr == nil && empty(v):
				r.metrics.ObserveSource(r.op, src, OutcomeEmpty)
			case callErr == nil:
				values[i], got[i] = v, true
				r.metrics.ObserveSource(r.op, src, OutcomeData)
			case errors.Is(callErr, sourceapi.ErrConnectionUnavailable):
				r.metrics.ObserveSource(r.op, src, OutcomeFatal)
				return fmt.Errorf("source %s: %w", src, callErr)
			default:
				if n, ok := sourceapi.AsNotice(callErr); ok {
					r.log.Info("source notice", "source", src, "notice", n.Message)
					notes[i] = append(notes[i], n.Error())
					r.metrics.ObserveSource(r.op, src, OutcomeNotice)
					return nil
				}
				r.log.Error("source failed", "source", src, "error", callErr)
				r.metrics.ObserveSource(r.op, src, OutcomeFailure)
			}
			return nil
		})
	}
	err := g.Wait()
	for _, n := range notes {
		r.notice(n...)
	}
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(targets))
	for i, ok := range got {
		if ok {
			out = append(out, values[i])
		}
	}
	return out, nil
}

func sourceName(s sourceapi.Source) string { return s.Name() }

func annotationName(a sourceapi.AnnotationSource) string { return a.Name() }

func emptyTable(t sourceapi.Table) bool { return t.Empty() }

func keepEmpty(sourceapi.Table) bool { return false }

// requireData fails with NoDataError when no table survived the fan-out.
func requireData(r *run, tables []sourceapi.Table) error {
	if len(tables) == 0 {
		return &NoDataError{Notices: r.collected()}
	}
	return nil
}
