package obslog

import (
	"context"
	"fmt"

	"github.com/graph-gophers/dataloader"

	"samesky/pkg/models"
)

// Memo loads each date at most once per run.
type Memo struct {
	loader *dataloader.Loader
}

// NewMemo wraps inner with a per-date memoizing loader.
func NewMemo(inner Provider) *Memo {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		results := make([]*dataloader.Result, len(keys))
		for i, k := range keys {
			date, err := models.ParseDate(k.String())
			if err != nil {
				results[i] = &dataloader.Result{Error: err}
				continue
			}
			res, err := inner.ForDate(ctx, date)
			results[i] = &dataloader.Result{Data: res, Error: err}
		}
		return results
	}

	// Alerts are processed one at a time, so each key is dispatched immediately.
	loader := dataloader.NewBatchedLoader(batchFn, dataloader.WithBatchCapacity(1))
	return &Memo{loader: loader}
}

// ForDate returns the memoized result for date.
func (m *Memo) ForDate(ctx context.Context, date models.Date) (Result, error) {
	data, err := m.loader.Load(ctx, dataloader.StringKey(date.String()))()
	if err != nil {
		return Result{}, err
	}
	res, ok := data.(Result)
	if !ok {
		return Result{}, fmt.Errorf("memoized log for %s has type %T", date, data)
	}
	return res, nil
}
