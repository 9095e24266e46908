package relay

import (
	"context"
	"errors"

	"backrelay/internal/backlog"
	logx "backrelay/pkg/logx"
)

const (
	// pageSize is the API maximum for one notifications page.
	pageSize = 100

	// pageLimit caps API calls per tenant per run. It bounds cost, not
	// correctness: a backlog deeper than pageLimit pages is deferred to
	// the next run (the watermark only advances to ids actually
	// scanned), never lost.
	pageLimit = 10
)

// NotificationLister is the one API call the fetcher needs. Satisfied
// by *backlog.Client.
type NotificationLister interface {
	Notifications(ctx context.Context, q backlog.NotificationsQuery) ([]backlog.Notification, error)
}

// FetchResult is what one tenant's incremental sync produced.
type FetchResult struct {
	// New holds the unread notifications with id > watermark, still in
	// scan (descending) order. The dispatcher re-sorts ascending.
	New []backlog.Notification

	// MaxID is the highest id observed across all scanned pages, read
	// or unread. Advancing the watermark to MaxID keeps already-read
	// items from being re-scanned forever.
	MaxID int64

	// Pages counts API calls made.
	Pages int
}

// Fetcher computes the exact set of notifications created since the
// watermark. The API only lists descending with a maxId upper bound —
// no "since" parameter — so the only correct discovery is to page
// backward from the newest item until an id at or below the watermark
// shows up.
type Fetcher struct {
	lister NotificationLister
	log    logx.Logger
}

func NewFetcher(lister NotificationLister, log logx.Logger) *Fetcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Fetcher{lister: lister, log: log}
}

func (f *Fetcher) Fetch(ctx context.Context, space, host, apiKey string, watermark int64) (FetchResult, error) {
	res := FetchResult{MaxID: watermark}

	var upper int64
	hasUpper := false

	for res.Pages < pageLimit {
		if hasUpper && upper <= 1 {
			// ids are positive; nothing older can exist
			break
		}

		q := backlog.NotificationsQuery{
			Space:  space,
			Host:   host,
			APIKey: apiKey,
			Count:  pageSize,
		}
		if hasUpper {
			q.MaxID = upper - 1
		}

		items, err := f.lister.Notifications(ctx, q)
		if errors.Is(err, backlog.ErrMalformed) {
			f.log.Warn("malformed notifications page; stopping pagination",
				logx.String("space", space), logx.Int("page", res.Pages+1))
			break
		}
		if err != nil {
			return FetchResult{}, err
		}
		res.Pages++

		if len(items) == 0 {
			break
		}

		reachedWatermark := false
		for i := range items {
			it := items[i]
			if it.ID > res.MaxID {
				res.MaxID = it.ID
			}
			if it.ID <= watermark {
				// Everything from here down was processed in an
				// earlier run.
				reachedWatermark = true
				break
			}
			if !it.AlreadyRead {
				res.New = append(res.New, it)
			}
		}
		if reachedWatermark {
			break
		}

		// Next page: strictly older than the oldest item we just saw.
		upper = items[len(items)-1].ID
		hasUpper = true
	}

	return res, nil
}
