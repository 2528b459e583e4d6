// Package fetcher pulls paginated records from upstream HTTP sources and
// persists them behind a durable cursor.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"call-flow-processor/config"
	"call-flow-processor/repository"
)

// Fetcher polls one upstream source. It is generic over the record type;
// the three behaviors that differ per source are injected as functions.
type Fetcher[T any] struct {
	id      string
	cfg     config.SourceConfig
	client  *http.Client
	cursors repository.FetchCursorRepository
	logger  *log.Logger

	parse    func(raw json.RawMessage) (*T, error)
	store    func(ctx context.Context, batch []*T) error
	cursorOf func(record *T) int64
}

func New[T any](
	id string,
	cfg config.SourceConfig,
	cursors repository.FetchCursorRepository,
	logger *log.Logger,
	parse func(json.RawMessage) (*T, error),
	store func(context.Context, []*T) error,
	cursorOf func(*T) int64,
) *Fetcher[T] {
	if logger == nil {
		logger = log.Default()
	}
	return &Fetcher[T]{
		id:       id,
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		cursors:  cursors,
		logger:   logger,
		parse:    parse,
		store:    store,
		cursorOf: cursorOf,
	}
}

func (f *Fetcher[T]) ID() string { return f.id }

// RunCycle fetches one page and commits it. Upstream and cursor-read
// failures degrade to an empty page or cursor 0 so the loop stays alive;
// store failures propagate and abort the cycle.
func (f *Fetcher[T]) RunCycle(ctx context.Context) error {
	cursor := f.cursor(ctx)

	page := f.fetch(ctx, cursor)
	if len(page) == 0 {
		return nil
	}

	if err := f.store(ctx, page); err != nil {
		return fmt.Errorf("%s: store page: %w", f.id, err)
	}
	rowsStoredTotal.WithLabelValues(f.id).Add(float64(len(page)))

	next := cursor
	for _, rec := range page {
		if id := f.cursorOf(rec); id > next {
			next = id
		}
	}
	if next > cursor {
		if err := f.cursors.UpdateCursor(ctx, f.id, next); err != nil {
			// Transient cursor-write failure just repeats the page next tick.
			f.logger.Printf("%s: cursor update to %d failed: %v", f.id, next, err)
		}
	}
	return nil
}

// cursor reads the durable cursor, degrading to 0 on failure. Re-fetching
// old pages is safe because storage upserts by natural key.
func (f *Fetcher[T]) cursor(ctx context.Context) int64 {
	cursor, err := f.cursors.Cursor(ctx, f.id)
	if err != nil {
		f.logger.Printf("%s: cursor read failed, starting from 0: %v", f.id, err)
		return 0
	}
	return cursor
}

// fetch requests the next page. Any transport, status or payload problem
// yields an empty page; malformed rows are skipped individually.
func (f *Fetcher[T]) fetch(ctx context.Context, cursor int64) []*T {
	u, err := url.Parse(f.cfg.Endpoint)
	if err != nil {
		f.logger.Printf("%s: bad endpoint %q: %v", f.id, f.cfg.Endpoint, err)
		return nil
	}
	q := u.Query()
	q.Set("cursor", strconv.FormatInt(cursor, 10))
	q.Set("limit", strconv.Itoa(f.cfg.FetchLimit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		f.logger.Printf("%s: build request failed: %v", f.id, err)
		return nil
	}
	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Printf("%s: fetch failed: %v", f.id, err)
		pagesDiscardedTotal.WithLabelValues(f.id).Inc()
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.Printf("%s: fetch http status: %d", f.id, resp.StatusCode)
		pagesDiscardedTotal.WithLabelValues(f.id).Inc()
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		f.logger.Printf("%s: read response body failed: %v", f.id, err)
		pagesDiscardedTotal.WithLabelValues(f.id).Inc()
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		f.logger.Printf("%s: response is not a JSON array: %v", f.id, err)
		pagesDiscardedTotal.WithLabelValues(f.id).Inc()
		return nil
	}

	out := make([]*T, 0, len(items))
	for _, item := range items {
		rec, err := f.parse(item)
		if err != nil {
			f.logger.Printf("%s: skipping malformed row: %v", f.id, err)
			continue
		}
		out = append(out, rec)
	}
	return out
}
