// File: internal/dataset/loader.go

// Package dataset loads the two static JSON resources the pipeline runs on:
// the incident list and the root-cause lookup. Each resource is fetched at
// most once per Loader lifetime; concurrent callers share the in-flight
// fetch and later callers get the cached decode. A failed load is surfaced
// as a *FetchError and the caller decides whether to Reset and retry.
package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/defiwatchers/rektscope/internal/incident"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Resource identifies one of the datasets a Loader manages.
type Resource string

const (
	ResourceIncidents  Resource = "incidents"
	ResourceRootCauses Resource = "root_causes"
)

// FetchError reports a failed resource load. It is the only pipeline error
// that should reach the user; everything downstream degrades silently.
type FetchError struct {
	Resource Resource
	Source   string
	// Status is the HTTP status code when the failure was an HTTP error
	// response, zero for transport or filesystem failures.
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetching %s from %s: HTTP %d", e.Resource, e.Source, e.Status)
	}
	return fmt.Sprintf("fetching %s from %s: %v", e.Resource, e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Loader fetches, decodes and caches the datasets. Sources may be http(s)
// URLs or local file paths; local snapshots keep the tool usable offline.
type Loader struct {
	client *http.Client
	logger *zap.Logger

	incidentsSrc  string
	rootCausesSrc string

	group singleflight.Group

	mu         sync.RWMutex
	incidents  []incident.Incident
	rootCauses incident.RootCauseLookup
}

// NewLoader creates a Loader for the two dataset sources. A nil client gets
// a timeout-bounded default.
func NewLoader(incidentsSrc, rootCausesSrc string, client *http.Client, logger *zap.Logger) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		client:        client,
		logger:        logger.Named("dataset"),
		incidentsSrc:  incidentsSrc,
		rootCausesSrc: rootCausesSrc,
	}
}

// Incidents returns the incident list, fetching it on first use. All
// concurrent callers share a single fetch.
func (l *Loader) Incidents(ctx context.Context) ([]incident.Incident, error) {
	l.mu.RLock()
	cached := l.incidents
	l.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	_, err, _ := l.group.Do(string(ResourceIncidents), func() (interface{}, error) {
		// Re-check under the flight lock: a previous flight may have
		// populated the cache between our read and this call.
		l.mu.RLock()
		done := l.incidents != nil
		l.mu.RUnlock()
		if done {
			return nil, nil
		}

		body, err := l.fetch(ctx, ResourceIncidents, l.incidentsSrc)
		if err != nil {
			return nil, err
		}

		var rows []incident.Incident
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, &FetchError{Resource: ResourceIncidents, Source: l.incidentsSrc, Err: err}
		}
		if rows == nil {
			rows = []incident.Incident{}
		}

		l.logger.Info("Incident dataset loaded",
			zap.String("source", l.incidentsSrc),
			zap.Int("records", len(rows)),
		)
		l.mu.Lock()
		l.incidents = rows
		l.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.incidents, nil
}

// RootCauses returns the root-cause lookup, fetching it on first use.
func (l *Loader) RootCauses(ctx context.Context) (incident.RootCauseLookup, error) {
	l.mu.RLock()
	cached := l.rootCauses
	l.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	_, err, _ := l.group.Do(string(ResourceRootCauses), func() (interface{}, error) {
		l.mu.RLock()
		done := l.rootCauses != nil
		l.mu.RUnlock()
		if done {
			return nil, nil
		}

		body, err := l.fetch(ctx, ResourceRootCauses, l.rootCausesSrc)
		if err != nil {
			return nil, err
		}

		var lookup incident.RootCauseLookup
		if err := json.Unmarshal(body, &lookup); err != nil {
			return nil, &FetchError{Resource: ResourceRootCauses, Source: l.rootCausesSrc, Err: err}
		}
		if lookup == nil {
			lookup = incident.RootCauseLookup{}
		}

		l.logger.Info("Root-cause dataset loaded",
			zap.String("source", l.rootCausesSrc),
			zap.Int("entries", len(lookup)),
		)
		l.mu.Lock()
		l.rootCauses = lookup
		l.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rootCauses, nil
}

// LoadAll fetches both datasets concurrently and waits for both: the
// normalizer needs the pair, so this is a join, not a race.
func (l *Loader) LoadAll(ctx context.Context) ([]incident.Incident, incident.RootCauseLookup, error) {
	var (
		rows   []incident.Incident
		lookup incident.RootCauseLookup
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = l.Incidents(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		lookup, err = l.RootCauses(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return rows, lookup, nil
}

// Reset drops the cached datasets so the next access re-fetches from
// scratch. This is the user-initiated retry path after a FetchError.
func (l *Loader) Reset() {
	l.mu.Lock()
	l.incidents = nil
	l.rootCauses = nil
	l.mu.Unlock()
	l.logger.Debug("Dataset caches cleared")
}

// fetch reads the raw bytes of a source, over HTTP for URLs and from the
// filesystem otherwise.
func (l *Loader) fetch(ctx context.Context, res Resource, src string) ([]byte, error) {
	if src == "" {
		return nil, &FetchError{Resource: res, Source: src, Err: fmt.Errorf("no source configured")}
	}

	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		body, err := os.ReadFile(src)
		if err != nil {
			return nil, &FetchError{Resource: res, Source: src, Err: err}
		}
		return body, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, &FetchError{Resource: res, Source: src, Err: err}
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &FetchError{Resource: res, Source: src, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Resource: res, Source: src, Status: resp.StatusCode, Err: fmt.Errorf("unexpected status")}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Resource: res, Source: src, Err: err}
	}
	return body, nil
}
