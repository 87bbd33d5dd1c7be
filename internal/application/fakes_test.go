package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/example/calendar-share/internal/persistence"
)

type fakeDirectory struct {
	principals []persistence.Principal
	err        error
	filters    []persistence.PrincipalFilter
}

func (f *fakeDirectory) ListPrincipals(_ context.Context, filter persistence.PrincipalFilter) ([]persistence.Principal, error) {
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, f.err
	}

	sorted := append([]persistence.Principal(nil), f.principals...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var out []persistence.Principal
	for _, p := range sorted {
		if filter.Type != "" && p.Type != filter.Type {
			continue
		}
		if p.ID <= filter.AfterID {
			continue
		}
		out = append(out, p)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

type fakeIndex struct {
	entries map[string][]persistence.ShareIndexEntry
	err     error
	calls   int
}

func (f *fakeIndex) LookupShareLinks(_ context.Context, key string) ([]persistence.ShareIndexEntry, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.entries[key], nil
}

type fakeResources struct {
	resources []persistence.Resource
	err       error
}

func (f *fakeResources) ListResources(_ context.Context, accountID uint32, collection persistence.SyncCollection) ([]persistence.Resource, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []persistence.Resource
	for _, r := range f.resources {
		if r.AccountID == accountID && collection == persistence.SyncCollectionCalendar {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeArchives struct {
	records map[persistence.ArchiveKey][]byte
	err     error
}

func (f *fakeArchives) GetArchive(_ context.Context, key persistence.ArchiveKey) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.records[key]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	return data, nil
}

type stubResolver struct {
	target ShareTarget
	err    error
	calls  int
}

func (s *stubResolver) Resolve(context.Context, string) (ShareTarget, error) {
	s.calls++
	return s.target, s.err
}

type recordedResolution struct {
	stage, result string
}

type countingRecorder struct {
	mu          sync.Mutex
	resolutions []recordedResolution
	skipped     map[string]int
	events      map[string]int
	exports     map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		skipped: map[string]int{},
		events:  map[string]int{},
		exports: map[string]int{},
	}
}

func (r *countingRecorder) RecordResolution(_ context.Context, stage, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolutions = append(r.resolutions, recordedResolution{stage: stage, result: result})
}

func (r *countingRecorder) RecordSkippedToken(_ context.Context, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped[reason]++
}

func (r *countingRecorder) RecordEvent(_ context.Context, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[outcome]++
}

func (r *countingRecorder) RecordExport(_ context.Context, result string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exports[result]++
}

// acceptHash verifies a secret when the stored hash equals "hash-" + secret.
func acceptHash(hash, secret string) error {
	if hash == "hash-"+secret {
		return nil
	}
	return errMismatch
}

var errMismatch = errors.New("hash mismatch")

func acceptAll(string, string) error { return nil }
