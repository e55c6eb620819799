package client

import (
	"context"
	"errors"
	"sync"

	"github.com/pageza/recipebox/backend/internal/model"
	"github.com/pageza/recipebox/backend/internal/search"
)

// State is a Session's position in the pagination state machine.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateLoadingMore
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateLoadingMore:
		return "loading_more"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

var (
	// ErrBusy is returned when a request is already in flight.
	ErrBusy = errors.New("session: request in flight")
	// ErrStale is returned to a caller whose response arrived after a newer
	// Search replaced its session; the response was discarded.
	ErrStale = errors.New("session: superseded by a newer search")
	// ErrNoMore is returned by LoadMore when the last page was not full.
	ErrNoMore = errors.New("session: no more results")
	// ErrInvalidState is returned when an operation is not allowed in the
	// current state.
	ErrInvalidState = errors.New("session: invalid state for operation")
)

// Searcher runs one multi-row search. *Client implements it.
type Searcher interface {
	Search(ctx context.Context, f search.FilterRequest) (*Page, error)
}

// Snapshot is a consistent copy of a Session's observable state.
type Snapshot struct {
	State   State
	Filter  search.FilterRequest
	Results []model.RecipeSummary
	HasMore bool
	Err     error
}

type request struct {
	filter search.FilterRequest
	more   bool
}

// Session accumulates the pages of one logical search. A new Search resets
// it; LoadMore appends the next page using the last row's id as cursor.
// It is safe for concurrent use.
type Session struct {
	searcher Searcher

	mu       sync.Mutex
	state    State
	filter   search.FilterRequest
	results  []model.RecipeSummary
	cursor   uint
	hasMore  bool
	err      error
	gen      uint64
	inFlight bool
	last     request
}

// NewSession creates an idle session.
func NewSession(searcher Searcher) *Session {
	return &Session{searcher: searcher}
}

// Search starts a new logical search for f, discarding accumulated results
// and the cursor. It supersedes any in-flight request.
func (s *Session) Search(ctx context.Context, f search.FilterRequest) error {
	f.ID = 0
	f.AfterID = 0

	s.mu.Lock()
	s.gen++
	s.filter = f
	s.results = nil
	s.cursor = 0
	s.hasMore = false
	s.err = nil
	req := request{filter: f}
	gen := s.begin(StateLoading, req)
	s.mu.Unlock()

	return s.run(ctx, gen, req)
}

// LoadMore fetches the page after the cursor and appends it.
func (s *Session) LoadMore(ctx context.Context) error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.state != StateLoaded {
		s.mu.Unlock()
		return ErrInvalidState
	}
	if !s.hasMore {
		s.mu.Unlock()
		return ErrNoMore
	}
	req := request{filter: s.filter.WithAfterID(s.cursor), more: true}
	gen := s.begin(StateLoadingMore, req)
	s.mu.Unlock()

	return s.run(ctx, gen, req)
}

// Retry repeats the request that put the session into StateError.
func (s *Session) Retry(ctx context.Context) error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.state != StateError {
		s.mu.Unlock()
		return ErrInvalidState
	}
	req := s.last
	next := StateLoading
	if req.more {
		next = StateLoadingMore
	}
	s.err = nil
	gen := s.begin(next, req)
	s.mu.Unlock()

	return s.run(ctx, gen, req)
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		State:   s.state,
		Filter:  s.filter,
		Results: append([]model.RecipeSummary(nil), s.results...),
		HasMore: s.hasMore,
		Err:     s.err,
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// begin must be called with mu held.
func (s *Session) begin(next State, req request) uint64 {
	s.state = next
	s.inFlight = true
	s.last = req
	return s.gen
}

func (s *Session) run(ctx context.Context, gen uint64, req request) error {
	page, err := s.searcher.Search(ctx, req.filter)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return ErrStale
	}
	s.inFlight = false

	if err == nil && page == nil {
		err = ErrMalformedResponse
	}
	if err != nil {
		s.state = StateError
		s.err = err
		return err
	}

	if req.more {
		s.results = append(s.results, page.Recipes...)
	} else {
		s.results = append([]model.RecipeSummary(nil), page.Recipes...)
	}

	// Only a full page of an ordered search can be continued; browse
	// requests return a random sample with no cursor.
	s.hasMore = !req.filter.IsBrowse() && page.PageSize > 0 && len(page.Recipes) == page.PageSize
	if s.hasMore {
		s.cursor = page.Recipes[len(page.Recipes)-1].ID
	}
	s.state = StateLoaded
	return nil
}
