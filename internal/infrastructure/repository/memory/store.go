package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/matchday/internal/domain/country"
	"github.com/riskibarqy/matchday/internal/domain/ingestion"
	"github.com/riskibarqy/matchday/internal/domain/jobscheduler"
	"github.com/riskibarqy/matchday/internal/domain/league"
	"github.com/riskibarqy/matchday/internal/domain/leaguestanding"
	"github.com/riskibarqy/matchday/internal/domain/match"
	"github.com/riskibarqy/matchday/internal/domain/matchevent"
	"github.com/riskibarqy/matchday/internal/domain/player"
	"github.com/riskibarqy/matchday/internal/domain/possession"
	"github.com/riskibarqy/matchday/internal/domain/season"
	"github.com/riskibarqy/matchday/internal/domain/team"
	"github.com/riskibarqy/matchday/internal/domain/teamstats"
)

// Store is an in-process stand-in for the relational store. All repositories
// created from one Store share its data, its per-match locks and its
// transactions.
type Store struct {
	mu sync.RWMutex

	countries     map[string]country.Country
	leagues       map[string]league.League
	seasons       map[string]season.Season
	teams         map[string]team.Team
	players       map[string]player.Player
	matches       map[string]match.Match
	events        map[string][]matchevent.Event
	intervals     map[string][]possession.Interval
	intervalMatch map[string]string
	counters      map[string]map[string]teamstats.Counters
	stats         map[string][]teamstats.MatchStats
	standings     map[string][]leaguestanding.Standing
	deductions    map[string][]leaguestanding.Deduction
	ingestions    map[string]ingestion.Log
	verifications map[string]ingestion.VerificationRecord
	dispatch      map[string]jobscheduler.DispatchEvent
	dispatchOrder []string

	lockMu     sync.Mutex
	matchLocks map[string]*sync.Mutex

	txMu sync.Mutex
}

func NewStore() *Store {
	return &Store{
		countries:     make(map[string]country.Country),
		leagues:       make(map[string]league.League),
		seasons:       make(map[string]season.Season),
		teams:         make(map[string]team.Team),
		players:       make(map[string]player.Player),
		matches:       make(map[string]match.Match),
		events:        make(map[string][]matchevent.Event),
		intervals:     make(map[string][]possession.Interval),
		intervalMatch: make(map[string]string),
		counters:      make(map[string]map[string]teamstats.Counters),
		stats:         make(map[string][]teamstats.MatchStats),
		standings:     make(map[string][]leaguestanding.Standing),
		deductions:    make(map[string][]leaguestanding.Deduction),
		ingestions:    make(map[string]ingestion.Log),
		verifications: make(map[string]ingestion.VerificationRecord),
		dispatch:      make(map[string]jobscheduler.DispatchEvent),
		matchLocks:    make(map[string]*sync.Mutex),
	}
}

// WithinTx runs fn as one canonical transaction. Canonical transactions are
// serialized; writes made through repositories with the ctx given to fn are
// undone when fn fails.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if journalFrom(ctx) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return s.atomically(ctx, fn)
}

func (s *Store) atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	if journalFrom(ctx) != nil {
		return fn(ctx)
	}
	j := &journal{}
	if err := fn(context.WithValue(ctx, journalKey{}, j)); err != nil {
		s.mu.Lock()
		j.rollback()
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) lockMatch(matchID string) func() {
	s.lockMu.Lock()
	lock, ok := s.matchLocks[matchID]
	if !ok {
		lock = &sync.Mutex{}
		s.matchLocks[matchID] = lock
	}
	s.lockMu.Unlock()

	lock.Lock()
	return lock.Unlock
}

type journalKey struct{}

// journal collects undo steps. Steps run with Store.mu held.
type journal struct {
	mu   sync.Mutex
	undo []func()
}

func (j *journal) rollback() {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

func journalFrom(ctx context.Context) *journal {
	j, _ := ctx.Value(journalKey{}).(*journal)
	return j
}

// onRollback registers an undo step when ctx belongs to a transaction.
func onRollback(ctx context.Context, undo func()) {
	j := journalFrom(ctx)
	if j == nil {
		return
	}
	j.mu.Lock()
	j.undo = append(j.undo, undo)
	j.mu.Unlock()
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
