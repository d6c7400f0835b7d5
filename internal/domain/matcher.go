package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MatchKind records how a sale was attributed to an entity.
type MatchKind string

const (
	MatchReference MatchKind = "reference"
	MatchDirect    MatchKind = "direct"
	MatchFuzzy     MatchKind = "fuzzy"
)

// Default fuzzy-match tolerances.
var (
	DefaultAmountTolerance = decimal.RequireFromString("0.05")
	DefaultTimeWindow      = 5 * time.Minute
)

// MatcherConfig tunes the fuzzy fallback.
type MatcherConfig struct {
	AmountTolerance decimal.Decimal
	TimeWindow      time.Duration
	// Strict makes an entry with several candidate obligations an error
	// instead of resolving it to the closest one.
	Strict bool
}

// Matcher attributes obligations to an entity using ledger references, the
// obligation's own entity and, as a best-effort repair for records whose
// reference was never written, an amount-and-time fuzzy match. Fuzzy matches
// are probabilistic.
type Matcher struct {
	cfg MatcherConfig
}

// NewMatcher creates a Matcher. Zero tolerances fall back to the defaults.
func NewMatcher(cfg MatcherConfig) *Matcher {
	if cfg.AmountTolerance.IsZero() {
		cfg.AmountTolerance = DefaultAmountTolerance
	}
	if cfg.TimeWindow <= 0 {
		cfg.TimeWindow = DefaultTimeWindow
	}
	return &Matcher{cfg: cfg}
}

// MatchedObligation is an obligation attributed to the entity and how.
type MatchedObligation struct {
	Obligation Obligation
	Kind       MatchKind
	EntryID    string
}

// Match returns the subset of sales attributable to entityID, in input order.
func (m *Matcher) Match(sales []Obligation, entries []LedgerEntry, entityID string) ([]Obligation, error) {
	matched, err := m.MatchReport(sales, entries, entityID)
	if err != nil {
		return nil, err
	}

	out := make([]Obligation, len(matched))
	for i := range matched {
		out[i] = matched[i].Obligation
	}
	return out, nil
}

// MatchReport is Match with the attribution kind of every result.
func (m *Matcher) MatchReport(sales []Obligation, entries []LedgerEntry, entityID string) ([]MatchedObligation, error) {
	referenced := make(map[string]string)
	var unreferenced []*LedgerEntry

	for i := range entries {
		e := &entries[i]
		if e.EntityID != entityID {
			continue
		}
		if e.HasReference() {
			if _, ok := referenced[e.ReferenceID]; !ok {
				referenced[e.ReferenceID] = e.ID
			}
			continue
		}
		if e.Category == CategorySale || e.Category == CategoryPurchase {
			unreferenced = append(unreferenced, e)
		}
	}

	kinds := make(map[int]MatchedObligation, len(sales))
	for i := range sales {
		s := sales[i]
		if entryID, ok := referenced[s.ID]; ok {
			kinds[i] = MatchedObligation{Obligation: s, Kind: MatchReference, EntryID: entryID}
			continue
		}
		if entityID != "" && s.EntityID == entityID {
			kinds[i] = MatchedObligation{Obligation: s, Kind: MatchDirect}
		}
	}

	for _, e := range unreferenced {
		idx, err := m.bestCandidate(sales, kinds, e)
		if err != nil {
			return nil, err
		}
		if idx < 0 {
			continue
		}
		kinds[idx] = MatchedObligation{Obligation: sales[idx], Kind: MatchFuzzy, EntryID: e.ID}
	}

	out := make([]MatchedObligation, 0, len(kinds))
	for i := range sales {
		if mo, ok := kinds[i]; ok {
			out = append(out, mo)
		}
	}
	return out, nil
}

// bestCandidate finds the unclaimed sale closest in time to e that lies
// within both tolerances. It returns -1 when there is none.
func (m *Matcher) bestCandidate(sales []Obligation, claimed map[int]MatchedObligation, e *LedgerEntry) (int, error) {
	best := -1
	var bestGap time.Duration
	candidates := 0

	for i := range sales {
		if _, ok := claimed[i]; ok {
			continue
		}
		s := &sales[i]
		if e.Amount.Sub(s.Total).Abs().GreaterThan(m.cfg.AmountTolerance) {
			continue
		}
		gap := absDuration(e.Timestamp.Sub(s.CompletedAt))
		if gap >= m.cfg.TimeWindow {
			continue
		}

		candidates++
		if best < 0 || gap < bestGap || (gap == bestGap && s.ID < sales[best].ID) {
			best = i
			bestGap = gap
		}
	}

	if m.cfg.Strict && candidates > 1 {
		return -1, fmt.Errorf("%w: entry %s has %d candidates", ErrAmbiguousMatch, e.ID, candidates)
	}

	return best, nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// Strict returns a copy of m that rejects ambiguous fuzzy matches.
func (m *Matcher) Strict() *Matcher {
	cfg := m.cfg
	cfg.Strict = true
	return &Matcher{cfg: cfg}
}
