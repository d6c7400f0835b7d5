package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/akib4796/omnishop-manager-sub000/internal/domain"
)

// BalanceUseCase derives entity balances and statements from the ledger.
type BalanceUseCase struct {
	entryRepo      LedgerEntryRepository
	obligationRepo ObligationRepository
	matcher        *domain.Matcher
	cache          Cache
	cacheTTL       time.Duration
	logger         zerolog.Logger
}

// NewBalanceUseCase creates a new BalanceUseCase. cache may be nil.
func NewBalanceUseCase(
	entryRepo LedgerEntryRepository,
	obligationRepo ObligationRepository,
	matcher *domain.Matcher,
	cache Cache,
	logger zerolog.Logger,
) *BalanceUseCase {
	return &BalanceUseCase{
		entryRepo:      entryRepo,
		obligationRepo: obligationRepo,
		matcher:        matcher,
		cache:          cache,
		cacheTTL:       DefaultBalanceCacheTTL,
		logger:         logger,
	}
}

// WithCacheTTL overrides how long computed balances stay cached.
func (uc *BalanceUseCase) WithCacheTTL(ttl time.Duration) *BalanceUseCase {
	if ttl > 0 {
		uc.cacheTTL = ttl
	}
	return uc
}

type cachedBalance struct {
	CreditTotal  string `json:"credit_total"`
	PaymentTotal string `json:"payment_total"`
	Balance      string `json:"balance"`
}

// GetBalance returns the outstanding balance of a customer (KindSale) or a
// supplier (KindPurchaseOrder).
func (uc *BalanceUseCase) GetBalance(ctx context.Context, tenantID, entityID string, kind domain.ObligationKind) (domain.EntityBalance, error) {
	if err := validateEntityRef(tenantID, entityID, kind); err != nil {
		return domain.EntityBalance{}, err
	}

	key := balanceCacheKey(tenantID, entityID, kind)
	if b, ok := uc.cachedBalance(ctx, key, entityID, kind); ok {
		return b, nil
	}

	entries, err := uc.entryRepo.List(ctx, domain.EntryFilter{TenantID: tenantID, EntityID: entityID})
	if err != nil {
		return domain.EntityBalance{}, err
	}

	b, err := domain.ComputeEntityBalance(entityID, kind, entries)
	if err != nil {
		return domain.EntityBalance{}, err
	}
	uc.storeBalance(ctx, key, b)

	return b, nil
}

func (uc *BalanceUseCase) cachedBalance(ctx context.Context, key, entityID string, kind domain.ObligationKind) (domain.EntityBalance, bool) {
	if uc.cache == nil {
		return domain.EntityBalance{}, false
	}

	raw, err := uc.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			uc.logger.Warn().Err(err).Str("key", key).Msg("balance cache read failed")
		}
		return domain.EntityBalance{}, false
	}

	var cb cachedBalance
	if err := json.Unmarshal([]byte(raw), &cb); err != nil {
		return domain.EntityBalance{}, false
	}

	creditTotal, err1 := decimal.NewFromString(cb.CreditTotal)
	paymentTotal, err2 := decimal.NewFromString(cb.PaymentTotal)
	balance, err3 := decimal.NewFromString(cb.Balance)
	if err1 != nil || err2 != nil || err3 != nil {
		return domain.EntityBalance{}, false
	}

	return domain.EntityBalance{
		EntityID:     entityID,
		Kind:         kind,
		CreditTotal:  creditTotal,
		PaymentTotal: paymentTotal,
		Balance:      balance,
	}, true
}

func (uc *BalanceUseCase) storeBalance(ctx context.Context, key string, b domain.EntityBalance) {
	if uc.cache == nil {
		return
	}

	raw, err := json.Marshal(cachedBalance{
		CreditTotal:  b.CreditTotal.String(),
		PaymentTotal: b.PaymentTotal.String(),
		Balance:      b.Balance.String(),
	})
	if err != nil {
		return
	}

	if err := uc.cache.Set(ctx, key, string(raw), uc.cacheTTL); err != nil {
		uc.logger.Warn().Err(err).Str("key", key).Msg("balance cache write failed")
	}
}

// StatementInput represents input for building an entity statement.
type StatementInput struct {
	TenantID string
	EntityID string
	Kind     domain.ObligationKind
	// Strict rejects fuzzy matches with more than one candidate.
	Strict bool
}

// StatementLine is one obligation on a statement.
type StatementLine struct {
	View      domain.ObligationView
	MatchKind domain.MatchKind
}

// Statement lists the obligations attributed to an entity next to its
// ledger-derived balance. Consistent is false when the recorded per-obligation
// dues do not add up to the balance, which calls for a rebuild.
type Statement struct {
	Balance    domain.EntityBalance
	Lines      []StatementLine
	TotalDue   decimal.Decimal
	Consistent bool
}

// Statement builds the statement of one customer or supplier.
func (uc *BalanceUseCase) Statement(ctx context.Context, input StatementInput) (*Statement, error) {
	if err := validateEntityRef(input.TenantID, input.EntityID, input.Kind); err != nil {
		return nil, err
	}

	entries, err := uc.entryRepo.List(ctx, domain.EntryFilter{TenantID: input.TenantID, EntityID: input.EntityID})
	if err != nil {
		return nil, err
	}

	obligations, err := uc.obligationRepo.List(ctx, domain.ObligationFilter{
		TenantID:          input.TenantID,
		EntityID:          input.EntityID,
		Kind:              input.Kind,
		IncludeUnassigned: true,
	})
	if err != nil {
		return nil, err
	}

	matcher := uc.matcher
	if input.Strict {
		matcher = uc.matcher.Strict()
	}

	matched, err := matcher.MatchReport(obligations, entries, input.EntityID)
	if err != nil {
		return nil, err
	}

	balance, err := domain.ComputeEntityBalance(input.EntityID, input.Kind, entries)
	if err != nil {
		return nil, err
	}

	stmt := &Statement{
		Balance: balance,
		Lines:   make([]StatementLine, 0, len(matched)),
	}

	credit := make([]domain.Obligation, 0, len(matched))
	for i := range matched {
		o := matched[i].Obligation
		stmt.Lines = append(stmt.Lines, StatementLine{View: o.View(), MatchKind: matched[i].Kind})
		credit = append(credit, o)
	}

	stmt.TotalDue = domain.SumDue(credit)
	stmt.Consistent = stmt.TotalDue.Equal(stmt.Balance.Balance)

	if !stmt.Consistent {
		uc.logger.Info().
			Str("tenant_id", input.TenantID).
			Str("entity_id", input.EntityID).
			Str("balance", stmt.Balance.Balance.String()).
			Str("total_due", stmt.TotalDue.String()).
			Msg("statement dues disagree with ledger balance")
	}

	return stmt, nil
}

func validateEntityRef(tenantID, entityID string, kind domain.ObligationKind) error {
	if err := domain.ValidateID(domain.ErrInvalidTenant, tenantID); err != nil {
		return err
	}

	if err := domain.ValidateID(domain.ErrInvalidEntity, entityID); err != nil {
		return err
	}

	if !kind.IsValid() {
		return fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidObligation, kind)
	}

	return nil
}

func balanceCacheKey(tenantID, entityID string, kind domain.ObligationKind) string {
	return fmt.Sprintf("balance:%s:%s:%s", tenantID, entityID, kind)
}

// invalidateBalances drops both cached balances of an entity. Failures are
// logged only; cached balances also expire on their own.
func invalidateBalances(ctx context.Context, cache Cache, logger zerolog.Logger, tenantID, entityID string) {
	if cache == nil {
		return
	}

	for _, kind := range []domain.ObligationKind{domain.KindSale, domain.KindPurchaseOrder} {
		key := balanceCacheKey(tenantID, entityID, kind)
		if err := cache.Delete(ctx, key); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("balance cache invalidation failed")
		}
	}
}
