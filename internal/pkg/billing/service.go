package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ManuelReschke/JobFox/app/models"
	"github.com/ManuelReschke/JobFox/internal/pkg/apperror"
	"github.com/ManuelReschke/JobFox/internal/pkg/cache"
	"github.com/ManuelReschke/JobFox/internal/pkg/metrics"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const subscriptionCacheKeyPrefix = "subscription:active:"

// Service manages the Stripe customer link, checkout sessions and the
// subscription mirror.
type Service struct {
	repo     Repository
	cfg      Config
	checkout CheckoutAPI
	cache    cache.Store
	log      *zap.Logger
	metrics  metrics.Recorder
}

// Option configures a Service.
type Option func(*Service)

func WithCheckoutAPI(api CheckoutAPI) Option {
	return func(s *Service) { s.checkout = api }
}

func WithCache(store cache.Store) Option {
	return func(s *Service) { s.cache = store }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Service) { s.log = log }
}

func WithMetrics(rec metrics.Recorder) Option {
	return func(s *Service) { s.metrics = rec }
}

// NewService creates a billing service from an injected repository.
func NewService(repo Repository, cfg Config, opts ...Option) *Service {
	s := &Service{repo: repo, cfg: cfg, log: zap.NewNop(), metrics: metrics.Nop{}}
	for _, opt := range opts {
		opt(s)
	}
	if s.checkout == nil && cfg.SecretKey != "" {
		s.checkout = NewStripeAPI(cfg.SecretKey)
	}
	s.log = s.log.Named("billing.service")
	return s
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, cfg Config, opts ...Option) *Service {
	return NewService(NewRepository(db), cfg, opts...)
}

// Config returns the provider settings the service was built with.
func (s *Service) Config() Config { return s.cfg }

// EnsureCustomer returns the user's Stripe customer link, creating the
// customer at the provider on first use.
func (s *Service) EnsureCustomer(ctx context.Context, user *models.User) (*models.BillingAccount, error) {
	account, err := s.repo.GetBillingAccountByUserID(ctx, models.BillingProviderStripe, user.ID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if s.checkout == nil {
		return nil, errors.New("billing: provider client not configured")
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(user.Email),
		Name:  stripe.String(user.Username),
	}
	params.Metadata = map[string]string{"user_id": strconv.FormatUint(uint64(user.ID), 10)}
	customer, err := s.checkout.NewCustomer(ctx, params)
	if err != nil {
		return nil, upstreamError(err)
	}

	account = &models.BillingAccount{
		UserID:            user.ID,
		Provider:          models.BillingProviderStripe,
		ProviderAccountID: customer.ID,
		Email:             user.Email,
	}
	if err := s.repo.UpsertBillingAccount(ctx, account); err != nil {
		// A concurrent request may have linked a customer first.
		if existing, getErr := s.repo.GetBillingAccountByUserID(ctx, models.BillingProviderStripe, user.ID); getErr == nil {
			return existing, nil
		}
		return nil, err
	}
	s.log.Info("stripe customer linked", zap.Uint("user_id", user.ID), zap.String("customer", customer.ID))
	return account, nil
}

// CreateCheckoutSession asks the provider for a hosted payment page selling
// kind to user. The account id travels as client_reference_id.
func (s *Service) CreateCheckoutSession(ctx context.Context, user *models.User, kind CheckoutKind) (*CheckoutSession, error) {
	mode, price := stripe.CheckoutSessionModePayment, s.cfg.JobPostingPriceID
	if kind == CheckoutSubscription {
		mode, price = stripe.CheckoutSessionModeSubscription, s.cfg.UnlimitedPostingPriceID

		active, err := s.HasActiveSubscription(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if active {
			return nil, apperror.New(apperror.KindConflict, "AlreadySubscribed", "You already have an active subscription.")
		}
	}
	if price == "" {
		s.metrics.RecordCheckoutSession(string(mode), "misconfigured")
		return nil, fmt.Errorf("%w: %s", ErrPriceNotConfigured, kind)
	}

	account, err := s.EnsureCustomer(ctx, user)
	if err != nil {
		s.metrics.RecordCheckoutSession(string(mode), "failed")
		return nil, err
	}

	ref := strconv.FormatUint(uint64(user.ID), 10)
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(mode)),
		Customer:          stripe.String(account.ProviderAccountID),
		ClientReferenceID: stripe.String(ref),
		SuccessURL:        stripe.String(s.cfg.SuccessURL),
		CancelURL:         stripe.String(s.cfg.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(price), Quantity: stripe.Int64(1)},
		},
	}
	params.Metadata = map[string]string{"user_id": ref, "kind": string(kind)}
	if mode == stripe.CheckoutSessionModeSubscription {
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"user_id": ref},
		}
	}

	session, err := s.checkout.NewCheckoutSession(ctx, params)
	if err != nil {
		s.metrics.RecordCheckoutSession(string(mode), "failed")
		s.log.Warn("checkout session failed", zap.Uint("user_id", user.ID), zap.String("mode", string(mode)), zap.Error(err))
		return nil, upstreamError(err)
	}

	s.metrics.RecordCheckoutSession(string(mode), "created")
	s.log.Info("checkout session created",
		zap.Uint("user_id", user.ID),
		zap.String("mode", string(mode)),
		zap.String("session_id", session.ID))
	return &CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// HasActiveSubscription reports whether any mirrored subscription of the
// user is active. Results are cached; cache failures fall back to the DB.
func (s *Service) HasActiveSubscription(ctx context.Context, userID uint) (bool, error) {
	key := subscriptionCacheKey(userID)
	if s.cache != nil {
		val, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			return val == "1", nil
		case !errors.Is(err, cache.ErrMiss):
			s.log.Debug("subscription cache read failed", zap.Uint("user_id", userID), zap.Error(err))
		}
	}

	n, err := s.repo.CountSubscriptionsWithStatus(ctx, userID, entitlingStatuses)
	if err != nil {
		return false, err
	}
	active := n > 0

	if s.cache != nil {
		val := "0"
		if active {
			val = "1"
		}
		if err := s.cache.Set(ctx, key, val, s.cfg.SubscriptionCacheTTL); err != nil {
			s.log.Debug("subscription cache write failed", zap.Uint("user_id", userID), zap.Error(err))
		}
	}
	return active, nil
}

// InvalidateSubscription drops the cached subscription flag of a user.
func (s *Service) InvalidateSubscription(ctx context.Context, userID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, subscriptionCacheKey(userID)); err != nil {
		s.log.Warn("subscription cache invalidation failed", zap.Uint("user_id", userID), zap.Error(err))
	}
}

// ListSubscriptions returns the mirrored subscriptions of a user.
func (s *Service) ListSubscriptions(ctx context.Context, userID uint) ([]models.BillingSubscription, error) {
	return s.repo.ListSubscriptionsByUser(ctx, userID)
}

// SyncSubscription upserts provider subscription data through repo, which
// may be bound to a transaction.
func (s *Service) SyncSubscription(ctx context.Context, repo Repository, in NormalizedSubscription) (*models.BillingSubscription, error) {
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if in.UserID == 0 || provider == "" || strings.TrimSpace(in.ProviderSubscriptionID) == "" {
		return nil, errors.New("user_id, provider and provider_subscription_id are required")
	}

	status := strings.ToLower(strings.TrimSpace(in.Status))
	if status == "" {
		status = models.BillingStatusIncomplete
	}
	ref := strings.TrimSpace(in.ProviderPlanRef)

	sub := &models.BillingSubscription{
		UserID:                 in.UserID,
		Provider:               provider,
		ProviderSubscriptionID: strings.TrimSpace(in.ProviderSubscriptionID),
		ProviderPlanRef:        ref,
		InternalPlan:           planForPrice(s.cfg, ref),
		BillingInterval:        normalizeInterval(in.BillingInterval),
		Status:                 status,
		CurrentPeriodStart:     in.CurrentPeriodStart,
		CurrentPeriodEnd:       in.CurrentPeriodEnd,
		CancelAtPeriodEnd:      in.CancelAtPeriodEnd,
		RawPayloadJSON:         in.RawPayloadJSON,
	}
	if err := repo.UpsertSubscription(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func subscriptionCacheKey(userID uint) string {
	return subscriptionCacheKeyPrefix + strconv.FormatUint(uint64(userID), 10)
}

func upstreamError(err error) error {
	msg := "The billing provider could not process the request."
	var serr *stripe.Error
	if errors.As(err, &serr) && serr.Msg != "" {
		msg = serr.Msg
	}
	return apperror.Wrap(apperror.KindUpstreamBillingError, err, msg)
}
