package billing

import (
	"context"

	"github.com/ManuelReschke/JobFox/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the billing service.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	UpsertBillingAccount(ctx context.Context, account *models.BillingAccount) error
	GetBillingAccountByUserID(ctx context.Context, provider string, userID uint) (*models.BillingAccount, error)
	GetBillingAccountByProviderAccountID(ctx context.Context, provider, providerAccountID string) (*models.BillingAccount, error)
	UpsertSubscription(ctx context.Context, sub *models.BillingSubscription) error
	ListSubscriptionsByUser(ctx context.Context, userID uint) ([]models.BillingSubscription, error)
	CountSubscriptionsWithStatus(ctx context.Context, userID uint, statuses []string) (int64, error)
	RecordProcessedEvent(ctx context.Context, event *models.ProcessedWebhookEvent) (bool, error)
	IsEventProcessed(ctx context.Context, provider, eventID string) (bool, error)
	UserExists(ctx context.Context, userID uint) (bool, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	return &gormRepository{db: tx}
}

func (r *gormRepository) UpsertBillingAccount(ctx context.Context, account *models.BillingAccount) error {
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_account_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id",
			"email",
			"updated_at",
		}),
	}).Create(account).Error; err != nil {
		return err
	}

	return db.Where("provider = ? AND provider_account_id = ?", account.Provider, account.ProviderAccountID).
		First(account).Error
}

func (r *gormRepository) GetBillingAccountByUserID(ctx context.Context, provider string, userID uint) (*models.BillingAccount, error) {
	var account models.BillingAccount
	err := r.db.WithContext(ctx).Where("provider = ? AND user_id = ?", provider, userID).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *gormRepository) GetBillingAccountByProviderAccountID(ctx context.Context, provider, providerAccountID string) (*models.BillingAccount, error) {
	var account models.BillingAccount
	err := r.db.WithContext(ctx).Where("provider = ? AND provider_account_id = ?", provider, providerAccountID).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *gormRepository) UpsertSubscription(ctx context.Context, sub *models.BillingSubscription) error {
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_subscription_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id",
			"provider_plan_ref",
			"internal_plan",
			"billing_interval",
			"status",
			"current_period_start",
			"current_period_end",
			"cancel_at_period_end",
			"raw_payload_json",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return db.Where("provider = ? AND provider_subscription_id = ?", sub.Provider, sub.ProviderSubscriptionID).
		First(sub).Error
}

func (r *gormRepository) ListSubscriptionsByUser(ctx context.Context, userID uint) ([]models.BillingSubscription, error) {
	var subs []models.BillingSubscription
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("updated_at DESC").Find(&subs).Error
	return subs, err
}

func (r *gormRepository) CountSubscriptionsWithStatus(ctx context.Context, userID uint, statuses []string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.BillingSubscription{}).
		Where("user_id = ? AND status IN ?", userID, statuses).
		Count(&n).Error
	return n, err
}

// RecordProcessedEvent inserts the event id unless it is already present and
// reports whether this call inserted it.
func (r *gormRepository) RecordProcessedEvent(ctx context.Context, event *models.ProcessedWebhookEvent) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) IsEventProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.ProcessedWebhookEvent{}).
		Where("provider = ? AND event_id = ?", provider, eventID).
		Count(&n).Error
	return n > 0, err
}

func (r *gormRepository) UserExists(ctx context.Context, userID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&n).Error
	return n > 0, err
}
