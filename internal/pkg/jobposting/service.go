// Package jobposting is the write path for job postings. Creation runs the
// entitlement guard, validates the input, inserts the job and consumes the
// posting credit in one transaction with the account row locked.
package jobposting

import (
	"context"
	"errors"
	"fmt"

	"github.com/ManuelReschke/JobFox/app/models"
	"github.com/ManuelReschke/JobFox/internal/pkg/apperror"
	"github.com/ManuelReschke/JobFox/internal/pkg/credits"
	"github.com/ManuelReschke/JobFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/JobFox/internal/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionChecker answers whether an account has unlimited posting.
type SubscriptionChecker interface {
	HasActiveSubscription(ctx context.Context, userID uint) (bool, error)
}

var errNotOwner = apperror.New(apperror.KindAuthorizationDenied, "NotOwner", "You can only manage jobs of your own company.")

type Service struct {
	db      *gorm.DB
	ledger  *credits.Ledger
	subs    SubscriptionChecker
	log     *zap.Logger
	metrics metrics.Recorder
}

func NewService(db *gorm.DB, ledger *credits.Ledger, subs SubscriptionChecker, log *zap.Logger, rec metrics.Recorder) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Service{db: db, ledger: ledger, subs: subs, log: log.Named("jobposting"), metrics: rec}
}

// Entitlement evaluates the guard for account without changing anything.
func (s *Service) Entitlement(ctx context.Context, account *models.User) (entitlements.Decision, bool, error) {
	if account == nil || account.ID == 0 {
		return entitlements.CanPostJob(nil, nil, false), false, nil
	}
	subscribed, err := s.subscribed(ctx, account)
	if err != nil {
		return entitlements.Decision{}, false, err
	}
	company, err := s.companyOf(s.db.WithContext(ctx), account.ID)
	if err != nil {
		return entitlements.Decision{}, false, err
	}
	return entitlements.CanPostJob(account, company, subscribed), subscribed, nil
}

// Create inserts a job for account's company. A credit-backed creation
// spends the credit; a failed creation leaves it untouched.
func (s *Service) Create(ctx context.Context, account *models.User, in models.JobInput) (*models.Job, error) {
	if account == nil || account.ID == 0 {
		s.metrics.RecordJobPosting(metrics.JobPostingDenied)
		return nil, entitlements.CanPostJob(nil, nil, false).Err()
	}

	// Looked up before the transaction so the lookup never waits on the row lock.
	subscribed, err := s.subscribed(ctx, account)
	if err != nil {
		s.metrics.RecordJobPosting(metrics.JobPostingFailed)
		return nil, err
	}

	var job *models.Job
	var decision entitlements.Decision
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := credits.LockAccount(ctx, tx, account.ID)
		if err != nil {
			if errors.Is(err, credits.ErrAccountNotFound) {
				return entitlements.CanPostJob(nil, nil, false).Err()
			}
			return err
		}
		company, err := s.companyOf(tx, locked.ID)
		if err != nil {
			return err
		}

		decision = entitlements.CanPostJob(locked, company, subscribed)
		if !decision.Allowed {
			return decision.Err()
		}
		if fields := models.ValidateJob(&in); fields != nil {
			return apperror.Validation(fields)
		}

		tags, err := models.FindOrCreateTags(tx, in.TechTags)
		if err != nil {
			return fmt.Errorf("resolve tech tags: %w", err)
		}
		job = models.NewJob(in, company.ID, &locked.ID)
		job.TechTags = tags
		if err := tx.Create(job).Error; err != nil {
			return fmt.Errorf("insert job: %w", err)
		}

		if decision.ConsumesCredit() {
			consumed, err := s.ledger.ConsumeTx(ctx, tx, locked.ID)
			if err != nil {
				return err
			}
			if !consumed {
				decision = entitlements.Decision{Reason: entitlements.ReasonNoCreditOrSubscription}
				return decision.Err()
			}
		}
		job.Company = company
		return nil
	})
	if err != nil {
		s.metrics.RecordJobPosting(outcomeFor(err))
		if !apperror.IsKind(err, apperror.KindAuthorizationDenied) && !apperror.IsKind(err, apperror.KindValidationFailed) {
			s.log.Error("job creation failed", zap.Uint("account_id", account.ID), zap.Error(err))
		}
		return nil, err
	}

	s.metrics.RecordJobPosting(metrics.JobPostingCreated)
	s.log.Info("job created",
		zap.Uint("account_id", account.ID),
		zap.String("job_id", job.UUID),
		zap.String("source", string(decision.Source)))
	return job, nil
}

// Get loads a job by its public id with company and tags.
func (s *Service) Get(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	err := s.db.WithContext(ctx).Preload("Company").Preload("TechTags").Where("uuid = ?", id).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNotFound, "JobNotFound", "Job not found.")
		}
		return nil, err
	}
	return &job, nil
}

// CanManage reports whether account may edit or delete job.
func (s *Service) CanManage(account *models.User, job *models.Job) error {
	if account == nil || account.ID == 0 {
		return entitlements.CanPostJob(nil, nil, false).Err()
	}
	if account.IsAdmin() {
		return nil
	}
	if job.Company == nil || job.Company.OwnerID != account.ID {
		return errNotOwner
	}
	return nil
}

// Update revalidates in and stores it on job. Company and poster stay as they were.
func (s *Service) Update(ctx context.Context, account *models.User, job *models.Job, in models.JobInput) (*models.Job, error) {
	if err := s.CanManage(account, job); err != nil {
		return nil, err
	}
	if fields := models.ValidateJob(&in); fields != nil {
		return nil, apperror.Validation(fields)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := models.FindOrCreateTags(tx, in.TechTags)
		if err != nil {
			return fmt.Errorf("resolve tech tags: %w", err)
		}
		in.Apply(job)
		if err := tx.Omit(clause.Associations).Save(job).Error; err != nil {
			return fmt.Errorf("update job: %w", err)
		}
		if err := tx.Model(job).Association("TechTags").Replace(tags); err != nil {
			return fmt.Errorf("replace tech tags: %w", err)
		}
		job.TechTags = tags
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("job updated", zap.Uint("account_id", account.ID), zap.String("job_id", job.UUID))
	return job, nil
}

// Delete removes job and its tag links.
func (s *Service) Delete(ctx context.Context, account *models.User, job *models.Job) error {
	if err := s.CanManage(account, job); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Select("TechTags").Delete(job).Error; err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	s.log.Info("job deleted", zap.Uint("account_id", account.ID), zap.String("job_id", job.UUID))
	return nil
}

func (s *Service) subscribed(ctx context.Context, account *models.User) (bool, error) {
	if s.subs == nil || !account.IsCompany() {
		return false, nil
	}
	return s.subs.HasActiveSubscription(ctx, account.ID)
}

func (s *Service) companyOf(db *gorm.DB, ownerID uint) (*models.Company, error) {
	var company models.Company
	err := db.Where("owner_id = ?", ownerID).First(&company).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}

func outcomeFor(err error) string {
	switch {
	case apperror.IsKind(err, apperror.KindAuthorizationDenied), apperror.IsKind(err, apperror.KindAuthenticationRequired):
		return metrics.JobPostingDenied
	case apperror.IsKind(err, apperror.KindValidationFailed):
		return metrics.JobPostingInvalid
	default:
		return metrics.JobPostingFailed
	}
}
