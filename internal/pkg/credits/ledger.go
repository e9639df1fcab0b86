// Package credits owns the one-time job posting credit of an account. Every
// write of users.has_active_job_posting_plan goes through a Ledger.
package credits

import (
	"context"
	"errors"
	"fmt"

	"github.com/ManuelReschke/JobFox/app/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const creditColumn = "has_active_job_posting_plan"

// ErrAccountNotFound is returned when the referenced account does not exist.
var ErrAccountNotFound = errors.New("credits: account not found")

// Ledger grants and consumes credits. Both operations lock the account row
// for the duration of their transaction, so concurrent callers on the same
// account are serialized.
type Ledger struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewLedger(db *gorm.DB, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{db: db, log: log.Named("credits.ledger")}
}

// LockAccount loads the account row with FOR UPDATE inside tx.
func LockAccount(ctx context.Context, tx *gorm.DB, accountID uint) (*models.User, error) {
	var u models.User
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", accountID).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lock account %d: %w", accountID, err)
	}
	return &u, nil
}

// Grant sets the credit in its own transaction. Granting an account that
// already holds a credit changes nothing.
func (l *Ledger) Grant(ctx context.Context, accountID uint) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return l.GrantTx(ctx, tx, accountID)
	})
}

// GrantTx is Grant inside a caller-owned transaction.
func (l *Ledger) GrantTx(ctx context.Context, tx *gorm.DB, accountID uint) error {
	u, err := LockAccount(ctx, tx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			l.log.Warn("credit grant for unknown account", zap.Uint("account_id", accountID))
		}
		return err
	}
	if u.HasActiveJobPostingPlan {
		l.log.Debug("credit already granted", zap.Uint("account_id", accountID))
		return nil
	}
	if err := tx.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", accountID).
		Update(creditColumn, true).Error; err != nil {
		return fmt.Errorf("grant credit %d: %w", accountID, err)
	}
	l.log.Info("credit granted", zap.Uint("account_id", accountID))
	return nil
}

// Consume clears the credit in its own transaction. It reports whether a
// credit was actually spent; consuming an empty account is a no-op.
func (l *Ledger) Consume(ctx context.Context, accountID uint) (bool, error) {
	var consumed bool
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		consumed, err = l.ConsumeTx(ctx, tx, accountID)
		return err
	})
	return consumed, err
}

// ConsumeTx is Consume inside a caller-owned transaction.
func (l *Ledger) ConsumeTx(ctx context.Context, tx *gorm.DB, accountID uint) (bool, error) {
	u, err := LockAccount(ctx, tx, accountID)
	if err != nil {
		return false, err
	}
	if !u.HasActiveJobPostingPlan {
		l.log.Debug("no credit to consume", zap.Uint("account_id", accountID))
		return false, nil
	}
	res := tx.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND "+creditColumn+" = ?", accountID, true).
		Update(creditColumn, false)
	if res.Error != nil {
		return false, fmt.Errorf("consume credit %d: %w", accountID, res.Error)
	}
	consumed := res.RowsAffected == 1
	if consumed {
		l.log.Info("credit consumed", zap.Uint("account_id", accountID))
	}
	return consumed, nil
}

// Balance reports whether the account currently holds a credit.
func (l *Ledger) Balance(ctx context.Context, accountID uint) (bool, error) {
	var u models.User
	err := l.db.WithContext(ctx).Select("id", creditColumn).Where("id = ?", accountID).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrAccountNotFound
		}
		return false, err
	}
	return u.HasActiveJobPostingPlan, nil
}
