package jobposting

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ManuelReschke/JobFox/app/models"
	"github.com/ManuelReschke/JobFox/internal/pkg/apperror"
	"github.com/ManuelReschke/JobFox/internal/pkg/credits"
	"github.com/ManuelReschke/JobFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/JobFox/internal/pkg/metrics"
	"github.com/ManuelReschke/JobFox/internal/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeSubs struct {
	active map[uint]bool
	err    error
}

func (f *fakeSubs) HasActiveSubscription(_ context.Context, userID uint) (bool, error) {
	return f.active[userID], f.err
}

type countingMetrics struct {
	metrics.Nop
	mu       sync.Mutex
	postings map[string]int
}

func (c *countingMetrics) RecordJobPosting(outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.postings == nil {
		c.postings = map[string]int{}
	}
	c.postings[outcome]++
}

func validInput(title string) models.JobInput {
	return models.JobInput{
		Title:       title,
		ApplyURL:    "https://acme.example/jobs/1",
		Description: "Build things.",
		TechTags:    []string{"Go", "go", " Postgres "},
	}
}

func newService(t *testing.T, subs *fakeSubs) (*Service, *gorm.DB, *countingMetrics) {
	t.Helper()
	db := testutil.NewDB(t)
	rec := &countingMetrics{}
	if subs == nil {
		subs = &fakeSubs{}
	}
	return NewService(db, credits.NewLedger(db, nil), subs, nil, rec), db, rec
}

func reasonOf(t *testing.T, err error) string {
	t.Helper()
	e, ok := apperror.As(err)
	require.True(t, ok, "expected an apperror, got %v", err)
	return e.Reason
}

func TestCreditIsSpentExactlyOnce(t *testing.T) {
	svc, db, rec := newService(t, nil)
	acct := testutil.CreateUser(t, db, "acme", models.ROLE_COMPANY, true)
	company := testutil.CreateCompany(t, db, acct, "Acme")
	ctx := context.Background()

	job, err := svc.Create(ctx, acct, validInput("J1"))
	require.NoError(t, err)
	assert.Equal(t, company.ID, job.CompanyID)
	require.NotNil(t, job.PostedByID)
	assert.Equal(t, acct.ID, *job.PostedByID)
	assert.Equal(t, []string{"go", "postgres"}, models.TagNames(job.TechTags))
	assert.False(t, testutil.Credit(t, db, acct.ID))

	_, err = svc.Create(ctx, acct, validInput("J2"))
	require.Error(t, err)
	assert.Equal(t, string(entitlements.ReasonNoCreditOrSubscription), reasonOf(t, err))
	assert.Equal(t, 403, apperror.Status(err))

	var count int64
	require.NoError(t, db.Model(&models.Job{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, 1, rec.postings[metrics.JobPostingCreated])
	assert.Equal(t, 1, rec.postings[metrics.JobPostingDenied])
}

func TestSubscriptionBypassesCredit(t *testing.T) {
	svc, db, _ := newService(t, nil)
	acct := testutil.CreateUser(t, db, "acme", models.ROLE_COMPANY, false)
	testutil.CreateCompany(t, db, acct, "Acme")
	svc.subs = &fakeSubs{active: map[uint]bool{acct.ID: true}}
	ctx := context.Background()

	for _, title := range []string{"J1", "J2", "J3"} {
		_, err := svc.Create(ctx, acct, validInput(title))
		require.NoError(t, err)
	}
	assert.False(t, testutil.Credit(t, db, acct.ID))
}

func TestSubscriptionLeavesCreditUntouched(t *testing.T) {
	svc, db, _ := newService(t, nil)
	acct := testutil.CreateUser(t, db, "acme", models.ROLE_COMPANY, true)
	testutil.CreateCompany(t, db, acct, "Acme")
	svc.subs = &fakeSubs{active: map[uint]bool{acct.ID: true}}

	_, err := svc.Create(context.Background(), acct, validInput("J1"))
	require.NoError(t, err)
	assert.True(t, testutil.Credit(t, db, acct.ID))
}

func TestCreateDenials(t *testing.T) {
	svc, db, _ := newService(t, nil)
	seeker := testutil.CreateUser(t, db, "seeker", models.ROLE_JOB_SEEKER, true)
	noProfile := testutil.CreateUser(t, db, "noprofile", models.ROLE_COMPANY, true)
	ctx := context.Background()

	_, err := svc.Create(ctx, nil, validInput("J"))
	assert.Equal(t, string(entitlements.ReasonNotAuthenticated), reasonOf(t, err))
	assert.Equal(t, 401, apperror.Status(err))

	_, err = svc.Create(ctx, seeker, validInput("J"))
	assert.Equal(t, string(entitlements.ReasonWrongRole), reasonOf(t, err))
	assert.True(t, testutil.Credit(t, db, seeker.ID))

	_, err = svc.Create(ctx, noProfile, validInput("J"))
	assert.Equal(t, string(entitlements.ReasonNoCompanyProfile), reasonOf(t, err))
	assert.True(t, testutil.Credit(t, db, noProfile.ID))
}

func TestCreateIgnoresStaleCallerState(t *testing.T) {
	svc, db, _ := newService(t, nil)
	acct := testutil.CreateUser(t, db, "acme", models.ROLE_COMPANY, true)
	testutil.CreateCompany(t, db, acct, "Acme")
	ctx := context.Background()

	_, err := svc.Create(ctx, acct, validInput("J1"))
	require.NoError(t, err)

	// acct still carries the credit flag it was loaded with.
	require.True(t, acct.HasActiveJobPostingPlan)
	_, err = svc.Create(ctx, acct, validInput("J2"))
	assert.Equal(t, string(entitlements.ReasonNoCreditOrSubscription), reasonOf(t, err))
}

func TestInvalidInputKeepsCredit(t *testing.T) {
	svc, db, rec := newService(t, nil)
	acct := testutil.CreateUser(t, db, "acme", models.ROLE_COMPANY, true)
	testutil.CreateCompany(t, db, acct, "Acme")

	in := validInput("J1")
	in.IsRemoteFriendly = true
	in.WorkMode = models.WorkModeOnsite
	_, err := svc.Create(context.Background(), acct, in)
	require.Error(t, err)

	e, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindValidationFailed, e.Kind)
	assert.Equal(t, "Remote-friendly jobs should be Remote or Hybrid.", e.Fields["work_mode"])
	assert.True(t, testutil.Credit(t, db, acct.ID))
	assert.Equal(t, 1, rec.postings[metrics.JobPostingInvalid])
}

func TestGuardRunsBeforeValidation(t *testing.T) {
	svc, db, _ := newService(t, nil)
	seeker := testutil.CreateUser(t, db, "seeker", models.ROLE_JOB_SEEKER, false)

	_, err := svc.Create(context.Background(), seeker, models.JobInput{})
	assert.Equal(t, string(entitlements.ReasonWrongRole), reasonOf(t, err))
}

func TestSubscriptionLookupFailureAborts(t *testing.T) {
	lookupErr := errors.New("lookup failed")
	svc, db, _ := newService(t, &fakeSubs{err: lookupErr})
	acct := testutil.CreateUser(t, db, "acme", models.ROLE_COMPANY, true)
	testutil.CreateCompany(t, db, acct, "Acme")

	_, err := svc.Create(context.Background(), acct, validInput("J1"))
	assert.ErrorIs(t, err, lookupErr)
	assert.True(t, testutil.Credit(t, db, acct.ID))
}

func TestConcurrentCreationsSpendOneCredit(t *testing.T) {
	svc, db, _ := newService(t, nil)
	acct := testutil.CreateUser(t, db, "acme", models.ROLE_COMPANY, true)
	testutil.CreateCompany(t, db, acct, "Acme")

	const n = 6
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(context.Background(), acct, validInput("J"))
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.True(t, apperror.IsKind(err, apperror.KindAuthorizationDenied), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, created)
	assert.False(t, testutil.Credit(t, db, acct.ID))
}

func TestEntitlementSummary(t *testing.T) {
	svc, db, _ := newService(t, nil)
	acct := testutil.CreateUser(t, db, "acme", models.ROLE_COMPANY, true)
	ctx := context.Background()

	d, _, err := svc.Entitlement(ctx, acct)
	require.NoError(t, err)
	assert.Equal(t, entitlements.ReasonNoCompanyProfile, d.Reason)

	testutil.CreateCompany(t, db, acct, "Acme")
	d, subscribed, err := svc.Entitlement(ctx, acct)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.False(t, subscribed)
	assert.Equal(t, entitlements.SourceCredit, d.Source)
	assert.True(t, testutil.Credit(t, db, acct.ID))
}

func TestUpdateAndDeleteRequireOwnership(t *testing.T) {
	svc, db, _ := newService(t, nil)
	owner := testutil.CreateUser(t, db, "acme", models.ROLE_COMPANY, true)
	testutil.CreateCompany(t, db, owner, "Acme")
	other := testutil.CreateUser(t, db, "globex", models.ROLE_COMPANY, false)
	testutil.CreateCompany(t, db, other, "Globex")
	admin := testutil.CreateUser(t, db, "root", models.ROLE_ADMIN, false)
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, validInput("J1"))
	require.NoError(t, err)
	job, err := svc.Get(ctx, created.UUID)
	require.NoError(t, err)

	in := job.ToInput()
	in.Title = "Hijacked"
	_, err = svc.Update(ctx, other, job, in)
	assert.Equal(t, "NotOwner", reasonOf(t, err))
	assert.Equal(t, "NotOwner", reasonOf(t, svc.Delete(ctx, other, job)))

	in = job.ToInput()
	in.Title = "Senior Gopher"
	in.TechTags = []string{"rust"}
	updated, err := svc.Update(ctx, owner, job, in)
	require.NoError(t, err)
	assert.Equal(t, "Senior Gopher", updated.Title)

	reloaded, err := svc.Get(ctx, created.UUID)
	require.NoError(t, err)
	assert.Equal(t, "Senior Gopher", reloaded.Title)
	assert.Equal(t, []string{"rust"}, models.TagNames(reloaded.TechTags))
	assert.Equal(t, created.CompanyID, reloaded.CompanyID)
	assert.Equal(t, owner.ID, *reloaded.PostedByID)

	require.NoError(t, svc.Delete(ctx, admin, reloaded))
	_, err = svc.Get(ctx, created.UUID)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestUpdateRevalidatesMergedRecord(t *testing.T) {
	svc, db, _ := newService(t, &fakeSubs{})
	owner := testutil.CreateUser(t, db, "acme", models.ROLE_COMPANY, true)
	testutil.CreateCompany(t, db, owner, "Acme")
	ctx := context.Background()

	in := validInput("J1")
	in.WorkMode = models.WorkModeOnsite
	created, err := svc.Create(ctx, owner, in)
	require.NoError(t, err)
	job, err := svc.Get(ctx, created.UUID)
	require.NoError(t, err)

	patch := job.ToInput()
	patch.IsRemoteFriendly = true
	_, err = svc.Update(ctx, owner, job, patch)
	assert.True(t, apperror.IsKind(err, apperror.KindValidationFailed))
}
