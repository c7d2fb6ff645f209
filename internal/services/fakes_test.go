package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/mock"
	"github.com/yachtly/charter-service/internal/models"
	"github.com/yachtly/charter-service/internal/repositories"
	"github.com/yachtly/charter-service/internal/search"
	"github.com/yachtly/charter-service/internal/utils"
	"github.com/yachtly/charter-service/internal/verifyprovider"
)

// ---------------------------------------------------------------------
// phone verifications
// ---------------------------------------------------------------------

type fakeVerificationRepo struct {
	mu      sync.Mutex
	records []*models.PhoneVerification
	now     func() time.Time

	upsertErr error
	getErr    error
	incrErr   error
	// beforeWrite runs inside the lock ahead of a guarded attempt or expiry
	// write, standing in for a request that lands between read and write.
	beforeWrite func(rec *models.PhoneVerification)
}

func newFakeVerificationRepo(now func() time.Time) *fakeVerificationRepo {
	return &fakeVerificationRepo{now: now}
}

func (r *fakeVerificationRepo) UpsertPending(_ context.Context, p repositories.UpsertPendingParams) (*models.PhoneVerification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return nil, r.upsertErr
	}
	for _, rec := range r.records {
		if rec.UserID == p.UserID && rec.PhoneNumber == p.PhoneNumber &&
			rec.Kind == models.VerificationKindPhone && rec.Status == models.VerificationStatusPending {
			rec.Attempts = 0
			rec.MaxAttempts = p.MaxAttempts
			rec.ExpiresAt = p.ExpiresAt
			rec.ProviderSID = p.ProviderSID
			rec.ProviderStatus = p.ProviderStatus
			rec.UpdatedAt = r.now()
			cp := *rec
			return &cp, nil
		}
	}
	rec := &models.PhoneVerification{
		ID:             uuid.New(),
		UserID:         p.UserID,
		PhoneNumber:    p.PhoneNumber,
		Kind:           models.VerificationKindPhone,
		Status:         models.VerificationStatusPending,
		MaxAttempts:    p.MaxAttempts,
		ExpiresAt:      p.ExpiresAt,
		ProviderSID:    p.ProviderSID,
		ProviderStatus: p.ProviderStatus,
		CreatedAt:      r.now(),
		UpdatedAt:      r.now(),
	}
	r.records = append(r.records, rec)
	cp := *rec
	return &cp, nil
}

func (r *fakeVerificationRepo) GetLatestPending(_ context.Context, userID uuid.UUID, phone string) (*models.PhoneVerification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	for i := len(r.records) - 1; i >= 0; i-- {
		rec := r.records[i]
		if rec.UserID == userID && rec.PhoneNumber == phone && rec.Status == models.VerificationStatusPending {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeVerificationRepo) IncrementAttempts(_ context.Context, id uuid.UUID) (int, models.VerificationStatusType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.incrErr != nil {
		return 0, "", r.incrErr
	}
	rec := r.find(id)
	if rec == nil {
		return 0, "", utils.ErrNoRowsUpdated
	}
	r.runBeforeWrite(rec)
	if rec.Status != models.VerificationStatusPending {
		return 0, "", utils.ErrNoRowsUpdated
	}
	rec.Attempts++
	if rec.Attempts > rec.MaxAttempts {
		rec.Status = models.VerificationStatusFailed
	}
	return rec.Attempts, rec.Status, nil
}

func (r *fakeVerificationRepo) MarkExpired(_ context.Context, id uuid.UUID, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.find(id)
	if rec == nil {
		return utils.ErrNoRowsUpdated
	}
	r.runBeforeWrite(rec)
	if rec.Status != models.VerificationStatusPending || !rec.ExpiresAt.Before(now) {
		return utils.ErrNoRowsUpdated
	}
	rec.Status = models.VerificationStatusExpired
	return nil
}

func (r *fakeVerificationRepo) runBeforeWrite(rec *models.PhoneVerification) {
	if hook := r.beforeWrite; hook != nil {
		r.beforeWrite = nil
		hook(rec)
	}
}

func (r *fakeVerificationRepo) MarkPassed(_ context.Context, id uuid.UUID, verifiedAt time.Time, providerStatus *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.find(id)
	if rec == nil || rec.Status != models.VerificationStatusPending {
		return utils.ErrNoRowsUpdated
	}
	rec.Status = models.VerificationStatusPassed
	rec.VerifiedAt = &verifiedAt
	rec.ProviderStatus = providerStatus
	return nil
}

func (r *fakeVerificationRepo) ExpireStale(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, rec := range r.records {
		if rec.Status == models.VerificationStatusPending && rec.ExpiresAt.Before(now) {
			rec.Status = models.VerificationStatusExpired
			n++
		}
	}
	return n, nil
}

func (r *fakeVerificationRepo) find(id uuid.UUID) *models.PhoneVerification {
	for _, rec := range r.records {
		if rec.ID == id {
			return rec
		}
	}
	return nil
}

func (r *fakeVerificationRepo) snapshot() []models.PhoneVerification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.PhoneVerification, len(r.records))
	for i, rec := range r.records {
		out[i] = *rec
	}
	return out
}

// ---------------------------------------------------------------------
// users
// ---------------------------------------------------------------------

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[uuid.UUID]*models.User
	writes int
	// failUpdates makes every versioned write miss, as if another writer
	// always got there first.
	failUpdates bool
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[uuid.UUID]*models.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UpdateIfVersion(_ context.Context, u *models.User, expected int64) (pgconn.CommandTag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.users[u.ID]
	if !ok || r.failUpdates || cur.RowVersion != expected {
		return pgconn.CommandTag("UPDATE 0"), nil
	}
	cp := *u
	cp.RowVersion = expected + 1
	r.users[u.ID] = &cp
	r.writes++
	return pgconn.CommandTag("UPDATE 1"), nil
}

func (r *fakeUserRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.User) error) error {
	return repositories.WithRetry(ctx, 3, id.String(),
		func(ctx context.Context, raw string) (*models.User, error) {
			return r.GetByID(ctx, uuid.MustParse(raw))
		},
		r.UpdateIfVersion,
		mutate,
	)
}

func (r *fakeUserRepo) get(id uuid.UUID) models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.users[id]
}

// ---------------------------------------------------------------------
// transactions
// ---------------------------------------------------------------------

// fakeTransactor hands fn the shared fakes and puts their state back when
// fn fails, the way a rollback would.
type fakeTransactor struct {
	verifs *fakeVerificationRepo
	users  *fakeUserRepo
}

func (t *fakeTransactor) WithinTx(_ context.Context, fn func(tx repositories.VerificationTx) error) error {
	records := t.verifs.copyRecords()
	users := t.users.copyUsers()

	err := fn(repositories.VerificationTx{Verifications: t.verifs, Users: t.users})
	if err != nil {
		t.verifs.mu.Lock()
		t.verifs.records = records
		t.verifs.mu.Unlock()

		t.users.mu.Lock()
		t.users.users = users
		t.users.mu.Unlock()
	}
	return err
}

func (r *fakeVerificationRepo) copyRecords() []*models.PhoneVerification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.PhoneVerification, 0, len(r.records))
	for _, rec := range r.records {
		cp := *rec
		out = append(out, &cp)
	}
	return out
}

func (r *fakeUserRepo) copyUsers() map[uuid.UUID]*models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uuid.UUID]*models.User, len(r.users))
	for id, u := range r.users {
		cp := *u
		out[id] = &cp
	}
	return out
}

// ---------------------------------------------------------------------
// rate limits
// ---------------------------------------------------------------------

type fakeRateLimitRepo struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
}

func newFakeRateLimitRepo() *fakeRateLimitRepo {
	return &fakeRateLimitRepo{counts: map[string]int{}}
}

func (r *fakeRateLimitRepo) IncrementAndCheck(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	r.counts[key]++
	return r.counts[key] <= limit, nil
}

func (r *fakeRateLimitRepo) CleanupExpired(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.counts))
	r.counts = map[string]int{}
	return n, nil
}

// ---------------------------------------------------------------------
// provider
// ---------------------------------------------------------------------

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) StartVerification(ctx context.Context, phone, channel string) (*verifyprovider.StartResult, error) {
	args := m.Called(ctx, phone, channel)
	res, _ := args.Get(0).(*verifyprovider.StartResult)
	return res, args.Error(1)
}

func (m *mockProvider) CheckVerification(ctx context.Context, phone, code string) (*verifyprovider.CheckResult, error) {
	args := m.Called(ctx, phone, code)
	res, _ := args.Get(0).(*verifyprovider.CheckResult)
	return res, args.Error(1)
}

// ---------------------------------------------------------------------
// boats
// ---------------------------------------------------------------------

// fakeBoatRepo evaluates the Filter the test hands it in Go and records
// every Where it is given so tests can check page and count agree.
type fakeBoatRepo struct {
	mu     sync.Mutex
	boats  []*models.Boat
	filter search.Filter

	searchWheres []search.Where
	countWheres  []search.Where
	searchErr    error
	countErr     error
}

func (r *fakeBoatRepo) matching() []*models.Boat {
	var out []*models.Boat
	for _, b := range r.boats {
		if matchFilter(r.filter, b) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *fakeBoatRepo) Search(_ context.Context, where search.Where, _ search.SortKey, limit, offset int) ([]*models.Boat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searchWheres = append(r.searchWheres, where)
	if r.searchErr != nil {
		return nil, r.searchErr
	}
	all := r.matching()
	if offset >= len(all) {
		return []*models.Boat{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *fakeBoatRepo) Count(_ context.Context, where search.Where) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.countWheres = append(r.countWheres, where)
	if r.countErr != nil {
		return 0, r.countErr
	}
	return len(r.matching()), nil
}

func (r *fakeBoatRepo) GetActiveByID(_ context.Context, id uuid.UUID) (*models.Boat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.boats {
		if b.ID == id && b.IsActive {
			return b, nil
		}
	}
	return nil, nil
}

func (r *fakeBoatRepo) Create(_ context.Context, b *models.Boat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.boats = append(r.boats, b)
	return nil
}

// matchFilter mirrors the SQL predicates of search.Build.
func matchFilter(f search.Filter, b *models.Boat) bool {
	if !b.IsActive {
		return false
	}
	if len(f.Categories) > 0 {
		ok := false
		for _, c := range f.Categories {
			if b.Category == c {
				ok = true
			}
		}
		if !ok {
			return false
		}
	}
	if f.MinPrice != nil && b.PricePerDay < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && b.PricePerDay > *f.MaxPrice {
		return false
	}
	length := utils.Val(b.LengthFt)
	if f.MinLength != nil && length < *f.MinLength {
		return false
	}
	if f.MaxLength != nil && length > *f.MaxLength {
		return false
	}
	year := utils.Val(b.YearBuilt)
	if f.MinYear != nil && year < *f.MinYear {
		return false
	}
	if f.MaxYear != nil && year > *f.MaxYear {
		return false
	}
	if f.MinCapacity != nil && b.Capacity < *f.MinCapacity {
		return false
	}
	if f.MinCabins != nil && b.Cabins < *f.MinCabins {
		return false
	}
	if f.MinBathrooms != nil && b.Bathrooms < *f.MinBathrooms {
		return false
	}
	if f.Location != "" &&
		!strings.Contains(strings.ToLower(utils.Val(b.HomePort)), strings.ToLower(f.Location)) {
		return false
	}
	return hasAllFeatures(b.Features, f.Features)
}

func hasAllFeatures(have, wanted []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, f := range have {
		set[f] = struct{}{}
	}
	for _, w := range wanted {
		if _, ok := set[w]; !ok {
			return false
		}
	}
	return true
}

// countingCache is an in-memory search.Cache.
type countingCache struct {
	mu          sync.Mutex
	entries     map[string]*search.Result
	hits        int
	invalidated int
}

func newCountingCache() *countingCache {
	return &countingCache{entries: map[string]*search.Result{}}
}

func (c *countingCache) Get(_ context.Context, f search.Filter) (*search.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[search.FilterKey(f)]
	if ok {
		c.hits++
	}
	return r, ok
}

func (c *countingCache) Set(_ context.Context, f search.Filter, r *search.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[search.FilterKey(f)] = r
}

func (c *countingCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]*search.Result{}
	c.invalidated++
	return nil
}

var errStoreDown = errors.New("connection refused")
