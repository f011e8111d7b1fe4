package application

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/sikshyalaya/backend/internal/domain/entity"
	"github.com/sikshyalaya/backend/internal/domain/repository"
)

// In-memory fakes mirroring the Postgres repositories' contracts, including
// set semantics and wasInserted reporting.

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*entity.User{}}
}

func (r *memUserRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) Update(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memUserRepo) AddEnrolledCourse(_ context.Context, userID, courseID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.EnrolledCourseIDs = setAdd(u.EnrolledCourseIDs, courseID)
	return nil
}

func (r *memUserRepo) AddPremiumCourse(_ context.Context, userID, courseID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.PremiumCourseIDs = setAdd(u.PremiumCourseIDs, courseID)
	return nil
}

func setAdd(s []string, v string) []string {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

type memTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*entity.RefreshToken
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{tokens: map[string]*entity.RefreshToken{}}
}

func (r *memTokenRepo) Create(_ context.Context, t *entity.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.tokens[t.Token] = &cp
	return nil
}

func (r *memTokenRepo) GetByToken(_ context.Context, token string) (*entity.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memTokenRepo) DeleteByToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
	return nil
}

func (r *memTokenRepo) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, t := range r.tokens {
		if t.ExpiresAt.Before(cutoff) {
			delete(r.tokens, k)
			n++
		}
	}
	return n, nil
}

type memCourseRepo struct {
	mu      sync.Mutex
	courses map[string]*entity.Course
}

func newMemCourseRepo() *memCourseRepo {
	return &memCourseRepo{courses: map[string]*entity.Course{}}
}

func (r *memCourseRepo) Create(_ context.Context, c *entity.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.courses[c.ID] = &cp
	return nil
}

func (r *memCourseRepo) GetByID(_ context.Context, id string) (*entity.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memCourseRepo) List(_ context.Context, limit, offset int) ([]*entity.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.Course, 0, len(r.courses))
	for _, c := range r.courses {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memCourseRepo) Update(_ context.Context, c *entity.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courses[c.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *c
	r.courses[c.ID] = &cp
	return nil
}

func (r *memCourseRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courses[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.courses, id)
	return nil
}

func (r *memCourseRepo) SetThumbnail(_ context.Context, id, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.ThumbnailURL = url
	return nil
}

func (r *memCourseRepo) IncrementEnrollment(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.EnrollmentCount++
	return nil
}

type progressKey struct{ userID, courseID string }

type memProgressRepo struct {
	mu   sync.Mutex
	rows map[progressKey]*entity.UserProgress
}

func newMemProgressRepo() *memProgressRepo {
	return &memProgressRepo{rows: map[progressKey]*entity.UserProgress{}}
}

func (r *memProgressRepo) Get(_ context.Context, userID, courseID string) (*entity.UserProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[progressKey{userID, courseID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	cp.CompletedLessons = append([]string{}, p.CompletedLessons...)
	return &cp, nil
}

func (r *memProgressRepo) ensure(userID, courseID string, at time.Time) (*entity.UserProgress, bool) {
	k := progressKey{userID, courseID}
	if p, ok := r.rows[k]; ok {
		return p, false
	}
	p := &entity.UserProgress{
		UserID:           userID,
		CourseID:         courseID,
		CompletedLessons: []string{},
		EnrolledAt:       at,
		CreatedAt:        at,
		UpdatedAt:        at,
	}
	r.rows[k] = p
	return p, true
}

func (r *memProgressRepo) UpsertEnrollment(_ context.Context, userID, courseID string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, inserted := r.ensure(userID, courseID, at)
	return inserted, nil
}

func (r *memProgressRepo) UpsertPremium(_ context.Context, userID, courseID string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, inserted := r.ensure(userID, courseID, at)
	p.IsPremium = true
	if p.PurchasedAt == nil {
		p.PurchasedAt = &at
	}
	p.UpdatedAt = at
	return inserted, nil
}

func (r *memProgressRepo) SetLessonState(_ context.Context, userID, courseID, lessonID string, completed bool, at time.Time) (*entity.UserProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, _ := r.ensure(userID, courseID, at)
	if completed {
		p.CompletedLessons = setAdd(p.CompletedLessons, lessonID)
	} else {
		kept := p.CompletedLessons[:0]
		for _, l := range p.CompletedLessons {
			if l != lessonID {
				kept = append(kept, l)
			}
		}
		p.CompletedLessons = kept
	}
	p.LastAccessedLesson = lessonID
	p.UpdatedAt = at
	cp := *p
	cp.CompletedLessons = append([]string{}, p.CompletedLessons...)
	return &cp, nil
}

type memPaymentRepo struct {
	mu   sync.Mutex
	rows map[string]*entity.Payment // by transaction uuid
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{rows: map[string]*entity.Payment{}}
}

func (r *memPaymentRepo) Create(_ context.Context, p *entity.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[p.TransactionUUID]; ok {
		return repository.ErrDuplicate
	}
	cp := *p
	r.rows[p.TransactionUUID] = &cp
	return nil
}

func (r *memPaymentRepo) GetByTransactionUUID(_ context.Context, txnUUID string) (*entity.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[txnUUID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memPaymentRepo) MarkApplied(_ context.Context, txnUUID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[txnUUID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Status = entity.PaymentStatusApplied
	p.AppliedAt = &at
	return nil
}

func (r *memPaymentRepo) ListUnapplied(_ context.Context, cutoff time.Time, limit int) ([]*entity.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*entity.Payment{}
	for _, p := range r.rows {
		if p.Status == entity.PaymentStatusVerified && p.CreatedAt.Before(cutoff) {
			cp := *p
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// fakePublisher records published payloads; Fail makes publishing error.
type fakePublisher struct {
	mu       sync.Mutex
	Messages []any
	Fail     bool
}

func (p *fakePublisher) PublishJSON(_ context.Context, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Fail {
		return errors.New("publish failed")
	}
	p.Messages = append(p.Messages, body)
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Messages)
}

// fakeGateway answers verification calls with a fixed result and counts them.
type fakeGateway struct {
	OK    bool
	Err   error
	Calls int
}

func (g *fakeGateway) VerifyTransaction(_ context.Context, _, _, _ string) (bool, error) {
	g.Calls++
	return g.OK, g.Err
}

// fakeLatch mimics the Redis SETNX latch in memory.
type fakeLatch struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLatch() *fakeLatch { return &fakeLatch{held: map[string]bool{}} }

func (l *fakeLatch) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *fakeLatch) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

type fakeIndex struct {
	Docs    map[string]*entity.Course
	Queries []string
	Results []string
}

func newFakeIndex() *fakeIndex { return &fakeIndex{Docs: map[string]*entity.Course{}} }

func (i *fakeIndex) Index(_ context.Context, c *entity.Course) error {
	cp := *c
	i.Docs[c.ID] = &cp
	return nil
}

func (i *fakeIndex) Remove(_ context.Context, id string) error {
	delete(i.Docs, id)
	return nil
}

func (i *fakeIndex) Search(_ context.Context, query string, _ int) ([]string, error) {
	i.Queries = append(i.Queries, query)
	return i.Results, nil
}

type fakeStore struct {
	Objects map[string]string // objectPath -> contentType
}

func newFakeStore() *fakeStore { return &fakeStore{Objects: map[string]string{}} }

func (s *fakeStore) Upload(_ context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	s.Objects[objectPath] = contentType
	return "https://storage.googleapis.com/test-bucket/" + objectPath, nil
}
