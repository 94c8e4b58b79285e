package store

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gyanpath/lms-backend/internal/models"
)

// In-memory stores with the same conditional-update semantics as the Mongo
// implementations. Used by tests; also handy for local hacking without a
// database.

type MemoryUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User // keyed by hex id
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]*models.User)}
}

func (s *MemoryUserStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email {
			return ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	cp := *u
	s.users[u.ID.Hex()] = &cp
	return nil
}

func (s *MemoryUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryUserStore) UpdateFullName(_ context.Context, id, fullName string) error {
	return s.mutate(id, func(u *models.User) { u.FullName = fullName })
}

func (s *MemoryUserStore) UpdateAvatar(_ context.Context, id string, avatar models.Media) error {
	return s.mutate(id, func(u *models.User) { u.Avatar = avatar })
}

func (s *MemoryUserStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return s.mutate(id, func(u *models.User) { u.Password = passwordHash })
}

func (s *MemoryUserStore) SetResetToken(_ context.Context, id, tokenHash string, expiry time.Time) error {
	return s.mutate(id, func(u *models.User) {
		u.ResetToken = tokenHash
		u.ResetTokenExpiry = expiry
	})
}

func (s *MemoryUserStore) ClearResetToken(_ context.Context, id string) error {
	return s.mutate(id, func(u *models.User) {
		u.ResetToken = ""
		u.ResetTokenExpiry = time.Time{}
	})
}

func (s *MemoryUserStore) ConsumeResetToken(_ context.Context, tokenHash, passwordHash string, now time.Time) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ResetToken != "" && u.ResetToken == tokenHash && now.Before(u.ResetTokenExpiry) {
			u.Password = passwordHash
			u.ResetToken = ""
			u.ResetTokenExpiry = time.Time{}
			u.UpdatedAt = time.Now().UTC()
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryUserStore) SetSubscription(_ context.Context, id string, sub models.Subscription) error {
	return s.mutate(id, func(u *models.User) { u.Subscription = sub })
}

func (s *MemoryUserStore) SetSubscriptionStatus(_ context.Context, id, status string) error {
	return s.mutate(id, func(u *models.User) { u.Subscription.Status = status })
}

func (s *MemoryUserStore) mutate(id string, fn func(*models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

type MemoryCourseStore struct {
	mu      sync.Mutex
	courses map[string]*models.Course
}

func NewMemoryCourseStore() *MemoryCourseStore {
	return &MemoryCourseStore{courses: make(map[string]*models.Course)}
}

func (s *MemoryCourseStore) List(_ context.Context) ([]models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Course{}
	for _, c := range s.courses {
		cp := *c
		cp.Lectures = nil
		out = append(out, cp)
	}
	return out, nil
}

func (s *MemoryCourseStore) Get(_ context.Context, id string) (*models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.courses[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	cp.Lectures = append([]models.Lecture(nil), c.Lectures...)
	return &cp, nil
}

func (s *MemoryCourseStore) Create(_ context.Context, c *models.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Lectures == nil {
		c.Lectures = []models.Lecture{}
	}
	c.NumberOfLectures = len(c.Lectures)

	cp := *c
	cp.Lectures = append([]models.Lecture(nil), c.Lectures...)
	s.courses[c.ID.Hex()] = &cp
	return nil
}

func (s *MemoryCourseStore) Update(_ context.Context, id string, upd CourseUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.courses[id]
	if !ok {
		return ErrNotFound
	}
	if upd.Title != nil {
		c.Title = *upd.Title
	}
	if upd.Description != nil {
		c.Description = *upd.Description
	}
	if upd.Category != nil {
		c.Category = *upd.Category
	}
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryCourseStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[id]; !ok {
		return ErrNotFound
	}
	delete(s.courses, id)
	return nil
}

func (s *MemoryCourseStore) SetThumbnail(_ context.Context, id string, thumb models.Media) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.courses[id]
	if !ok {
		return ErrNotFound
	}
	c.Thumbnail = thumb
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryCourseStore) AddLecture(_ context.Context, courseID string, lec models.Lecture) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.courses[courseID]
	if !ok {
		return 0, ErrNotFound
	}
	if lec.ID.IsZero() {
		lec.ID = primitive.NewObjectID()
	}
	c.Lectures = append(c.Lectures, lec)
	c.NumberOfLectures = len(c.Lectures)
	c.UpdatedAt = time.Now().UTC()
	return c.NumberOfLectures, nil
}

type MemoryPaymentStore struct {
	mu       sync.Mutex
	payments []models.Payment
}

func NewMemoryPaymentStore() *MemoryPaymentStore {
	return &MemoryPaymentStore{}
}

func (s *MemoryPaymentStore) Create(_ context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.payments {
		if existing.PaymentID == p.PaymentID {
			return nil
		}
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt = time.Now().UTC()
	s.payments = append(s.payments, *p)
	return nil
}

func (s *MemoryPaymentStore) List(_ context.Context, limit int64) ([]models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || limit > int64(len(s.payments)) {
		limit = int64(len(s.payments))
	}
	out := make([]models.Payment, 0, limit)
	for i := len(s.payments) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		out = append(out, s.payments[i])
	}
	return out, nil
}
