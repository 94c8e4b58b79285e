package store

import (
	"context"
	"errors"
	"time"

	"github.com/gyanpath/lms-backend/internal/models"
)

var (
	// ErrNotFound is returned when no document matches, including malformed ids.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a unique constraint (user email) is violated.
	ErrDuplicate = errors.New("store: duplicate")
)

// UserStore persists user accounts. Ids are hex object ids.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)

	UpdateFullName(ctx context.Context, id, fullName string) error
	UpdateAvatar(ctx context.Context, id string, avatar models.Media) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// SetResetToken stores the hashed reset token and its expiry, replacing
	// any pending token (last writer wins).
	SetResetToken(ctx context.Context, id, tokenHash string, expiry time.Time) error
	// ClearResetToken removes a pending reset token, e.g. after the
	// out-of-band delivery failed.
	ClearResetToken(ctx context.Context, id string) error
	// ConsumeResetToken is a single conditional update: it matches a user
	// whose stored token hash equals tokenHash and whose expiry is after
	// now, sets the new password hash, and clears both reset fields. Returns
	// ErrNotFound when no user matches, so two concurrent consumers of the
	// same token cannot both succeed.
	ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string, now time.Time) (*models.User, error)

	SetSubscription(ctx context.Context, id string, sub models.Subscription) error
	SetSubscriptionStatus(ctx context.Context, id, status string) error
}

// CourseUpdate carries the allow-listed mutable course fields. Nil pointers
// leave the field untouched.
type CourseUpdate struct {
	Title       *string
	Description *string
	Category    *string
}

type CourseStore interface {
	// List returns catalog fields only; lectures are excluded.
	List(ctx context.Context) ([]models.Course, error)
	Get(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, c *models.Course) error
	Update(ctx context.Context, id string, upd CourseUpdate) error
	Delete(ctx context.Context, id string) error
	SetThumbnail(ctx context.Context, id string, thumb models.Media) error

	// AddLecture appends the lecture and recomputes the denormalized count
	// as the new sequence length, returning that count.
	AddLecture(ctx context.Context, courseID string, lec models.Lecture) (int, error)
}

// PaymentStore is an append-only ledger of verified payments. Create is
// idempotent on the gateway payment id.
type PaymentStore interface {
	Create(ctx context.Context, p *models.Payment) error
	List(ctx context.Context, limit int64) ([]models.Payment, error)
}
