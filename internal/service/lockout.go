package service

import (
	"time"

	"github.com/harvesthub/harvesthub-api/internal/domain"
)

// LockoutPolicy suspends authentication for an account after repeated
// failed attempts. "Locked" is always derived from the lock timestamp,
// never stored as its own flag.
type LockoutPolicy struct {
	MaxAttempts  int
	LockDuration time.Duration
}

func NewLockoutPolicy(maxAttempts int, lockDuration time.Duration) LockoutPolicy {
	return LockoutPolicy{MaxAttempts: maxAttempts, LockDuration: lockDuration}
}

func (p LockoutPolicy) IsLocked(u *domain.User, now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

// FailureUpdate describes the state transition for one failed attempt.
// The repository applies it as a single conditional update so concurrent
// failures cannot lose increments.
type FailureUpdate struct {
	Attempts  int
	LockUntil *time.Time
}

// OnFailure computes the next lockout state after a failed attempt.
// An expired lock restarts the count at 1: the attempt that trips the
// expiry check is itself a failure.
func (p LockoutPolicy) OnFailure(u *domain.User, now time.Time) FailureUpdate {
	if u.LockUntil != nil && !u.LockUntil.After(now) {
		return FailureUpdate{Attempts: 1}
	}
	next := FailureUpdate{Attempts: u.LoginAttempts + 1, LockUntil: u.LockUntil}
	if next.Attempts >= p.MaxAttempts && !p.IsLocked(u, now) {
		until := now.Add(p.LockDuration)
		next.LockUntil = &until
	}
	return next
}
