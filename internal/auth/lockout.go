package auth

import "time"

// LockoutDecision is the outcome of gating a login attempt.
type LockoutDecision int

const (
	// LockoutAllow lets the attempt proceed to password verification.
	LockoutAllow LockoutDecision = iota
	// LockoutLocked rejects the attempt; the password must not be checked so
	// a lock never becomes a password oracle.
	LockoutLocked
	// LockoutAllowAndReset lets the attempt proceed after the caller clears
	// the failure counter and expiry, the lockout window having elapsed.
	LockoutAllowAndReset
)

// Default lockout policy parameters.
const (
	DefaultLockoutThreshold = 5
	DefaultLockoutDuration  = 15 * time.Minute
)

// LockoutPolicy decides whether an account may attempt a password check and
// how failures escalate. The zero value is unusable; use NewLockoutPolicy.
type LockoutPolicy struct {
	Threshold int
	Duration  time.Duration
}

// NewLockoutPolicy builds a policy with defaults applied.
func NewLockoutPolicy(threshold int, duration time.Duration) LockoutPolicy {
	if threshold <= 0 {
		threshold = DefaultLockoutThreshold
	}
	if duration <= 0 {
		duration = DefaultLockoutDuration
	}
	return LockoutPolicy{Threshold: threshold, Duration: duration}
}

// Evaluate gates an attempt given the persisted failure state.
func (p LockoutPolicy) Evaluate(failedAttempts int, lockoutUntil *time.Time, now time.Time) LockoutDecision {
	if lockoutUntil == nil {
		return LockoutAllow
	}
	if lockoutUntil.After(now) {
		return LockoutLocked
	}
	return LockoutAllowAndReset
}

// NextFailure computes the failure state after a wrong password: the
// incremented counter and, when the counter reaches the threshold, the new
// lockout expiry.
func (p LockoutPolicy) NextFailure(failedAttempts int, now time.Time) (int, *time.Time) {
	failedAttempts++
	if failedAttempts >= p.Threshold {
		until := now.Add(p.Duration)
		return failedAttempts, &until
	}
	return failedAttempts, nil
}
