package models

import (
	"errors"
	"fmt"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrInvalidTrade       = errors.New("invalid trade")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrSettingNotFound    = errors.New("copy trading setting not found")
	ErrSubscriptionGone   = errors.New("subscription not found")
	ErrNotATrader         = errors.New("account is not a trader")
)

// FanoutAttemptError wraps a failure scoped to a single follower's copy
// attempt. It never escapes the fanout controller; it exists so logs can
// carry the follower and the underlying cause.
type FanoutAttemptError struct {
	FollowerAccountID int64
	Err               error
}

func (e *FanoutAttemptError) Error() string {
	return fmt.Sprintf("copy trade for follower %d failed: %v", e.FollowerAccountID, e.Err)
}

func (e *FanoutAttemptError) Unwrap() error { return e.Err }
