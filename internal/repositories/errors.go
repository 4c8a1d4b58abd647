package repositories

import "errors"

var (
	ErrRefundNotFound  = errors.New("refund claim not found")
	ErrWorkLogNotFound = errors.New("work log not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrUserNotFound    = errors.New("user not found")
)
