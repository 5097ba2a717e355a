package repository

import "errors"

var (
	ErrAccountNotFound       = errors.New("account not found")
	ErrAccountAlreadyExists  = errors.New("account already exists")
	ErrOrderNotFound         = errors.New("order not found")
	ErrOrderAlreadyExists    = errors.New("order already exists")
	ErrTickerNotFound        = errors.New("ticker not found")
	ErrSnapshotAlreadyExists = errors.New("price snapshot already exists")
	ErrConflict              = errors.New("concurrent modification conflict")
	ErrAmountOutOfRange      = errors.New("amount out of range")
	ErrAccountCacheNotFound  = errors.New("account cache not found")
	ErrSnapshotCacheNotFound = errors.New("snapshot cache not found")
	ErrQueueEmpty            = errors.New("settlement queue is empty")
	ErrLeaseNotHeld          = errors.New("delivery lease is not held")
)
