package service

import "errors"

var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrTickerNotFound       = errors.New("ticker not found")
	ErrSnapshotExists       = errors.New("price snapshot already exists")
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderAlreadyExists   = errors.New("order already exists")
	ErrRateLimitExceeded    = errors.New("order rate limit exceeded")
	ErrSettlementAborted    = errors.New("settlement aborted")
)
