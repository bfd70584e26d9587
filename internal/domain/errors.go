package domain

import "errors"

// Request failure kinds. Each one is terminal for the current request.
var (
	ErrInvalidLink     = errors.New("invalid link")
	ErrProbeFailed     = errors.New("probe failed")
	ErrDownloadFailed  = errors.New("download failed")
	ErrCancelled       = errors.New("download cancelled")
	ErrOversize        = errors.New("file exceeds upload limit")
	ErrNoOutput        = errors.New("no output file produced")
	ErrSessionNotFound = errors.New("session not found")
	ErrQueueFull       = errors.New("download queue is full")
	ErrNotCancellable  = errors.New("request is not cancellable")
	ErrMissingToken    = errors.New("bot token not configured")
)
