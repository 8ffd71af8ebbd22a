package service

import "time"

// Clock is the time source for expiry scheduling.
type Clock interface {
	Now() time.Time
	// AfterFunc runs f in its own goroutine after d. A non-positive d fires immediately.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
