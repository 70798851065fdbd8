package ratelimiter

import "time"

// Limiter decides whether one more request from a client fits its budget.
// When it does not, the duration tells the client when to retry.
type Limiter interface {
	Allow(ip string) (bool, time.Duration)
}

type Config struct {
	RequestsPerTimeFrame int
	TimeFrame            time.Duration
	Enabled              bool
}
