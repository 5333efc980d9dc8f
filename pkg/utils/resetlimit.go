package utils

import (
	"sync"
	"time"
)

// ResetLimiter throttles password-reset requests per caller IP and target
// account. State is per process; a restart clears it, which is acceptable
// for an abuse brake.
type ResetLimiter struct {
	mu       sync.Mutex
	last     map[string]time.Time
	cooldown time.Duration
}

func NewResetLimiter(cooldown time.Duration) *ResetLimiter {
	return &ResetLimiter{
		last:     make(map[string]time.Time),
		cooldown: cooldown,
	}
}

// Allow records the attempt and reports whether it is within the cooldown.
// Stale entries are evicted on the way through so the map stays bounded.
func (l *ResetLimiter) Allow(ip, utorid string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for k, t := range l.last {
		if now.Sub(t) >= l.cooldown {
			delete(l.last, k)
		}
	}

	key := ip + "|" + utorid
	if t, ok := l.last[key]; ok && now.Sub(t) < l.cooldown {
		return false
	}
	l.last[key] = now
	return true
}
