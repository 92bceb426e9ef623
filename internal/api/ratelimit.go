package api

import (
	"net"
	"net/netip"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ipv6ClientBits is the prefix a single IPv6 client is assumed to control.
const ipv6ClientBits = 64

// ClientAddr identifies a client for rate limiting. IPv4 clients are keyed
// by address, IPv6 clients by their /64 network.
type ClientAddr struct {
	prefix netip.Prefix
}

// ParseClientAddr builds a ClientAddr from a "host:port" or bare host. The
// zero ClientAddr is returned for anything unparsable.
func ParseClientAddr(remote string) ClientAddr {
	host := remote
	if h, _, err := net.SplitHostPort(remote); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return ClientAddr{}
	}
	addr = addr.Unmap().WithZone("")

	bits := addr.BitLen()
	if addr.Is6() {
		bits = ipv6ClientBits
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return ClientAddr{}
	}
	return ClientAddr{prefix: prefix}
}

// IsValid reports whether the address was parsed successfully.
func (c ClientAddr) IsValid() bool { return c.prefix.IsValid() }

func (c ClientAddr) String() string {
	if !c.prefix.IsValid() {
		return "unknown"
	}
	if c.prefix.Bits() == c.prefix.Addr().BitLen() {
		return c.prefix.Addr().String()
	}
	return c.prefix.String()
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyLimiter is a token bucket per client. Clients idle for longer than
// idleTTL are dropped on the next sweep, which runs at most once per idleTTL.
// Unparsable addresses share a single bucket.
type KeyLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu        sync.Mutex
	buckets   map[ClientAddr]*bucket
	nextSweep time.Time
}

// NewKeyLimiter returns nil (no limiting) when rps or burst is not positive.
func NewKeyLimiter(rps float64, burst int, idleTTL time.Duration) *KeyLimiter {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &KeyLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
		buckets: make(map[ClientAddr]*bucket),
	}
}

// Allow takes one token from client's bucket at now. When the bucket is
// empty it returns false and the wait until the next token.
func (l *KeyLimiter) Allow(client ClientAddr, now time.Time) (bool, time.Duration) {
	if l == nil {
		return true, 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)

	b, ok := l.buckets[client]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[client] = b
	}
	b.lastSeen = now

	r := b.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (l *KeyLimiter) sweep(now time.Time) {
	if now.Before(l.nextSweep) {
		return
	}
	l.nextSweep = now.Add(l.idleTTL)
	cutoff := now.Add(-l.idleTTL)
	for k, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, k)
		}
	}
}

// Len returns the number of tracked clients.
func (l *KeyLimiter) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
