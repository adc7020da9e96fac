package httpapi

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

var (
	errRateLimited = errors.New("rate limit exceeded")
	errSessionBusy = errors.New("too many concurrent requests for this session")
)

// maxIdleSessions 超过后清理空闲会话
const maxIdleSessions = 1024

type session struct {
	sem      *semaphore.Weighted
	limiter  *rate.Limiter
	inFlight int
	lastSeen time.Time
}

// sessionLimiter 按会话限制并发请求数和请求速率
type sessionLimiter struct {
	mu           sync.Mutex
	sessions     map[string]*session
	maxInFlight  int64
	queueTimeout time.Duration
	rate         rate.Limit
	burst        int
	idleTTL      time.Duration
	now          func() time.Time
}

func newSessionLimiter(maxInFlight int, queueTimeout time.Duration, perSecond float64, burst int) *sessionLimiter {
	l := &sessionLimiter{
		sessions:     make(map[string]*session),
		maxInFlight:  int64(maxInFlight),
		queueTimeout: queueTimeout,
		burst:        burst,
		idleTTL:      10 * time.Minute,
		now:          time.Now,
	}
	if perSecond > 0 {
		l.rate = rate.Limit(perSecond)
	}
	return l
}

func (l *sessionLimiter) get(key string) *session {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.sessions) > maxIdleSessions {
		for k, s := range l.sessions {
			if s.inFlight == 0 && now.Sub(s.lastSeen) > l.idleTTL {
				delete(l.sessions, k)
			}
		}
	}

	s, ok := l.sessions[key]
	if !ok {
		s = &session{}
		if l.maxInFlight > 0 {
			s.sem = semaphore.NewWeighted(l.maxInFlight)
		}
		if l.rate > 0 {
			s.limiter = rate.NewLimiter(l.rate, l.burst)
		}
		l.sessions[key] = s
	}
	s.inFlight++
	s.lastSeen = now
	return s
}

func (l *sessionLimiter) done(s *session) {
	l.mu.Lock()
	s.inFlight--
	l.mu.Unlock()
}

// Acquire 占用会话的一个并发名额，返回释放函数
// 超出速率返回 errRateLimited，排队超时返回 errSessionBusy
func (l *sessionLimiter) Acquire(ctx context.Context, key string) (func(), error) {
	s := l.get(key)

	if s.limiter != nil && !s.limiter.Allow() {
		l.done(s)
		return nil, errRateLimited
	}

	if s.sem == nil {
		return func() { l.done(s) }, nil
	}

	waitCtx := ctx
	if l.queueTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.queueTimeout)
		defer cancel()
	}
	if err := s.sem.Acquire(waitCtx, 1); err != nil {
		l.done(s)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errSessionBusy
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			s.sem.Release(1)
			l.done(s)
		})
	}, nil
}
