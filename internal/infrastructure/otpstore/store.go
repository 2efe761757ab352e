package otpstore

import (
	"strings"
	"sync"
	"time"

	"github.com/ecell-portal/internal/domain"
	"github.com/ecell-portal/internal/pkg/otp"
)

const (
	// TTL is how long an issued code stays valid.
	TTL = 5 * time.Minute
	// MaxAttempts is the number of failed confirmations allowed before the
	// pending entry is discarded.
	MaxAttempts = 5

	sweepInterval = time.Minute
)

// VerifyOutcome is the tagged result of a Verify call. Every outcome except
// OutcomeMismatch ends the entry's lifecycle.
type VerifyOutcome int

const (
	OutcomeNotFound VerifyOutcome = iota
	OutcomeExpired
	OutcomeTooManyAttempts
	OutcomeMismatch
	OutcomeValid
)

type entry struct {
	code      string
	pending   domain.PendingRegistration
	expiresAt time.Time
	attempts  int
}

// Store holds pending registrations keyed by normalized email, each guarded
// by a single-use 6-digit code. It is intentionally non-durable: a restart
// drops all pending registrations and callers simply request a new code.
//
// All mutation happens inside one mutex-guarded critical section per call, so
// verify-and-consume is atomic: concurrent Verify calls for the same email
// can never both observe OutcomeValid for one issuance.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

func New() *Store {
	s := &Store{
		entries: make(map[string]*entry),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go s.sweep()
	return s
}

// Issue generates a fresh code for email, unconditionally replacing any prior
// pending entry for that identity. The caller is responsible for delivering
// the returned code out-of-band.
func (s *Store) Issue(email string, pending domain.PendingRegistration) (string, error) {
	code, err := otp.NewCode()
	if err != nil {
		return "", err
	}
	key := normalize(email)
	s.mu.Lock()
	s.entries[key] = &entry{
		code:      code,
		pending:   pending,
		expiresAt: s.now().Add(TTL),
	}
	s.mu.Unlock()
	return code, nil
}

// Verify checks candidate against the pending code for email. On
// OutcomeValid the stored registration data is returned and the entry is
// consumed; on OutcomeMismatch the attempt counter is incremented and the
// entry retained; every other outcome deletes the entry.
func (s *Store) Verify(email, candidate string) (VerifyOutcome, *domain.PendingRegistration) {
	key := normalize(email)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return OutcomeNotFound, nil
	}
	if s.now().After(e.expiresAt) {
		delete(s.entries, key)
		return OutcomeExpired, nil
	}
	if e.attempts >= MaxAttempts {
		delete(s.entries, key)
		return OutcomeTooManyAttempts, nil
	}
	if e.code != candidate {
		e.attempts++
		return OutcomeMismatch, nil
	}
	pending := e.pending
	delete(s.entries, key)
	return OutcomeValid, &pending
}

// Has reports whether a live (unexpired) entry exists for email.
func (s *Store) Has(email string) bool {
	key := normalize(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return ok && !s.now().After(e.expiresAt)
}

// Close stops the background sweeper. Safe to call more than once.
func (s *Store) Close() {
	s.once.Do(func() { close(s.done) })
}

// sweep periodically removes expired entries. Expiry is also checked lazily
// in Verify under the same mutex, so a sweep can never race a confirmation.
func (s *Store) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			now := s.now()
			for key, e := range s.entries {
				if now.After(e.expiresAt) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
