package identity

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"
)

// fallbackFragment replaces a name fragment that cleans down to nothing
// (all-punctuation input, empty string, non-latin symbols only).
const fallbackFragment = "user"

// idSpace is the size of the numeric portion of a user id (000000-999999).
const idSpace = 1000000

var nonAlnum = regexp.MustCompile(`[^a-z0-9]`)

// ExistsFunc reports whether a candidate identifier is already taken.
// Implementations check against the live user set; an error aborts the
// allocation immediately rather than being treated as "available".
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// Allocator produces collision-free (user id, username) pairs.
//
// A user id is a 3-letter role prefix followed by a 6-digit zero-padded
// random number, e.g. STU000427. The username is derived from the person's
// name and the id: first initial, a dot, the cleaned last-name fragment and
// the last 3 digits of the id number, with a numeric suffix appended when
// that exact username is taken.
type Allocator struct {
	idExists       ExistsFunc
	usernameExists ExistsFunc
	maxAttempts    int

	mu  sync.Mutex
	rnd *rand.Rand
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithRandSource injects a deterministic random source, which makes
// collision and exhaustion paths reproducible in tests.
func WithRandSource(src rand.Source) Option {
	return func(a *Allocator) {
		if src != nil {
			a.rnd = rand.New(src)
		}
	}
}

// WithMaxAttempts bounds the number of random id draws before the allocator
// gives up with ErrAllocationExhausted.
func WithMaxAttempts(n int) Option {
	return func(a *Allocator) {
		if n > 0 {
			a.maxAttempts = n
		}
	}
}

// New creates an Allocator that checks candidates through the two existence
// functions.
func New(idExists, usernameExists ExistsFunc, opts ...Option) *Allocator {
	a := &Allocator{
		idExists:       idExists,
		usernameExists: usernameExists,
		maxAttempts:    10000,
		rnd:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allocate returns a (user id, username) pair unique among existing users.
// rolePrefix must be a 3-letter tag such as "STU" or "TCR".
//
// Returns ErrAllocationExhausted when no free id is found within the attempt
// bound. That is a fatal signal that the id space is saturated, not a
// transient condition to retry.
func (a *Allocator) Allocate(ctx context.Context, fullName, rolePrefix string) (userID, username string, err error) {
	if len(rolePrefix) != 3 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRolePrefix, rolePrefix)
	}

	firstInitial, lastFragment := splitName(fullName)

	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		idNumber := fmt.Sprintf("%06d", a.draw())
		candidate := rolePrefix + idNumber

		taken, err := a.idExists(ctx, candidate)
		if err != nil {
			return "", "", err
		}
		if taken {
			continue
		}

		username, err := a.pickUsername(ctx, firstInitial, lastFragment, idNumber)
		if err != nil {
			return "", "", err
		}
		return candidate, username, nil
	}

	return "", "", ErrAllocationExhausted
}

func (a *Allocator) draw() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rnd.Intn(idSpace)
}

// pickUsername builds the base username and appends an incrementing numeric
// suffix until an unused name is found, bounded by maxAttempts.
func (a *Allocator) pickUsername(ctx context.Context, firstInitial, lastFragment, idNumber string) (string, error) {
	base := firstInitial + "." + lastFragment + idNumber[len(idNumber)-3:]

	candidate := base
	for suffix := 1; suffix <= a.maxAttempts; suffix++ {
		taken, err := a.usernameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, suffix)
	}

	return "", ErrAllocationExhausted
}

// splitName extracts the first initial and the cleaned last-name fragment
// from a free-form full name.
func splitName(fullName string) (firstInitial, lastFragment string) {
	parts := strings.Fields(fullName)
	if len(parts) == 0 {
		return "u", fallbackFragment
	}

	firstInitial = strings.ToLower(string([]rune(parts[0])[0]))
	if cleaned := CleanFragment(firstInitial); cleaned == "" {
		firstInitial = "u"
	}

	lastFragment = CleanFragment(parts[len(parts)-1])
	if lastFragment == "" {
		lastFragment = fallbackFragment
	}
	return firstInitial, lastFragment
}

// CleanFragment lowercases the input and strips every non-alphanumeric
// character. An empty result means the caller should fall back to "user".
func CleanFragment(s string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "")
}
