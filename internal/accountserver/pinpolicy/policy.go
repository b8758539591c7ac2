// Package pinpolicy evaluates the account server's PIN retry policy: a number of
// rounds with a fixed number of attempts each, a timeout between rounds, and a
// permanent block once the final round is used up.
package pinpolicy

import (
	"fmt"
	"time"
)

type Kind int

const (
	// Failed: the attempt failed and more attempts are allowed right away.
	Failed Kind = iota
	// Timeout: the attempt ended a round; the next round opens after Timeout.
	Timeout
	// InTimeout: the attempt was made while a timeout runs and was not evaluated.
	InTimeout
	// BlockedPermanently: the final round is exhausted.
	BlockedPermanently
)

func (k Kind) String() string {
	switch k {
	case Failed:
		return "failed"
	case Timeout:
		return "timeout"
	case InTimeout:
		return "in_timeout"
	case BlockedPermanently:
		return "blocked"
	default:
		return "unknown"
	}
}

// Evaluation is the policy verdict for one attempt.
type Evaluation struct {
	Kind                Kind
	AttemptsLeftInRound int
	IsFinalRound        bool
	Timeout             time.Duration
}

type Policy struct {
	Rounds           int
	AttemptsPerRound int
	// Timeouts[i] is applied after round i+1. len(Timeouts) == Rounds-1.
	Timeouts []time.Duration
}

// Default is 4 rounds of 4 attempts with 1m, 5m and 1h timeouts between rounds.
func Default() Policy {
	return Policy{
		Rounds:           4,
		AttemptsPerRound: 4,
		Timeouts:         []time.Duration{time.Minute, 5 * time.Minute, time.Hour},
	}
}

// Validate checks the policy shape.
func (p Policy) Validate() error {
	if p.Rounds < 1 || p.AttemptsPerRound < 1 {
		return fmt.Errorf("pin policy needs at least one round and one attempt")
	}
	if len(p.Timeouts) != p.Rounds-1 {
		return fmt.Errorf("pin policy needs %d timeouts, got %d", p.Rounds-1, len(p.Timeouts))
	}
	return nil
}

// TotalAttempts is the number of failures after which the account is blocked.
func (p Policy) TotalAttempts() int {
	return p.Rounds * p.AttemptsPerRound
}

// Evaluate judges attempt number attempts (1-based, counting the current one)
// given when the previous failure happened. lastFailure is nil on the first attempt.
func (p Policy) Evaluate(attempts int, lastFailure *time.Time, now time.Time) Evaluation {
	if attempts < 1 {
		attempts = 1
	}
	if p.isBlocked(attempts) {
		return Evaluation{Kind: BlockedPermanently, IsFinalRound: true}
	}

	if timeout, ok := p.currentTimeout(attempts); ok && lastFailure != nil {
		left := p.attemptsLeftInRound(attempts)
		endOfRound := left == p.AttemptsPerRound
		startOfNextRound := left+1 == p.AttemptsPerRound
		until := lastFailure.Add(timeout)

		if endOfRound {
			return Evaluation{Kind: Timeout, Timeout: timeout}
		}
		if startOfNextRound && until.After(now) {
			return Evaluation{Kind: InTimeout, Timeout: until.Sub(now)}
		}
	}

	return Evaluation{
		Kind:                Failed,
		AttemptsLeftInRound: p.attemptsLeftInRound(attempts),
		IsFinalRound:        p.isFinalRound(attempts),
	}
}

func (p Policy) currentRound(attempts int) int {
	q, r := attempts/p.AttemptsPerRound, attempts%p.AttemptsPerRound
	switch {
	case q == 0:
		return 1
	case r == 0:
		return q
	default:
		return q + 1
	}
}

func (p Policy) isBlocked(attempts int) bool {
	return attempts >= p.TotalAttempts()
}

func (p Policy) isFinalRound(attempts int) bool {
	return p.isBlocked(attempts) || p.currentRound(attempts) == p.Rounds
}

func (p Policy) attemptsLeftInRound(attempts int) int {
	if p.isBlocked(attempts) {
		return 0
	}
	return p.AttemptsPerRound - attempts%p.AttemptsPerRound
}

func (p Policy) currentTimeout(attempts int) (time.Duration, bool) {
	i := attempts / p.AttemptsPerRound
	if p.isBlocked(attempts) || attempts <= 1 || i == 0 || i > len(p.Timeouts) {
		return 0, false
	}
	return p.Timeouts[i-1], true
}
