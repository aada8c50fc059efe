package formatting

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"yt2text/internal/services"
)

// kindBackOff chooses the next delay from the classification of the most
// recent failure. Network and timeout failures wait NetworkDelay multiplied by
// the attempt number (or the server's Retry-After when longer); other failures
// follow an exponential curve starting at BaseDelay.
type kindBackOff struct {
	exponential *backoff.ExponentialBackOff
	network     time.Duration
	attempt     int
	lastErr     error
}

func newKindBackOff(opts Options) *kindBackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = opts.BaseDelay
	exp.MaxInterval = opts.MaxDelay
	exp.Multiplier = 2
	exp.RandomizationFactor = opts.Jitter
	exp.MaxElapsedTime = 0
	exp.Reset()
	return &kindBackOff{exponential: exp, network: opts.NetworkDelay}
}

// observe records the failure the next delay is computed from.
func (b *kindBackOff) observe(err error) {
	b.lastErr = err
}

func (b *kindBackOff) NextBackOff() time.Duration {
	b.attempt++
	var remote *services.RemoteCallError
	if !errors.As(b.lastErr, &remote) {
		return b.exponential.NextBackOff()
	}
	switch remote.Kind {
	case services.RemoteNetwork, services.RemoteTimeout:
		delay := b.network * time.Duration(b.attempt)
		if remote.RetryAfter > delay {
			delay = remote.RetryAfter
		}
		return delay
	default:
		return b.exponential.NextBackOff()
	}
}

func (b *kindBackOff) Reset() {
	b.attempt = 0
	b.lastErr = nil
	b.exponential.Reset()
}
