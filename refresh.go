package sessionkit

import (
	"context"
	"fmt"
	"log"
	"time"
)

const refreshKey = "refresh"

// awaitRefresh joins the in-flight refresh, starting one when none is
// running. Every caller that arrives while the exchange is in flight
// receives the same outcome. The exchange itself runs detached from any
// single caller's context, so one caller canceling its wait cannot fail
// the refresh for the rest.
func (c *Client) awaitRefresh(ctx context.Context, epoch uint64) (string, error) {
	ch := c.refreshGroup.DoChan(refreshKey, func() (interface{}, error) {
		return c.refreshCredential(epoch)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.metricInc(MetricRefreshCoalesced)
		}
		if res.Err != nil {
			return "", res.Err
		}
		if c.currentEpoch() != epoch {
			return "", ErrSessionExpired
		}
		token, _ := res.Val.(string)
		return token, nil
	}
}

// refreshCredential performs the actual refresh exchange. The refresh
// secret rides the cookie jar; client code never sees it. A failed
// exchange invalidates whatever credential remains and ends the session:
// the platform revokes the refresh secret server-side on rejection, so
// there is nothing left to retry with.
func (c *Client) refreshCredential(epoch uint64) (interface{}, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.config.Service.RequestTimeout)
	defer cancel()

	if c.metrics != nil && c.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			c.metrics.Observe(MetricRefreshLatency, time.Since(start))
		}()
	}

	token, err := c.wire.Refresh(ctx)
	if err != nil {
		c.metricInc(MetricRefreshFailure)
		c.emitAudit(ctx, auditEventRefreshFailure, false, "", "", mapAPIError(err), nil)
		c.invalidateCredential(ctx, epoch, ErrSessionExpired)
		return nil, fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}

	c.storeCredential(ctx, epoch, token)

	c.metricInc(MetricRefreshSuccess)
	c.emitAudit(ctx, auditEventRefreshSuccess, true, "", "", nil, nil)
	return token, nil
}

// invalidateCredential clears the credential after a failed refresh.
// expireSession already clears when it tears a session down; the explicit
// branch covers a credential lingering without an authenticated session,
// which expireSession would skip. A stale epoch means a newer session owns
// the store and nothing may be touched.
func (c *Client) invalidateCredential(ctx context.Context, epoch uint64, cause error) {
	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return
	}
	if c.phase != PhaseUnauthenticated {
		c.mu.Unlock()
		c.expireSession(ctx, epoch, cause)
		return
	}
	c.epoch++
	c.mu.Unlock()

	if err := c.creds.Clear(ctx); err != nil {
		log.Print("sessionkit: credential slot clear failed")
	}
}
