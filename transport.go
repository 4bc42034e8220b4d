package sessionkit

import (
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/TransferAgent/sessionkit/internal/claims"
	"github.com/TransferAgent/sessionkit/internal/wire"
)

const drainLimit = 64 << 10

// pipelineTransport is the authed [http.RoundTripper]: it attaches the
// current credential, and on a 401 coordinates exactly one refresh and one
// replay before propagating the failure. The retried flag is threaded
// explicitly so a replayed request can never trigger a second refresh.
type pipelineTransport struct {
	client *Client
	next   http.RoundTripper
}

func (t *pipelineTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.roundTrip(req, "", false)
}

func (t *pipelineTransport) roundTrip(req *http.Request, rid string, retried bool) (*http.Response, error) {
	c := t.client
	if c == nil || c.closed.Load() {
		return nil, ErrClientClosed
	}

	ctx := req.Context()
	epoch := c.currentEpoch()
	token := c.creds.Get(ctx)

	if !retried && token != "" && c.config.Credential.RefreshAhead > 0 &&
		claims.ExpiresWithin(token, c.config.Credential.RefreshAhead, time.Now()) {
		fresh, err := c.awaitRefresh(ctx, epoch)
		if err != nil {
			return nil, err
		}
		token = fresh
	}

	if rid == "" {
		rid = req.Header.Get(wire.HeaderRequestID)
	}
	if rid == "" {
		rid = requestIDFromContext(ctx)
	}
	if rid == "" {
		rid = uuid.NewString()
	}

	// The transport contract forbids mutating the caller's request.
	out := req.Clone(ctx)
	if token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	}
	out.Header.Set(wire.HeaderRequestID, rid)
	if out.Header.Get("User-Agent") == "" && c.config.Service.UserAgent != "" {
		out.Header.Set("User-Agent", c.config.Service.UserAgent)
	}
	if retried && out.GetBody != nil {
		body, err := out.GetBody()
		if err != nil {
			return nil, err
		}
		out.Body = body
	}

	if c.metrics != nil && c.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			c.metrics.Observe(MetricRequestLatency, time.Since(start))
		}()
	}

	resp, err := t.next.RoundTrip(out)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	if retried {
		// The replayed request came back 401: the refreshed credential is
		// no good either. Propagate the response and end the session.
		c.metricInc(MetricRequestUnauthorized)
		c.emitAudit(ctx, auditEventRequestUnauthorized, false, "", "", ErrUnauthenticated, func() map[string]string {
			return map[string]string{"method": req.Method, "path": req.URL.Path}
		})
		c.expireSession(ctx, epoch, ErrUnauthenticated)
		return resp, nil
	}

	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		// The body was consumed by the first attempt and cannot be
		// rebuilt, so a replay would send a truncated request.
		return resp, nil
	}

	io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))
	resp.Body.Close()

	if _, err := c.awaitRefresh(ctx, epoch); err != nil {
		return nil, err
	}

	c.metricInc(MetricRequestRetried)
	c.emitAudit(ctx, auditEventRequestReplayed, true, "", "", nil, func() map[string]string {
		return map[string]string{"method": req.Method, "path": req.URL.Path}
	})

	return t.roundTrip(req, rid, true)
}
