package sessionkit

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

func (s *countingSink) Count() int64 {
	return s.count.Load()
}

type gateSink struct {
	gate chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{
		gate: make(chan struct{}),
	}
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	<-s.gate
}

func auditTestConfig(p *stubPlatform) Config {
	cfg := defaultConfig()
	cfg.Service.BaseURL = p.srv.URL
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 32
	cfg.Audit.DropIfFull = false
	return cfg
}

func buildAuditTestClient(t *testing.T, cfg Config, sink AuditSink) *Client {
	t.Helper()

	client, err := New().
		WithConfig(cfg).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(client.Close)

	return client
}

func collectAuditEvents(t *testing.T, sink *ChannelSink, want int) []AuditEvent {
	t.Helper()

	events := make([]AuditEvent, 0, want)
	timeout := time.After(2 * time.Second)
	for len(events) < want {
		select {
		case ev := <-sink.Events():
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("expected %d audit events, got %d", want, len(events))
		}
	}
	return events
}

func TestAuditDisabledNoSinkCalls(t *testing.T) {
	p := newStubPlatform(t)
	cfg := auditTestConfig(p)
	cfg.Audit.Enabled = false

	sink := &countingSink{}
	client := buildAuditTestClient(t, cfg, sink)

	_, _ = client.Login(context.Background(), LoginInput{Identifier: testIdentifier, Secret: "wrong-password"})
	loginTestClient(t, client)
	time.Sleep(30 * time.Millisecond)

	if sink.Count() != 0 {
		t.Fatalf("expected no audit sink calls when disabled, got %d", sink.Count())
	}
}

func TestAuditLoginEmitsEventWithFields(t *testing.T) {
	p := newStubPlatform(t)
	sink := NewChannelSink(32)
	client := buildAuditTestClient(t, auditTestConfig(p), sink)

	loginTestClient(t, client)

	events := collectAuditEvents(t, sink, 2)

	login := events[0]
	if login.EventType != auditEventLoginSuccess {
		t.Fatalf("expected login_success first, got %q", login.EventType)
	}
	if !login.Success {
		t.Fatal("expected the login event to report success")
	}
	if login.UserID != "u1" {
		t.Fatalf("expected user u1, got %q", login.UserID)
	}
	if login.Timestamp.IsZero() {
		t.Fatal("expected the event to be timestamped")
	}
	if login.Error != "" {
		t.Fatalf("expected no error code on success, got %q", login.Error)
	}

	loaded := events[1]
	if loaded.EventType != auditEventTenantContextLoaded {
		t.Fatalf("expected tenant_context_loaded second, got %q", loaded.EventType)
	}
	if loaded.TenantID != "t1" {
		t.Fatalf("expected tenant t1, got %q", loaded.TenantID)
	}
	if loaded.Metadata["role"] != "tenant_admin" {
		t.Fatalf("expected role metadata, got %+v", loaded.Metadata)
	}
}

func TestAuditFailedLoginCarriesCodeNotSecret(t *testing.T) {
	p := newStubPlatform(t)
	sink := NewChannelSink(8)
	client := buildAuditTestClient(t, auditTestConfig(p), sink)

	_, _ = client.Login(context.Background(), LoginInput{Identifier: testIdentifier, Secret: "super-secret-password"})

	events := collectAuditEvents(t, sink, 1)
	ev := events[0]
	if ev.EventType != auditEventLoginFailure {
		t.Fatalf("expected login_failure, got %q", ev.EventType)
	}
	if ev.Success {
		t.Fatal("expected the event to report failure")
	}
	if ev.Error != string(auditErrInvalidCredentials) {
		t.Fatalf("expected invalid_credentials code, got %q", ev.Error)
	}
	if strings.Contains(ev.Error, "super-secret-password") {
		t.Fatal("sensitive password leaked in error")
	}
	for _, v := range ev.Metadata {
		if strings.Contains(v, "super-secret-password") {
			t.Fatal("sensitive password leaked in metadata")
		}
	}
}

func TestAuditBufferFullDropIfFullTrueDoesNotBlock(t *testing.T) {
	sink := newGateSink()
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: true,
	}, sink)
	defer func() {
		close(sink.gate)
		dispatcher.Close()
	}()

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})

	start := time.Now()
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e3"})
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("expected non-blocking emit when DropIfFull is true")
	}
	if dispatcher.Dropped() == 0 {
		t.Fatal("expected dropped counter to increment when queue is full")
	}
}

func TestAuditBufferFullDropIfFullFalseBlocksUntilSpace(t *testing.T) {
	sink := newGateSink()
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: false,
	}, sink)
	defer func() {
		close(sink.gate)
		dispatcher.Close()
	}()

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})

	done := make(chan struct{})
	go func() {
		dispatcher.Emit(context.Background(), AuditEvent{EventType: "e3"})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("expected emit to block while buffer is full")
	case <-time.After(150 * time.Millisecond):
	}

	sink.gate <- struct{}{}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected blocked emit to proceed after space is available")
	}
}

func TestAuditJSONWriterSinkWritesJSONLines(t *testing.T) {
	var buf syncBuffer
	sink := NewJSONWriterSink(&buf)
	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: auditEventLoginSuccess,
		UserID:    "u1",
		TenantID:  "t1",
		RequestID: "rid-7",
		Success:   true,
	}
	sink.Emit(context.Background(), event)

	if !buf.Contains("login_success") {
		t.Fatal("expected JSON log line to contain event type")
	}
	if !buf.Contains("\"user_id\":\"u1\"") {
		t.Fatal("expected JSON log line to contain user id")
	}
	if !buf.Contains("\"request_id\":\"rid-7\"") {
		t.Fatal("expected JSON log line to contain request id")
	}
}

func TestAuditDispatcherCloseIdempotentAndEmitAfterCloseSafe(t *testing.T) {
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 4,
		DropIfFull: true,
	}, &countingSink{})

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Close()
	dispatcher.Close()
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})
}

func TestAuditNoSecretsInEvents(t *testing.T) {
	p := newStubPlatform(t)
	sink := NewChannelSink(32)
	client := buildAuditTestClient(t, auditTestConfig(p), sink)

	loginTestClient(t, client)
	firstToken := client.creds.Current()

	// Force a refresh and replay, then a logout, so every event family with
	// credential material in reach gets exercised.
	p.revokeAll()
	resp, err := client.HTTPClient().Get(p.srv.URL + "/api/data")
	if err != nil {
		t.Fatalf("pipeline request failed: %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	secondToken := client.creds.Current()

	if err := client.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	// login_success, tenant_context_loaded, refresh_success,
	// request_replayed, logout.
	events := collectAuditEvents(t, sink, 5)

	needles := []string{testSecret, firstToken, secondToken}
	for _, ev := range events {
		for _, needle := range needles {
			if needle == "" {
				continue
			}
			if strings.Contains(ev.Error, needle) {
				t.Fatalf("%s: sensitive value leaked in audit error field", ev.EventType)
			}
			for k, v := range ev.Metadata {
				if strings.Contains(k, needle) || strings.Contains(v, needle) {
					t.Fatalf("%s: sensitive value leaked in audit metadata", ev.EventType)
				}
			}
		}
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *syncBuffer) Contains(v string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Contains(string(b.buf), v)
}
