// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestErrKeyConstant(t *testing.T) {
	if ErrKey != "error" {
		t.Errorf("expected ErrKey to be 'error', got %q", ErrKey)
	}
}

func TestAppendCtx(t *testing.T) {
	attr := slog.String("owner_id", "alice")
	ctx := AppendCtx(context.TODO(), attr)

	if ctx == nil {
		t.Fatal("expected non-nil context")
	}

	attrs, ok := ctx.Value(slogFields).([]slog.Attr)
	if !ok {
		t.Fatal("expected slog attributes in context")
	}
	if len(attrs) != 1 {
		t.Fatalf("expected 1 attribute, got %d", len(attrs))
	}
	if attrs[0].Key != "owner_id" {
		t.Errorf("expected key 'owner_id', got %q", attrs[0].Key)
	}
	if attrs[0].Value.String() != "alice" {
		t.Errorf("expected value 'alice', got %q", attrs[0].Value.String())
	}
}

func TestAppendCtx_WithParent(t *testing.T) {
	parentCtx := AppendCtx(context.Background(), slog.String("request_id", "req-1"))
	childCtx := AppendCtx(parentCtx, slog.String("owner_id", "alice"))

	attrs, ok := childCtx.Value(slogFields).([]slog.Attr)
	if !ok {
		t.Fatal("expected slog attributes in context")
	}
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "request_id" || attrs[1].Key != "owner_id" {
		t.Errorf("unexpected attribute keys: %q, %q", attrs[0].Key, attrs[1].Key)
	}
}

func TestAppendCtx_NilParent(t *testing.T) {
	//nolint:staticcheck // exercising the nil-parent path on purpose
	ctx := AppendCtx(nil, slog.String("key", "value"))
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}
}

func TestPriority(t *testing.T) {
	attr := Priority("high")
	if attr.Key != "priority" {
		t.Errorf("expected key 'priority', got %q", attr.Key)
	}
	if attr.Value.String() != "high" {
		t.Errorf("expected value 'high', got %q", attr.Value.String())
	}

	critical := PriorityCritical()
	if critical.Value.String() != "critical" {
		t.Errorf("expected value 'critical', got %q", critical.Value.String())
	}
}
