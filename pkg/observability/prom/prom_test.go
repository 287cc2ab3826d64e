package prom

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/nodewire/pkg/errors"
	"github.com/matzehuels/nodewire/pkg/observability"
)

func TestMutationResultLabels(t *testing.T) {
	c := NewCollector("test")
	ctx := context.Background()

	c.OnMutation(ctx, "connection.create", nil)
	c.OnMutation(ctx, "connection.create", errors.New(errors.ErrCodeIncompatibleSockets, "no"))
	c.OnMutation(ctx, "connection.create", errors.New(errors.ErrCodeIncompatibleSockets, "no"))

	if got := testutil.ToFloat64(c.mutations.WithLabelValues("connection.create", "ok")); got != 1 {
		t.Errorf("ok mutations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.mutations.WithLabelValues("connection.create", "INCOMPATIBLE_SOCKETS")); got != 2 {
		t.Errorf("rejected mutations = %v, want 2", got)
	}
}

func TestResult(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{errors.New(errors.ErrCodeLayoutUnavailable, "x"), "LAYOUT_UNAVAILABLE"},
		{io.EOF, "error"},
	}
	for _, tt := range tests {
		if got := result(tt.err); got != tt.want {
			t.Errorf("result(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestInstallAndHandler(t *testing.T) {
	observability.Reset()
	t.Cleanup(observability.Reset)

	c := NewCollector("nodewire")
	c.Install()

	ctx := context.Background()
	observability.Editor().OnImport(ctx, 3, 2, time.Millisecond, nil)
	observability.Cache().OnCacheHit(ctx, "layout")
	observability.Storage().OnSave(ctx, "redis", 10, time.Millisecond, nil)
	c.ObserveHTTP("GET", "/graph", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{
		`nodewire_imports_total{result="ok"} 1`,
		`nodewire_graph_elements{element="nodes"} 3`,
		`nodewire_cache_operations_total{key_type="layout",op="hit"} 1`,
		`nodewire_storage_operations_total{backend="redis",op="save",result="ok"} 1`,
		`nodewire_http_requests_total{method="GET",route="/graph",status="200"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
