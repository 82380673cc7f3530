package memtest_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/intervaltree/internal/memtest"
	"github.com/Sumatoshi-tech/intervaltree/internal/workload"
	"github.com/Sumatoshi-tech/intervaltree/pkg/alg/interval"
)

const (
	testBaseline = 1000
	testPerTree  = 400
)

// fakeHeap grows by testPerTree on every read after the baseline.
func fakeHeap() func() uint64 {
	var reads uint64

	return func() uint64 {
		heap := testBaseline + reads*testPerTree
		reads++

		return heap
	}
}

func testOptions() memtest.Options {
	return memtest.Options{
		Algorithm: interval.Centered,
		Budget:    1000,
		TreesMax:  10,
		Workload: workload.Params{
			Kind: workload.KindUniform, Count: 50, Seed: 1,
			KeyMax: 1000, Step: 1, MaxSize: 25,
		},
		ReadHeap: fakeHeap(),
	}
}

// TestRun_StopsAtBudget verifies the run stops once the heap grew by the budget.
func TestRun_StopsAtBudget(t *testing.T) {
	t.Parallel()

	report, err := memtest.Run(context.Background(), testOptions())
	require.NoError(t, err)

	assert.Equal(t, memtest.StopBudget, report.Reason)
	assert.Equal(t, 3, report.Trees())
	assert.Equal(t, uint64(testBaseline), report.Baseline)
	assert.Equal(t, uint64(3*testPerTree), report.Used())
	assert.Equal(t, uint64(testPerTree), report.PerTree())
	assert.InDelta(t, 8.0, report.PerInterval(), 1e-9)
}

// TestRun_StopsAtTreesMax verifies the tree limit wins over a large budget.
func TestRun_StopsAtTreesMax(t *testing.T) {
	t.Parallel()

	opts := testOptions()
	opts.Budget = 1 << 40
	opts.TreesMax = 4

	var seen *memtest.Report

	opts.OnReport = func(r *memtest.Report) { seen = r }

	report, err := memtest.Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, memtest.StopTreesMax, report.Reason)
	assert.Equal(t, 4, report.Trees())
	assert.Same(t, report, seen)
}

// TestRun_AppliesTreeOptions verifies every tree is built with the caller's options.
func TestRun_AppliesTreeOptions(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	opts := testOptions()
	opts.TreeOptions = []interval.Option{interval.WithTracer(tp.Tracer("memtest"))}

	report, err := memtest.Run(context.Background(), opts)
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, report.Trees())

	for _, span := range spans {
		assert.Equal(t, "interval.build", span.Name)
	}
}

func TestRun_InvalidOptions(t *testing.T) {
	t.Parallel()

	opts := testOptions()
	opts.Budget = 0

	_, err := memtest.Run(context.Background(), opts)
	require.ErrorIs(t, err, memtest.ErrInvalidBudget)

	opts = testOptions()
	opts.TreesMax = 0

	_, err = memtest.Run(context.Background(), opts)
	require.ErrorIs(t, err, memtest.ErrInvalidTreesMax)

	opts = testOptions()
	opts.Workload.Step = 0

	_, err = memtest.Run(context.Background(), opts)
	require.ErrorIs(t, err, workload.ErrInvalidParams)
}

// TestRun_HangReturnsOnCancel verifies a hanging run ends with its context.
func TestRun_HangReturnsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	opts := testOptions()
	opts.Hang = true
	opts.OnReport = func(*memtest.Report) { cancel() }

	done := make(chan error, 1)

	go func() {
		_, err := memtest.Run(ctx, opts)
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("memtest did not return after cancel")
	}
}

// TestRun_RealHeap verifies the default heap reader yields a plausible report.
func TestRun_RealHeap(t *testing.T) {
	t.Parallel()

	opts := testOptions()
	opts.ReadHeap = nil
	opts.Budget = 1 << 40
	opts.TreesMax = 2

	report, err := memtest.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Trees())
	assert.Positive(t, report.Baseline)
}

func TestWriteTable(t *testing.T) {
	t.Parallel()

	report, err := memtest.Run(context.Background(), testOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, memtest.WriteTable(&buf, report))

	out := buf.String()
	assert.Contains(t, out, "memtest: centered")
	assert.Contains(t, out, "memory budget reached")
	assert.Contains(t, out, "8.0 B")
	assert.Contains(t, out, "1.2 KiB")
}

func TestListenMetrics(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "heap_bytes 42\n")
	})

	srv, err := memtest.ListenMetrics("127.0.0.1:0", handler)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, srv.Shutdown(context.Background())) })

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, "http://"+srv.Addr()+"/metrics", http.NoBody)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "heap_bytes 42\n", string(body))
}
