package server

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/borges/store"
	"github.com/chazu/borges/vm"
)

// ---------------------------------------------------------------------------
// Test infrastructure
// ---------------------------------------------------------------------------

// newTestClient starts a server behind httptest and returns a client for it.
func newTestClient(t *testing.T, opts ...ServerOption) (*Client, *Server) {
	t.Helper()
	srv := New(opts...)
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		hs.Close()
		srv.Stop()
	})
	return NewClient(hs.Client(), hs.URL), srv
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func decodeValues(t *testing.T, c *Client, shared bool, values ...vm.Value) []ValueRef {
	t.Helper()
	var slots []float64
	if shared {
		slots = vm.EncodeShared(values...)
	} else {
		slots = vm.EncodeValues(values...)
	}
	resp, err := c.Decode(context.Background(), &DecodeRequest{Slots: slots, Shared: shared})
	require.NoError(t, err)
	require.Len(t, resp.Values, len(values))
	return resp.Values
}

func handleIDs(refs []ValueRef) []string {
	ids := make([]string, len(refs))
	for i, r := range refs {
		ids[i] = r.Handle
	}
	return ids
}

// ---------------------------------------------------------------------------
// Decode / Encode
// ---------------------------------------------------------------------------

func TestDecode(t *testing.T) {
	c, srv := newTestClient(t)

	refs := decodeValues(t, c, false,
		vm.FromNumber(3),
		vm.FromNumberArray(vm.NewArray(1.0, 2.0, 3.0)),
	)
	assert.Equal(t, "number", refs[0].Type)
	assert.Equal(t, "number_array", refs[1].Type)
	assert.NotEqual(t, refs[0].Handle, refs[1].Handle)
	assert.Equal(t, 2, srv.Handles().Len())
}

func TestDecodeInvalidStream(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		slots []float64
	}{
		{"empty", nil},
		{"bad tag", []float64{1, 12, 0}},
		{"underflow", []float64{1, float64(vm.TypeNumberArray), 5, 1, 2}},
		{"bad count", []float64{1.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Decode(ctx, &DecodeRequest{Slots: tt.slots})
			require.Error(t, err)
			assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	values := []vm.Value{
		vm.FromBoolean(true),
		vm.FromVector3(vm.NewVector3(1, 2, 3)),
		vm.FromMatrix4(vm.Translation4(1, 2, 3)),
	}
	refs := decodeValues(t, c, false, values...)

	resp, err := c.Encode(ctx, &EncodeRequest{Handles: handleIDs(refs)})
	require.NoError(t, err)
	assert.Equal(t, vm.EncodeValues(values...), resp.Slots)
}

func TestEncodeSharedPreservesIdentity(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	pts := vm.NewArray(vm.NewVector2(0, 0), vm.NewVector2(1, 1))
	values := []vm.Value{vm.FromVector2Array(pts), vm.FromVector2Array(pts)}
	refs := decodeValues(t, c, true, values...)

	resp, err := c.Encode(ctx, &EncodeRequest{Handles: handleIDs(refs), Shared: true})
	require.NoError(t, err)
	assert.Equal(t, vm.EncodeShared(values...), resp.Slots)

	got, err := vm.DecodeShared(resp.Slots)
	require.NoError(t, err)
	assert.True(t, vm.Same(got[0], got[1]))
}

func TestEncodeUnknownHandle(t *testing.T) {
	c, _ := newTestClient(t)
	_, err := c.Encode(context.Background(), &EncodeRequest{Handles: []string{"h-missing"}})
	require.Error(t, err)
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

// ---------------------------------------------------------------------------
// Inspect / Release
// ---------------------------------------------------------------------------

func TestInspect(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	refs := decodeValues(t, c, false,
		vm.FromNumberArray(vm.NewArray(4.0, 5.0)),
		vm.FromVector2(vm.NewVector2(1, 2)),
	)

	resp, err := c.Inspect(ctx, &InspectRequest{Handle: refs[0].Handle})
	require.NoError(t, err)
	assert.Equal(t, "number_array", resp.Value.Type)
	assert.Equal(t, 2, resp.Len)
	assert.JSONEq(t, `{"type":"number_array","value":[4,5]}`, resp.JSON)

	resp, err = c.Inspect(ctx, &InspectRequest{Handle: refs[1].Handle})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Len)
	assert.JSONEq(t, `{"type":"vector_2","value":[1,2]}`, resp.JSON)
}

func TestInspectErrors(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	_, err := c.Inspect(ctx, &InspectRequest{})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = c.Inspect(ctx, &InspectRequest{Handle: "h-missing"})
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestRelease(t *testing.T) {
	c, srv := newTestClient(t)
	ctx := context.Background()

	refs := decodeValues(t, c, false, vm.FromNumber(1), vm.FromNumber(2))

	resp, err := c.Release(ctx, &ReleaseRequest{Handles: []string{refs[0].Handle, "h-missing"}})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Released)
	assert.Equal(t, 1, srv.Handles().Len())

	_, err = c.Inspect(ctx, &InspectRequest{Handle: refs[0].Handle})
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

// ---------------------------------------------------------------------------
// Call / Functions
// ---------------------------------------------------------------------------

func TestCallApply(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	refs := decodeValues(t, c, false,
		vm.FromMatrix3(vm.Translation3(10, 20)),
		vm.FromVector2(vm.NewVector2(1, 2)),
	)

	resp, err := c.Call(ctx, &CallRequest{Function: "matrix_3.apply", Args: handleIDs(refs)})
	require.NoError(t, err)
	assert.Equal(t, "vector_2", resp.Value.Type)

	enc, err := c.Encode(ctx, &EncodeRequest{Handles: []string{resp.Value.Handle}})
	require.NoError(t, err)
	got, err := vm.DecodeValues(enc.Slots)
	require.NoError(t, err)
	assert.Equal(t, vm.NewVector2(11, 22), got[0].Vector2())
}

func TestCallErrors(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	refs := decodeValues(t, c, false, vm.FromNumber(1))

	_, err := c.Call(ctx, &CallRequest{})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = c.Call(ctx, &CallRequest{Function: "no.such"})
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = c.Call(ctx, &CallRequest{Function: "matrix_3.mul", Args: handleIDs(refs)})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = c.Call(ctx, &CallRequest{Function: "number_array.sum", Args: handleIDs(refs)})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestCallPanicIsInternal(t *testing.T) {
	natives := vm.NewNativeTable()
	natives.MustRegister("number_array.first", func(a *vm.Array[float64]) float64 {
		return a.At(0)
	})
	c, _ := newTestClient(t, WithNatives(natives))
	ctx := context.Background()

	refs := decodeValues(t, c, false, vm.FromNumberArray(vm.NewArray[float64]()))
	_, err := c.Call(ctx, &CallRequest{Function: "number_array.first", Args: handleIDs(refs)})
	require.Error(t, err)
	assert.Equal(t, connect.CodeInternal, connect.CodeOf(err))

	// The worker survives the panic.
	refs = decodeValues(t, c, false, vm.FromNumberArray(vm.NewArray(9.0)))
	resp, err := c.Call(ctx, &CallRequest{Function: "number_array.first", Args: handleIDs(refs)})
	require.NoError(t, err)
	assert.Equal(t, "number", resp.Value.Type)
}

func TestFunctions(t *testing.T) {
	c, _ := newTestClient(t)

	resp, err := c.Functions(context.Background())
	require.NoError(t, err)

	byName := make(map[string]FunctionInfo)
	for _, f := range resp.Functions {
		byName[f.Name] = f
	}
	mul, ok := byName["matrix_3.mul"]
	require.True(t, ok)
	assert.Equal(t, []string{"matrix_3", "matrix_3"}, mul.Params)
	assert.Equal(t, "matrix_3", mul.Result)

	transform, ok := byName["vector_2_array.transform"]
	require.True(t, ok)
	assert.Equal(t, []string{"matrix_3", "vector_2_array"}, transform.Params)
	assert.Equal(t, "vector_2_array", transform.Result)
}

// ---------------------------------------------------------------------------
// Save / Load
// ---------------------------------------------------------------------------

func TestSaveLoadWithoutStore(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	_, err := c.Save(ctx, &SaveRequest{Name: "x"})
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

	_, err = c.Load(ctx, &LoadRequest{Name: "x"})
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))
}

func TestSaveLoad(t *testing.T) {
	c, _ := newTestClient(t, WithStore(newTestStore(t)))
	ctx := context.Background()

	pts := vm.NewArray(1.0, 2.0)
	values := []vm.Value{vm.FromNumberArray(pts), vm.FromNumberArray(pts), vm.FromNumber(5)}
	refs := decodeValues(t, c, true, values...)

	saved, err := c.Save(ctx, &SaveRequest{Name: "scene", Handles: handleIDs(refs), Shared: true})
	require.NoError(t, err)
	assert.Equal(t, "scene", saved.Name)
	assert.Equal(t, 3, saved.Count)
	assert.Len(t, saved.Hash, 32)

	loaded, err := c.Load(ctx, &LoadRequest{Name: "scene"})
	require.NoError(t, err)
	require.Len(t, loaded.Values, 3)
	assert.Equal(t, "number", loaded.Values[2].Type)

	enc, err := c.Encode(ctx, &EncodeRequest{Handles: handleIDs(loaded.Values), Shared: true})
	require.NoError(t, err)
	assert.Equal(t, vm.EncodeShared(values...), enc.Slots)
}

func TestLoadMissing(t *testing.T) {
	c, _ := newTestClient(t, WithStore(newTestStore(t)))

	_, err := c.Load(context.Background(), &LoadRequest{Name: "missing"})
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestSaveRequiresName(t *testing.T) {
	c, _ := newTestClient(t, WithStore(newTestStore(t)))

	_, err := c.Save(context.Background(), &SaveRequest{})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

// ---------------------------------------------------------------------------
// Worker and handle store
// ---------------------------------------------------------------------------

func TestWorkerRecoversContractViolation(t *testing.T) {
	w := NewWorker(vm.NewNativeTable())
	defer w.Stop()

	_, err := w.Do(context.Background(), func(*vm.NativeTable) any {
		return vm.FromNumber(1).Boolean()
	})
	require.Error(t, err)

	var kindErr *vm.KindError
	require.True(t, errors.As(err, &kindErr))
	assert.Equal(t, vm.TypeBoolean, kindErr.Want)
	assert.Equal(t, vm.TypeNumber, kindErr.Got)

	got, err := w.Do(context.Background(), func(*vm.NativeTable) any { return 7 })
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestWorkerCanceledContext(t *testing.T) {
	w := NewWorker(vm.NewNativeTable())
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	_, err := w.Do(ctx, func(*vm.NativeTable) any { ran = true; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran)
}

func TestWorkerDoAfterStop(t *testing.T) {
	w := NewWorker(vm.NewNativeTable())
	w.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 50 {
			_, err := w.Do(context.Background(), func(*vm.NativeTable) any { return nil })
			assert.ErrorIs(t, err, errWorkerStopped)
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Do blocked on a stopped worker")
	}
}

func TestHandleSweep(t *testing.T) {
	hs := NewHandleStore()
	id := hs.Create(vm.FromNumber(1))

	assert.Equal(t, 0, hs.Sweep(time.Hour))
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1, hs.Sweep(time.Millisecond))

	_, ok := hs.Lookup(id)
	assert.False(t, ok)
}
