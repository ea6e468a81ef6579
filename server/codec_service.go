package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"

	"github.com/chazu/borges/store"
	"github.com/chazu/borges/vm"
)

// CodecServiceName is the fully-qualified name of the codec service.
const CodecServiceName = "borges.v1.CodecService"

// Procedure paths of the codec service.
const (
	DecodeProcedure    = "/" + CodecServiceName + "/Decode"
	EncodeProcedure    = "/" + CodecServiceName + "/Encode"
	InspectProcedure   = "/" + CodecServiceName + "/Inspect"
	CallProcedure      = "/" + CodecServiceName + "/Call"
	FunctionsProcedure = "/" + CodecServiceName + "/Functions"
	SaveProcedure      = "/" + CodecServiceName + "/Save"
	LoadProcedure      = "/" + CodecServiceName + "/Load"
	ReleaseProcedure   = "/" + CodecServiceName + "/Release"
)

var (
	errWorkerStopped = errors.New("worker stopped")
	errNoStore       = errors.New("no snapshot store attached")
)

// CodecService implements the CodecService Connect handlers.
type CodecService struct {
	worker  *Worker
	handles *HandleStore
	store   *store.Store // may be nil
}

// NewCodecService creates a CodecService. st may be nil, in which case
// Save and Load fail with CodeFailedPrecondition.
func NewCodecService(worker *Worker, handles *HandleStore, st *store.Store) *CodecService {
	return &CodecService{
		worker:  worker,
		handles: handles,
		store:   st,
	}
}

// Handler returns the path prefix and HTTP handler serving every procedure
// of the service.
func (s *CodecService) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithCBOR()}, opts...)
	mux := http.NewServeMux()
	mux.Handle(DecodeProcedure, connect.NewUnaryHandler(DecodeProcedure, s.Decode, opts...))
	mux.Handle(EncodeProcedure, connect.NewUnaryHandler(EncodeProcedure, s.Encode, opts...))
	mux.Handle(InspectProcedure, connect.NewUnaryHandler(InspectProcedure, s.Inspect, opts...))
	mux.Handle(CallProcedure, connect.NewUnaryHandler(CallProcedure, s.Call, opts...))
	mux.Handle(FunctionsProcedure, connect.NewUnaryHandler(FunctionsProcedure, s.Functions, opts...))
	mux.Handle(SaveProcedure, connect.NewUnaryHandler(SaveProcedure, s.Save, opts...))
	mux.Handle(LoadProcedure, connect.NewUnaryHandler(LoadProcedure, s.Load, opts...))
	mux.Handle(ReleaseProcedure, connect.NewUnaryHandler(ReleaseProcedure, s.Release, opts...))
	return "/" + CodecServiceName + "/", mux
}

// Decode reads a slot stream and returns a handle for every value in it.
func (s *CodecService) Decode(
	ctx context.Context,
	req *connect.Request[DecodeRequest],
) (*connect.Response[DecodeResponse], error) {
	slots := req.Msg.Slots
	shared := req.Msg.Shared

	result, err := s.worker.Do(ctx, func(*vm.NativeTable) any {
		if shared {
			values, err := vm.DecodeShared(slots)
			return decoded{values, err}
		}
		values, err := vm.DecodeValues(slots)
		return decoded{values, err}
	})
	if err != nil {
		return nil, workerError(err)
	}
	d := result.(decoded)
	if d.err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, d.err)
	}

	log.Debug("decoded stream", "slots", len(slots), "values", len(d.values), "shared", shared)
	return connect.NewResponse(&DecodeResponse{Values: s.refs(d.values)}), nil
}

type decoded struct {
	values []vm.Value
	err    error
}

// Encode writes the values behind the given handles as one stream.
func (s *CodecService) Encode(
	ctx context.Context,
	req *connect.Request[EncodeRequest],
) (*connect.Response[EncodeResponse], error) {
	values, err := s.lookup(req.Msg.Handles)
	if err != nil {
		return nil, err
	}
	shared := req.Msg.Shared

	result, err := s.worker.Do(ctx, func(*vm.NativeTable) any {
		if shared {
			return vm.EncodeShared(values...)
		}
		return vm.EncodeValues(values...)
	})
	if err != nil {
		return nil, workerError(err)
	}
	return connect.NewResponse(&EncodeResponse{Slots: result.([]float64)}), nil
}

// Inspect describes the value behind a handle.
func (s *CodecService) Inspect(
	ctx context.Context,
	req *connect.Request[InspectRequest],
) (*connect.Response[InspectResponse], error) {
	id := req.Msg.Handle
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("handle is required"))
	}
	v, ok := s.handles.Lookup(id)
	if !ok {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("handle %q not found", id))
	}

	data, err := v.MarshalJSON()
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	resp := &InspectResponse{
		Value: ValueRef{Handle: id, Type: v.Type().String(), Display: v.String()},
		JSON:  string(data),
	}
	if v.Type().IsArray() {
		resp.Len = arrayLen(v)
	}
	return connect.NewResponse(resp), nil
}

func arrayLen(v vm.Value) int {
	switch v.Type() {
	case vm.TypeBooleanArray:
		return v.BooleanArray().Len()
	case vm.TypeNumberArray:
		return v.NumberArray().Len()
	case vm.TypeVector2Array:
		return v.Vector2Array().Len()
	case vm.TypeVector3Array:
		return v.Vector3Array().Len()
	case vm.TypeMatrix3Array:
		return v.Matrix3Array().Len()
	case vm.TypeMatrix4Array:
		return v.Matrix4Array().Len()
	}
	return 0
}

// Call invokes a native function with the values behind the argument
// handles and returns a handle to the result.
func (s *CodecService) Call(
	ctx context.Context,
	req *connect.Request[CallRequest],
) (*connect.Response[CallResponse], error) {
	name := req.Msg.Function
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("function is required"))
	}
	args, err := s.lookup(req.Msg.Args)
	if err != nil {
		return nil, err
	}

	result, err := s.worker.Do(ctx, func(natives *vm.NativeTable) any {
		v, err := natives.Call(name, args...)
		return called{v, err}
	})
	if err != nil {
		return nil, workerError(err)
	}
	c := result.(called)
	switch {
	case errors.Is(c.err, vm.ErrUnknownFunction):
		return nil, connect.NewError(connect.CodeNotFound, c.err)
	case c.err != nil:
		return nil, connect.NewError(connect.CodeInvalidArgument, c.err)
	}

	log.Debug("called native", "function", name, "result", c.value.Type().String())
	return connect.NewResponse(&CallResponse{Value: s.ref(c.value)}), nil
}

type called struct {
	value vm.Value
	err   error
}

// Functions lists the registered native functions.
func (s *CodecService) Functions(
	ctx context.Context,
	req *connect.Request[FunctionsRequest],
) (*connect.Response[FunctionsResponse], error) {
	result, err := s.worker.Do(ctx, func(natives *vm.NativeTable) any {
		var infos []FunctionInfo
		for _, name := range natives.Names() {
			n, _ := natives.Lookup(name)
			info := FunctionInfo{Name: name, Result: n.Descriptor.Result.String()}
			for _, p := range n.Descriptor.Params {
				info.Params = append(info.Params, p.String())
			}
			infos = append(infos, info)
		}
		return infos
	})
	if err != nil {
		return nil, workerError(err)
	}
	return connect.NewResponse(&FunctionsResponse{Functions: result.([]FunctionInfo)}), nil
}

// Save stores the values behind the given handles as a named snapshot.
func (s *CodecService) Save(
	ctx context.Context,
	req *connect.Request[SaveRequest],
) (*connect.Response[SaveResponse], error) {
	if s.store == nil {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errNoStore)
	}
	if req.Msg.Name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("name is required"))
	}
	values, err := s.lookup(req.Msg.Handles)
	if err != nil {
		return nil, err
	}

	info, err := s.store.Put(ctx, req.Msg.Name, values, req.Msg.Shared)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&SaveResponse{
		ID:    info.ID,
		Name:  info.Name,
		Count: info.Count,
		Hash:  info.Hash[:],
	}), nil
}

// Load decodes a named snapshot and returns a handle for every value.
func (s *CodecService) Load(
	ctx context.Context,
	req *connect.Request[LoadRequest],
) (*connect.Response[LoadResponse], error) {
	if s.store == nil {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errNoStore)
	}
	values, err := s.store.Get(ctx, req.Msg.Name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, connect.NewError(connect.CodeNotFound, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&LoadResponse{Values: s.refs(values)}), nil
}

// Release drops handles. Unknown handles are ignored.
func (s *CodecService) Release(
	ctx context.Context,
	req *connect.Request[ReleaseRequest],
) (*connect.Response[ReleaseResponse], error) {
	released := 0
	for _, id := range req.Msg.Handles {
		if s.handles.Release(id) {
			released++
		}
	}
	return connect.NewResponse(&ReleaseResponse{Released: released}), nil
}

func (s *CodecService) lookup(ids []string) ([]vm.Value, error) {
	values, missing, ok := s.handles.LookupAll(ids)
	if !ok {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("handle %q not found", missing))
	}
	return values, nil
}

func (s *CodecService) ref(v vm.Value) ValueRef {
	return ValueRef{
		Handle:  s.handles.Create(v),
		Type:    v.Type().String(),
		Display: v.String(),
	}
}

func (s *CodecService) refs(values []vm.Value) []ValueRef {
	refs := make([]ValueRef, len(values))
	for i, v := range values {
		refs[i] = s.ref(v)
	}
	return refs
}

// workerError maps an error from Worker.Do to a Connect error.
func workerError(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.Is(err, errWorkerStopped):
		return connect.NewError(connect.CodeUnavailable, err)
	}
	log.Error("recovered panic", "error", err.Error())
	return connect.NewError(connect.CodeInternal, err)
}
