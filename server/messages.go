package server

// Messages of the CodecService. Field keys are integers so that the CBOR
// encoding stays compact and stable under renames.

// ValueRef describes a value held by the server.
type ValueRef struct {
	Handle  string `cbor:"1,keyasint"`
	Type    string `cbor:"2,keyasint"`
	Display string `cbor:"3,keyasint"`
}

type DecodeRequest struct {
	Slots  []float64 `cbor:"1,keyasint"`
	Shared bool      `cbor:"2,keyasint"`
}

type DecodeResponse struct {
	Values []ValueRef `cbor:"1,keyasint"`
}

type EncodeRequest struct {
	Handles []string `cbor:"1,keyasint"`
	Shared  bool     `cbor:"2,keyasint"`
}

type EncodeResponse struct {
	Slots []float64 `cbor:"1,keyasint"`
}

type InspectRequest struct {
	Handle string `cbor:"1,keyasint"`
}

type InspectResponse struct {
	Value ValueRef `cbor:"1,keyasint"`
	// JSON is the value in its JSON form.
	JSON string `cbor:"2,keyasint"`
	// Len is the element count of an array value, 0 otherwise.
	Len int `cbor:"3,keyasint"`
}

type CallRequest struct {
	Function string   `cbor:"1,keyasint"`
	Args     []string `cbor:"2,keyasint"`
}

type CallResponse struct {
	Value ValueRef `cbor:"1,keyasint"`
}

type FunctionsRequest struct{}

// FunctionInfo is a native function with its descriptor.
type FunctionInfo struct {
	Name   string   `cbor:"1,keyasint"`
	Params []string `cbor:"2,keyasint"`
	Result string   `cbor:"3,keyasint"`
}

type FunctionsResponse struct {
	Functions []FunctionInfo `cbor:"1,keyasint"`
}

type SaveRequest struct {
	Name    string   `cbor:"1,keyasint"`
	Handles []string `cbor:"2,keyasint"`
	Shared  bool     `cbor:"3,keyasint"`
}

type SaveResponse struct {
	ID    string `cbor:"1,keyasint"`
	Name  string `cbor:"2,keyasint"`
	Count int    `cbor:"3,keyasint"`
	Hash  []byte `cbor:"4,keyasint"`
}

type LoadRequest struct {
	Name string `cbor:"1,keyasint"`
}

type LoadResponse struct {
	Values []ValueRef `cbor:"1,keyasint"`
}

type ReleaseRequest struct {
	Handles []string `cbor:"1,keyasint"`
}

type ReleaseResponse struct {
	Released int `cbor:"1,keyasint"`
}
