package server

import (
	"connectrpc.com/connect"

	"github.com/chazu/borges/vm/dist"
)

// cborCodec carries Connect messages as canonical CBOR, the same encoding
// used for chunks. Messages are plain Go structs.
type cborCodec struct{}

var _ connect.Codec = cborCodec{}

func (cborCodec) Name() string { return "cbor" }

func (cborCodec) Marshal(msg any) ([]byte, error) {
	return dist.Marshal(msg)
}

func (cborCodec) Unmarshal(data []byte, msg any) error {
	return dist.Unmarshal(data, msg)
}

// WithCBOR returns the option that registers the CBOR codec on handlers
// and clients.
func WithCBOR() connect.Option {
	return connect.WithCodec(cborCodec{})
}
