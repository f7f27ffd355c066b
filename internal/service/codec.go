package service

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// Codec carries the RPC messages as plain JSON. It replaces Connect's
// protobuf-JSON codec under the same name, so requests use
// Content-Type: application/json.
type Codec struct{}

var _ connect.Codec = Codec{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(message any) ([]byte, error) {
	return json.Marshal(message)
}

func (Codec) Unmarshal(data []byte, message any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, message)
}
