package protocol

import "github.com/bytedance/sonic"

// api keeps encoding/json semantics (sorted map keys, HTML escaping) so
// payloads match what the domain types produce on their own.
var api = sonic.ConfigStd

func Marshal(v any) ([]byte, error) { return api.Marshal(v) }

func Unmarshal(b []byte, v any) error { return api.Unmarshal(b, v) }
