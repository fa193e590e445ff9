package step

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/docforge/docforge/derrors"
)

var canonicalEncMode = func() cbor.EncMode {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("step: building canonical CBOR encode mode: %v", err))
	}
	return mode
}()

// envelope pairs a step's wire name with its canonically encoded payload,
// so a reader can dispatch to the right factory before it knows the
// payload's concrete shape. Grounded on core/planfmt/canonical.go's
// CanonicalPlan.MarshalBinary pattern (canonical CBOR, deterministic
// byte-for-byte output for identical steps).
type envelope struct {
	Name    string          `cbor:"name"`
	Payload cbor.RawMessage `cbor:"payload"`
}

// Serialize encodes s deterministically: identical steps always produce
// identical bytes.
func Serialize(s Step) ([]byte, error) {
	payload, err := canonicalEncMode.Marshal(s)
	if err != nil {
		return nil, derrors.E("step.serialize", derrors.Corrupt, fmt.Errorf("encode payload for %q: %w", s.Name(), err))
	}
	env := envelope{Name: s.Name(), Payload: payload}
	out, err := canonicalEncMode.Marshal(env)
	if err != nil {
		return nil, derrors.E("step.serialize", derrors.Corrupt, fmt.Errorf("encode envelope for %q: %w", s.Name(), err))
	}
	return out, nil
}

// Deserialize decodes bytes produced by Serialize, dispatching to reg for
// the concrete step type.
func Deserialize(reg *Registry, data []byte) (Step, error) {
	var env envelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return nil, derrors.E("step.deserialize", derrors.Corrupt, fmt.Errorf("decode envelope: %w", err))
	}
	return reg.Create(env.Name, env.Payload)
}

// decodeStep decodes payload into a fresh *T, the shape every built-in
// step factory needs. Grounded on core/decorator/decoder.go's generic
// DecodeInto[T].
func decodeStep[T any](payload []byte) (Step, error) {
	var v T
	if err := cbor.Unmarshal(payload, &v); err != nil {
		return nil, derrors.E("step.decode", derrors.Corrupt, fmt.Errorf("decode step payload: %w", err))
	}
	return any(&v).(Step), nil
}
