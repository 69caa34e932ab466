package types

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Every signed or hashed structure is serialized with CBOR core
// deterministic encoding, with structs laid out as arrays. Two equal values
// always produce the same bytes.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// Encode returns the canonical encoding of v.
func Encode(v interface{}) ([]byte, error) {
	bz, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding %T: %w", v, err)
	}
	return bz, nil
}

// MustEncode is like Encode but panics on error. Only use it with values
// whose types are known to be encodable.
func MustEncode(v interface{}) []byte {
	bz, err := Encode(v)
	if err != nil {
		panic(err)
	}
	return bz
}

// Decode parses canonically encoded bz into v.
func Decode(bz []byte, v interface{}) error {
	if err := decMode.Unmarshal(bz, v); err != nil {
		return fmt.Errorf("decoding %T: %w", v, err)
	}
	return nil
}
