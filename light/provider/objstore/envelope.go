package objstore

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/lightrelay/lightrelay/light/provider"
	"github.com/lightrelay/lightrelay/types"
)

// BlobVersion is the only envelope version this package understands.
const BlobVersion byte = 0x01

// ObjectKey returns the bucket key of checkpoint seq.
func ObjectKey(seq uint64) string {
	return strconv.FormatUint(seq, 10) + ".chk"
}

// EncodeBlob wraps the canonical encoding of data in a versioned envelope.
func EncodeBlob(data *types.CheckpointData) ([]byte, error) {
	bz, err := types.Encode(data)
	if err != nil {
		return nil, err
	}
	return append([]byte{BlobVersion}, bz...), nil
}

// DecodeBlob unwraps a checkpoint blob. Any failure is an ErrDecode.
func DecodeBlob(blob []byte) (*types.CheckpointData, error) {
	if len(blob) == 0 {
		return nil, provider.ErrDecode{Reason: errors.New("empty blob")}
	}
	if blob[0] != BlobVersion {
		return nil, provider.ErrDecode{
			Reason: fmt.Errorf("unsupported blob version %#x, want %#x", blob[0], BlobVersion),
		}
	}

	var data types.CheckpointData
	if err := types.Decode(blob[1:], &data); err != nil {
		return nil, provider.ErrDecode{Reason: err}
	}
	return &data, nil
}
