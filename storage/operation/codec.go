package operation

import (
	"errors"

	"github.com/golang/snappy"
	"github.com/vmihailenco/msgpack/v4"

	"github.com/onflow/certstore/module/irrecoverable"
)

var errUncompressedValue = errors.New("could not uncompress data")

// encodeEntity encodes the given entity using msgpack and compresses the result with snappy.
// possible error to return is irrecoverable.exception
func encodeEntity(entity any) ([]byte, error) {
	val, err := msgpack.Marshal(entity)
	if err != nil {
		return nil, irrecoverable.NewExceptionf("could not encode entity: %w", err)
	}
	return snappy.Encode(nil, val), nil
}

// decodeValue uncompresses the value and decodes it into the given entity using msgpack.
// possible error to return is irrecoverable.exception
func decodeValue(val []byte, entity any) error {
	uncompressedVal, err := snappy.Decode(nil, val)
	if err != nil {
		return irrecoverable.NewExceptionf("%s: %w", err.Error(), errUncompressedValue)
	}
	err = msgpack.Unmarshal(uncompressedVal, entity)
	if err != nil {
		return irrecoverable.NewExceptionf("could not decode entity: %w", err)
	}
	return nil
}
