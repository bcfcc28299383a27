package operation_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/certstore/storage"
	"github.com/onflow/certstore/storage/operation"
	"github.com/onflow/certstore/storage/operation/dbtest"
)

func TestBatchCallbacks(t *testing.T) {
	dbtest.RunWithDB(t, func(t *testing.T, db storage.DB) {
		var results []error
		err := db.WithReaderBatchWriter(func(rw storage.ReaderBatchWriter) error {
			rw.AddCallback(func(err error) { results = append(results, err) })
			rw.AddCallback(func(err error) { results = append(results, err) })
			return operation.UpsertByKey(rw.Writer(), []byte{0x01}, 1)
		})
		require.NoError(t, err)
		assert.Equal(t, []error{nil, nil}, results)

		results = nil
		failure := errors.New("failure")
		err = db.WithReaderBatchWriter(func(rw storage.ReaderBatchWriter) error {
			rw.AddCallback(func(err error) { results = append(results, err) })
			return failure
		})
		require.ErrorIs(t, err, failure)
		require.Len(t, results, 1)
		assert.ErrorIs(t, results[0], failure)
	})
}
