package qc

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"
)

// Verifier bundles an aggregate-signature scheme with the QC operations.
// It is stateless and safe for concurrent use.
type Verifier struct {
	scheme      AggregateScheme
	parallelism int
}

// NewVerifier returns a Verifier over the given scheme. CheckBatch verifies at most
// GOMAXPROCS certificates at a time.
func NewVerifier(scheme AggregateScheme) *Verifier {
	return &Verifier{
		scheme:      scheme,
		parallelism: runtime.GOMAXPROCS(0),
	}
}

// WithParallelism returns a copy of the verifier bounding CheckBatch to n concurrent checks.
func (v *Verifier) WithParallelism(n int) *Verifier {
	if n < 1 {
		n = 1
	}
	return &Verifier{
		scheme:      v.scheme,
		parallelism: n,
	}
}

func (v *Verifier) Sign(pp PublicParams, sk []byte, msg Message, rng io.Reader) (Signature, error) {
	return Sign(v.scheme, pp, sk, msg, rng)
}

func (v *Verifier) Assemble(params Params, signers SignerBitmap, sigs []Signature) (*QuorumCertificate, error) {
	return Assemble(v.scheme, params, signers, sigs)
}

func (v *Verifier) Check(params Params, msg Message, qc *QuorumCertificate) (uint256.Int, error) {
	return Check(v.scheme, params, msg, qc)
}

func (v *Verifier) Trace(params Params, msg Message, qc *QuorumCertificate) ([][]byte, error) {
	return Trace(v.scheme, params, msg, qc)
}

// BatchItem is one certificate of a batch check, together with the message it certifies.
type BatchItem struct {
	Message     Message
	Certificate *QuorumCertificate
}

// CheckBatch checks all certificates of the batch concurrently against the same parameters.
// It returns the signed stake of each certificate, index-aligned with items. The first
// failure cancels the remaining checks and is returned annotated with the item's index;
// its ParameterError or VerificationError type is preserved.
// Returns ctx.Err() if the context is cancelled before all checks completed.
func (v *Verifier) CheckBatch(ctx context.Context, params Params, items []BatchItem) ([]uint256.Int, error) {
	weights := make([]uint256.Int, len(items))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(v.parallelism)
	for i, item := range items {
		i := i
		item := item

		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			weight, err := Check(v.scheme, params, item.Message, item.Certificate)
			if err != nil {
				return fmt.Errorf("could not check certificate at index %d: %w", i, err)
			}
			weights[i] = weight
			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, err
	}
	// a cancelled parent context may stop the loop early without any goroutine failing
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return weights, nil
}
