package ecdsa

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// BatchError identifies the item of a batch that failed.
type BatchError struct {
	Index int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch item %d: %v", e.Index, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

func batchLimit(n int) int {
	if p := runtime.GOMAXPROCS(0); p < n {
		return p
	}
	return n
}

// SignBatch signs every digest with priv in parallel.  Signatures are
// returned in input order.  The first failure cancels the remaining work and
// is returned as a *BatchError.
func (sg *Signer) SignBatch(ctx context.Context, priv *PrivateKey, digests [][]byte) ([]*Signature, error) {
	sigs := make([]*Signature, len(digests))
	if len(digests) == 0 {
		return sigs, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(batchLimit(len(digests)))
	for i := range digests {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return &BatchError{Index: i, Err: err}
			}
			sig, err := sg.Sign(priv, digests[i])
			if err != nil {
				return &BatchError{Index: i, Err: err}
			}
			sigs[i] = sig
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sigs, nil
}

// VerifyBatch verifies sigs[i] over digests[i] under pub in parallel and
// reports each result in input order.  An error is returned only when the
// inputs are mismatched or ctx is cancelled; invalid signatures are reported
// as false.
func (sg *Signer) VerifyBatch(ctx context.Context, pub *PublicKey, digests [][]byte, sigs []*Signature) ([]bool, error) {
	if len(digests) != len(sigs) {
		return nil, fmt.Errorf("verify batch: %d digests but %d signatures", len(digests), len(sigs))
	}
	results := make([]bool, len(digests))
	if len(digests) == 0 {
		return results, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(batchLimit(len(digests)))
	for i := range digests {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return &BatchError{Index: i, Err: err}
			}
			results[i] = sg.Verify(pub, digests[i], sigs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
