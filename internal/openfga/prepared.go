// Copyright 2024 Canonical Ltd.
// SPDX-License-Identifier: AGPL

package openfga

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/openfga/go-sdk/client"

	"github.com/canonical/identity-platform-admin-ui/internal/apperror"
	"github.com/canonical/identity-platform-admin-ui/internal/pool"
	"github.com/canonical/identity-platform-admin-ui/internal/relation"
)

// CheckResult is one slot of a PreparedChecks.Execute response, positioned
// at the same index the corresponding Tuple was appended at.
type CheckResult struct {
	Allowed bool
	Err     error
}

// PreparedChecks batches tuples into OpenFGA BatchCheck calls, chunked to
// the server's max_checks_per_batch_check quota, and dispatched concurrently
// across the worker pool. Results come back keyed by a server-visible
// correlation id rather than request order, so the only way to return them
// in caller order is to remember which id it minted for which slot.
type PreparedChecks struct {
	c *Client

	tuples []relation.Tuple
}

func (c *Client) PreparedChecks() PreparedChecksInterface {
	return &PreparedChecks{c: c}
}

func (p *PreparedChecks) Add(t relation.Tuple) {
	p.tuples = append(p.tuples, t)
}

// Execute runs every queued check and returns one CheckResult per queued
// tuple, in the same order tuples were added.
func (p *PreparedChecks) Execute(ctx context.Context) ([]CheckResult, error) {
	ctx, span := p.c.tracer.Start(ctx, "openfga.PreparedChecks.Execute")
	defer span.End()

	if len(p.tuples) == 0 {
		return nil, nil
	}

	results := make([]CheckResult, len(p.tuples))

	chunks := chunkIndices(len(p.tuples), p.c.maxChecksPerBatchCheck)

	resultsCh := make(chan *pool.Result[any], len(chunks))
	var wg sync.WaitGroup
	wg.Add(len(chunks))

	for _, chunk := range chunks {
		chunk := chunk
		job := func() any {
			return p.executeChunk(ctx, chunk)
		}

		if _, err := p.c.wpool.Submit(job, resultsCh, &wg); err != nil {
			wg.Done()
			p.c.logger.Errorf("issues submitting batch check chunk: %s", err)
		}
	}

	wg.Wait()
	close(resultsCh)

	for r := range resultsCh {
		chunkResult := r.Value.(chunkCheckResult)
		for i, res := range chunkResult.results {
			results[chunkResult.indices[i]] = res
		}
	}

	return results, nil
}

type chunkCheckResult struct {
	indices []int
	results []CheckResult
}

func (p *PreparedChecks) executeChunk(ctx context.Context, indices []int) chunkCheckResult {
	items := make([]client.ClientBatchCheckItem, len(indices))
	correlationToSlot := make(map[string]int, len(indices))

	for i, idx := range indices {
		t := p.tuples[idx]
		user, relationName, object := t.Values()
		correlationID := uuid.New().String()

		items[i] = client.ClientBatchCheckItem{
			User:          user,
			Relation:      relationName,
			Object:        object,
			CorrelationId: correlationID,
		}
		correlationToSlot[correlationID] = idx
	}

	out := chunkCheckResult{indices: indices, results: make([]CheckResult, len(indices))}

	body := client.ClientBatchCheckRequest{Checks: items}

	resp, err := p.c.c.BatchCheckExecute(
		p.c.c.BatchCheck(ctx).Body(body).Options(client.ClientBatchCheckOptions{}),
	)
	if err != nil {
		wrapped := apperror.RequestFailure(err)
		for i := range out.results {
			out.results[i] = CheckResult{Err: wrapped}
		}
		return out
	}

	resultMap := resp.GetResult()
	for correlationID, slot := range correlationToSlot {
		single, ok := resultMap[correlationID]
		pos := indexOf(indices, slot)
		if !ok {
			out.results[pos] = CheckResult{Err: apperror.RequestFailure(nil)}
			continue
		}
		out.results[pos] = CheckResult{Allowed: single.GetAllowed()}
	}

	return out
}

// PreparedWrites batches tuple writes into OpenFGA Write calls chunked to
// the server's max_tuples_per_write quota, dispatched concurrently. Writes
// are non-transactional: a failing chunk does not roll back chunks already
// applied, nor does it cancel chunks already in flight.
type PreparedWrites struct {
	c      *Client
	tuples []relation.Tuple
}

func (c *Client) PreparedWrites() PreparedMutationInterface {
	return &PreparedWrites{c: c}
}

func (p *PreparedWrites) Add(t relation.Tuple) {
	p.tuples = append(p.tuples, t)
}

func (p *PreparedWrites) Execute(ctx context.Context) error {
	return executeMutationChunks(ctx, p.c, p.tuples, p.c.WriteTuples)
}

// PreparedDeletes is the delete-side counterpart of PreparedWrites, with the
// same chunking and error handling: every chunk is submitted and awaited,
// and Execute then returns the first chunk error it finds. A failing chunk
// does not stop or cancel the other chunks.
type PreparedDeletes struct {
	c      *Client
	tuples []relation.Tuple
}

func (c *Client) PreparedDeletes() PreparedMutationInterface {
	return &PreparedDeletes{c: c}
}

func (p *PreparedDeletes) Add(t relation.Tuple) {
	p.tuples = append(p.tuples, t)
}

func (p *PreparedDeletes) Execute(ctx context.Context) error {
	return executeMutationChunks(ctx, p.c, p.tuples, p.c.DeleteTuples)
}

func executeMutationChunks(ctx context.Context, c *Client, tuples []relation.Tuple, apply func(context.Context, ...Tuple) error) error {
	if len(tuples) == 0 {
		return nil
	}

	chunks := chunkIndices(len(tuples), c.maxTuplesPerWrite)

	resultsCh := make(chan *pool.Result[any], len(chunks))
	var wg sync.WaitGroup
	wg.Add(len(chunks))

	for _, chunk := range chunks {
		chunk := chunk
		batch := make([]Tuple, len(chunk))
		for i, idx := range chunk {
			user, relationName, object := tuples[idx].Values()
			batch[i] = *NewTuple(user, relationName, object)
		}

		job := func() any {
			return apply(ctx, batch...)
		}

		if _, err := c.wpool.Submit(job, resultsCh, &wg); err != nil {
			wg.Done()
			c.logger.Errorf("issues submitting write/delete chunk: %s", err)
		}
	}

	wg.Wait()
	close(resultsCh)

	var firstErr error
	for r := range resultsCh {
		if r.Value == nil {
			continue
		}
		if err, ok := r.Value.(error); ok && err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

func chunkIndices(n, size int) [][]int {
	if size <= 0 {
		size = n
	}

	chunks := make([][]int, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		idx := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			idx = append(idx, i)
		}
		chunks = append(chunks, idx)
	}

	return chunks
}

func indexOf(indices []int, target int) int {
	for i, v := range indices {
		if v == target {
			return i
		}
	}
	return -1
}
