package seltra

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchConcurrency is used when TranslateBatch gets a non-positive limit.
const DefaultBatchConcurrency = 4

// TranslateBatch translates every text against the provider and language
// pair active when the call starts, running at most concurrency backend
// calls at a time. Texts that are equal after trimming are translated
// once. Results are returned in input order.
func (e *Engine) TranslateBatch(ctx context.Context, texts []string, concurrency int) []Result {
	results := make([]Result, len(texts))
	if len(texts) == 0 {
		return results
	}
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}

	st := e.state.Load()

	// Group indexes by text hash, preserving first-seen order
	groups := make(map[string][]int)
	var order []string
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			results[i] = Failure(ReasonEmptyInput, "empty text provided")
			continue
		}
		h := HashText(text)
		if _, seen := groups[h]; !seen {
			order = append(order, h)
		}
		groups[h] = append(groups[h], i)
	}

	var g errgroup.Group
	g.SetLimit(concurrency)
	for _, h := range order {
		idx := groups[h]
		g.Go(func() error {
			r := e.translate(ctx, st, texts[idx[0]])
			for _, i := range idx {
				results[i] = r
			}
			return nil
		})
	}
	_ = g.Wait()

	e.logger.Debug("batch translated", "provider", st.name, "texts", len(texts), "unique", len(order))
	return results
}
