package facts

import (
	"bytes"
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"shamash/internal/classfile"
	"shamash/internal/logging"
	"shamash/internal/policy"
)

// ClassResult is one class's extraction output, ready to be merged into an
// Index.
type ClassResult struct {
	Class   ClassFact
	Methods []MethodFact
	Fields  []FieldFact
	Edges   []DependencyEdge
}

// ExtractClass decodes a single class file's bytes into a ClassResult. A
// malformed class never panics or aborts the run: the caller wraps any
// returned error into a facts.Error (spec.md §7, §8) and skips the class.
func ExtractClass(loc SourceLocation, data []byte) (ClassResult, error) {
	b := newClassBuilder(loc)
	if err := classfile.Parse(bytes.NewReader(data), b); err != nil {
		return ClassResult{}, err
	}
	return ClassResult{Class: b.class, Methods: b.methods, Fields: b.fields, Edges: b.edges}, nil
}

// ExtractAll extracts every origin concurrently, respecting limits.MaxClasses
// and limits.MaxClassBytes, and returns the frozen Index plus any per-class
// FactsErrors. A class that fails to parse is skipped, recorded as a
// facts.Error, and does not abort the scan (spec.md §7: "class-level
// extraction failures are captured, never thrown"). Breaching MaxClasses or
// MaxClassBytes aborts the whole scan with a LimitError, since those protect
// the process itself rather than report on one bad input.
func ExtractAll(ctx context.Context, origins []Origin, limits policy.ScanLimits) (*Index, []Error, error) {
	log := logging.Get(logging.CategoryScan)

	if limits.MaxClasses > 0 && len(origins) > limits.MaxClasses {
		return nil, nil, LimitError{Limit: "maxClasses", Value: int64(len(origins)), Maximum: int64(limits.MaxClasses)}
	}

	results := make([]*ClassResult, len(origins))
	errs := make([]*Error, len(origins))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(extractionConcurrency())

	for i, origin := range origins {
		i, origin := i, origin
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			data, err := origin.Open()
			if err != nil {
				e := newFactsError(origin.Location.ID(), "read", err)
				errs[i] = &e
				return nil
			}
			if limits.MaxClassBytes > 0 && int64(len(data)) > limits.MaxClassBytes {
				return LimitError{Limit: "maxClassBytes", Value: int64(len(data)), Maximum: limits.MaxClassBytes}
			}

			res, err := ExtractClass(origin.Location, data)
			if err != nil {
				log.Debug("extraction failed for %s: %v", origin.Location.ID(), err)
				e := newFactsError(origin.Location.ID(), "parse", err)
				errs[i] = &e
				return nil
			}
			results[i] = &res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var limErr LimitError
		if ok := asLimitError(err, &limErr); ok {
			return nil, nil, limErr
		}
		return nil, nil, fmt.Errorf("extract: %w", err)
	}

	var (
		kept   []ClassResult
		failed []Error
	)
	for i := range origins {
		if errs[i] != nil {
			failed = append(failed, *errs[i])
			continue
		}
		if results[i] != nil {
			kept = append(kept, *results[i])
		}
	}
	log.Info("extracted %d classes, %d failures", len(kept), len(failed))
	return Build(kept), failed, nil
}

func asLimitError(err error, out *LimitError) bool {
	if le, ok := err.(LimitError); ok {
		*out = le
		return true
	}
	return false
}

func extractionConcurrency() int {
	return 8
}
