// Package badge decides which achievements a learner unlocks after a review.
//
// Every badge carries a CEL predicate over a Snapshot, for example
// "current_streak >= 7". Predicates are compiled once and cached.
package badge

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/cel-go/cel"
	"go.uber.org/zap"

	"lexis/internal/domain"
)

// Evaluator runs badge predicates. It is safe for concurrent use.
type Evaluator struct {
	env    *cel.Env
	logger *zap.Logger

	mu       sync.Mutex
	programs map[string]compiled
}

type compiled struct {
	expr string
	prg  cel.Program
	err  error
}

// NewEvaluator creates an evaluator with the snapshot variables declared
func NewEvaluator(logger *zap.Logger) (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("total_xp", cel.IntType),
		cel.Variable("level", cel.IntType),
		cel.Variable("current_streak", cel.IntType),
		cel.Variable("longest_streak", cel.IntType),
		cel.Variable("words_started", cel.IntType),
		cel.Variable("words_recalled", cel.IntType),
		cel.Variable("words_mastered", cel.IntType),
		cel.Variable("total_reviews", cel.IntType),
		cel.Variable("perfect_reviews", cel.IntType),
		cel.Variable("modes_used", cel.IntType),
		cel.Variable("total_modes", cel.IntType),
		cel.Variable("hour", cel.IntType),
		cel.Variable("weekday", cel.IntType),
		cel.Variable("last_score", cel.IntType),
		cel.Variable("last_response_ms", cel.IntType),
		cel.Variable("last_mode", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create badge environment: %w", err)
	}

	return &Evaluator{
		env:      env,
		logger:   logger,
		programs: make(map[string]compiled),
	}, nil
}

// Evaluate returns the catalog badges whose predicate holds for snap and that
// are not in earned yet, ordered by ID. A predicate that fails to compile,
// errors at runtime or does not yield a bool never fires.
func (e *Evaluator) Evaluate(catalog []domain.Badge, snap Snapshot, earned map[string]bool) []domain.Badge {
	vars := snap.vars()

	var unlocked []domain.Badge
	for _, b := range catalog {
		if earned[b.ID] {
			continue
		}
		if e.matches(b, vars) {
			unlocked = append(unlocked, b)
		}
	}

	sort.Slice(unlocked, func(i, j int) bool {
		return unlocked[i].ID < unlocked[j].ID
	})
	return unlocked
}

func (e *Evaluator) matches(b domain.Badge, vars map[string]any) bool {
	c := e.program(b)
	if c.err != nil {
		return false
	}

	out, _, err := c.prg.Eval(vars)
	if err != nil {
		e.logger.Warn("Badge predicate failed",
			zap.String("badge_id", b.ID),
			zap.Error(err),
		)
		return false
	}

	fired, ok := out.Value().(bool)
	if !ok {
		e.logger.Warn("Badge predicate is not boolean",
			zap.String("badge_id", b.ID),
			zap.String("predicate", b.Predicate),
		)
		return false
	}
	return fired
}

// program returns the cached program of a badge, compiling it on first use
// or when the predicate text changed.
func (e *Evaluator) program(b domain.Badge) compiled {
	e.mu.Lock()
	defer e.mu.Unlock()

	if c, ok := e.programs[b.ID]; ok && c.expr == b.Predicate {
		return c
	}

	c := compiled{expr: b.Predicate}
	ast, issues := e.env.Compile(b.Predicate)
	if issues != nil && issues.Err() != nil {
		c.err = issues.Err()
	} else {
		c.prg, c.err = e.env.Program(ast)
	}

	if c.err != nil {
		e.logger.Warn("Skipping malformed badge predicate",
			zap.String("badge_id", b.ID),
			zap.String("predicate", b.Predicate),
			zap.Error(c.err),
		)
	}

	e.programs[b.ID] = c
	return c
}
