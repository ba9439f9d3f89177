package service

import (
	"context"
	"fmt"
	"strings"

	"smart-planner/core/errors"
	"smart-planner/core/logger"
	"smart-planner/core/utils"
	"smart-planner/modules/planner/entity"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

// EventStore is the source of truth for a user's events.
type EventStore interface {
	List(ctx context.Context) ([]entity.Event, error)
	Create(ctx context.Context, draft entity.EventDraft) (entity.Event, error)
	Update(ctx context.Context, id string, draft entity.EventDraft) (entity.Event, error)
	Delete(ctx context.Context, id string) error
}

// Plan turns proposed entries into one store op each, in request order. It does
// not touch any store.
func Plan(current []entity.Event, proposed []entity.OptimizedEntry, matcher Matcher) []entity.StoreOp {
	if matcher == nil {
		matcher = TitleMatcher{}
	}

	ops := make([]entity.StoreOp, 0, len(proposed))
	for i, p := range proposed {
		draft := entity.EventDraft{
			Title:       p.Title,
			Description: p.Description,
			Start:       p.Start,
			End:         p.End,
			Location:    p.Location,
			Category:    entity.Category(p.Category),
		}

		if match, ok := matcher.Match(p, current); ok {
			if !draft.Category.Valid() {
				draft.Category = entity.NormalizeCategory(string(match.Category))
			}
			ops = append(ops, entity.StoreOp{Kind: entity.OpUpdate, EventID: match.ID, Draft: draft, Index: i})
			continue
		}

		if !draft.Category.Valid() {
			draft.Category = entity.CategoryOther
		}
		ops = append(ops, entity.StoreOp{Kind: entity.OpCreate, Draft: draft, Index: i})
	}
	return ops
}

// SettleAll runs every op concurrently and waits for all of them. Outcomes are
// returned in op order. Updates that target the same event run one after another
// in op order, so the last one wins.
func SettleAll(ctx context.Context, store EventStore, ops []entity.StoreOp) []entity.OpOutcome {
	outcomes := make([]entity.OpOutcome, len(ops))

	// group indices so same-id updates form one sequential chain
	var chains [][]int
	byID := make(map[string]int)
	for i, op := range ops {
		if op.Kind == entity.OpUpdate && op.EventID != "" {
			if c, ok := byID[op.EventID]; ok {
				chains[c] = append(chains[c], i)
				continue
			}
			byID[op.EventID] = len(chains)
		}
		chains = append(chains, []int{i})
	}

	var wg conc.WaitGroup
	for _, chain := range chains {
		wg.Go(func() {
			for _, i := range chain {
				outcomes[i] = runOp(ctx, store, ops[i])
			}
		})
	}
	wg.Wait()
	return outcomes
}

func runOp(ctx context.Context, store EventStore, op entity.StoreOp) entity.OpOutcome {
	out := entity.OpOutcome{Op: op}
	if err := op.Draft.Validate(); err != nil {
		out.Err = err
		return out
	}

	var (
		ev  entity.Event
		err error
	)
	var pc panics.Catcher
	pc.Try(func() {
		switch op.Kind {
		case entity.OpUpdate:
			ev, err = store.Update(ctx, op.EventID, op.Draft)
		case entity.OpCreate:
			ev, err = store.Create(ctx, op.Draft)
		default:
			err = fmt.Errorf("unknown op kind %q", op.Kind)
		}
	})
	if r := pc.Recovered(); r != nil {
		out.Err = fmt.Errorf("store %s panicked: %v", op.Kind, r.Value)
		return out
	}
	if err != nil {
		out.Err = err
		return out
	}
	out.Event = &ev
	return out
}

// MergeEngine reconciles a proposed schedule with the store.
type MergeEngine struct {
	Matcher Matcher
}

func NewMergeEngine(matcher Matcher) *MergeEngine {
	if matcher == nil {
		matcher = TitleMatcher{}
	}
	return &MergeEngine{Matcher: matcher}
}

// ApplyOptimizedSchedule plans the proposed entries against current, settles
// every op, then reloads the store exactly once. Ops that succeeded are kept
// even when others fail. The error is non-nil when any op failed or the reload
// failed; the result is always filled in.
func (m *MergeEngine) ApplyOptimizedSchedule(ctx context.Context, store EventStore, current []entity.Event, proposed []entity.OptimizedEntry) (entity.MergeResult, error) {
	result := entity.MergeResult{BatchID: utils.GenerateID()}

	ops := Plan(current, proposed, m.Matcher)
	result.Outcomes = SettleAll(ctx, store, ops)

	var failures []string
	for _, o := range result.Outcomes {
		if !o.OK() {
			result.Failed++
			failures = append(failures, fmt.Sprintf("%s %q: %v", o.Op.Kind, o.Op.Draft.Title, o.Err))
			continue
		}
		switch o.Op.Kind {
		case entity.OpCreate:
			result.Created++
		case entity.OpUpdate:
			result.Updated++
		}
	}

	snapshot, err := store.List(ctx)
	if err != nil {
		result.ReloadErr = err
	} else {
		result.Snapshot = snapshot
	}

	logger.Info("MergeEngine:Apply:Settled",
		"batch", result.BatchID,
		"ops", len(ops),
		"created", result.Created,
		"updated", result.Updated,
		"failed", result.Failed,
		"reload_ok", err == nil,
	)

	if result.Failed > 0 {
		msg := fmt.Sprintf("%d of %d schedule changes failed", result.Failed, len(ops))
		return result, errors.NewAppError(errors.ErrPartialMerge, msg, errors.New(strings.Join(failures, "; ")))
	}
	if result.ReloadErr != nil {
		return result, errors.NewAppError(errors.ErrTransport, "schedule applied but reloading events failed", result.ReloadErr)
	}
	return result, nil
}
