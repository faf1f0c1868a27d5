package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"dvgen/internal/diag"
	"dvgen/internal/dispatch"
	"dvgen/internal/hierarchy"
	"dvgen/internal/layout"
	"dvgen/internal/llvmutil"
	"dvgen/internal/mangle"
	"dvgen/internal/observ"
	"dvgen/internal/resolve"
	"dvgen/internal/rtti"
	"dvgen/internal/source"
	"dvgen/internal/testkit"
	"dvgen/internal/trace"
	"dvgen/internal/types"
)

// ErrDiagnostics is returned when the class table has errors; they are in
// CompileResult.Bag.
var ErrDiagnostics = errors.New("class table has errors")

// CompileRequest configures the shared compilation pipeline.
type CompileRequest struct {
	Inputs         []string          // class table files
	Sources        map[string][]byte // in-memory inputs by path; others are read from disk
	RootName       string
	DefaultUnit    string
	Target         layout.Target
	Jobs           int
	EmitThunks     bool
	Check          bool
	MaxDiagnostics int
	Progress       ProgressSink
	Timer          *observ.Timer
}

// UnitResult is one compiled unit.
type UnitResult struct {
	Name    string
	Module  *llvmutil.Module
	Context *dispatch.Context
	Classes []types.TypeID
	Thunks  int
	Timings Timings
}

// CompileResult captures compilation artefacts and stage timings.
type CompileResult struct {
	Files    *source.FileSet
	Bag      *diag.Bag
	Table    *hierarchy.Table
	Resolver *resolve.Resolver
	Names    *mangle.Mangler
	Units    []*UnitResult // sorted by name
	Timings  Timings
}

// Compile loads the class table and builds the dispatch vectors of every unit.
// Units are compiled in parallel; each gets its own LLVM module.
func Compile(ctx context.Context, req *CompileRequest) (CompileResult, error) {
	var result CompileResult
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return result, fmt.Errorf("missing compile request")
	}
	if len(req.Inputs) == 0 {
		return result, fmt.Errorf("no class table inputs")
	}
	reqCopy := *req
	req = &reqCopy
	if req.Target.Triple == "" {
		req.Target = layout.X86_64LinuxGNU()
	}
	timer := req.Timer
	if timer == nil {
		timer = observ.NewTimer()
	}
	tr := trace.FromContext(ctx)
	parent := trace.CurrentSpan(ctx)

	// load
	emitStage(req.Progress, "", StageLoad, StatusWorking, nil, 0)
	loadStart := time.Now()
	span := trace.Begin(tr, trace.ScopePass, "load", parent)
	idx := timer.Begin("load")
	result.Files = source.NewFileSet()
	result.Bag = diag.NewBag(req.MaxDiagnostics)
	ids := make([]source.FileID, 0, len(req.Inputs))
	for _, path := range req.Inputs {
		if content, ok := req.Sources[path]; ok {
			ids = append(ids, result.Files.AddVirtual(path, content))
			continue
		}
		id, err := result.Files.Load(path)
		if err != nil {
			err = fmt.Errorf("load %s: %w", path, err)
			span.End(err.Error())
			timer.End(idx, "failed")
			emitStage(req.Progress, "", StageLoad, StatusError, err, time.Since(loadStart))
			return result, err
		}
		ids = append(ids, id)
	}
	table, ok := hierarchy.Load(result.Files, ids, &diag.BagReporter{Bag: result.Bag}, hierarchy.Options{
		RootName:    req.RootName,
		DefaultUnit: req.DefaultUnit,
	})
	result.Table = table
	result.Bag.Sort()
	result.Bag.Dedup()
	timer.End(idx, fmt.Sprintf("%d classes", len(table.Classes)))
	span.WithExtra("classes", fmt.Sprint(len(table.Classes))).End("")
	result.Timings.Set(StageLoad, time.Since(loadStart))
	if !ok {
		emitStage(req.Progress, "", StageLoad, StatusError, ErrDiagnostics, time.Since(loadStart))
		return result, ErrDiagnostics
	}
	emitStage(req.Progress, "", StageLoad, StatusDone, nil, time.Since(loadStart))

	// resolve
	resolveStart := time.Now()
	span = trace.Begin(tr, trace.ScopePass, "resolve", parent)
	idx = timer.Begin("resolve")
	result.Resolver = resolve.New(table.Types)
	result.Names = mangle.New(table.Types)
	if err := resolveAll(ctx, result.Resolver, table, req.Jobs); err != nil {
		span.End(err.Error())
		timer.End(idx, "failed")
		emitStage(req.Progress, "", StageResolve, StatusError, err, time.Since(resolveStart))
		return result, err
	}
	span.End("")
	timer.End(idx, "")
	result.Timings.Set(StageResolve, time.Since(resolveStart))

	for _, unit := range table.Units {
		emitStage(req.Progress, unit, StageDeclare, StatusQueued, nil, 0)
	}

	// units
	units := make([]*UnitResult, len(table.Units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobsFor(req.Jobs, len(table.Units)))
	for i, unit := range table.Units {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			u, err := compileUnit(gctx, req, &result, unit, timer)
			units[i] = u
			if err != nil {
				return fmt.Errorf("unit %s: %w", unit, err)
			}
			return nil
		})
	}
	err := g.Wait()
	for _, u := range units {
		if u == nil {
			continue
		}
		result.Units = append(result.Units, u)
		for _, st := range UnitStages {
			result.Timings.Add(st, u.Timings.Duration(st))
		}
	}
	slices.SortFunc(result.Units, func(a, b *UnitResult) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return result, err
}

// resolveAll computes every slot list up front so units only read the cache.
func resolveAll(ctx context.Context, res *resolve.Resolver, table *hierarchy.Table, jobs int) error {
	var classes []types.TypeID
	for _, c := range table.Classes {
		if info, _ := table.Types.ClassInfo(c); !info.IsInterface() {
			classes = append(classes, c)
		}
	}
	if len(classes) == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobsFor(jobs, len(classes)))
	for _, c := range classes {
		g.Go(func() (err error) {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			defer diag.Recover(&err)
			res.SlotList(c)
			return nil
		})
	}
	return g.Wait()
}

func compileUnit(ctx context.Context, req *CompileRequest, shared *CompileResult, unit string, timer *observ.Timer) (u *UnitResult, err error) {
	tr := trace.FromContext(ctx)
	unitSpan := trace.Begin(tr, trace.ScopeUnit, unit, trace.CurrentSpan(ctx))
	defer func() {
		if err != nil {
			unitSpan.End(err.Error())
			return
		}
		unitSpan.End("")
	}()

	table := shared.Table
	in := table.Types
	u = &UnitResult{Name: unit, Classes: table.ClassesIn(unit)}
	u.Module = llvmutil.NewModule(unit, in, shared.Names)
	u.Module.SetTarget(req.Target.Triple, req.Target.DataLayout)
	owns := func(c types.TypeID) bool { return table.UnitOf(c) == unit }
	u.Context = dispatch.NewContext(dispatch.Config{
		Types:   in,
		Module:  u.Module,
		Mangler: shared.Names,
		Methods: shared.Resolver,
		RTTI:    rtti.New(u.Module, in, shared.Names, owns),
		Tracer:  tr,
		Span:    unitSpan.ID(),
	})

	run := func(stage Stage, fn func() (string, error)) (err error) {
		start := time.Now()
		emitStage(req.Progress, unit, stage, StatusWorking, nil, 0)
		idx := timer.BeginUnit(string(stage), unit)
		span := trace.Begin(tr, trace.ScopePass, string(stage), unitSpan.ID())
		var note string
		func() {
			defer diag.Recover(&err)
			note, err = fn()
		}()
		elapsed := time.Since(start)
		u.Timings.Set(stage, elapsed)
		timer.End(idx, note)
		if err != nil {
			span.End(err.Error())
			emitStage(req.Progress, unit, stage, StatusError, err, elapsed)
			return err
		}
		span.End(note)
		emitStage(req.Progress, unit, stage, StatusDone, nil, elapsed)
		return nil
	}

	if err := run(StageDeclare, func() (string, error) {
		for _, c := range u.Classes {
			u.Context.GetDispatchVectorFor(c)
		}
		return fmt.Sprintf("%d vectors", len(u.Classes)), nil
	}); err != nil {
		return u, err
	}
	if err := ctx.Err(); err != nil {
		return u, err
	}
	if err := run(StageInitialize, func() (string, error) {
		for _, c := range u.Classes {
			u.Context.InitializeDispatchVectorFor(c)
		}
		return "", nil
	}); err != nil {
		return u, err
	}
	if req.EmitThunks {
		if err := run(StageThunks, func() (string, error) {
			u.Thunks = EmitThunks(u.Context, shared.Names, u.Classes)
			return fmt.Sprintf("%d thunks", u.Thunks), nil
		}); err != nil {
			return u, err
		}
	}
	if req.Check {
		if err := run(StageCheck, func() (string, error) {
			var errs []error
			for _, c := range u.Classes {
				errs = append(errs,
					testkit.CheckPrefixCompatible(u.Context, shared.Resolver, c),
					testkit.CheckVectorLayout(u.Context, shared.Resolver, c))
			}
			return "", errors.Join(errs...)
		}); err != nil {
			return u, err
		}
	}
	return u, nil
}

func jobsFor(jobs, work int) int {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	return max(1, min(jobs, work))
}

func emitStage(sink ProgressSink, unit string, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Unit: unit, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
}
