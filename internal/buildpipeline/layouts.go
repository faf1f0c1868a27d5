package buildpipeline

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"dvgen/internal/diag"
	"dvgen/internal/hierarchy"
	"dvgen/internal/layout"
	"dvgen/internal/layoutcache"
)

// LayoutRequest selects classes to report. Classes filters by qualified
// name; empty means every class.
type LayoutRequest struct {
	CompileRequest
	Classes []string
	Cache   *layoutcache.Cache
}

// LayoutResult is the reports of the requested classes in unit then
// declaration order.
type LayoutResult struct {
	CompileResult
	Reports []layout.ClassReport
	Cached  bool
}

// Layouts reports the vector layout of classes, from the cache when the
// inputs and the target are unchanged.
func Layouts(ctx context.Context, req *LayoutRequest) (LayoutResult, error) {
	var result LayoutResult
	if req == nil {
		return result, fmt.Errorf("missing layout request")
	}
	reqCopy := *req
	req = &reqCopy
	if req.Target.Triple == "" {
		req.Target = layout.X86_64LinuxGNU()
	}

	var key layoutcache.Digest
	if req.Cache != nil {
		contents := make([][]byte, 0, len(req.Inputs))
		for _, path := range req.Inputs {
			content, ok := req.Sources[path]
			if !ok {
				// #nosec G304 -- path comes from compiler inputs
				data, err := os.ReadFile(path)
				if err != nil {
					return result, fmt.Errorf("load %s: %w", path, err)
				}
				content = data
			}
			contents = append(contents, content)
		}
		contents = append(contents, []byte(req.RootName), []byte(req.DefaultUnit))
		key = layoutcache.Key(hierarchy.HashContents(contents...), req.Target.Triple)
		var payload layoutcache.Payload
		if ok, err := req.Cache.Get(key, &payload); err == nil && ok {
			result.Reports = filterReports(payload.Classes, req.Classes)
			result.Cached = true
			return result, nil
		}
	}

	compileReq := req.CompileRequest
	compileReq.EmitThunks = false
	compileRes, err := Compile(ctx, &compileReq)
	result.CompileResult = compileRes
	if err != nil {
		return result, err
	}

	var all []layout.ClassReport
	eng := layout.New(req.Target)
	for _, u := range compileRes.Units {
		rep := &layout.Reporter{Engine: eng, Context: u.Context, Methods: compileRes.Resolver, Names: compileRes.Names}
		for _, c := range u.Classes {
			var cr layout.ClassReport
			func() {
				defer diag.Recover(&err)
				cr, err = rep.Describe(c)
			}()
			if err != nil {
				return result, fmt.Errorf("unit %s: %w", u.Name, err)
			}
			all = append(all, cr)
		}
	}
	if req.Cache != nil {
		payload := &layoutcache.Payload{
			Target:    req.Target.Triple,
			InputHash: compileRes.Table.Hash,
			Classes:   all,
		}
		if err := req.Cache.Put(key, payload); err != nil {
			return result, fmt.Errorf("layout cache: %w", err)
		}
	}
	result.Reports = filterReports(all, req.Classes)
	return result, nil
}

func filterReports(all []layout.ClassReport, names []string) []layout.ClassReport {
	if len(names) == 0 {
		return all
	}
	return slices.DeleteFunc(slices.Clone(all), func(r layout.ClassReport) bool {
		return !slices.ContainsFunc(names, func(n string) bool { return strings.EqualFold(n, r.Class) })
	})
}
