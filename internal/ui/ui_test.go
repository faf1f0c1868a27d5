package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"dvgen/internal/buildpipeline"
	"dvgen/internal/layout"
)

func TestRenderLayoutPlain(t *testing.T) {
	reports := []layout.ClassReport{{
		Class: "geo.Circle", Unit: "circles",
		VectorType: "dv.N3geo6CircleE", Global: "_DVN3geo6CircleE",
		Size: 48, Align: 8,
		Components: []layout.ComponentOffset{{Name: "class_object", Offset: 0}, {Name: "methods", Offset: 24}},
		Slots: []layout.SlotReport{
			{Index: 0, Offset: 24, Method: "geo.Circle.area()", Proc: "_Marea", Override: true},
			{Index: 1, Offset: 32, Method: "geo.Shape.name()", Proc: "_Mname", Abstract: true},
		},
	}}
	var sb strings.Builder
	if err := RenderLayout(&sb, reports, TableOpts{}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := sb.String()
	for _, want := range []string{
		"geo.Circle (unit circles)\n",
		"  type   %dv.N3geo6CircleE\n",
		"  fields class_object@0 methods@24\n",
		"     0 *      24  geo.Circle.area()  _Marea\n",
		"     1  !     32  geo.Shape.name()   _Mname\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("plain output must not contain escapes")
	}
}

func TestRenderLayoutColor(t *testing.T) {
	reports := []layout.ClassReport{{
		Class: "geo.Shape", Unit: "main",
		Slots: []layout.SlotReport{{Index: 0, Offset: 24, Method: "geo.Shape.area()", Proc: "_Marea", Abstract: true}},
	}}
	var sb strings.Builder
	if err := RenderLayout(&sb, reports, TableOpts{Color: true}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := sb.String()
	for _, want := range []string{"geo.Shape", "(unit main)", "geo.Shape.area()", "_Marea"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderLayoutTruncates(t *testing.T) {
	reports := []layout.ClassReport{{
		Class: "a.B",
		Slots: []layout.SlotReport{{Method: strings.Repeat("m", 80), Proc: "p"}},
	}}
	var sb strings.Builder
	_ = RenderLayout(&sb, reports, TableOpts{Width: 40})
	if !strings.Contains(sb.String(), "...") {
		t.Fatalf("expected truncated method:\n%s", sb.String())
	}
}

func TestProgressModelTracksUnits(t *testing.T) {
	ch := make(chan buildpipeline.Event)
	m := NewProgressModel("build", ch).(*progressModel)
	send := func(ev buildpipeline.Event) {
		var model tea.Model
		model, _ = m.Update(eventMsg(ev))
		m = model.(*progressModel)
	}
	send(buildpipeline.Event{Stage: buildpipeline.StageLoad, Status: buildpipeline.StatusDone})
	send(buildpipeline.Event{Unit: "core", Stage: buildpipeline.StageDeclare, Status: buildpipeline.StatusQueued})
	send(buildpipeline.Event{Unit: "extra", Stage: buildpipeline.StageDeclare, Status: buildpipeline.StatusWorking})
	send(buildpipeline.Event{Unit: "core", Stage: buildpipeline.StageEmit, Status: buildpipeline.StatusDone})

	if len(m.items) != 2 || m.items[0].status != "done" || m.items[1].status != "declaring" {
		t.Fatalf("items = %+v", m.items)
	}
	if got := m.percent(); got < 0.59 || got > 0.61 {
		t.Fatalf("percent = %v", got)
	}
	send(buildpipeline.Event{Unit: "core", Stage: buildpipeline.StageEmit, Status: buildpipeline.StatusWorking})
	if m.items[0].status != "done" {
		t.Fatalf("finished unit changed state")
	}
	view := m.View()
	if !strings.Contains(view, "core") || !strings.Contains(view, "(load done)") {
		t.Fatalf("view:\n%s", view)
	}

	model, _ := m.Update(doneMsg{})
	if !strings.Contains(model.View(), "done: build") {
		t.Fatalf("final view:\n%s", model.View())
	}
}
