package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rotafacil/fleet-engine/internal/core/domain"
)

func newTestReoptimizer(t *testing.T) (*Reoptimizer, *stubRouteRepo) {
	t.Helper()
	routes := newStubRouteRepo()
	builder := NewRouteBuilder(testEngineConfig(), discardLogger)
	return NewReoptimizer(routes, builder, &stubPublisher{}, discardLogger), routes
}

func seedRoute(t *testing.T, routes *stubRouteRepo, stops ...domain.Stop) *domain.Route {
	t.Helper()
	route := &domain.Route{
		OrgID:    "org1",
		DriverID: "d1",
		Status:   domain.RouteEmAndamento,
		Stops:    stops,
	}
	if err := routes.Save(context.Background(), route); err != nil {
		t.Fatalf("seed route: %v", err)
	}
	return route
}

func TestReoptimize_UnknownMotivo(t *testing.T) {
	r, routes := newTestReoptimizer(t)
	route := seedRoute(t, routes, stopAt("A", 0, 1, domain.PriorityMedia))

	_, err := r.Reoptimize(context.Background(), route.ID, domain.ReoptimizationRequest{Motivo: "ENGARRAFAMENTO"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

func TestReoptimize_MissingTargetFailsBeforeMutation(t *testing.T) {
	r, routes := newTestReoptimizer(t)
	route := seedRoute(t, routes, stopAt("A", 0, 1, domain.PriorityMedia))

	_, err := r.Reoptimize(context.Background(), route.ID, domain.ReoptimizationRequest{Motivo: domain.MotivoCancelamento})
	if !errors.Is(err, domain.ErrMissingTarget) {
		t.Fatalf("want ErrMissingTarget, got %v", err)
	}

	after, _ := routes.FindByID(context.Background(), route.ID)
	if len(after.Stops) != 1 {
		t.Fatal("route mutated despite validation failure")
	}
}

func TestReoptimize_Cancelamento(t *testing.T) {
	r, routes := newTestReoptimizer(t)
	route := seedRoute(t, routes,
		stopAt("A", 0, 1, domain.PriorityMedia),
		stopAt("B", 0, 2, domain.PriorityMedia),
	)

	result, err := r.Reoptimize(context.Background(), route.ID, domain.ReoptimizationRequest{
		Motivo: domain.MotivoCancelamento,
		StopID: "A",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Action != "removed" {
		t.Fatalf("action = %s, want removed", result.Action)
	}
	if len(result.Route.Stops) != 1 || result.Route.Stops[0].ID != "B" {
		t.Fatalf("stops after cancel = %+v", result.Route.Stops)
	}
}

func TestReoptimize_Cancelamento_Idempotent(t *testing.T) {
	r, routes := newTestReoptimizer(t)
	route := seedRoute(t, routes,
		stopAt("A", 0, 1, domain.PriorityMedia),
		stopAt("B", 0, 2, domain.PriorityMedia),
	)

	req := domain.ReoptimizationRequest{Motivo: domain.MotivoCancelamento, StopID: "A"}
	if _, err := r.Reoptimize(context.Background(), route.ID, req); err != nil {
		t.Fatalf("first cancel: %v", err)
	}

	// Cancelling the same stop again is a no-op, not an error.
	result, err := r.Reoptimize(context.Background(), route.ID, req)
	if err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if result.Action != "noop" {
		t.Fatalf("action = %s, want noop", result.Action)
	}
	if len(result.Route.Stops) != 1 {
		t.Fatal("second cancel changed the route")
	}
}

func TestReoptimize_ClienteAusente_DefersToEnd(t *testing.T) {
	r, routes := newTestReoptimizer(t)
	route := seedRoute(t, routes,
		stopAt("A", 0, 1, domain.PriorityMedia),
		stopAt("B", 0, 2, domain.PriorityMedia),
		stopAt("C", 0, 3, domain.PriorityMedia),
	)

	result, err := r.Reoptimize(context.Background(), route.ID, domain.ReoptimizationRequest{
		Motivo: domain.MotivoClienteAusente,
		StopID: "A",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := make([]string, len(result.Route.Stops))
	for i, s := range result.Route.Stops {
		got[i] = s.ID
	}
	// A moves to the end; B and C keep their relative order.
	want := []string{"B", "C", "A"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order after defer = %v, want %v", got, want)
		}
	}
	if result.Route.Stops[2].Sequence != 3 {
		t.Fatalf("deferred stop sequence = %d, want 3", result.Route.Stops[2].Sequence)
	}
}

func TestReoptimize_NovoPedidoUrgente_InsertsStop(t *testing.T) {
	r, routes := newTestReoptimizer(t)
	route := seedRoute(t, routes,
		stopAt("A", 0, 1, domain.PriorityMedia),
		stopAt("B", 0, 2, domain.PriorityMedia),
	)

	urgent := stopAt("U", 0, 1.5, "")
	result, err := r.Reoptimize(context.Background(), route.ID, domain.ReoptimizationRequest{
		Motivo:  domain.MotivoNovoPedidoUrgente,
		NewStop: &urgent,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Action != "inserted" {
		t.Fatalf("action = %s, want inserted", result.Action)
	}
	if len(result.Route.Stops) != 3 {
		t.Fatalf("stops = %d, want 3", len(result.Route.Stops))
	}
	// An unset priority defaults to ALTA, so the insert leads the rebuilt tail.
	if result.Route.Stops[0].ID != "U" {
		t.Fatalf("first stop = %s, want U", result.Route.Stops[0].ID)
	}
}

func TestReoptimize_NovoPedidoUrgente_KeepsExplicitPriority(t *testing.T) {
	r, routes := newTestReoptimizer(t)
	route := seedRoute(t, routes,
		stopAt("A", 0, 1, domain.PriorityMedia),
		stopAt("B", 0, 2, domain.PriorityMedia),
	)

	urgent := stopAt("U", 0, 1.5, domain.PriorityBaixa)
	result, err := r.Reoptimize(context.Background(), route.ID, domain.ReoptimizationRequest{
		Motivo:  domain.MotivoNovoPedidoUrgente,
		NewStop: &urgent,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, s := range result.Route.Stops {
		if s.ID == "U" {
			if s.Priority != domain.PriorityBaixa {
				t.Fatalf("priority = %s, want the explicit BAIXA kept", s.Priority)
			}
			return
		}
	}
	t.Fatal("inserted stop missing from route")
}

func TestReoptimize_PublishesUpdatedMetrics(t *testing.T) {
	routes := newStubRouteRepo()
	builder := NewRouteBuilder(testEngineConfig(), discardLogger)
	publisher := &stubPublisher{}
	r := NewReoptimizer(routes, builder, publisher, discardLogger)
	route := seedRoute(t, routes,
		stopAt("A", 0, 1, domain.PriorityMedia),
		stopAt("B", 0, 2, domain.PriorityMedia),
	)

	if _, err := r.Reoptimize(context.Background(), route.ID, domain.ReoptimizationRequest{
		Motivo: domain.MotivoCancelamento,
		StopID: "A",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(publisher.events) != 1 || publisher.events[0].Type != domain.EventRouteMetrics {
		t.Fatalf("published events = %+v, want one route_metrics", publisher.events)
	}

	// A no-op repair commits nothing and must not publish.
	if _, err := r.Reoptimize(context.Background(), route.ID, domain.ReoptimizationRequest{
		Motivo: domain.MotivoCancelamento,
		StopID: "A",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("published events = %d after noop, want still 1", len(publisher.events))
	}
}

func TestReoptimize_EnderecoIncorreto_SkipsStop(t *testing.T) {
	r, routes := newTestReoptimizer(t)
	route := seedRoute(t, routes,
		stopAt("A", 0, 1, domain.PriorityMedia),
		stopAt("B", 0, 2, domain.PriorityMedia),
	)

	result, err := r.Reoptimize(context.Background(), route.ID, domain.ReoptimizationRequest{
		Motivo: domain.MotivoEnderecoIncorreto,
		StopID: "A",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var skipped *domain.Stop
	for i := range result.Route.Stops {
		if result.Route.Stops[i].ID == "A" {
			skipped = &result.Route.Stops[i]
		}
	}
	if skipped == nil || skipped.Status != domain.StopPulado {
		t.Fatalf("stop A status = %+v, want PULADO", skipped)
	}
	// Skipped stop is excluded from the rebuilt tail metrics.
	if result.Route.Metrics.DistanceKm <= 0 {
		t.Fatal("metrics not recomputed")
	}
}

func TestReoptimize_Reagendamento_UpdatesWindow(t *testing.T) {
	r, routes := newTestReoptimizer(t)
	route := seedRoute(t, routes,
		stopAt("A", 0, 1, domain.PriorityMedia),
		stopAt("B", 0, 2, domain.PriorityMedia),
	)

	result, err := r.Reoptimize(context.Background(), route.ID, domain.ReoptimizationRequest{
		Motivo:    domain.MotivoReagendamento,
		StopID:    "B",
		NewWindow: &domain.TimeWindow{StartMin: 600, EndMin: 720},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, s := range result.Route.Stops {
		if s.ID == "B" {
			if s.Window == nil || s.Window.StartMin != 600 || s.Window.EndMin != 720 {
				t.Fatalf("window = %+v, want [600, 720)", s.Window)
			}
			return
		}
	}
	t.Fatal("stop B missing after reschedule")
}

func TestReoptimize_Reagendamento_RejectsBadWindow(t *testing.T) {
	r, routes := newTestReoptimizer(t)
	route := seedRoute(t, routes, stopAt("A", 0, 1, domain.PriorityMedia))

	_, err := r.Reoptimize(context.Background(), route.ID, domain.ReoptimizationRequest{
		Motivo:    domain.MotivoReagendamento,
		StopID:    "A",
		NewWindow: &domain.TimeWindow{StartMin: 720, EndMin: 600},
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

func TestReoptimize_TerminalStopsUntouched(t *testing.T) {
	r, routes := newTestReoptimizer(t)
	delivered := stopAt("done", 0, 0.5, domain.PriorityMedia)
	delivered.Status = domain.StopEntregue
	route := seedRoute(t, routes,
		delivered,
		stopAt("A", 0, 1, domain.PriorityMedia),
	)

	// Deferring a delivered stop fails: terminal stops are immutable.
	_, err := r.Reoptimize(context.Background(), route.ID, domain.ReoptimizationRequest{
		Motivo: domain.MotivoClienteAusente,
		StopID: "done",
	})
	if !errors.Is(err, domain.ErrStopNotFound) {
		t.Fatalf("want ErrStopNotFound for terminal stop, got %v", err)
	}
}

func TestReoptimize_TerminalRouteRejected(t *testing.T) {
	r, routes := newTestReoptimizer(t)
	route := seedRoute(t, routes, stopAt("A", 0, 1, domain.PriorityMedia))
	route.Status = domain.RouteFinalizada
	_ = routes.Save(context.Background(), route)

	_, err := r.Reoptimize(context.Background(), route.ID, domain.ReoptimizationRequest{
		Motivo: domain.MotivoTrafegoIntenso,
	})
	if !errors.Is(err, domain.ErrRouteNotMutable) {
		t.Fatalf("want ErrRouteNotMutable, got %v", err)
	}
}

func TestReoptimize_TrafegoIntenso_OrdersByWindowUrgency(t *testing.T) {
	r, routes := newTestReoptimizer(t)

	loose := stopAt("loose", 0, 1, domain.PriorityMedia)
	loose.Window = &domain.TimeWindow{StartMin: 0, EndMin: 1200}
	tight := stopAt("tight", 0, 5, domain.PriorityMedia)
	tight.Window = &domain.TimeWindow{StartMin: 0, EndMin: 300}

	route := seedRoute(t, routes, loose, tight)

	result, err := r.Reoptimize(context.Background(), route.ID, domain.ReoptimizationRequest{
		Motivo: domain.MotivoTrafegoIntenso,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// tight is farther but its window closes first, so it leads.
	if result.Route.Stops[0].ID != "tight" {
		t.Fatalf("first stop = %s, want tight", result.Route.Stops[0].ID)
	}
}

func TestReoptimize_RouteNotFound(t *testing.T) {
	r, _ := newTestReoptimizer(t)
	_, err := r.Reoptimize(context.Background(), "ghost", domain.ReoptimizationRequest{
		Motivo: domain.MotivoTrafegoIntenso,
	})
	if !errors.Is(err, domain.ErrRouteNotFound) {
		t.Fatalf("want ErrRouteNotFound, got %v", err)
	}
}
