package service

import (
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rotafacil/fleet-engine/internal/core/domain"
)

var discardLogger = zerolog.Nop()

func stopAt(id string, lat, lng float64, prio domain.Priority) domain.Stop {
	return domain.Stop{
		ID:          id,
		Coordinates: domain.Coordinates{Lat: lat, Lng: lng},
		Priority:    prio,
		Load:        domain.Load{WeightKg: 10, Volumes: 1},
		Status:      domain.StopPendente,
	}
}

func TestRouteBuilder_EmptyInput(t *testing.T) {
	b := NewRouteBuilder(testEngineConfig(), discardLogger)
	_, err := b.Build(domain.Coordinates{}, nil, false)
	if !errors.Is(err, domain.ErrNoStopsToOptimize) {
		t.Fatalf("want ErrNoStopsToOptimize, got %v", err)
	}
}

func TestRouteBuilder_HighPriorityFirst(t *testing.T) {
	// Origin (0,0); A(0,1), B(0,2) ALTA, C(0,0.5). B is farthest but ALTA,
	// so it is visited first; then nearest-neighbor among {A, C} from B.
	b := NewRouteBuilder(testEngineConfig(), discardLogger)

	stops := []domain.Stop{
		stopAt("A", 0, 1, domain.PriorityMedia),
		stopAt("B", 0, 2, domain.PriorityAlta),
		stopAt("C", 0, 0.5, domain.PriorityMedia),
	}

	result, err := b.Build(domain.Coordinates{Lat: 0, Lng: 0}, stops, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := []string{result.Stops[0].ID, result.Stops[1].ID, result.Stops[2].ID}
	want := []string{"B", "A", "C"} // from B(0,2): A(0,1) closer than C(0,0.5)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("visiting order = %v, want %v", got, want)
		}
	}
}

func TestRouteBuilder_AllHighBeforeAllOthers(t *testing.T) {
	b := NewRouteBuilder(testEngineConfig(), discardLogger)

	stops := []domain.Stop{
		stopAt("n1", 0, 0.01, domain.PriorityBaixa),
		stopAt("h1", 0, 5, domain.PriorityAlta),
		stopAt("n2", 0, 0.02, domain.PriorityMedia),
		stopAt("h2", 0, 6, domain.PriorityAlta),
	}

	result, err := b.Build(domain.Coordinates{}, stops, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seenNonHigh := false
	for _, s := range result.Stops {
		if s.Priority != domain.PriorityAlta {
			seenNonHigh = true
		} else if seenNonHigh {
			t.Fatalf("ALTA stop %s sequenced after a non-ALTA stop", s.ID)
		}
	}
}

func TestRouteBuilder_SequenceAndLegTotals(t *testing.T) {
	b := NewRouteBuilder(testEngineConfig(), discardLogger)

	stops := []domain.Stop{
		stopAt("A", 0, 1, domain.PriorityMedia),
		stopAt("B", 0, 2, domain.PriorityMedia),
	}

	result, err := b.Build(domain.Coordinates{}, stops, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, s := range result.Stops {
		if s.Sequence != i+1 {
			t.Fatalf("stop %s sequence = %d, want %d", s.ID, s.Sequence, i+1)
		}
	}

	var legSum float64
	for _, s := range result.Stops {
		legSum += s.LegDistanceKm
	}
	if math.Abs(result.Metrics.DistanceKm-legSum) > 1e-9 {
		t.Fatalf("total %.4f != sum of legs %.4f", result.Metrics.DistanceKm, legSum)
	}
}

func TestRouteBuilder_ReturnLegInTotalsOnly(t *testing.T) {
	b := NewRouteBuilder(testEngineConfig(), discardLogger)
	stops := []domain.Stop{stopAt("A", 0, 1, domain.PriorityMedia)}

	without, err := b.Build(domain.Coordinates{}, stops, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	with, err := b.Build(domain.Coordinates{}, stops, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(with.Stops) != len(without.Stops) {
		t.Fatal("return leg must not appear as a stop")
	}
	if with.ReturnLegKm <= 0 {
		t.Fatal("return leg distance missing")
	}
	wantTotal := without.Metrics.DistanceKm + with.ReturnLegKm
	if math.Abs(with.Metrics.DistanceKm-wantTotal) > 1e-9 {
		t.Fatalf("total with return = %.4f, want %.4f", with.Metrics.DistanceKm, wantTotal)
	}
	if without.ReturnLegKm != 0 {
		t.Fatal("return leg reported while disabled")
	}
}

func TestRouteBuilder_TimeWindowOrderingWithinPriority(t *testing.T) {
	// Equidistant stops: the one whose window closes sooner is tried first
	// because the pre-sort fixes the tie-break order.
	b := NewRouteBuilder(testEngineConfig(), discardLogger)

	late := stopAt("late", 1, 0, domain.PriorityMedia)
	late.Window = &domain.TimeWindow{StartMin: 60, EndMin: 1200}
	early := stopAt("early", 0, 1, domain.PriorityMedia)
	early.Window = &domain.TimeWindow{StartMin: 60, EndMin: 300}

	result, err := b.Build(domain.Coordinates{}, []domain.Stop{late, early}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Stops[0].ID != "early" {
		t.Fatalf("first stop = %s, want early", result.Stops[0].ID)
	}
}

func TestRouteBuilder_Deterministic(t *testing.T) {
	b := NewRouteBuilder(testEngineConfig(), discardLogger)
	stops := []domain.Stop{
		stopAt("A", 0.3, 0.1, domain.PriorityMedia),
		stopAt("B", 0.1, 0.4, domain.PriorityAlta),
		stopAt("C", 0.2, 0.2, domain.PriorityBaixa),
		stopAt("D", 0.4, 0.3, domain.PriorityAlta),
	}

	first, err := b.Build(domain.Coordinates{}, stops, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := b.Build(domain.Coordinates{}, stops, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for j := range first.Stops {
			if first.Stops[j].ID != again.Stops[j].ID {
				t.Fatalf("run %d produced different order", i)
			}
		}
	}
}

func TestRouteBuilder_CostDerivation(t *testing.T) {
	cfg := testEngineConfig()
	b := NewRouteBuilder(cfg, discardLogger)

	stops := []domain.Stop{stopAt("A", 0, 1, domain.PriorityMedia)}
	result, err := b.Build(domain.Coordinates{}, stops, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantFuel := result.Metrics.DistanceKm / cfg.FuelKmPerLiter
	if math.Abs(result.Metrics.FuelLiters-wantFuel) > 1e-9 {
		t.Fatalf("fuel = %.4f, want %.4f", result.Metrics.FuelLiters, wantFuel)
	}
	wantCost := wantFuel * cfg.FuelPricePerLiter
	if math.Abs(result.Metrics.CostBRL-wantCost) > 1e-9 {
		t.Fatalf("cost = %.4f, want %.4f", result.Metrics.CostBRL, wantCost)
	}
	wantTime := result.Metrics.DistanceKm/cfg.AvgSpeedKmh*60 + cfg.ServiceTimeMin
	if math.Abs(result.Metrics.TravelTimeMin-wantTime) > 1e-9 {
		t.Fatalf("time = %.4f, want %.4f", result.Metrics.TravelTimeMin, wantTime)
	}
}

func TestRouteBuilder_SequencePreservesOrder(t *testing.T) {
	b := NewRouteBuilder(testEngineConfig(), discardLogger)

	stops := []domain.Stop{
		stopAt("far", 0, 3, domain.PriorityMedia),
		stopAt("near", 0, 1, domain.PriorityMedia),
	}

	result, err := b.Sequence(domain.Coordinates{}, stops, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Stops[0].ID != "far" || result.Stops[1].ID != "near" {
		t.Fatal("Sequence must not reorder stops")
	}
	if result.Stops[0].Sequence != 1 || result.Stops[1].Sequence != 2 {
		t.Fatal("Sequence must renumber stops in the given order")
	}
	if result.Stops[1].LegDistanceKm <= 0 {
		t.Fatal("legs must be recomputed")
	}
}
