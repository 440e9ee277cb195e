package domain

import "testing"

func TestDeliveryStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to DeliveryStatus
		want     bool
	}{
		{StopPendente, StopEmTransito, true},
		{StopEmTransito, StopChegou, true},
		{StopChegou, StopEntregue, true},
		{StopChegou, StopFalha, true},
		{StopPendente, StopEntregue, false},
		{StopEntregue, StopPendente, false},
		{StopFalha, StopPendente, false},
		{StopCancelado, StopEmTransito, false},
		{StopPulado, StopPendente, false},
		{StopPendente, StopCancelado, true},
		{StopEmTransito, StopCancelado, true},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s → %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestDeliveryStatusTerminal(t *testing.T) {
	for _, s := range []DeliveryStatus{StopEntregue, StopFalha, StopCancelado, StopPulado} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []DeliveryStatus{StopPendente, StopEmTransito, StopChegou} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestRouteStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to RouteStatus
		want     bool
	}{
		{RouteRascunho, RouteCalculada, true},
		{RouteCalculada, RouteEmAndamento, true},
		{RouteEmAndamento, RoutePausada, true},
		{RoutePausada, RouteEmAndamento, true},
		{RouteEmAndamento, RouteFinalizada, true},
		{RouteRascunho, RouteFinalizada, false},
		{RouteRascunho, RouteEmAndamento, false},
		{RouteFinalizada, RouteEmAndamento, false},
		{RouteCancelada, RouteCalculada, false},
		{RoutePausada, RouteCancelada, true},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s → %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestDriverStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to DriverStatus
		want     bool
	}{
		{DriverDisponivel, DriverEmRota, true},
		{DriverEmRota, DriverPausado, true},
		{DriverPausado, DriverEmRota, true},
		{DriverEmRota, DriverIndisponivel, true},
		{DriverIndisponivel, DriverDisponivel, true},
		{DriverOffline, DriverEmRota, false},
		{DriverIndisponivel, DriverEmRota, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s → %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestMotivoRequiresStopID(t *testing.T) {
	withTarget := []Motivo{MotivoCancelamento, MotivoClienteAusente, MotivoEnderecoIncorreto, MotivoReagendamento}
	for _, m := range withTarget {
		if !m.RequiresStopID() {
			t.Errorf("%s should require a stop id", m)
		}
	}
	withoutTarget := []Motivo{MotivoTrafegoIntenso, MotivoAtrasoAcumulado, MotivoNovoPedidoUrgente}
	for _, m := range withoutTarget {
		if m.RequiresStopID() {
			t.Errorf("%s should not require a stop id", m)
		}
	}
}

func TestZoneGeometry(t *testing.T) {
	polygon := &Zone{Polygon: []Coordinates{{0, 0}, {0, 1}, {1, 1}}}
	if !polygon.HasGeometry() || !polygon.ValidGeometry() {
		t.Error("3-vertex polygon should be valid geometry")
	}

	degenerate := &Zone{Polygon: []Coordinates{{0, 0}, {0, 1}}}
	if degenerate.ValidGeometry() {
		t.Error("2-vertex polygon should be invalid")
	}

	both := &Zone{
		Polygon: []Coordinates{{0, 0}, {0, 1}, {1, 1}},
		Circle:  &Circle{Center: Coordinates{0, 0}, RadiusKm: 1},
	}
	if both.ValidGeometry() {
		t.Error("zone with both geometries should be invalid")
	}

	empty := &Zone{}
	if empty.HasGeometry() {
		t.Error("empty zone has no geometry")
	}
	if !empty.ValidGeometry() {
		t.Error("empty zone is skipped, not an error")
	}
}

func TestRoutePendingStops(t *testing.T) {
	r := &Route{Stops: []Stop{
		{ID: "a", Status: StopEntregue},
		{ID: "b", Status: StopPendente},
		{ID: "c", Status: StopPulado},
		{ID: "d", Status: StopEmTransito},
	}}
	pending := r.PendingStops()
	if len(pending) != 2 || pending[0].ID != "b" || pending[1].ID != "d" {
		t.Fatalf("pending = %+v, want [b d]", pending)
	}
}

func TestRouteLastCompletedPosition(t *testing.T) {
	r := &Route{
		Origin: Coordinates{Lat: 10, Lng: 10},
		Stops: []Stop{
			{ID: "a", Status: StopEntregue, Coordinates: Coordinates{Lat: 1, Lng: 1}},
			{ID: "b", Status: StopPendente, Coordinates: Coordinates{Lat: 2, Lng: 2}},
		},
	}
	if pos := r.LastCompletedPosition(); pos.Lat != 1 {
		t.Fatalf("resume position = %+v, want the delivered stop", pos)
	}

	empty := &Route{Origin: Coordinates{Lat: 10, Lng: 10}}
	if pos := empty.LastCompletedPosition(); pos.Lat != 10 {
		t.Fatalf("resume position = %+v, want the origin", pos)
	}
}

func TestStopWindowEnd(t *testing.T) {
	windowless := &Stop{}
	if windowless.WindowEnd() != EndOfDayMin {
		t.Fatalf("windowless stop end = %d, want end of day", windowless.WindowEnd())
	}
	s := &Stop{Window: &TimeWindow{StartMin: 60, EndMin: 300}}
	if s.WindowEnd() != 300 {
		t.Fatalf("window end = %d, want 300", s.WindowEnd())
	}
}
