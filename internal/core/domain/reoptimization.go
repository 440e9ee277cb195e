package domain

// Motivo enumerates the real-world scenarios that trigger a route repair.
type Motivo string

const (
	MotivoCancelamento      Motivo = "CANCELAMENTO"
	MotivoTrafegoIntenso    Motivo = "TRAFEGO_INTENSO"
	MotivoAtrasoAcumulado   Motivo = "ATRASO_ACUMULADO"
	MotivoClienteAusente    Motivo = "CLIENTE_AUSENTE"
	MotivoNovoPedidoUrgente Motivo = "NOVO_PEDIDO_URGENTE"
	MotivoEnderecoIncorreto Motivo = "ENDERECO_INCORRETO"
	MotivoReagendamento     Motivo = "REAGENDAMENTO"
)

// RequiresStopID reports whether the motivo targets a specific stop and the
// request must therefore carry one.
func (m Motivo) RequiresStopID() bool {
	switch m {
	case MotivoCancelamento, MotivoClienteAusente, MotivoEnderecoIncorreto, MotivoReagendamento:
		return true
	}
	return false
}

// ValidMotivo reports whether m is one of the seven enumerated scenarios.
func ValidMotivo(m Motivo) bool {
	switch m {
	case MotivoCancelamento, MotivoTrafegoIntenso, MotivoAtrasoAcumulado,
		MotivoClienteAusente, MotivoNovoPedidoUrgente, MotivoEnderecoIncorreto,
		MotivoReagendamento:
		return true
	}
	return false
}

// ReoptimizationRequest is the closed tagged union consumed by the
// reoptimizer. Exactly the fields the motivo needs are set; the boundary
// validates shape before the engine sees it. Requests are transient and
// consumed once.
type ReoptimizationRequest struct {
	Motivo    Motivo
	StopID    string      // required when Motivo.RequiresStopID()
	NewWindow *TimeWindow // REAGENDAMENTO only
	NewStop   *Stop       // NOVO_PEDIDO_URGENTE only
}
