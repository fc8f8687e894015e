package gateway

import "expvar"

var (
	metricGameCreateTotal = expvar.NewInt("game_create_total")
	metricJoinTotal       = expvar.NewInt("game_join_total")
	metricSubmitTotal     = expvar.NewInt("action_submit_total")
	metricForceTurnTotal  = expvar.NewInt("force_turn_total")

	metricTurnTotal     = expvar.NewInt("turn_resolve_total")
	metricTurnFailTotal = expvar.NewInt("turn_resolve_errors_total")

	metricSSEConnectionsTotal  = expvar.NewInt("sse_connections_total")
	metricSSEConnectionsActive = expvar.NewInt("sse_connections_active")
)
