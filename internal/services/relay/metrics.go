package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	opNotify    = "notify"
	opTest      = "test"
	opConfigure = "configure"
	opForward   = "forward"

	outcomeSent          = "sent"
	outcomeFailed        = "failed"
	outcomeNoDestination = "no_destination"
)

var (
	deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_deliveries_total",
		Help: "Outbound messages by operation and outcome.",
	}, []string{"op", "outcome"})
	providerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_provider_errors_total",
		Help: "Failed Bot API calls by operation and error kind.",
	}, []string{"op", "kind"})
	discoveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_chat_discoveries_total",
		Help: "getUpdates chat id discovery attempts by result.",
	}, []string{"result"})
)
