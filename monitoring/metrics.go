package monitoring

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticketsSold = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_sold_total",
			Help: "Tickets sold on the primary market per event",
		},
		[]string{"event_id"},
	)

	resalesSettled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resales_settled_total",
			Help: "Resale listings settled per event",
		},
		[]string{"event_id"},
	)

	redemptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_redemptions_total",
			Help: "Tickets redeemed at the venue per event",
		},
		[]string{"event_id"},
	)

	activeListings = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "resale_active_listings",
			Help: "Currently active resale listings",
		},
	)

	fundsHeld = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_funds_held",
			Help: "Primary sale funds currently held by the ledger",
		},
	)
)

// Track primary sales
func TrackTicketsSold(eventID uint64, count int) {
	ticketsSold.WithLabelValues(formatEventID(eventID)).Add(float64(count))
}

// Track resale settlements
func TrackResale(eventID uint64) {
	resalesSettled.WithLabelValues(formatEventID(eventID)).Inc()
}

// Track venue check-ins
func TrackRedemption(eventID uint64) {
	redemptions.WithLabelValues(formatEventID(eventID)).Inc()
}

func SetActiveListings(count int) {
	activeListings.Set(float64(count))
}

func SetFundsHeld(amount float64) {
	fundsHeld.Set(amount)
}

func formatEventID(eventID uint64) string {
	return strconv.FormatUint(eventID, 10)
}
