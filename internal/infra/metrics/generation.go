package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		pollAttempts,
		pollOutcomes,
		streamTokens,
		thumbnailOutcomes,
	)
}

var (
	pollAttempts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "poll_attempts_total",
			Help: "Count of status poll requests issued.",
		},
	)

	pollOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poll_outcomes_total",
			Help: "Terminal polling outcomes (completed|failed|timeout|session_expired|cancelled).",
		},
		[]string{"outcome"},
	)

	streamTokens = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_tokens_total",
			Help: "Count of tokens decoded from generation streams.",
		},
	)

	thumbnailOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbnail_outcomes_total",
			Help: "Thumbnail capture results per stage (render|upload|attach|ok).",
		},
		[]string{"stage"},
	)
)

func IncPollAttempt()             { pollAttempts.Inc() }
func IncPollOutcome(o string)     { pollOutcomes.WithLabelValues(o).Inc() }
func IncStreamToken()             { streamTokens.Inc() }
func IncThumbnailStage(st string) { thumbnailOutcomes.WithLabelValues(st).Inc() }
