package votemod

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "partybot_cycle_duration_sec",
	Help: "Total duration of a watch cycle",
})

var cycleCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "partybot_cycles",
	Help: "Number of watch cycles run, by result",
}, []string{"result"})

var postProcessCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "partybot_posts_processed",
	Help: "Number of posts examined",
})

var postErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "partybot_post_errors",
	Help: "Number of posts which failed processing",
}, []string{"kind"})

var requestOutcomeCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "partybot_delete_requests",
	Help: "Number of deletion requests recorded, by outcome",
}, []string{"outcome"})

var malformedRecordCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "partybot_malformed_records",
	Help: "Number of trigger comments skipped for missing fields",
})

var actionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "partybot_actions",
	Help: "Number of actions attempted, by action and result",
}, []string{"action", "result"})

var userLookupCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "partybot_user_lookups",
	Help: "Number of requester display name lookups, by source",
}, []string{"source"})
