package feedpub

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var runCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "partybot_feedpub_runs",
	Help: "Number of feed publisher runs, by result",
}, []string{"result"})

var entryCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "partybot_feedpub_entries",
	Help: "Number of feed entries considered, by disposition",
}, []string{"disposition"})

var publishDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "partybot_feedpub_publish_duration_sec",
	Help: "Duration of post creation calls",
})
