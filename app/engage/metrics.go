package engage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var passDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "topic_agent_pass_duration_sec",
	Help: "Duration of one fetch-score-reply pass",
}, []string{"topic", "mode"})

var itemsScored = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "topic_agent_items_scored",
	Help: "Number of items scored",
}, []string{"topic"})

var itemsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "topic_agent_items_skipped",
	Help: "Number of items whose scoring was skipped",
}, []string{"topic"})

var itemsCleared = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "topic_agent_items_cleared",
	Help: "Number of items that passed the clearance gate",
}, []string{"topic"})

var replyCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "topic_agent_replies",
	Help: "Number of reply attempts by result",
}, []string{"topic", "result"})

var cooldownSeconds = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "topic_agent_cooldown_seconds",
	Help: "Total seconds spent in post-reply cool-down",
}, []string{"topic"})
