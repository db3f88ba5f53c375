package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Search gateway metrics
	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "villabot_search_requests_total",
			Help: "Total search provider requests",
		},
		[]string{"engine"},
	)

	SearchDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "villabot_search_degraded_total",
			Help: "Search requests that returned a degraded (no data) result",
		},
		[]string{"engine", "reason"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "villabot_search_duration_seconds",
			Help:    "Search provider request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"engine"},
	)

	// Agent metrics
	AgentConversations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "villabot_agent_conversations_total",
			Help: "Total agent conversations started",
		},
	)

	AgentToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "villabot_agent_tool_calls_total",
			Help: "Tool calls dispatched by the agent loop",
		},
		[]string{"tool"},
	)

	AgentTurnLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "villabot_agent_turn_limit_hits_total",
			Help: "Conversations terminated by the max-turn bound",
		},
	)

	// Enrichment metrics
	EnrichmentRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "villabot_enrichment_runs_total",
			Help: "Field enrichment runs over a record",
		},
	)

	EnrichmentFieldsProposed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "villabot_enrichment_fields_proposed_total",
			Help: "Candidate values produced per attribute",
		},
		[]string{"attribute"},
	)

	// Proposal store metrics
	ProposalsStaged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "villabot_proposals_staged_total",
			Help: "Proposals staged for confirmation",
		},
	)

	ProposalsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "villabot_proposals_resolved_total",
			Help: "Proposals removed from the store",
		},
		[]string{"outcome"}, // confirm, cancel, expired
	)

	ProposalStoreSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "villabot_proposal_store_size",
			Help: "Live proposals in the in-memory store",
		},
	)

	// Commit metrics
	CommitCellWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "villabot_commit_cell_writes_total",
			Help: "Cells written by confirmed proposals",
		},
	)

	CommitFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "villabot_commit_failures_total",
			Help: "Commit operations that failed at least one write",
		},
	)
)
