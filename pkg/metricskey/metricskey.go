package metricskey

import "github.com/effective-security/metrics"

// Stats
var (
	// StatsToolLoads is base for counter metric for total load requests
	StatsToolLoads = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_loads",
		Help:         "stats_tool_loads provides total tool load requests",
		RequiredTags: []string{"tool"},
	}

	StatsToolCacheHits = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_cache_hits",
		Help:         "stats_tool_cache_hits provides total load requests served from the tool cache",
		RequiredTags: []string{"tool"},
	}

	StatsToolsConstructed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tools_constructed",
		Help:         "stats_tools_constructed provides total tool instances constructed",
		RequiredTags: []string{"tool"},
	}

	StatsToolConstructionFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_construction_failed",
		Help:         "stats_tool_construction_failed provides total failed tool constructions",
		RequiredTags: []string{"tool"},
	}

	StatsToolNotFound = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_not_found",
		Help:         "stats_tool_not_found provides total load requests for unknown tools",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_succeeded",
		Help:         "stats_tool_calls_succeeded provides total tool calls succeeded",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_failed",
		Help:         "stats_tool_calls_failed provides total tool calls failed",
		RequiredTags: []string{"tool"},
	}

	StatsToolResultsReused = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_results_reused",
		Help:         "stats_tool_results_reused provides total tool calls served from the result store",
		RequiredTags: []string{"tool"},
	}

	StatsModelsLoaded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_models_loaded",
		Help:         "stats_models_loaded provides total models loaded by the runtime",
		RequiredTags: []string{"task"},
	}

	StatsModelCacheHits = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_model_cache_hits",
		Help:         "stats_model_cache_hits provides total model loads served from the shared cache",
		RequiredTags: []string{"task"},
	}
)

// Perf
var (
	PerfToolSetup = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_tool_setup",
		Help:         "perf_tool_setup provides duration of tool setup",
		RequiredTags: []string{"tool"},
	}

	PerfToolCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_tool_call",
		Help:         "perf_tool_call provides duration of tool call",
		RequiredTags: []string{"tool"},
	}
)

// Metrics returns slice of metrics from this repo
// keep sorted by name
var Metrics = []*metrics.Describe{
	&PerfToolCall,
	&PerfToolSetup,
	&StatsModelCacheHits,
	&StatsModelsLoaded,
	&StatsToolCacheHits,
	&StatsToolCallsFailed,
	&StatsToolCallsSucceeded,
	&StatsToolConstructionFailed,
	&StatsToolLoads,
	&StatsToolNotFound,
	&StatsToolResultsReused,
	&StatsToolsConstructed,
}
