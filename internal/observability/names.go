// Package observability provides OpenTelemetry metrics and tracing for the askhub API.
package observability

// Metric names (Prometheus / OpenTelemetry).
const (
	MetricNameQueries             = "askhub_queries_total"
	MetricNameIngestedChunks      = "askhub_ingested_chunks_total"
	MetricNameEmptyEmbeddings     = "askhub_empty_embeddings_total"
	MetricNameProviderErrors      = "askhub_provider_errors_total"
	MetricNameProviderDuration    = "askhub_provider_duration_seconds"
	MetricNameFallbackAnswers     = "askhub_fallback_answers_total"
	MetricNameCacheHits           = "askhub_cache_hits_total"
	MetricNameCacheMisses         = "askhub_cache_misses_total"
	MetricNameCacheLoadErrors     = "askhub_cache_load_errors_total"
	MetricNameCacheEntries        = "askhub_cache_entries"
	MetricNameCORSRejected        = "askhub_cors_rejected_total"
	MetricNameRequestBodyTooLarge = "askhub_request_body_too_large_total"
)

// Attribute keys.
const (
	AttrBranch = "branch"
	AttrOp     = "op"
	AttrStatus = "status"
	AttrCache  = "cache"
)

// Query branches for askhub_queries_total.
const (
	BranchGreeting = "greeting"
	BranchQuestion = "question"
)

// Provider operations for askhub_provider_errors_total and askhub_provider_duration_seconds.
const (
	OpEmbedOne  = "embed_one"
	OpEmbedMany = "embed_many"
	OpGenerate  = "generate"
)

// Provider call outcomes.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// CacheQueryEmbedding labels the question-to-vector cache.
const CacheQueryEmbedding = "query_embedding"

// AllowedBranches for askhub_queries_total.
var AllowedBranches = map[string]bool{
	BranchGreeting: true,
	BranchQuestion: true,
}

// AllowedProviderOps for the provider metrics.
var AllowedProviderOps = map[string]bool{
	OpEmbedOne:  true,
	OpEmbedMany: true,
	OpGenerate:  true,
}

// AllowedCacheNames for the cache hit/miss counters.
var AllowedCacheNames = map[string]bool{
	CacheQueryEmbedding: true,
}

// NormalizeReason returns value if in allowed, otherwise "other".
func NormalizeReason(value string, allowed map[string]bool) string {
	if allowed[value] {
		return value
	}

	return "other"
}

// NormalizeCacheName returns name if it is a known cache, otherwise "other".
func NormalizeCacheName(name string) string {
	return NormalizeReason(name, AllowedCacheNames)
}

// StatusFromError maps a call result to StatusSuccess or StatusError.
func StatusFromError(err error) string {
	if err != nil {
		return StatusError
	}

	return StatusSuccess
}
