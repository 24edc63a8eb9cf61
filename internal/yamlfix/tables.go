package yamlfix

import "sort"

// buildSet собирает set из списка ключей.
func buildSet(keys ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// baseConfigFields are the keys that belong under `config` for every
// resource type. Adapter-specific keys are included so that projects written
// for any warehouse survive the restructure.
var baseConfigFields = buildSet(
	// model specific
	"materialized", "sql_header", "on_configuration_change", "unique_key",
	"batch_size", "begin", "lookback", "concurrent_batches",
	// general
	"enabled", "tags", "pre_hook", "post_hook", "database", "schema",
	"alias", "persist_docs", "meta", "grants", "contract", "event_time",
	"group", "docs",
	// snowflake
	"transient", "cluster_by", "automatic_clustering", "secure",
	"copy_grants", "snowflake_warehouse", "query_tag", "tmp_relation_type",
	"merge_update_columns", "target_lag", "table_format", "external_volume",
	"base_location_root", "base_location_subpath",
	// bigquery
	"dataset", "project", "partition_by", "kms_key_name", "labels",
	"partitions", "grant_access_to", "hours_to_expiration",
	"require_partition_filter", "partition_expiration_days",
	"enable_refresh", "refresh_interval_minutes", "max_staleness",
	"enable_list_inference", "intermediate_format", "submission_method",
	// postgres
	"unlogged", "indexes",
	// redshift
	"sort_type", "dist", "sort", "bind", "backup", "auto_refresh",
	// databricks
	"file_format", "location_root", "include_full_name_in_path",
	"clustered_by", "liquid_clustered_by", "auto_liquid_cluster", "buckets",
	"options", "merge_exclude_columns", "databricks_tags", "tblproperties",
	"zorder", "unique_tmp_table_suffix", "skip_non_matched_step",
	"skip_matched_step", "matched_condition", "not_matched_condition",
	"not_matched_by_source_action", "not_matched_by_source_condition",
	"target_alias", "source_alias", "merge_with_schema_evolution",
)

// extraConfigFields extends baseConfigFields per resource type.
var extraConfigFields = map[string]map[string]struct{}{
	"seeds":     buildSet("quote_columns", "column_types", "delimiter", "full_refresh"),
	"snapshots": buildSet("strategy", "updated_at", "check_cols", "dbt_valid_to_current", "hard_deletes", "snapshot_meta_column_names"),
	"tables":    buildSet("loaded_at_field", "freshness"),
	"tests":     buildSet("severity", "error_if", "warn_if", "fail_calc", "limit", "store_failures", "store_failures_as", "where"),
	"columns":   buildSet(),
}

// nodeProperties are the keys allowed at the top level of a resource entry.
// Anything else is either a config field or gets parked under config.meta.
var nodeProperties = map[string]map[string]struct{}{
	"models": buildSet(
		"name", "description", "docs", "latest_version", "deprecation_date",
		"access", "config", "constraints", "tests", "data_tests", "columns",
		"time_spine", "versions",
	),
	"seeds": buildSet(
		"name", "description", "docs", "config", "tests", "data_tests", "columns",
	),
	"snapshots": buildSet(
		"name", "description", "docs", "config", "tests", "data_tests",
		"columns", "relation",
	),
	"tables": buildSet(
		"name", "description", "identifier", "quoting", "external",
		"freshness", "loaded_at_field", "config", "tests", "data_tests",
		"columns", "tags",
	),
	"columns": buildSet(
		"name", "description", "data_type", "quote", "constraints",
		"tests", "data_tests", "granularity",
	),
}

// ownerProperties are the only keys allowed inside an `owner` mapping.
var ownerProperties = buildSet("name", "email")

// nodesWithOwner lists the sections whose entries carry an owner mapping.
var nodesWithOwner = []string{"groups", "exposures"}

// resourceSections are the dbt_project.yml sections that hold nested
// resource configuration and therefore participate in "+" prefixing.
var resourceSections = []string{"models", "seeds", "snapshots", "tests"}

func configFields(nodeType string) map[string]struct{} {
	extra := extraConfigFields[nodeType]
	if len(extra) == 0 {
		return baseConfigFields
	}
	merged := make(map[string]struct{}, len(baseConfigFields)+len(extra))
	for k := range baseConfigFields {
		merged[k] = struct{}{}
	}
	for k := range extra {
		merged[k] = struct{}{}
	}
	return merged
}

// closestMatch returns the known key most similar to field, or "" when
// nothing is close enough to be a plausible typo.
func closestMatch(field string, candidates ...map[string]struct{}) string {
	var all []string
	for _, set := range candidates {
		for k := range set {
			all = append(all, k)
		}
	}
	sort.Strings(all)

	best := ""
	bestRatio := 0.0
	for _, c := range all {
		if r := similarity(field, c); r > bestRatio {
			bestRatio, best = r, c
		}
	}
	if bestRatio < 0.6 {
		return ""
	}
	return best
}

// similarity is 2*LCS(a,b)/(len(a)+len(b)), in [0,1].
func similarity(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else if prev[j] >= cur[j-1] {
				cur[j] = prev[j]
			} else {
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	lcs := prev[len(b)]
	return 2 * float64(lcs) / float64(len(a)+len(b))
}
