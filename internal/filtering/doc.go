// Package filtering provides the filter-and-compare pipeline for player
// statistics datasets.
//
// The pipeline narrows a dataset by team, then by a numeric minimum on a
// designated column (plate appearances, innings pitched), and finally builds a
// comparison table of the selected players across the selected metrics.
// Every step is a pure function over an immutable dataset.Dataset snapshot;
// the pipeline itself holds only its configuration.
//
// # Steps
//
//  1. ApplyTeamFilter keeps the records whose team equals the selection, or all
//     records when the selection is AllTeams.
//  2. ThresholdBounds computes the valid threshold range [0, max] from the
//     team-filtered dataset, and ApplyThresholdFilter keeps the records whose
//     value is at least the threshold.
//  3. EntityOptions and MetricOptions list what may be selected from the
//     filtered dataset.
//  4. BuildComparisonTable restricts the filtered dataset to the selected names
//     and metrics, or returns ErrEmptySelection when nothing matches.
//
// # Notices
//
// Conditions that degrade a step without failing it are reported as Notice
// values rather than errors: a missing threshold column skips the threshold
// step, a missing team column disables team filtering, and an empty comparison
// produces a "no data" notice instead of a table.
//
// # Entity Search
//
// EntityOptions accepts an optional search pattern. Patterns containing glob
// metacharacters are matched with gobwas/glob, anything else as a substring.
// Matching is case-insensitive:
//
//   - "judge" matches "Aaron Judge"
//   - "*son" matches "Ian Anderson" but not "Anderson Espinoza"
//   - "[ab]*" matches names starting with a or b
//
// # Detailed Logging
//
// Each step logs at debug level with the reason for its decision, making it
// easy to see why a record or option was dropped.
package filtering
