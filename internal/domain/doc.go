// Package domain models cumulative pandemic case and death tables and the
// render-ready point sets derived from them.
//
// # Data Sources
//
// Time-series tables follow the Johns Hopkins CSSE layout. Each row is one
// sub-region (a province, a county, a cruise ship) and each date is its own
// column:
//
//	Province/State,Country/Region,Lat,Long,1/22/20,1/23/20,...
//	,Afghanistan,33.93911,67.709953,0,0,...
//	Hong Kong,China,22.3,114.2,0,2,...
//
// The US tables carry extra identifier columns (UID, FIPS, Admin2, ...) and
// spell longitude "Long_"; entities there are keyed by Province_State.
// Column positions are not stable across files, so every column is resolved
// by header name (see the csvsource adapter).
//
// The globe table is preprocessed: one row per country with flat cumulative
// totals and no date dimension.
//
// # Conventions
//
// Date headers:
//
//	Compact M/D/YY, e.g. "3/15/20" is 15 March 2020. Four-digit years are
//	accepted. A header that does not parse is an undefined axis point and
//	its column is never plotted; the rest of the series is unaffected.
//
// Cell values:
//
//	Blank or non-numeric cells are treated as zero. Counts are cumulative
//	but revisions can lower them, so series are not required to be
//	non-decreasing.
//
// Entity names:
//
//	Source spellings vary ("Korea, South", "Taiwan*", "Burma"). [Canonicalize]
//	maps every known variant to one key. Special territories listed under a
//	parent country (Hong Kong under China, Greenland under Denmark) are keyed
//	by the territory itself. Unknown names pass through unchanged.
//
// # Magnitude Classification
//
// Two independent bucketing rules exist on purpose:
//
//	2D map:  value < 100 | value >= 100                 (see [SpreadCategory])
//	Globe:   six severity buckets per metric kind       (see [Classify])
//
//	  Deaths: <1k | <10k | <100k | <500k | <1M | >=1M
//	  Cases:  <300k | <1M | <10M | <25M | <100M | >=100M
//
// Lower bounds are inclusive, so a boundary value lands in the higher bucket.
package domain
