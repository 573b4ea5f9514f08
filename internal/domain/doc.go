// Package domain models environmental noise-monitoring spreadsheet exports
// and their canonical time-series form.
//
// # Sheet conventions
//
// Every measurement sheet carries a header row identified by the marker
// token "측정일" ("measurement date") somewhere in its first 30 rows.
// Rows above the marker are banners and unit notes; rows below are data.
//
// Date column:
//
//	The column whose header contains "측정" or "시간"; the first column when
//	neither marker appears. Cells that do not parse as a calendar date are
//	footnotes and drop the whole row.
//
// Hour columns:
//
//	Headers that coerce to an integer 1..24 ("1", 1, "1.0" all count).
//	Hour h labels the half-open local interval [h-1, h); hour 24 is the
//	last hour of the civil day. Measurement cells are decibel levels and
//	may use a comma as the decimal separator ("63,5" = 63.5 dB).
//
// Day/night columns:
//
//	A sheet may also (or instead) carry per-date LAeq summaries under a
//	day column ("낮"/"day") and a night column ("밤"/"night"). Both must be
//	present for the pair to be read; rows where either value fails numeric
//	coercion are dropped.
//
// Station names come from the sheet label. Some exports decorate the label
// with an "(시간별)" ("hourly") suffix, which [CleanStationName] strips so all
// variants of a station map to one registry row.
//
// # Time model
//
// Wall-clock readings are interpreted in a fixed local civil zone (KST,
// UTC+9, no DST) and converted once to UTC for persistence. Hours 7-21
// classify as "day", the rest as "night"; this is a policy constant.
//
// # Acoustics
//
// Aggregation uses energy averaging ([EnergyAverage]): decibel samples are
// averaged as sound-pressure powers and converted back, never as an
// arithmetic mean of decibels. For samples of 70 and 80 dB the equivalent
// level is ~77.4 dB, not 75.
package domain
