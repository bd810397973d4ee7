// Package domain models the daily ocean-health observations derived from
// NOAA Coral Reef Watch (CRW) products.
//
// # Data Sources
//
// Sea-surface temperature comes from the CRW CoralTemp v3.1 daily product and
// degree heating weeks (DHW) from the CRW 5 km v3.1 operational product. Both
// are published once per day under a year directory:
//
//	{base}/{YYYY}/coraltemp_v3.1_{YYYYMMDD}.{ext}
//	{base}/{YYYY}/ct5km_dhw_v3.1_{YYYYMMDD}.{ext}
//
// The newest file is usually one or two days behind the calendar date, so the
// acquirer probes a short window of recent dates, newest first. pH has no date
// template and is fetched from a single optional URL.
//
// # Conventions
//
// Coordinates:
//
//	WGS-84 decimal degrees. Latitude in [-90, 90], longitude in [-180, 180].
//	Rows are joined across datasets on exact (latitude, longitude) equality,
//	which holds because CRW products share the same 0.05° grid.
//
// Units:
//
//	SST in °C, DHW in °C-weeks, pH on the total scale (dimensionless).
//
// Provenance:
//
//	Every observation carries a [Provenance]. When an upstream file cannot be
//	obtained the pipeline substitutes a small fixed sample tagged
//	[ProvenanceSynthetic]; optional signals that were never available are
//	tagged [ProvenanceAbsent] and defaulted (DHW to 0.0, pH to null).
//
// Observation date:
//
//	SST rows carry the date of the file that was actually resolved. pH rows and
//	all synthetic rows carry the run's calendar date in UTC.
package domain
