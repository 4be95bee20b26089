// Package domain models the two datasets joined by the ETL job: weekly dengue
// case notifications and daily rainfall readings, both for Brazilian states.
//
// # Data Sources
//
// Dengue notifications arrive as a pipe-delimited text file with a header
// line and nine positional columns:
//
//	id|data_iniSE|casos|ibge_code|cidade|uf|cep|latitude|longitude
//
// data_iniSE is the first day of the epidemiological week ("2014-02-21").
// casos is free text: it may be empty, "-", or a number. Values without any
// digit count as zero cases; values with a digit must parse as a float.
//
// Rainfall readings arrive as a comma-delimited file with a header line and
// three positional columns:
//
//	date,mm_chuva,uf
//
// mm_chuva must parse as a float. Negative readings are sensor artifacts and
// are clamped to zero.
//
// # Join Key
//
// Both datasets reduce to a [Key] of (region, year, month). The region is the
// two-letter state code (uf); year and month come from [ParseYearMonth].
// Keys are compared structurally, so a region containing a dash cannot be
// confused with a year boundary.
//
// # Output
//
// Each key present in both datasets becomes one [OutputRow], serialized as
//
//	UF,ANO,MES,CHUVA,DENGUE
//
// with floats rendered by [FormatFloat] (always at least one fractional
// digit: 8 cases render as "8.0").
package domain
