// SPDX-License-Identifier: MPL-2.0

// Package config loads hbcore settings from defaults, an optional CUE file
// validated against an embedded schema, and HBCORE_* environment
// variables, in increasing order of precedence.
package config
