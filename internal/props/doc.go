// Package props is the key/value property store backing tenant
// configuration and per-tenant watermarks.
//
// It mirrors the script-properties model the relay was designed around:
// a flat string-to-string namespace, read at the start of a run and
// written once per tenant at the end.
package props
