// Package apierr turns the error bodies returned by the accounts back-end into
// a single user-facing message.
//
// The back-end answers failed requests with several envelope shapes. Parse
// classifies a raw JSON body into one of a fixed set of kinds and Message
// renders it. The precedence order is part of the contract:
//
//  1. no payload at all                  -> MsgConnectivity
//  2. "error" is a non-empty array        -> its first element
//  3. "error" is an object               -> "field: m1, m2; other: m3"
//  4. "error" is a non-empty string       -> the string
//  5. object without an "error" key       -> same join as (3) on the object
//  6. anything else                      -> the caller's fallback
//
// Field order follows the order of the JSON document. Values that were already
// decoded into Go maps are rendered with sorted keys.
//
// # Usage
//
//	msg := apierr.Normalize(resp.Body, apierr.MsgLoginFailed)
//
// Normalize and NormalizeValue never panic and never return an empty string.
package apierr
