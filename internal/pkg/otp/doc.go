// Package otp generates short-lived numeric one-time passcodes.
//
// Codes are fixed-length digit strings where every digit is drawn
// independently from a cryptographically secure random source, so two
// concurrently generated codes are never predictable from each other.
package otp
