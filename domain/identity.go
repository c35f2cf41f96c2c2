// Package domain contains core concepts of the messaging system.
// This file defines the Identity established at connection admission.
// No runtime, network, or UI logic should be added here.
package domain

// Identity is an authenticated user reference. It is immutable for the
// lifetime of a connection and sourced from token verification.
type Identity struct {
	UserID      string
	DisplayName string
}
