// Package domain contains entity without logic, just meta-data
package domain

// UserID is the free-form identifier a client chooses for itself.
// It is never authenticated.
type UserID string

// SystemUser authors the messages the relay writes on its own behalf.
const SystemUser UserID = "system"
