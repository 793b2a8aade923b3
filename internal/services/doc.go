// Package services holds the cross-cutting error taxonomy and context
// annotation helpers shared by the workflow engine and its step adapters.
package services
