// Package domain contains the core business entities and rules for Recall.
// It has no dependencies on infrastructure or external services.
package domain
