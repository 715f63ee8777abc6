// Package services implements the core business logic.
// Services depend only on domain types and port interfaces,
// never on concrete adapters.
package services
