// Package domain defines contracts and value types for per-client request
// admission control.
//
// This package does not depend on net/http nor on concrete implementations.
// The intent is to allow pure unit tests and to decouple the admission rules
// from infrastructure details.
package domain
