// Package application contains the admission use case: given a client key,
// decide admit or reject.
//
// It depends only on package domain and does not know about net/http.
package application
