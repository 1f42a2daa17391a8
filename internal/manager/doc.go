// Package manager is the record store facade: it creates, fetches, searches,
// and modifies site records against a persistence Backend.
//
// A Manager starts Unbootstrapped unless opened over an existing store, and
// becomes Ready after Bootstrap. Every storage operation runs through a
// single scoped-session helper that commits on success, rolls back on any
// failure, and always closes the session.
//
// Errors returned to callers are *Error values of one of four kinds:
// KindDuplicateName, KindNoSuchRecord, KindNotReady, KindStorageFailure.
package manager
