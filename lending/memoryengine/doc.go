// Package memoryengine provides the reference implementation of the lending repositories.
//
// All repositories keep their entities in maps guarded by a sync.RWMutex. Lookups
// return point-in-time copies, Save checks the entity's Version against the stored one
// and fails with lending.ErrConcurrencyConflict on a mismatch, just like the SQL engine.
//
// The memoryengine has no transactions, it is meant for tests, demos and single-process
// deployments where the LibraryService's keyed locks provide the required serialization.
package memoryengine
