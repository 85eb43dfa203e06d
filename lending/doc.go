// Package lending provides the domain core for lending books in a public library.
//
// It defines the entities Book, Member and Loan together with the invariants they
// enforce locally, the Policy that replaces hard-coded lending constants, the typed
// error taxonomy, and the storage-agnostic contracts that engines implement:
//   - BookRepository, MemberRepository, LoanRepository
//   - Transactor for engines that support a transactional boundary
//   - Notifier for best-effort member notifications
//   - Logger, ContextualLogger, MetricsCollector and TracingCollector for observability
//
// Engines live in sub-packages:
//   - memoryengine: the reference implementation backed by concurrency-safe maps
//   - sqlengine: goqu-built SQL on top of pgx, database/sql or sqlx
//
// Entities are plain structs with exported fields so that engines can persist and
// restore them, but they should only be constructed with the supplied factory methods:
//   - BuildBook
//   - BuildMember / Policy.BuildMember
//   - BuildLoan / Policy.BuildLoan (RestoreLoan for engines)
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'domain' layer.
package lending
