// Package store provides SQLite-backed storage for legal documents, their
// versions, accounts and acceptance records.
//
// The store is the host side of the fixture engine: it implements
// legal.DocumentRepository, legal.AcceptanceCreator and legal.AgreementPolicy
// through three record-kind views:
//   - Documents: documents and their versions
//   - Accounts: accounts that agree to documents
//   - Acceptances: immutable acceptance records
//
// # Invariants
//
//   - At most one published version per document (partial UNIQUE index)
//   - Labels are stored and compared NFC normalized
//   - Acceptance timestamps are stored as Unix seconds
//   - All list queries are ordered (seq or id) for deterministic results
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity and cascades
package store
