/*
Package domain contains the core domain models for the setledger record store.

It defines the two entities persisted in the single-table layout — workout
Sessions and the Sets appended to them — plus the result types and sentinel
errors the repositories expose. This package is kept pure and free of
external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - Session: a workout occasion aggregate owning zero or more sets. Carries
    the per-session sequence counter used to allocate set positions.
  - Set: one recorded exercise set (weight, reps, optional note) belonging to
    exactly one session, identified by its allocated sequence number.
*/
package domain
