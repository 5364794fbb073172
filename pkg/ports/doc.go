/*
Package ports defines the driven ports (interfaces) for the setledger core.

These interfaces decouple the repositories from the concrete store, allowing
the single-table layout to be served by different key-value backends.

# Key Interfaces

  - RecordStore: point reads/writes, conditional deletes, the atomic
    add-with-condition update used for sequence allocation, and
    partition-scoped index queries.

The package also ships RunRecordStoreContract, a reusable test suite any
RecordStore implementation must pass.
*/
package ports
