package constants

// MigrationLock is the advisory lock key held while creating the schema.
// The value is shared by every process pointing at the same database.
const MigrationLock = 7301
