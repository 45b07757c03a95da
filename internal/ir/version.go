package ir

// SchemaVersion is stamped on every journal entry. Bump it when the
// canonical shape of Entry changes; DomainEntry changes with it.
const SchemaVersion = "1"
