package common

// UnknownStr is returned by String methods of enums for out-of-range values.
const UnknownStr = "unknown"
