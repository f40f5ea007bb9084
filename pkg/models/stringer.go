package models

// String methods for custom string types, used by toon serialization.

// ViolationKind
func (v ViolationKind) String() string { return string(v) }
