package changeset

import _ "embed"

// schemaJSON is the JSON Schema every changeset document must satisfy
// before it is decoded into operations.
//
//go:embed schema.json
var schemaJSON string
