// Package schemas embeds the JSON Schema for the anklume source document.
package schemas

import _ "embed"

// DocumentSchema is the draft-07 schema the structural validation pass
// compiles once and checks every merged document against.
//
//go:embed anklume.schema.json
var DocumentSchema []byte
