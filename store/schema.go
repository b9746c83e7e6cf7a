package store

import _ "embed"

// schemaSQL holds the CREATE TABLE/INDEX statements for a fresh store,
// embedded at build time the way the teacher embeds its XSD schemas
// (validator.schemasFS) rather than shipped as a separate install asset.
//
//go:embed schema.sql
var schemaSQL string
