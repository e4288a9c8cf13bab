package swagger

import _ "embed"

// OpenAPI is the embedded OpenAPI document describing the JSON API.
//
//go:embed openapi.yaml
var OpenAPI []byte
