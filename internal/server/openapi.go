package server

import _ "embed"

// OpenAPISpec is the HTTP API description requests are validated against
//
//go:embed api/openapi.yaml
var OpenAPISpec []byte
