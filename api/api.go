// Package api embeds the board-api OpenAPI document.
package api

import _ "embed"

//go:embed openapi.yaml
var OpenAPI []byte
