// Package docs provides generated OpenAPI documentation.
//
// Retrodraw API
//
//	@title			Retrodraw API
//	@version		1.0
//	@description	Text recognition API for scanned engineering drawings: OCR method selection, fallback cascade and structured drawing analysis.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/retrodraw/retrodraw
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:5000
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/retrodraw/serve.go -o ./swagger --parseDependency --parseInternal
