// Package docs provides generated OpenAPI documentation.
//
// Perceive API
//
//	@title			Perceive API
//	@version		1.0
//	@description	Grounded vision API: caption, detect, OCR and analyze media, and extract points, boxes and polygons from model output.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/perceive
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/perceive/serve.go -d ../cmd/perceive,../internal/server/endpoints -o ./swagger --parseDependency --parseInternal
