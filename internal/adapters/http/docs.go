package http

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"os"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"
)

// OpenAPIPath is where the contract is read from, relative to the working directory.
var OpenAPIPath = "api/openapi.yaml"

const swaggerUIPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{title}}</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body style="margin:0">
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({url: '/docs/openapi.json', dom_id: '#swagger-ui', deepLinking: true});
  </script>
</body>
</html>`

// apiDocs is the validated contract, rendered once at startup.
type apiDocs struct {
	page []byte
	yaml []byte
	json []byte
}

func loadAPIDocs(ctx context.Context, path string) (*apiDocs, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := openapi3.NewLoader().LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", path, err)
	}

	title := "GeoProxy API"
	if doc.Info != nil && doc.Info.Title != "" {
		title = doc.Info.Title + " " + doc.Info.Version
	}
	page := strings.Replace(swaggerUIPage, "{{title}}", html.EscapeString(title), 1)

	return &apiDocs{page: []byte(page), yaml: raw, json: asJSON}, nil
}

// SetupDocs serves Swagger UI at /docs and the contract at /docs/openapi.yaml
// and /docs/openapi.json. An unreadable or invalid contract disables the
// three routes (404) instead of failing startup.
func SetupDocs(app *fiber.App) {
	docs, err := loadAPIDocs(context.Background(), OpenAPIPath)
	if err != nil {
		slog.Warn("api docs disabled", "path", OpenAPIPath, "error", err)
	}

	serve := func(contentType string, body func(*apiDocs) []byte) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if docs == nil {
				return fiber.NewError(fiber.StatusNotFound, "api docs not available")
			}
			c.Set(fiber.HeaderContentType, contentType)
			return c.Send(body(docs))
		}
	}

	app.Get("/docs", serve(fiber.MIMETextHTMLCharsetUTF8, func(d *apiDocs) []byte { return d.page }))
	app.Get("/docs/openapi.yaml", serve("application/yaml", func(d *apiDocs) []byte { return d.yaml }))
	app.Get("/docs/openapi.json", serve(fiber.MIMEApplicationJSON, func(d *apiDocs) []byte { return d.json }))
}
