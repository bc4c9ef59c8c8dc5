package httpapi

import (
	"context"
	"embed"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"meteoaura/internal/offline"
)

//go:embed static/*.html
var staticFS embed.FS

// shellDocuments maps the fixed shell path set to embedded documents. The
// offline worker pre-caches exactly these paths at install.
var shellDocuments = map[string]string{
	"/":             "static/index.html",
	"/favorites":    "static/favorites.html",
	"/about":        "static/about.html",
	"/offline.html": "static/offline.html",
}

// ShellDocument returns the embedded document for a shell path.
func ShellDocument(path string) ([]byte, error) {
	file, ok := shellDocuments[path]
	if !ok {
		return nil, fmt.Errorf("no shell document for %q", path)
	}
	return staticFS.ReadFile(file)
}

// ShellNetwork serves the embedded shell to the offline worker so Install
// can pre-cache it without a loopback request.
type ShellNetwork struct{}

func (ShellNetwork) Fetch(_ context.Context, req offline.Request) (offline.Response, error) {
	doc, err := ShellDocument(req.Path)
	if err != nil {
		return offline.Response{}, err
	}
	return offline.Response{
		StatusCode:  fiber.StatusOK,
		ContentType: "text/html; charset=utf-8",
		Body:        doc,
	}, nil
}

// RegisterPages wires the shell pages into the app.
func RegisterPages(app *fiber.App) {
	for path := range shellDocuments {
		path := path
		app.Get(path, func(c *fiber.Ctx) error {
			doc, err := ShellDocument(path)
			if err != nil {
				return err
			}
			c.Set(fiber.HeaderContentType, "text/html; charset=utf-8")
			return c.Send(doc)
		})
	}
}
