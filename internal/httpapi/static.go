package httpapi

import (
	"embed"
	"io/fs"
	"net/http"
)

// The chat UI (index.html + app.js) is compiled into the binary so the
// journaling service ships as a single file.
//
//go:embed static/*
var embeddedStatic embed.FS

// newStaticHandler serves the embedded chat UI under /ui/.
func newStaticHandler() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		return http.NotFoundHandler()
	}
	return http.FileServer(http.FS(sub))
}
