// ABOUTME: Landing page rendering the API usage guide from markdown via goldmark.
package webui

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"
)

const helpMarkdown = `# SketchTeX

Turn sketches into compilable TikZ figures.

## API

- ` + "`POST /sessions`" + ` — create a session, returns ` + "`{\"id\": ...}`" + `
- ` + "`POST /sessions/{id}/generate`" + ` — multipart form with a ` + "`prompt`" + ` field and an optional ` + "`sketch`" + ` image; starts a generation request, superseding any run still in flight
- ` + "`GET /sessions/{id}/outputs`" + ` — poll the ranked candidates: programs, images with ordinal labels, warnings
- ` + "`POST /sessions/{id}/cancel`" + ` — stop the in-flight run
- ` + "`GET /sessions/{id}/files/{name}`" + ` — fetch a rendered SVG
- ` + "`DELETE /sessions/{id}`" + ` — end the session and clean up its files

Candidates are deduplicated, ranked by model confidence (best first), and
rendered lazily. Candidates whose TikZ code does not compile are discarded
with a notice; candidates that compile to an empty image are kept with a
warning.
`

var helpPage = template.Must(template.New("help").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>SketchTeX</title></head>
<body>{{.Body}}</body>
</html>
`))

// handleHelp renders the usage guide.
func (s *Server) handleHelp(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := goldmark.New().Convert([]byte(helpMarkdown), &buf); err != nil {
		http.Error(w, "failed to render help", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	helpPage.Execute(w, struct{ Body template.HTML }{Body: template.HTML(buf.String())})
}
