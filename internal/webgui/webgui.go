// Package webgui is the minimal embedded configuration GUI: a single
// stdlib net/http handler that renders the current config.Config and
// accepts a form POST updating it (spec §6, supplemented from
// original_source/mlvfs/webgui.c). It is an external collaborator per
// spec.md §1 and is never mounted by default — cmd/mlvfs-mount wires it
// behind an opt-in flag.
package webgui

import (
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/alxayo/mlvfs-core/internal/logger"
	"github.com/alxayo/mlvfs-core/internal/mlv/config"
)

var page = template.Must(template.New("config").Parse(`<!doctype html>
<html><head><title>mlvfs-core configuration</title></head>
<body>
<h1>mlvfs-core configuration</h1>
<form method="POST">
<label>MLV path: <input name="mlv_path" value="{{.MLVPath}}"></label><br>
<label>Bad pixel mode (0=off,1=on,2=aggressive): <input name="badpix" value="{{.BadPixel}}"></label><br>
<label>Chroma smooth radius (0,2,3,5): <input name="chroma_smooth" value="{{.ChromaSmooth}}"></label><br>
<label>Fix stripes: <input type="checkbox" name="fix_stripes" {{if .FixStripes}}checked{{end}}></label><br>
<label>Dual ISO: <input type="checkbox" name="dual_iso" {{if .DualISO}}checked{{end}}></label><br>
<label>FPS override (0=container default): <input name="fps" value="{{.FPS}}"></label><br>
<label>Name scheme (0=sequential,1=frame number): <input name="name_scheme" value="{{.NameScheme}}"></label><br>
<label>Deflicker: <input type="checkbox" name="deflicker" {{if .Deflicker}}checked{{end}}></label><br>
<button type="submit">Save</button>
</form>
</body></html>
`))

// Handler serves GET (render current config) and POST (apply a form
// submission) against a single config.Store.
type Handler struct {
	store *config.Store
}

// New creates a Handler publishing reads and writes through store.
func New(store *config.Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		cfg, err := parseForm(r, h.store.Get())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.store.Set(cfg)
		logger.Logger().Info("webgui applied config update")
		http.Redirect(w, r, r.URL.Path, http.StatusSeeOther)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Execute(w, h.store.Get()); err != nil {
		logger.Logger().Warn("webgui render failed", "err", err)
	}
}

func parseForm(r *http.Request, base config.Config) (config.Config, error) {
	if err := r.ParseForm(); err != nil {
		return config.Config{}, err
	}
	cfg := base
	cfg.MLVPath = r.FormValue("mlv_path")

	badpix, err := strconv.Atoi(r.FormValue("badpix"))
	if err != nil {
		return config.Config{}, fmt.Errorf("badpix: %w", err)
	}
	cfg.BadPixel = config.BadPixelMode(badpix)

	chroma, err := strconv.Atoi(r.FormValue("chroma_smooth"))
	if err != nil {
		return config.Config{}, fmt.Errorf("chroma_smooth: %w", err)
	}
	cfg.ChromaSmooth = chroma

	fps, err := strconv.ParseFloat(r.FormValue("fps"), 64)
	if err != nil {
		return config.Config{}, fmt.Errorf("fps: %w", err)
	}
	cfg.FPS = fps

	nameScheme, err := strconv.Atoi(r.FormValue("name_scheme"))
	if err != nil {
		return config.Config{}, fmt.Errorf("name_scheme: %w", err)
	}
	cfg.NameScheme = config.NameScheme(nameScheme)

	cfg.FixStripes = r.FormValue("fix_stripes") != ""
	cfg.DualISO = r.FormValue("dual_iso") != ""
	cfg.Deflicker = r.FormValue("deflicker") != ""

	return cfg, nil
}
