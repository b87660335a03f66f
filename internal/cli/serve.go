package cli

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/assetforge/assetforge/pkg/config"
)

// serveCommand creates the serve command that previews produced assets.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Preview produced assets over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Serve.Addr = addr
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", config.DefaultPath, "config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

// indexTemplate renders a minimal gallery of the output directory.
var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>assetforge preview</title>
<style>
body { font-family: sans-serif; margin: 2rem; background: #1c1c1c; color: #eee; }
figure { display: inline-block; margin: 1rem; text-align: center; }
img { max-width: 400px; background: repeating-conic-gradient(#333 0 25%, #222 0 50%) 0 0/20px 20px; }
a { color: #7cc; }
</style>
</head>
<body>
<h1>assetforge preview</h1>
{{range .Images}}<figure><img src="/files/{{.}}" alt="{{.}}"><figcaption><a href="/files/{{.}}">{{.}}</a></figcaption></figure>
{{end}}
<h2>Other files</h2>
<ul>{{range .Other}}<li><a href="/files/{{.}}">{{.}}</a></li>{{end}}</ul>
</body>
</html>
`))

// runServe serves the output directory until the context is cancelled.
func runServe(ctx context.Context, cfg config.Config) error {
	logger := loggerFromContext(ctx)

	if _, err := os.Stat(cfg.Output.Dir); os.IsNotExist(err) {
		return fmt.Errorf("output directory %s does not exist; run '%s run' first", cfg.Output.Dir, appName)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		images, other, err := listOutputs(cfg.Output.Dir)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		data := struct {
			Images []string
			Other  []string
		}{images, other}
		if err := indexTemplate.Execute(w, data); err != nil {
			logger.Error("render index", "err", err)
		}
	})
	r.Handle("/files/*", http.StripPrefix("/files/", http.FileServer(http.Dir(cfg.Output.Dir))))

	srv := &http.Server{
		Addr:    cfg.Serve.Addr,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	printInfo("Serving %s on http://%s", cfg.Output.Dir, cfg.Serve.Addr)
	printDetail("Press Ctrl+C to stop")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// listOutputs splits the output directory into previewable images and the rest.
func listOutputs(dir string) (images, other []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".png", ".webp":
			images = append(images, e.Name())
		default:
			other = append(other, e.Name())
		}
	}
	return images, other, nil
}
