package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/matzehuels/blockstack/pkg/block"
	"github.com/matzehuels/blockstack/pkg/cache"
	"github.com/matzehuels/blockstack/pkg/clock"
	"github.com/matzehuels/blockstack/pkg/config"
	bserrors "github.com/matzehuels/blockstack/pkg/errors"
	"github.com/matzehuels/blockstack/pkg/geom"
	"github.com/matzehuels/blockstack/pkg/observability"
	"github.com/matzehuels/blockstack/pkg/pipeline"
	"github.com/matzehuels/blockstack/pkg/scene"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 4 << 20

// serveOptions holds the flags of the serve command.
type serveOptions struct {
	addr          string
	scenePath     string
	redisAddr     string
	redisPassword string
	redisDB       int
	noCache       bool
}

// serveCommand creates the serve command, which exposes a live workspace
// over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var o serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a live workspace over HTTP",
		Long: `Serve a live workspace over HTTP.

The server holds one workspace. Scenes are loaded with PUT /scene, blocks
are moved, dragged and collapsed through the /blocks endpoints, and every
change runs the deferred snap and bump work before the response is sent.

Rendered artifacts are cached in Redis when --redis is set, otherwise in
the local cache directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			return c.runServe(cmd.Context(), cfg, o)
		},
	}

	cmd.Flags().StringVar(&o.addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&o.scenePath, "scene", "", "scene loaded at startup")
	cmd.Flags().StringVar(&o.redisAddr, "redis", "", "Redis address for the artifact cache (host:port)")
	cmd.Flags().StringVar(&o.redisPassword, "redis-password", "", "Redis password")
	cmd.Flags().IntVar(&o.redisDB, "redis-db", 0, "Redis database number")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg config.Config, o serveOptions) error {
	var (
		store cache.Cache
		err   error
	)
	switch {
	case o.redisAddr != "" && !o.noCache:
		store, err = cache.NewRedisCache(ctx, o.redisAddr, o.redisPassword, o.redisDB)
	default:
		store, err = newCache(o.noCache)
	}
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	defer store.Close()

	srv, err := newServer(pipeline.NewRunner(store, nil, c.Logger), cfg, c.Logger)
	if err != nil {
		return err
	}
	if o.scenePath != "" {
		if _, _, err := srv.load(ctx, pipeline.Options{ScenePath: o.scenePath}); err != nil {
			return err
		}
	}

	httpSrv := &http.Server{
		Addr:              o.addr,
		Handler:           srv.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", o.addr)
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.Logger.Info("shutting down")
		return httpSrv.Shutdown(shutdownCtx)
	}
}

// =============================================================================
// server - Live Workspace API
// =============================================================================

// server serializes access to one live workspace. Every mutation runs the
// workspace's virtual clock to rest before it returns.
type server struct {
	mu     sync.Mutex
	ws     *block.Workspace
	clk    *clock.Virtual
	cfg    config.Config
	runner *pipeline.Runner
	logger *log.Logger
}

func newServer(runner *pipeline.Runner, cfg config.Config, logger *log.Logger) (*server, error) {
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	ws, clk, err := pipeline.NewWorkspace(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &server{ws: ws, clk: clk, cfg: cfg, runner: runner, logger: logger}, nil
}

// load replaces the live workspace with a settled build of the scene named
// by opts. It returns the number of blocks and of callbacks fired.
func (s *server) load(ctx context.Context, opts pipeline.Options) (int, int, error) {
	cfg := s.cfg
	opts.Config = &cfg
	opts.Logger = s.logger
	sc, err := pipeline.Load(ctx, opts)
	if err != nil {
		return 0, 0, err
	}
	ws, fired, err := pipeline.Settle(ctx, sc, opts)
	if err != nil {
		return 0, 0, err
	}
	clk, _ := ws.Clock().(*clock.Virtual)

	s.mu.Lock()
	s.ws, s.clk = ws, clk
	s.mu.Unlock()
	return sc.Len(), fired, nil
}

// settle runs pending deferred work. Callers hold s.mu.
func (s *server) settle() int {
	if s.clk == nil {
		return 0
	}
	fired := s.clk.RunAll(pipeline.DefaultSettleLimit)
	if pending := s.clk.Pending(); pending > 0 {
		s.logger.Warn("workspace did not settle", "pending", pending)
	}
	return fired
}

func (s *server) handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Put("/scene", s.putScene)
	r.Get("/blocks", s.getBlocks)
	r.Get("/blocks/{id}", s.getBlock)
	r.Post("/blocks/{id}/move", s.moveBlock)
	r.Post("/blocks/{id}/drag", s.dragBlock)
	r.Post("/blocks/{id}/collapse", s.collapseBlock)
	r.Get("/export/{format}", s.export)
	r.Post("/render", s.render)
	return r
}

// observe attaches the logger to the request context and reports the
// request to the HTTP hooks.
func (s *server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := withLogger(r.Context(), s.logger)
		hooks := observability.HTTP()
		hooks.OnRequest(ctx, r.Method, r.URL.Path)

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		dur := time.Since(start)
		hooks.OnResponse(ctx, r.Method, r.URL.Path, status, dur)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", status, "duration", dur)
	})
}

// putScene loads the request body as the new scene. The format is taken
// from the format query parameter or the content type, defaulting to TOML.
func (s *server) putScene(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, bserrors.Wrap(bserrors.ErrCodeInvalidInput, err, "read body"))
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = scene.FormatTOML
		if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			format = scene.FormatJSON
		}
	}
	n, fired, err := s.load(r.Context(), pipeline.Options{Scene: string(data), SceneFormat: format})
	if err != nil {
		writeError(w, r, err)
		return
	}
	loggerFromContext(r.Context()).Info("scene loaded", "blocks", n, "callbacks", fired)

	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, scene.Take(s.ws))
}

func (s *server) getBlocks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, scene.Take(s.ws))
}

func (s *server) getBlock(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeBlock(w, r, chi.URLParam(r, "id"))
}

// writeBlock writes the state of block id. Callers hold s.mu.
func (s *server) writeBlock(w http.ResponseWriter, r *http.Request, id string) {
	state, ok := scene.Take(s.ws).Block(id)
	if !ok {
		writeError(w, r, bserrors.New(bserrors.ErrCodeNotFound, "block %q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// lookup returns the block named by the id URL parameter. Callers hold s.mu.
func (s *server) lookup(r *http.Request) (*block.Block, error) {
	id := chi.URLParam(r, "id")
	b := s.ws.Block(id)
	if b == nil || b.Disposed() {
		return nil, bserrors.New(bserrors.ErrCodeNotFound, "block %q not found", id)
	}
	return b, nil
}

// moveRequest is the body of the move and drag endpoints.
type moveRequest struct {
	DX   float64 `json:"dx"`
	DY   float64 `json:"dy"`
	Heal bool    `json:"heal,omitempty"`
}

// moveBlock translates a top block by (dx, dy) and settles.
func (s *server) moveBlock(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.lookup(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := b.MoveBy(req.DX, req.DY); err != nil {
		writeError(w, r, err)
		return
	}
	b.ScheduleSnapAndBump()
	s.settle()
	s.writeBlock(w, r, b.ID())
}

// dragBlock performs a whole drag gesture: pick up, move by (dx, dy) and
// drop, connecting to the closest compatible connection in range.
func (s *server) dragBlock(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.lookup(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !b.Movable() {
		writeError(w, r, bserrors.New(bserrors.ErrCodeInvalidInput, "block %q is not movable", b.ID()))
		return
	}

	delta := geom.Pt(req.DX, req.DY)
	d := block.NewDragger(b)
	if err := d.Start(geom.Coordinate{}, req.Heal); err != nil {
		writeError(w, r, err)
		return
	}
	d.Drag(delta)
	if err := d.End(delta); err != nil {
		writeError(w, r, err)
		return
	}
	s.settle()
	s.writeBlock(w, r, b.ID())
}

// collapseRequest is the body of the collapse endpoint.
type collapseRequest struct {
	Collapsed bool `json:"collapsed"`
}

func (s *server) collapseBlock(w http.ResponseWriter, r *http.Request) {
	var req collapseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.lookup(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b.SetCollapsed(req.Collapsed)
	s.settle()
	s.writeBlock(w, r, b.ID())
}

// export writes the live workspace in one format. Artifacts are cached
// under the hash of the snapshot they were made from.
func (s *server) export(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		writeError(w, r, err)
		return
	}

	s.mu.Lock()
	snap := scene.Take(s.ws)
	s.mu.Unlock()

	hash, err := cache.HashJSON(snap)
	if err != nil {
		writeError(w, r, bserrors.Wrap(bserrors.ErrCodeInternal, err, "hash snapshot"))
		return
	}
	opts := pipeline.Options{
		Formats:  []string{format},
		Detailed: r.URL.Query().Get("detailed") == "true",
		Logger:   s.logger,
	}
	artifacts, hit, err := s.runner.ExportWithCacheInfo(r.Context(), snap, hash, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentTypes[format])
	if hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

// renderResponse is the body returned by the render endpoint.
type renderResponse struct {
	SnapshotKey string            `json:"snapshot_key"`
	Blocks      int               `json:"blocks"`
	Callbacks   int               `json:"callbacks"`
	Cached      bool              `json:"cached"`
	Artifacts   map[string]string `json:"artifacts"`
}

// render runs the stateless pipeline on an inline scene. The live
// workspace is left untouched.
func (s *server) render(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	if err := decodeBody(r, &opts); err != nil {
		writeError(w, r, err)
		return
	}
	if opts.ScenePath != "" {
		writeError(w, r, bserrors.New(bserrors.ErrCodeInvalidInput, "scene_path is not accepted over HTTP, send the scene inline"))
		return
	}
	opts.Logger = loggerFromContext(r.Context())

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := renderResponse{
		SnapshotKey: res.SnapshotKey,
		Blocks:      res.Stats.BlockCount,
		Callbacks:   res.Stats.Callbacks,
		Cached:      res.CacheInfo.SnapshotHit,
		Artifacts:   make(map[string]string, len(res.Artifacts)),
	}
	for format, data := range res.Artifacts {
		resp.Artifacts[format] = string(data)
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// Responses
// =============================================================================

var contentTypes = map[string]string{
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz",
	pipeline.FormatSVG:  "image/svg+xml",
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusOf maps an error code to an HTTP status.
func statusOf(code bserrors.Code) int {
	switch code {
	case bserrors.ErrCodeNotFound, bserrors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case bserrors.ErrCodeHasParent, bserrors.ErrCodeDragSurfaceBusy, bserrors.ErrCodeIncompatibleConnection:
		return http.StatusConflict
	case bserrors.ErrCodeInvalidInput, bserrors.ErrCodeInvalidStyle, bserrors.ErrCodeInvalidConfig,
		bserrors.ErrCodeInvalidScene, bserrors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case bserrors.ErrCodeHeadless, bserrors.ErrCodeUnsupported:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := bserrors.GetCode(err)
	status := statusOf(code)
	if code == "" {
		code = bserrors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		loggerFromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Code: string(code), Message: bserrors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return bserrors.Wrap(bserrors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}
