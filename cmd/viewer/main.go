package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/inamate/shapelab/internal/collab"
	"github.com/inamate/shapelab/internal/config"
	"github.com/inamate/shapelab/internal/document"
	"github.com/inamate/shapelab/internal/engine"
	"github.com/inamate/shapelab/internal/raster"
)

func main() {
	remote := flag.String("remote", "", "follow the shared scene of a server, e.g. http://localhost:8080")
	name := flag.String("name", "viewer", "display name on a shared scene")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	background, err := raster.ParseBackground(cfg.Background)
	if err != nil {
		slog.Error("parse background", "error", err)
		os.Exit(1)
	}
	rasterOpts := raster.Options{Supersample: cfg.Supersample, Background: background}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kind := document.KindRectangle
	if cfg.Is3D() {
		kind = document.KindCube
	}
	g := newGame(kind)

	if *remote == "" {
		backend := raster.NewBackend(rasterOpts)
		eng, err := newEngine(cfg, cfg.Is3D(), cfg.CanvasWidth, cfg.CanvasHeight, backend)
		if err != nil {
			slog.Error("create engine", "error", err)
			os.Exit(1)
		}
		if cfg.SampleScene {
			if err := eng.LoadSample(); err != nil {
				slog.Error("load sample scene", "error", err)
				os.Exit(1)
			}
		}
		g.attach(eng, backend, localEditor{eng: eng})
	} else if err := follow(ctx, g, cfg, rasterOpts, *remote, *name); err != nil {
		slog.Error("follow server", "error", err, "remote", *remote)
		os.Exit(1)
	}

	ebiten.SetWindowSize(cfg.CanvasWidth, cfg.CanvasHeight)
	ebiten.SetWindowTitle("shapelab")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(g); err != nil {
		slog.Error("viewer", "error", err)
		os.Exit(1)
	}
}

func newEngine(cfg *config.Config, is3D bool, width, height int, backend engine.Backend) (*engine.Engine, error) {
	eng, err := engine.NewEngine(engine.Options{
		Width:  width,
		Height: height,
		Pipeline: engine.PipelineConfig{
			Is3D:            is3D,
			Lit:             cfg.Lit,
			ZNear:           cfg.ZNear,
			ZFar:            cfg.ZFar,
			CirclePrecision: cfg.CirclePrecision,
		},
		AnimationInterval: cfg.AnimationInterval,
		Backend:           backend,
	})
	if err != nil {
		return nil, err
	}
	return eng, eng.SetFieldOfView(cfg.FieldOfView)
}

// follow mirrors the server's scene into a local engine built from the first
// scene it receives. Edits become operations on the shared scene.
func follow(ctx context.Context, g *game, cfg *config.Config, opts raster.Options, base, name string) error {
	token, err := startSession(ctx, base, name)
	if err != nil {
		return err
	}

	wsURL, err := websocketURL(base)
	if err != nil {
		return err
	}

	var mirror *engine.Engine
	var follower *collab.Follower
	follower, err = collab.NewFollower(wsURL, token, func(s collab.SceneStatePayload) {
		if s.Scene == nil {
			return
		}
		if mirror == nil || mirror.Is3D() != s.Scene.Is3D {
			backend := raster.NewBackend(opts)
			eng, err := newEngine(cfg, s.Scene.Is3D, s.Scene.Width, s.Scene.Height, backend)
			if err != nil {
				slog.Error("create mirror engine", "error", err)
				return
			}
			mirror = eng
			g.attach(mirror, backend, remoteEditor{ctx: ctx, follower: follower})
			g.setStatus("following " + base)
		}
		if err := mirror.Restore(s.Scene); err != nil {
			slog.Warn("restore scene", "error", err, "serverSeq", s.ServerSeq)
		}
	})
	if err != nil {
		return err
	}

	go func() {
		if err := follower.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("follower stopped", "error", err)
		}
	}()
	return nil
}

// startSession asks the server for a session token.
func startSession(ctx context.Context, base, name string) (string, error) {
	body, _ := json.Marshal(map[string]string{"displayName": name})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(base, "/")+"/session", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("start session: status %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode session: %w", err)
	}
	return result.Token, nil
}

func websocketURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse remote: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}
