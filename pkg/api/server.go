// Inkterm
// Copyright (c) 2026 The Inkterm Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Inkterm.
//
// Inkterm is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Inkterm is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Inkterm.  If not, see <http://www.gnu.org/licenses/>.

// Package api serves the embedded web dashboard shared by the daemons. Each
// app mounts its own routes next to the common ones.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/inkterm/inkterm/pkg/api/middleware"
	"github.com/inkterm/inkterm/pkg/config"
	"github.com/inkterm/inkterm/pkg/display"
	"github.com/inkterm/inkterm/pkg/modes"
	"github.com/inkterm/inkterm/pkg/service/broker"
	"github.com/jonboulle/clockwork"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

const (
	RequestTimeout  = 10 * time.Second
	shutdownTimeout = 5 * time.Second
	statusSample    = 200 * time.Millisecond
)

type Options struct {
	Config  *config.Instance
	Modes   *modes.Manager
	Loop    *display.Loop
	Broker  *broker.Broker
	Fs      afero.Fs
	Clock   clockwork.Clock
	Routes  func(r chi.Router)
	App     string
	Version string
}

type Server struct {
	started time.Time
	opts    Options
	router  chi.Router
	ws      *melody.Melody
	limiter *middleware.IPRateLimiter
}

func NewServer(opts Options) *Server {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	s := &Server{
		opts:    opts,
		started: opts.Clock.Now(),
		ws:      melody.New(),
		limiter: middleware.NewIPRateLimiter(opts.Clock),
	}
	s.ws.Upgrader.CheckOrigin = func(*http.Request) bool { return true }
	s.ws.HandleConnect(s.handleWSConnect)
	s.ws.HandleMessage(middleware.WebSocketRateLimitHandler(s.limiter, handleWSMessage))
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	web := s.opts.Config.Values().Web
	origins := web.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"https://*", "http://*"}
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.HTTPIPFilterMiddleware(middleware.NewIPFilter(web.AllowedIPs)))
	r.Use(middleware.HTTPRateLimitMiddleware(s.limiter))
	r.Use(chimiddleware.NoCache)
	r.Use(chimiddleware.Timeout(RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/config", s.handleGetConfig)
		r.Post("/config", s.handlePostConfig)
		r.Get("/status", s.handleStatus)
		r.Get("/mode", s.handleGetMode)
		r.Post("/change_mode", s.handleChangeMode)
		r.Get("/preview.png", s.handlePreview)
		r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
			if err := s.ws.HandleRequest(w, r); err != nil {
				log.Error().Err(err).Msg("handling websocket request")
			}
		})
		if s.opts.Routes != nil {
			s.opts.Routes(r)
		}
	})
	return r
}

// Run listens on web.listen until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	addr := s.opts.Config.Values().Web.Listen
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln and forwards broker notifications to websocket
// clients until ctx ends.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: RequestTimeout,
	}

	var notifications <-chan broker.Notification
	var subID int
	if s.opts.Broker != nil {
		notifications, subID = s.opts.Broker.Subscribe(32)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", ln.Addr().String()).Msg("web dashboard listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		s.limiter.RunCleanup(ctx)
		return nil
	})
	if notifications != nil {
		g.Go(func() error {
			defer s.opts.Broker.Unsubscribe(subID)
			s.broadcastNotifications(ctx, notifications)
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.ws.Close(); err != nil && !errors.Is(err, melody.ErrClosed) {
			log.Debug().Err(err).Msg("closing websocket sessions")
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("web dashboard: %w", err)
	}
	return nil
}

func (s *Server) broadcastNotifications(ctx context.Context, notifications <-chan broker.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-notifications:
			if !ok {
				return
			}
			data, err := json.Marshal(n)
			if err != nil {
				log.Error().Err(err).Msg("marshalling notification")
				continue
			}
			if err := s.ws.Broadcast(data); err != nil && !errors.Is(err, melody.ErrClosed) {
				log.Error().Err(err).Msg("broadcasting notification")
			}
		}
	}
}

func (s *Server) handleWSConnect(session *melody.Session) {
	data, err := json.Marshal(broker.Notification{
		Time:   s.opts.Clock.Now(),
		Method: broker.MethodModeChanged,
		Params: s.modeJSON(),
	})
	if err != nil {
		return
	}
	if err := session.Write(data); err != nil {
		log.Debug().Err(err).Msg("sending initial mode")
	}
}

func handleWSMessage(session *melody.Session, msg []byte) {
	if string(msg) == "ping" {
		if err := session.Write([]byte("pong")); err != nil {
			log.Error().Err(err).Msg("sending pong")
		}
		return
	}
	log.Debug().Int("size", len(msg)).Msg("ignoring websocket message")
}
