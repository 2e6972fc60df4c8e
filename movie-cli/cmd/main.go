package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/weiawesome/cinema-chronicles/movie-cli/internal/browse"
	"github.com/weiawesome/cinema-chronicles/movie-cli/internal/config"
	pkglog "github.com/weiawesome/cinema-chronicles/pkg/log"
	"github.com/weiawesome/cinema-chronicles/pkg/movieclient"
	"github.com/weiawesome/cinema-chronicles/pkg/prefs"
	"github.com/weiawesome/cinema-chronicles/pkg/searchcache"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Log to stderr so log lines stay out of the rendered output
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      true,
		ServiceName: "movie-cli",
		Output:      os.Stderr,
	})
	logger := pkglog.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := prefs.OpenFileStore(cfg.Prefs.Path)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Prefs.Path).Msg("failed to open preferences")
	}

	client, err := movieclient.New(cfg.API)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create api client")
	}
	if cfg.Account.Email != "" {
		res, err := client.Login(ctx, cfg.Account.Email, cfg.Account.Password)
		if err != nil {
			logger.Error().Err(err).Msg("login failed; continuing anonymously")
		} else {
			logger.Info().Str(pkglog.FieldUsername, res.User.Username).Msg("logged in")
		}
	}

	view := browse.NewView(os.Stdout)
	session := browse.NewSession(client, view, store, browse.Config{
		Debounce: cfg.Debounce,
		Search:   cfg.Search,
	})
	defer session.Close()

	sweeper := searchcache.NewSweeper(session.Searcher().Cache(), 0, "cli-search")
	sweeper.Start(ctx)
	defer func() {
		sweeper.Stop()
		<-sweeper.Done()
	}()

	fmt.Println(browse.Usage)
	if err := session.Emit(ctx, browse.Event{Type: browse.EventMode, Mode: browse.ModeTrending}); err != nil {
		logger.Debug().Err(err).Msg("initial listing failed")
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				// Input closed: let a search typed on the last line render.
				session.Flush()
				return
			}
			ev, err := browse.ParseCommand(line)
			if errors.Is(err, browse.ErrQuit) {
				return
			}
			if err != nil {
				view.Notify(movieclient.LevelError, err.Error())
				continue
			}
			if err := session.Emit(ctx, ev); err != nil {
				logger.Debug().Err(err).Str(pkglog.FieldKind, ev.Type.String()).Msg("event failed")
			}
		}
	}
}
