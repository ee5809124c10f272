package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"

	"github.com/skylineops/costview/awscost"
	"github.com/skylineops/costview/internal/config"
	"github.com/skylineops/costview/internal/obs"
	"github.com/skylineops/costview/server"
	"github.com/skylineops/costview/session"
	"github.com/skylineops/costview/session/providerfake"
	"github.com/skylineops/costview/users"
	"github.com/skylineops/costview/users/postgres"
	fakeuserrepo "github.com/skylineops/costview/users/repofake"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())
	obs.Init()

	deps, cleanup, err := buildDeps(c)
	if err != nil {
		return err
	}
	defer cleanup()

	srv, err := server.New(c, deps)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}
	defer srv.Close()

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	return shutdown(httpServer)
}

// buildDeps wires the real identity provider, verifier, user store and
// cost source. With no OIDC issuer configured the service runs in a
// self-contained development mode: HS256 dev tokens, in-memory users, and
// canned cost data.
func buildDeps(c config.Config) (server.Deps, func(), error) {
	cleanup := func() {}

	if c.GetOidcIssuer() == "" {
		if c.GetDevTokenSecret() == "" || c.GetEnv() != "DEV" {
			return server.Deps{}, cleanup, errors.New("OIDC_ISSUER is required (or DEV_TOKEN_SECRET in a DEV environment)")
		}
		log.Printf("No OIDC issuer configured; running in development mode\n")
		return server.Deps{
			Verifier: server.NewDevVerifier(c.GetDevTokenSecret()),
			Users:    fakeuserrepo.NewFakeUserRepo(),
			Costs:    awscost.NewStaticSource(),
			Provider: providerfake.New(),
		}, cleanup, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	provider, err := session.NewOIDCProvider(ctx, c)
	if err != nil {
		return server.Deps{}, cleanup, err
	}
	verifier, err := server.NewOIDCVerifier(ctx, c)
	if err != nil {
		return server.Deps{}, cleanup, err
	}

	store, err := postgres.Open(c.GetDatabaseURL())
	if err != nil {
		return server.Deps{}, cleanup, err
	}
	cleanup = func() { _ = store.Close() }
	if err := store.EnsureSchema(ctx); err != nil {
		return server.Deps{}, cleanup, err
	}

	costs, err := buildCostSource(c)
	if err != nil {
		return server.Deps{}, cleanup, err
	}

	var usersRepo users.Repo = store
	return server.Deps{
		Verifier: verifier,
		Users:    usersRepo,
		Costs:    costs,
		Provider: provider,
	}, cleanup, nil
}

func buildCostSource(c config.Config) (awscost.Source, error) {
	if c.GetCostSource() == "static" {
		return awscost.NewStaticSource(), nil
	}
	return awscost.NewAWSSource(c)
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
