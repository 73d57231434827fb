// Package main is a command-line front for the NutriCheck data layer: product
// lookup, search, voting, and the local badge set.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/NutriCheck-Fiicode-malloc-team/NutriCheck-Mobile/internal/api"
	"github.com/NutriCheck-Fiicode-malloc-team/NutriCheck-Mobile/internal/badges"
	"github.com/NutriCheck-Fiicode-malloc-team/NutriCheck-Mobile/internal/cache"
	"github.com/NutriCheck-Fiicode-malloc-team/NutriCheck-Mobile/internal/config"
	"github.com/NutriCheck-Fiicode-malloc-team/NutriCheck-Mobile/internal/notify"
	"github.com/NutriCheck-Fiicode-malloc-team/NutriCheck-Mobile/internal/obs"
	"github.com/NutriCheck-Fiicode-malloc-team/NutriCheck-Mobile/internal/product"
	"github.com/NutriCheck-Fiicode-malloc-team/NutriCheck-Mobile/internal/secure"
	"github.com/NutriCheck-Fiicode-malloc-team/NutriCheck-Mobile/internal/vote"
)

const usage = `usage: nutricheck-data <command> [args]

commands:
  fetch <ean>           fetch a product from the internal backend
  off <ean>             fetch a product from Open Food Facts
  search <query>        search the internal backend
  offsearch <query>     search Open Food Facts
  vote <ean> up|down    cast a vote
  unvote <ean>          withdraw the current vote
  login <token>         store the session token
  logout                drop the session token
  badge add <id>        record an earned badge
  badge list            list earned badges
`

func main() {
	// .env is optional
	_ = godotenv.Load()
	cfg := config.Load()
	obs.InitLogger()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var sessions *secure.Store
	if cfg.SecureStoreKey != "" {
		var err error
		sessions, err = secure.Open(cfg.SecureStorePath, cfg.SecureStoreKey)
		if err != nil {
			obs.Logger.Error("secure_store_open_failed", "error", err)
			os.Exit(1)
		}
	} else {
		obs.Logger.Warn("secure_store_disabled", "reason", "SECURE_STORE_KEY not set")
	}

	c := cache.New()
	center := notify.New(cfg.NotifyBuffer, cfg.NotifyVisibility)
	var reader api.SessionReader
	if sessions != nil {
		reader = sessions
	}
	client := api.New(cfg.BaseURL, cfg.HTTPTimeout, reader)
	products := product.New(client, c, cfg.ExternalBaseURL, cfg.ProductFreshFor)
	votes := vote.NewEngine(client, c, center)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		for n := range center.C() {
			obs.Logger.Warn("notification",
				"title", n.Title,
				"message", n.Message,
				"position", n.Position,
				"visible_ms", n.Visibility.Milliseconds(),
			)
		}
	}()

	if err := run(ctx, cfg, os.Args[1:], sessions, products, votes); err != nil {
		obs.Logger.Error("command_failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, args []string, sessions *secure.Store, products *product.Service, votes *vote.Engine) error {
	switch args[0] {
	case "fetch":
		if len(args) != 2 {
			return fmt.Errorf("fetch needs an ean")
		}
		p, err := products.GetProduct(ctx, args[1])
		if err != nil {
			return err
		}
		return printJSON(p)
	case "off":
		if len(args) != 2 {
			return fmt.Errorf("off needs an ean")
		}
		rec, err := products.GetExternalProduct(ctx, args[1])
		if err != nil {
			return err
		}
		return printJSON(rec)
	case "search":
		if len(args) != 2 {
			return fmt.Errorf("search needs a query")
		}
		raw, err := products.SearchProducts(ctx, args[1])
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(append(raw, '\n'))
		return err
	case "offsearch":
		if len(args) != 2 {
			return fmt.Errorf("offsearch needs a query")
		}
		out, err := products.SearchExternalProducts(ctx, args[1])
		if err != nil {
			return err
		}
		return printJSON(out)
	case "vote":
		if len(args) != 3 || (args[2] != "up" && args[2] != "down") {
			return fmt.Errorf("vote needs an ean and up|down")
		}
		return votes.SetVote(ctx, args[1], args[2] == "up")
	case "unvote":
		if len(args) != 2 {
			return fmt.Errorf("unvote needs an ean")
		}
		return votes.DeleteVote(ctx, args[1])
	case "login":
		if sessions == nil {
			return fmt.Errorf("secure store disabled, set SECURE_STORE_KEY")
		}
		if len(args) != 2 {
			return fmt.Errorf("login needs a token")
		}
		return sessions.Set(secure.SessionKey, args[1])
	case "logout":
		if sessions == nil {
			return fmt.Errorf("secure store disabled, set SECURE_STORE_KEY")
		}
		return sessions.Delete(secure.SessionKey)
	case "badge":
		store, err := badges.Open(cfg.BadgeStoreDir)
		if err != nil {
			return err
		}
		switch {
		case len(args) == 3 && args[1] == "add":
			return store.Add(args[2])
		case len(args) == 2 && args[1] == "list":
			return printJSON(store.List())
		default:
			return fmt.Errorf("badge needs add <id> or list")
		}
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
