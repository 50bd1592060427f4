// Command rezi is a CLI client for the Rezi booking platform's auth API.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/johnpapajani/rezi-web-sub002/internal/authapi"
	"github.com/johnpapajani/rezi-web-sub002/internal/errclass"
	"github.com/johnpapajani/rezi-web-sub002/internal/guard"
	"github.com/johnpapajani/rezi-web-sub002/internal/session"
	"github.com/johnpapajani/rezi-web-sub002/internal/tokenstore"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "rezi")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "rezi")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func usage() {
	fmt.Fprintf(os.Stderr, `rezi CLI
Usage:
  rezi [-api URL] [-state FILE | -redis ADDR] [-debug] <cmd> [args]

Commands:
  version
  signup            -name <name> -email <email> -password <pw> [-phone p] [-locale l]
  login             -email <email> -password <pw>
  logout
  status                                     (restores session, prints identity)
  send-verification
  verify-email      -token <token>
  forgot-password   -email <email>
  reset-password    -token <token> -password <new-pw>
  api               -path </some/endpoint>   (authenticated GET through the session transport)
`)
	os.Exit(2)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, errclass.Classify(err.Error()))
	os.Exit(1)
}

// buildController wires store, client and controller from the global flags.
func buildController(apiURL, statePath, redisAddr string, debug bool) (*session.Controller, *zap.Logger) {
	var logger *zap.Logger
	if debug {
		logger, _ = zap.NewDevelopment()
	} else {
		logger = zap.NewNop()
	}

	var backend tokenstore.Backend
	if redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		backend = tokenstore.NewRedisBackend(rdb, "rezi:session:")
	} else {
		fb, err := tokenstore.NewFileBackend(statePath)
		if err != nil {
			fail(err)
		}
		backend = fb
	}

	store := tokenstore.New(backend)
	client := authapi.New(apiURL, nil, logger)
	return session.New(store, client, logger), logger
}

func main() {
	apiURL := flag.String("api", envOr("REZI_API_URL", "http://localhost:8000"), "auth API base URL")
	statePath := flag.String("state", envOr("REZI_STATE_FILE", filepath.Join(cfgDir(), "state.json")), "session state file")
	redisAddr := flag.String("redis", envOr("REZI_REDIS_ADDR", ""), "redis address for shared session storage (optional)")
	debug := flag.Bool("debug", false, "verbose request logging")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ctrl, logger := buildController(*apiURL, *statePath, *redisAddr, *debug)
	defer func() { _ = logger.Sync() }()

	switch cmd {

	case "version":
		fmt.Printf("rezi %s (%s)\n", version, buildDate)

	case "signup":
		fs := flag.NewFlagSet("signup", flag.ExitOnError)
		name := fs.String("name", "", "full name")
		email := fs.String("email", "", "email")
		password := fs.String("password", "", "password")
		phone := fs.String("phone", "", "phone (optional)")
		locale := fs.String("locale", "en", "locale")
		_ = fs.Parse(args)
		if *name == "" || *email == "" || *password == "" {
			fmt.Fprintln(os.Stderr, "need -name, -email and -password")
			os.Exit(1)
		}

		u, err := ctrl.SignUp(ctx, authapi.SignUpRequest{
			Name:     *name,
			Email:    *email,
			Password: *password,
			Phone:    *phone,
			Locale:   *locale,
			IsActive: true,
		})
		if err != nil {
			fail(err)
		}
		fmt.Printf("signed up as %s (%s)\n", u.Name, u.Email)
		if !u.EmailVerified {
			fmt.Println("check your inbox to verify the email address")
		}

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		email := fs.String("email", "", "email")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)
		if *email == "" || *password == "" {
			fmt.Fprintln(os.Stderr, "need -email and -password")
			os.Exit(1)
		}

		u, err := ctrl.SignIn(ctx, *email, *password)
		if err != nil {
			fail(err)
		}
		fmt.Printf("signed in as %s (%s)\n", u.Name, u.Email)

	case "logout":
		ctrl.SignOut(ctx)
		fmt.Println("signed out")

	case "status":
		if err := ctrl.Initialize(ctx); err != nil {
			fail(err)
		}
		switch guard.Verified(ctx, ctrl) {
		case guard.Allow:
			u, _ := ctrl.CurrentUser()
			fmt.Printf("signed in as %s (%s), tier %s\n", u.Name, u.Email, u.SubscriptionTier)
		case guard.VerificationRequired:
			u, _ := ctrl.CurrentUser()
			fmt.Printf("signed in as %s, email not verified\n", u.Email)
		default:
			fmt.Println("not signed in")
		}

	case "send-verification":
		if err := ctrl.Initialize(ctx); err != nil {
			fail(err)
		}
		if err := ctrl.SendVerificationEmail(ctx); err != nil {
			fail(err)
		}
		fmt.Println("verification email sent")

	case "verify-email":
		fs := flag.NewFlagSet("verify-email", flag.ExitOnError)
		token := fs.String("token", "", "verification token")
		_ = fs.Parse(args)
		if *token == "" {
			fmt.Fprintln(os.Stderr, "need -token")
			os.Exit(1)
		}
		if err := ctrl.VerifyEmail(ctx, *token); err != nil {
			fail(err)
		}
		fmt.Println("email verified; it takes effect on your next sign-in")

	case "forgot-password":
		fs := flag.NewFlagSet("forgot-password", flag.ExitOnError)
		email := fs.String("email", "", "account email")
		_ = fs.Parse(args)
		if *email == "" {
			fmt.Fprintln(os.Stderr, "need -email")
			os.Exit(1)
		}
		if err := ctrl.ForgotPassword(ctx, *email); err != nil {
			fail(err)
		}
		fmt.Println("password reset email sent")

	case "reset-password":
		fs := flag.NewFlagSet("reset-password", flag.ExitOnError)
		token := fs.String("token", "", "reset token")
		password := fs.String("password", "", "new password")
		_ = fs.Parse(args)
		if *token == "" || *password == "" {
			fmt.Fprintln(os.Stderr, "need -token and -password")
			os.Exit(1)
		}
		if err := ctrl.ResetPassword(ctx, *token, *password); err != nil {
			fail(err)
		}
		fmt.Println("password reset")

	case "api":
		fs := flag.NewFlagSet("api", flag.ExitOnError)
		path := fs.String("path", "", "endpoint path, e.g. /businesses")
		_ = fs.Parse(args)
		if *path == "" {
			fmt.Fprintln(os.Stderr, "need -path")
			os.Exit(1)
		}

		if err := ctrl.Initialize(ctx); err != nil {
			fail(err)
		}
		hc := &http.Client{Transport: session.NewTransport(ctrl, nil), Timeout: 30 * time.Second}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, *apiURL+*path, nil)
		if err != nil {
			fail(err)
		}
		resp, err := hc.Do(req)
		if err != nil {
			fail(err)
		}
		defer func() { _ = resp.Body.Close() }()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode == http.StatusUnauthorized {
			// Transport already invalidated the session.
			if e := ctrl.LastError(); e != nil {
				fail(e)
			}
		}
		fmt.Printf("%s\n%s\n", resp.Status, body)

	default:
		usage()
	}
}
