// Command tokengen issues and verifies session tokens from the shell.
//
//	tokengen issue -user user-42 [-secret s] [-ttl 1h]
//	tokengen verify -token <jwt> [-secret s]
//
// Without -secret the key is read from JWT_SECRET_KEY and tokens live one hour.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/bowmeow/session-token/internal/auth"
	"github.com/bowmeow/session-token/internal/config"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "issue":
		err = runIssue(os.Args[2:])
	case "verify":
		err = runVerify(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	var cfgErr *auth.ConfigurationError
	switch {
	case err == nil:
	case errors.As(err, &cfgErr):
		logger.Fatal("invalid token configuration", zap.Error(err))
	case auth.IsTokenError(err):
		logger.Error("token rejected", zap.Error(err))
		os.Exit(1)
	default:
		logger.Fatal("tokengen failed", zap.Error(err))
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: tokengen issue -user <id> [-secret s] [-ttl d]")
	fmt.Fprintln(os.Stderr, "       tokengen verify -token <jwt> [-secret s]")
}

func runIssue(args []string) error {
	fs := flag.NewFlagSet("issue", flag.ExitOnError)
	user := fs.String("user", "", "user identifier placed in the sub claim")
	secret := fs.String("secret", "", "signing secret (defaults to $JWT_SECRET_KEY)")
	ttl := fs.Duration("ttl", auth.DefaultExpiration, "token lifetime when -secret is given")
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc, err := newService(*secret, *ttl)
	if err != nil {
		return err
	}
	token, exp, err := svc.IssueWithExpiry(*user)
	if err != nil {
		return err
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", exp.UTC().Format(time.RFC3339))
	return nil
}

func runVerify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	token := fs.String("token", "", "token to verify")
	secret := fs.String("secret", "", "signing secret (defaults to $JWT_SECRET_KEY)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc, err := newService(*secret, auth.DefaultExpiration)
	if err != nil {
		return err
	}
	userID, err := svc.ExtractUserID(*token)
	if err != nil {
		return err
	}
	fmt.Println(userID)
	return nil
}

func newService(secret string, ttl time.Duration) (*auth.TokenService, error) {
	if secret != "" {
		return auth.NewTokenService(auth.TokenConfig{
			Secret:     []byte(secret),
			Expiration: ttl,
			Source:     auth.SecretSourceExplicit,
		})
	}
	authCfg, err := config.LoadAuth()
	if err != nil {
		return nil, err
	}
	return auth.NewTokenService(authCfg.TokenConfig())
}
