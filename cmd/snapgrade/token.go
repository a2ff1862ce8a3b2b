package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/snapgrade/internal/auth"
	"github.com/fpang/snapgrade/internal/logging"
)

var ttlFlag time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token USER_ID",
	Short: "Mint a bearer token for the image API",
	Long: `Mint a signed bearer token for the given user, valid for --ttl.

The token is signed with SNAPGRADE_AUTH_SECRET, which must match the
secret the deployed API validates against. Prints the token to stdout so
it can be piped into a request:

  export TOKEN=$(snapgrade token alice)
  curl -H "Authorization: Bearer $TOKEN" $API/api/images`,
	Args: cobra.ExactArgs(1),
	Run:  runToken,
}

func init() {
	tokenCmd.Flags().DurationVar(&ttlFlag, "ttl", 24*time.Hour, "Token lifetime (e.g. 1h, 24h, 168h)")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) {
	logging.Init()

	token, err := issueToken(args[0], ttlFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to mint token")
	}
	fmt.Println(token)
}

// issueToken mints a bearer token for userID using the signing secret from
// the environment. The user ID must not contain the token payload
// separator.
func issueToken(userID string, ttl time.Duration) (string, error) {
	if userID == "" || strings.Contains(userID, "|") {
		return "", fmt.Errorf("invalid user ID %q", userID)
	}
	if ttl <= 0 {
		return "", fmt.Errorf("ttl must be positive, got %s", ttl)
	}
	secret := os.Getenv("SNAPGRADE_AUTH_SECRET")
	if secret == "" {
		return "", fmt.Errorf("SNAPGRADE_AUTH_SECRET is not set")
	}
	return auth.NewAuthority(secret).Mint(userID, ttl), nil
}
