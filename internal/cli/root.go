// Package cli implements the mustsee command line.
package cli

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dullmace/faux-must-see/internal/adapters/spotify"
	"github.com/dullmace/faux-must-see/internal/config"
	"github.com/dullmace/faux-must-see/internal/logging"
)

// app carries the state shared by every subcommand.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
}

// NewRootCmd builds the command tree with a fresh configuration instance.
func NewRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:   "mustsee",
		Short: "Ranks a festival lineup against your Spotify listening",
		Long: `mustsee scores every act of a festival lineup against a listener's
top artists, genres and audio profile, and serves the interactive flow
that signs listeners in and builds must-see playlists.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.initConfig,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.mustsee.yaml)")
	pf.String("catalog", "", "path to the lineup JSON file")
	pf.String("log-level", "", "log level (trace, debug, info, warn, error)")
	pf.String("log-format", "", "log format (json, console)")
	a.bind(pf, "catalog.path", "catalog")
	a.bind(pf, "log.level", "log-level")
	a.bind(pf, "log.format", "log-format")

	root.AddCommand(
		a.newServeCmd(),
		a.newRankCmd(),
		a.newEnrichCmd(),
		a.newSnapshotsCmd(),
	)
	return root
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	err := NewRootCmd().Execute()
	_ = logging.Close()
	if err != nil {
		os.Exit(1)
	}
}

// bind ties a flag to a configuration key; flags win over file and env.
func (a *app) bind(fs *pflag.FlagSet, key, flag string) {
	if err := a.v.BindPFlag(key, fs.Lookup(flag)); err != nil {
		panic(fmt.Sprintf("cli: bind flag %q: %v", flag, err))
	}
}

// initConfig reads the config file and environment, then sets up logging.
func (a *app) initConfig(cmd *cobra.Command, _ []string) error {
	used, err := config.ReadFile(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logging.Init(logging.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		Output:     cmd.ErrOrStderr(),
	})
	if used != "" {
		logger := logging.Component("cli")
		logger.Debug().Str("file", used).Msg("using config file")
	}
	return nil
}

func (a *app) spotifyClient() *spotify.Client {
	sc := a.cfg.Spotify
	return spotify.NewClient(
		&http.Client{Timeout: sc.Timeout},
		sc.BaseURL,
		spotify.WithRetry(sc.MaxRetries, sc.RetryBackoff),
		spotify.WithRateLimit(sc.RateLimit, sc.RateBurst),
		spotify.WithBreaker(spotify.BreakerConfig{
			ConsecutiveFailures: sc.BreakerFailures,
			OpenTimeout:         sc.BreakerTimeout,
			HalfOpenRequests:    1,
		}),
	)
}

func (a *app) authenticator() *spotify.Authenticator {
	sc := a.cfg.Spotify
	return spotify.NewAuthenticator(spotify.AuthConfig{
		ClientID:     sc.ClientID,
		ClientSecret: sc.ClientSecret,
		RedirectURL:  sc.RedirectURL,
		AuthURL:      sc.AuthURL,
		TokenURL:     sc.TokenURL,
	}, &http.Client{Timeout: sc.Timeout})
}
