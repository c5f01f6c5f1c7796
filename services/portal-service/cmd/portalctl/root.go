package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/md-rashed-zaman/medportal/libs/runtime"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/booking"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/directory"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/medapi"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var errNoToken = errors.New("no token: run login or set MEDPORTAL_TOKEN")

// cli carries what every subcommand resolves from flags and MEDPORTAL_* variables.
type cli struct {
	v   *viper.Viper
	out io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{v: viper.New(), out: out}
	c.v.SetEnvPrefix("medportal")
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()
	c.v.SetDefault("base-url", "http://localhost:4000")
	c.v.SetDefault("timeout", 10*time.Second)

	root := &cobra.Command{
		Use:          "portalctl",
		Short:        "Query doctor availability and book appointments against the medical API",
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.SetErr(out)

	pf := root.PersistentFlags()
	pf.String("base-url", "", "medical API base url (MEDPORTAL_BASE_URL)")
	pf.String("token", "", "bearer token of the patient (MEDPORTAL_TOKEN)")
	pf.String("user-id", "", "patient id, required for booking (MEDPORTAL_USER_ID)")
	pf.Duration("timeout", 0, "per-request timeout")
	pf.Bool("verbose", false, "log requests to stderr")
	for _, name := range []string{"base-url", "token", "user-id", "timeout", "verbose"} {
		_ = c.v.BindPFlag(name, pf.Lookup(name))
	}

	root.AddCommand(
		c.loginCmd(),
		c.doctorsCmd(),
		c.daysCmd(),
		c.slotsCmd(),
		c.bookCmd(),
		c.appointmentsCmd(),
		c.servicesCmd(),
		c.healthCmd(),
	)
	return root
}

func (c *cli) logger() *slog.Logger {
	level := slog.LevelWarn
	if c.v.GetBool("verbose") {
		level = slog.LevelDebug
	}
	return runtime.NewTextLogger(os.Stderr, level)
}

func (c *cli) client() (*medapi.Client, error) {
	return medapi.NewClient(medapi.Config{
		BaseURL: c.v.GetString("base-url"),
		Timeout: c.v.GetDuration("timeout"),
	})
}

// session builds a throwaway session around the configured token; nothing is stored.
func (c *cli) session() (session.Session, error) {
	token := strings.TrimSpace(c.v.GetString("token"))
	if token == "" {
		return session.Session{}, errNoToken
	}
	return session.Session{
		Token: token,
		User:  medapi.User{ID: c.v.GetString("user-id"), Role: "user"},
	}, nil
}

type deps struct {
	client    *medapi.Client
	directory *directory.Directory
	sess      session.Session
	logger    *slog.Logger
}

func (c *cli) deps() (deps, error) {
	sess, err := c.session()
	if err != nil {
		return deps{}, err
	}
	client, err := c.client()
	if err != nil {
		return deps{}, err
	}
	logger := c.logger()
	return deps{
		client:    client,
		directory: directory.New(client, directory.NewMemoryCache(time.Minute), logger),
		sess:      sess,
		logger:    logger,
	}, nil
}

func (d deps) orchestrator() *booking.Orchestrator {
	return booking.NewOrchestrator(d.client, d.directory, 0, d.logger)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
