package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gokatarajesh/question-bank/internal/app"
	"github.com/gokatarajesh/question-bank/internal/auth"
	"github.com/gokatarajesh/question-bank/internal/config"
	"github.com/gokatarajesh/question-bank/internal/question"
	"github.com/gokatarajesh/question-bank/internal/question/ai"
	"github.com/gokatarajesh/question-bank/internal/question/external"
)

type rootOptions struct {
	envFile string
	driver  string
	path    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "qbankctl",
		Short:         "Administer the question bank store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "load environment from this file first")
	root.PersistentFlags().StringVar(&opts.driver, "driver", "", "override STORE_DRIVER (file, memory, postgres)")
	root.PersistentFlags().StringVar(&opts.path, "store", "", "override STORE_PATH for the file driver")

	root.AddCommand(
		newListCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
		newSeedCmd(opts),
		newHashPasswordCmd(),
		newTokenCmd(opts),
	)
	return root
}

func (o *rootOptions) config(ctx context.Context) (*config.App, error) {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil {
			return nil, fmt.Errorf("load %s: %w", o.envFile, err)
		}
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if o.driver != "" {
		cfg.Store.Driver = o.driver
	}
	if o.path != "" {
		cfg.Store.Path = o.path
	}
	return cfg, cfg.Validate()
}

// openService opens the configured store. The file driver takes no lock, so
// run writes while the API is stopped.
func (o *rootOptions) openService(ctx context.Context) (*question.Service, func(), error) {
	cfg, err := o.config(ctx)
	if err != nil {
		return nil, nil, err
	}

	var pool *pgxpool.Pool
	if cfg.Store.Driver == config.StoreDriverPostgres {
		pool, err = pgxpool.New(ctx, cfg.Postgres.PoolDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
	}
	store, err := app.OpenStore(cfg, pool)
	if err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, nil, err
	}
	closeFn := func() {
		_ = store.Close()
		if pool != nil {
			pool.Close()
		}
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel).With().Timestamp().Logger()
	return question.NewService(store, logger, question.ServiceOptions{}), closeFn, nil
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print stored questions as a table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := opts.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			qs, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tCATEGORY\tCREATED\tTEXT")
			for _, q := range qs {
				if category != "" && !strings.EqualFold(q.Category, category) {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", q.ID, q.Type, q.Category,
					q.CreatedAt.Format("2006-01-02 15:04"), truncate(q.Text, 60))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only show this category")
	return cmd
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the collection as a JSON array",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := opts.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			qs, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(qs)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	var skipDuplicates bool
	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Add questions from a JSON array, keeping their ids and creation times",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var incoming []question.Question
			if err := json.Unmarshal(data, &incoming); err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}

			svc, closeFn, err := opts.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			imported, skipped := 0, 0
			for i, q := range incoming {
				_, err := svc.Import(cmd.Context(), q)
				switch {
				case err == nil:
					imported++
				case errors.Is(err, question.ErrDuplicateID) && skipDuplicates:
					skipped++
				default:
					return fmt.Errorf("record %d (id %q): %w", i, q.ID, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d, skipped %d\n", imported, skipped)
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipDuplicates, "skip-duplicates", true, "skip records whose id already exists")
	return cmd
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var (
		req    external.Request
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:       "seed <opentdb|triviaapi|ai>",
		Short:     "Fetch questions from an upstream provider and add them as new records",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"opentdb", "triviaapi", "ai"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(cmd.Context())
			if err != nil {
				return err
			}
			src, err := newSource(args[0], cfg.Sources)
			if err != nil {
				return err
			}

			fetched, err := src.Fetch(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("fetch from %s: %w", src.Name(), err)
			}
			if dryRun {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(fetched)
			}

			svc, closeFn, err := opts.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			created := 0
			for i, q := range fetched {
				if _, err := svc.Create(cmd.Context(), q); err != nil {
					return fmt.Errorf("record %d: %w", i, err)
				}
				created++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d from %s\n", created, src.Name())
			return nil
		},
	}
	cmd.Flags().IntVarP(&req.Amount, "amount", "n", 10, "number of questions to request")
	cmd.Flags().StringVar(&req.Category, "category", "", "provider category filter")
	cmd.Flags().StringVar(&req.Difficulty, "difficulty", "", "mudah, sedang or sulit")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the converted questions without saving")
	return cmd
}

func newSource(name string, cfg config.Sources) (external.Source, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	switch name {
	case "opentdb":
		return external.NewOpenTDBClient(cfg.OpenTDBURL, httpClient), nil
	case "triviaapi":
		return external.NewTriviaAPIClient(cfg.TriviaAPIURL, cfg.TriviaAPIKey, httpClient), nil
	case "ai":
		return ai.NewGenerator(ai.Config{
			GeneratorURL: cfg.AIGeneratorURL,
			GeneratorKey: cfg.AIGeneratorKey,
			Timeout:      cfg.Timeout,
		}, zerolog.Nop()), nil
	default:
		return nil, fmt.Errorf("unknown source %q", name)
	}
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH (reads stdin when no argument)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				password = strings.TrimRight(line, "\r\n")
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin access token with the configured JWT_SECRET",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config(cmd.Context())
			if err != nil {
				return err
			}
			svc, err := auth.NewService(cfg.Security, zerolog.Nop())
			if err != nil {
				return err
			}
			if !svc.Enabled() {
				return errors.New("JWT_SECRET is not set")
			}
			if username == "" {
				username = cfg.Security.AdminUsername
			}
			tokens, err := svc.Issue(username)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tokens.AccessToken)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "token subject (defaults to ADMIN_USERNAME)")
	return cmd
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
