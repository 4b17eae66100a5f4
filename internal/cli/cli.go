// Package cli команды giftctl: миграции, экспорт и импорт контента,
// служебные операции администратора.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"advent_calendar/internal/app"
	"advent_calendar/internal/config"
	"advent_calendar/internal/domain/models"
	"advent_calendar/internal/lib/logger"
	"advent_calendar/internal/migrate"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// ContentStore часть сервиса контента, которая нужна CLI.
type ContentStore interface {
	Load(ctx context.Context, giftID uuid.UUID) (*models.VersionedContent, bool, error)
	Import(ctx context.Context, giftID uuid.UUID, content models.GiftContent) (int64, error)
}

type deps struct {
	loadConfig    func(path string) (*config.Config, error)
	openContent   func(ctx context.Context, log *slog.Logger, cfg *config.Config) (ContentStore, func() error, error)
	migrateUp     func(ctx context.Context, log *slog.Logger, dsn string) error
	migrateStatus func(ctx context.Context, dsn string) error
}

func defaultDeps() deps {
	return deps{
		loadConfig:    config.Load,
		migrateUp:     migrate.Up,
		migrateStatus: migrate.Status,
		openContent: func(ctx context.Context, log *slog.Logger, cfg *config.Config) (ContentStore, func() error, error) {
			return app.NewContentService(ctx, log, cfg)
		},
	}
}

type root struct {
	deps       deps
	configPath string
	stdin      io.Reader
}

var ErrNoConfig = errors.New("config path is empty: use --config or CONFIG_PATH")

func NewRootCmd() *cobra.Command {
	return newRootCmd(defaultDeps(), os.Stdin)
}

func newRootCmd(d deps, stdin io.Reader) *cobra.Command {
	r := &root{deps: d, stdin: stdin}

	cmd := &cobra.Command{
		Use:           "giftctl",
		Short:         "Advent calendar administration tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&r.configPath, "config", os.Getenv("CONFIG_PATH"), "path to config file")

	cmd.AddCommand(
		r.migrateCmd(),
		r.contentCmd(),
		r.adminCmd(),
	)

	return cmd
}

func (r *root) config() (*config.Config, error) {
	if r.configPath == "" {
		return nil, ErrNoConfig
	}
	return r.deps.loadConfig(r.configPath)
}

func (r *root) logger(cfg *config.Config) *slog.Logger {
	return logger.Setup(cfg.Env)
}

func (r *root) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := r.config()
				if err != nil {
					return err
				}
				return r.deps.migrateUp(cmd.Context(), r.logger(cfg), cfg.DSN)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print migration status",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := r.config()
				if err != nil {
					return err
				}
				return r.deps.migrateStatus(cmd.Context(), cfg.DSN)
			},
		},
	)

	return cmd
}

func (r *root) contentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Export, import and validate gift content",
	}

	var exportFormat string
	export := &cobra.Command{
		Use:   "export <gift-id>",
		Short: "Print stored content of a gift",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid gift id: %w", err)
			}

			return r.withContent(cmd.Context(), func(store ContentStore) error {
				loaded, exists, err := store.Load(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !exists {
					fmt.Fprintf(cmd.ErrOrStderr(), "gift %s has no saved content\n", id)
				}
				return encodeContent(cmd.OutOrStdout(), loaded.Content, formatFor(exportFormat, ""))
			})
		},
	}
	export.Flags().StringVarP(&exportFormat, "format", "f", formatJSON, "output format: json or yaml")

	var importFormat string
	imp := &cobra.Command{
		Use:   "import <gift-id> <file>",
		Short: "Replace gift content with a file, '-' reads stdin",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid gift id: %w", err)
			}

			content, err := r.readContent(args[1], importFormat)
			if err != nil {
				return err
			}

			return r.withContent(cmd.Context(), func(store ContentStore) error {
				version, err := store.Import(cmd.Context(), id, content)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d blocks, version %d\n", len(content.Blocks), version)
				return nil
			})
		},
	}
	imp.Flags().StringVarP(&importFormat, "format", "f", "", "input format, detected from extension by default")

	var validateFormat string
	validate := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a content file without saving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := r.readContent(args[0], validateFormat)
			if err != nil {
				return err
			}

			if err := content.Validate(); err != nil {
				var verr *models.ContentValidationError
				if errors.As(err, &verr) {
					for _, issue := range verr.Issues {
						fmt.Fprintf(cmd.ErrOrStderr(), "blocks[%s].%s: %s\n", issue.Path, issue.Field, issue.Message)
					}
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d blocks\n", len(content.Blocks))
			return nil
		},
	}
	validate.Flags().StringVarP(&validateFormat, "format", "f", "", "input format, detected from extension by default")

	cmd.AddCommand(export, imp, validate)

	return cmd
}

func (r *root) withContent(ctx context.Context, fn func(ContentStore) error) error {
	cfg, err := r.config()
	if err != nil {
		return err
	}

	store, closeFn, err := r.deps.openContent(ctx, r.logger(cfg), cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	return fn(store)
}

func (r *root) readContent(path, format string) (models.GiftContent, error) {
	var (
		data []byte
		err  error
	)

	if path == "-" {
		data, err = io.ReadAll(r.stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return models.GiftContent{}, fmt.Errorf("read content: %w", err)
	}

	content, err := decodeContent(data, formatFor(format, path))
	if err != nil {
		return models.GiftContent{}, fmt.Errorf("decode %s: %w", path, err)
	}

	return content, nil
}
