package seed

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/harvesthub/harvesthub-api/internal/config"
	"github.com/harvesthub/harvesthub-api/internal/database"
	"github.com/harvesthub/harvesthub-api/internal/tools/common"
	"github.com/harvesthub/harvesthub-api/internal/tools/ui"
)

type options struct {
	envFile       string
	adminEmail    string
	adminPassword string
	ci            bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "seed", Short: "Database seed tooling"}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().StringVar(&opts.adminEmail, "admin-email", "", "override bootstrap admin email")
	cmd.PersistentFlags().StringVar(&opts.adminPassword, "admin-password", "", "override bootstrap admin password")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newApplyCommand(opts), newDryRunCommand(opts))
	return cmd
}

func newApplyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Apply the starter catalog and bootstrap admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := run(opts, "seed apply", func(ctx context.Context) ([]string, error) {
				cfg, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				if err := database.Migrate(db); err != nil {
					return nil, err
				}
				email, password := adminCredentials(cfg, opts)
				report, err := database.Seed(db, email, password)
				if err != nil {
					return nil, err
				}
				details := []string{
					fmt.Sprintf("created %d categories, %d products", report.CreatedCategories, report.CreatedProducts),
				}
				if email != "" {
					if report.CreatedAdmin {
						details = append(details, "created bootstrap admin: "+email)
					} else {
						details = append(details, "bootstrap admin already exists: "+email)
					}
				}
				return details, nil
			})
			if opts.ci {
				common.PrintCIResult(err == nil, "seed apply", details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func newDryRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dry-run",
		Short: "Show what seeding would do",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := run(opts, "seed dry-run", func(ctx context.Context) ([]string, error) {
				cfg, _, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				details := []string{
					"would ensure starter categories: Fresh Fruits, Fresh Vegetables, Dairy & Eggs, Staples & Grains",
					"would ensure sample products under each category with default stock 100",
				}
				email, _ := adminCredentials(cfg, opts)
				if email != "" {
					details = append(details, "would create bootstrap admin if absent: "+email)
				}
				return details, nil
			})
			if opts.ci {
				common.PrintCIResult(err == nil, "seed dry-run", details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func adminCredentials(cfg *config.Config, opts *options) (string, string) {
	email := cfg.BootstrapAdminEmail
	if opts.adminEmail != "" {
		email = opts.adminEmail
	}
	password := cfg.BootstrapAdminPassword
	if opts.adminPassword != "" {
		password = opts.adminPassword
	}
	return email, password
}

func run(opts *options, title string, fn func(context.Context) ([]string, error)) ([]string, error) {
	if opts.ci {
		return fn(context.Background())
	}
	return ui.Run(title, fn)
}

func loadConfigDB(envFile string) (*config.Config, *gorm.DB, error) {
	if err := common.LoadEnvFile(envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
