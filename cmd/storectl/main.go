// Command storectl runs one-off operator tasks against the store database.
package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/flicky/phone-store-api/internal/config"
	"github.com/flicky/phone-store-api/internal/dto"
	"github.com/flicky/phone-store-api/internal/model"
	"github.com/flicky/phone-store-api/internal/repository"
	"github.com/flicky/phone-store-api/internal/service"
)

var rootCmd = &cobra.Command{
	Use:   "storectl",
	Short: "Operator tasks for the phone store API",
	Long: `storectl talks to the store database directly, using the same
environment configuration as the API server.`,
	SilenceUsage: true,
}

var staffFlags dto.StaffRegisterRequest

var createStaffCmd = &cobra.Command{
	Use:   "create-staff",
	Short: "Create a back-office account",
	Long: `Create a staff account without going through the admin API.
Use it to bootstrap the first admin.`,
	RunE: createStaff,
}

func init() {
	f := createStaffCmd.Flags()
	f.StringVar(&staffFlags.Name, "name", "", "display name")
	f.StringVar(&staffFlags.Email, "email", "", "login email")
	f.StringVar(&staffFlags.Password, "password", "", "login password")
	f.StringVar(&staffFlags.StaffType, "type", model.StaffTypeAdmin, "admin, staff or technician")
	for _, name := range []string{"name", "email", "password"} {
		_ = createStaffCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(createStaffCmd)
}

func createStaff(cmd *cobra.Command, _ []string) error {
	staffTypes := []string{model.StaffTypeAdmin, model.StaffTypeStaff, model.StaffTypeTechnician}
	if !slices.Contains(staffTypes, staffFlags.StaffType) {
		return fmt.Errorf("invalid staff type %q", staffFlags.StaffType)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DB.DSN())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	authSvc := service.NewAuthService(
		repository.NewTransactor(pool),
		repository.NewCustomerRepository(pool),
		repository.NewStaffRepository(pool),
		repository.NewLoyaltyRepository(pool),
		cfg.JWT.Secret, cfg.JWT.Expiration, cfg.Store.CheckCustomerActive,
	)
	if err := authSvc.RegisterStaff(ctx, staffFlags); err != nil {
		return fmt.Errorf("create staff: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created %s account for %s\n", staffFlags.StaffType, staffFlags.Email)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
