package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/litepie/organization/migrations"
	"github.com/litepie/organization/modules/core/domain/aggregates/user"
	corepersistence "github.com/litepie/organization/modules/core/infrastructure/persistence"
	"github.com/litepie/organization/modules/organization/domain/aggregates/organization"
	"github.com/litepie/organization/modules/organization/infrastructure/persistence"
	"github.com/litepie/organization/modules/organization/services"
	"github.com/litepie/organization/pkg/composables"
	"github.com/litepie/organization/pkg/configuration"
	"github.com/litepie/organization/pkg/eventbus"
)

func main() {
	root := &cobra.Command{
		Use:          "organization",
		Short:        "Organization hierarchy management",
		SilenceUsage: true,
	}
	root.AddCommand(migrateCommand(), seedCommand(), statsCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply database schema migrations",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := "up"
			if len(args) > 0 {
				direction = args[0]
			}

			conf := configuration.Use()
			db, err := sql.Open("pgx", conf.Database.Opts)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			goose.SetBaseFS(migrations.FS)
			if err := goose.SetDialect("postgres"); err != nil {
				return err
			}

			switch direction {
			case "up":
				return goose.Up(db, ".")
			case "down":
				return goose.Down(db, ".")
			case "status":
				return goose.Status(db, ".")
			default:
				return fmt.Errorf("unknown migrate direction %q", direction)
			}
		},
	}
	return cmd
}

func seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed a demo organization tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, pool, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := configuration.Use().Logger()
			service := newService(logger)

			users := corepersistence.NewUserRepository()
			admin, err := users.GetByEmail(ctx, "admin@example.com")
			if err != nil {
				admin, err = users.Create(ctx, user.New("System", "Admin", "admin@example.com"))
				if err != nil {
					return fmt.Errorf("failed to seed admin user: %w", err)
				}
			}
			ctx = composables.WithUser(ctx, admin)

			if err := seedTree(ctx, service); err != nil {
				return err
			}
			logger.Info("seed complete")
			return nil
		},
	}
}

func statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print hierarchy statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, pool, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			service := newService(configuration.Use().Logger())
			stats, err := service.GetStatistics(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Total organizations: %d\n", stats.Total)
			fmt.Printf("Root organizations:  %d\n", stats.Roots)
			fmt.Printf("With managers:       %d\n", stats.WithManagers)
			fmt.Println("By type:")
			for typ, count := range stats.ByType {
				fmt.Printf("  %-14s %d\n", typ, count)
			}
			fmt.Println("By status:")
			for status, count := range stats.ByStatus {
				fmt.Printf("  %-14s %d\n", status, count)
			}
			return nil
		},
	}
}

func connect(ctx context.Context) (context.Context, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, configuration.Use().Database.Opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	return composables.WithPool(ctx, pool), pool, nil
}

func newService(logger *logrus.Logger) *services.OrganizationService {
	return services.NewOrganizationService(
		persistence.NewOrganizationRepository(),
		corepersistence.NewUserRepository(),
		eventbus.NewEventPublisher(logger),
		services.NewTenantResolver(corepersistence.NewTenantRepository(), nil),
	)
}

type seedNode struct {
	name     string
	code     string
	typ      organization.Type
	children []seedNode
}

func seedTree(ctx context.Context, service *services.OrganizationService) error {
	tree := seedNode{
		name: "Acme Corporation", code: "ACME", typ: organization.TypeCompany,
		children: []seedNode{
			{
				name: "New York Branch", code: "ACME-NY", typ: organization.TypeBranch,
				children: []seedNode{
					{name: "Engineering", code: "ACME-NY-ENG", typ: organization.TypeDepartment},
					{name: "Sales", code: "ACME-NY-SLS", typ: organization.TypeDepartment},
				},
			},
			{
				name: "Los Angeles Branch", code: "ACME-LA", typ: organization.TypeBranch,
				children: []seedNode{
					{name: "Marketing", code: "ACME-LA-MKT", typ: organization.TypeDepartment},
				},
			},
		},
	}
	return seedSubtree(ctx, service, tree, nil)
}

func seedSubtree(ctx context.Context, service *services.OrganizationService, node seedNode, parentID *uuid.UUID) error {
	created, err := service.Create(ctx, &services.CreateOrganizationDTO{
		Name:     node.name,
		Code:     node.code,
		Type:     string(node.typ),
		ParentID: parentID,
	})
	if err != nil {
		return fmt.Errorf("failed to seed %s: %w", node.code, err)
	}
	id := created.ID()
	for _, child := range node.children {
		if err := seedSubtree(ctx, service, child, &id); err != nil {
			return err
		}
	}
	return nil
}
