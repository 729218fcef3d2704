// Package main provides CLI for tenant membership management.
// Usage: tenant migrate
//
//	tenant create --name "North Clinic"
//	tenant list <user-id>
//	tenant grant --user <user-id> --tenant <tenant-id>
//	tenant revoke --user <user-id> --tenant <tenant-id>
//	tenant token --user <user-id> --role care_manager --tenant <tenant-id>
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"carehub/internal/core/id"
	"carehub/internal/core/security"
	"carehub/internal/core/tenant"
	"carehub/internal/domain/auth"
	"carehub/internal/infrastructure/storage/postgres"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	_ = godotenv.Load()
	ctx := context.Background()

	switch os.Args[1] {
	case "migrate":
		migrate(ctx)
	case "create":
		createTenant(ctx)
	case "list":
		listMemberships(ctx)
	case "grant":
		grant(ctx)
	case "revoke":
		revoke(ctx)
	case "token":
		issueToken()
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`CareHub Tenant Membership CLI

Usage:
  tenant <command> [options]

Commands:
  migrate   Create the membership tables
  create    Create a tenant
  list      List a user's entitled tenants and primary tenant
  grant     Grant a user membership in a tenant
  revoke    Revoke a user's membership in a tenant
  token     Mint a bearer token for local use
  help      Show this help

Environment Variables:
  DATABASE_URL      Connection string for the membership database
  AUTH_JWT_SECRET   Signing secret for "token"
  AUTH_JWT_ISSUER   Token issuer (default carehub)

Examples:
  tenant migrate
  tenant create --name "North Clinic"
  tenant list <user-uuid>
  tenant grant --user <user-uuid> --tenant <tenant-uuid>
  tenant revoke --user <user-uuid> --tenant <tenant-uuid>
  tenant token --user <user-uuid> --role care_manager --tenant <tenant-uuid> --ttl 1h`)
}

// parseFlags reads "--key value" pairs following the command name.
func parseFlags(names ...string) map[string]string {
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}

	values := make(map[string]string)
	for i := 2; i < len(os.Args); i++ {
		arg := os.Args[i]
		if len(arg) > 2 && arg[:2] == "--" && known[arg[2:]] && i+1 < len(os.Args) {
			values[arg[2:]] = os.Args[i+1]
			i++
		}
	}
	return values
}

func fail(format string, args ...any) {
	fmt.Printf("Error: "+format+"\n", args...)
	os.Exit(1)
}

func mustID(label, value string) string {
	normalized := id.Normalize(value)
	if normalized == "" {
		fail("%s must be a UUID, got %q", label, value)
	}
	return normalized
}

func getPool(ctx context.Context) *postgres.Pool {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		fail("DATABASE_URL environment variable is required")
	}

	cfg := postgres.DefaultPoolConfig(dsn)
	cfg.MinConns = 0
	cfg.ApplicationName = "carehub-tenant-cli"
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		fail("connecting to database: %v", err)
	}
	return pool
}

func migrate(ctx context.Context) {
	pool := getPool(ctx)
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool.Pool); err != nil {
		fail("applying schema: %v", err)
	}
	fmt.Println("Schema is up to date.")
}

func createTenant(ctx context.Context) {
	flags := parseFlags("name")
	if flags["name"] == "" {
		fail("--name is required")
	}

	pool := getPool(ctx)
	defer pool.Close()

	t, err := tenant.NewPostgresRegistry(pool.Pool).Create(ctx, flags["name"])
	if err != nil {
		fail("%v", err)
	}
	fmt.Printf("Created tenant %s (%s)\n", t.ID, t.Name)
}

func listMemberships(ctx context.Context) {
	if len(os.Args) < 3 {
		fail("user id is required\nUsage: tenant list <user-id>")
	}
	userID := mustID("user id", os.Args[2])

	pool := getPool(ctx)
	defer pool.Close()

	store := postgres.NewMembershipStore(postgres.NewTxManager(pool.Pool))
	entitled, err := store.EntitledTenants(ctx, userID)
	if err != nil {
		fail("%v", err)
	}
	primary, err := store.PrimaryTenant(ctx, userID)
	if err != nil {
		fail("%v", err)
	}

	names := make(map[string]string, len(entitled))
	list, err := tenant.NewPostgresRegistry(pool.Pool).ListByIDs(ctx, entitled)
	if err != nil {
		fail("%v", err)
	}
	for _, t := range list {
		names[t.ID] = t.Name
	}

	if len(entitled) == 0 {
		fmt.Println("No active memberships.")
		return
	}

	fmt.Printf("%-38s %-30s %s\n", "TENANT", "NAME", "PRIMARY")
	for _, tenantID := range entitled {
		mark := ""
		if tenantID == primary {
			mark = "*"
		}
		fmt.Printf("%-38s %-30s %s\n", tenantID, names[tenantID], mark)
	}
}

func grant(ctx context.Context) {
	flags := parseFlags("user", "tenant")
	userID := mustID("--user", flags["user"])
	tenantID := mustID("--tenant", flags["tenant"])

	pool := getPool(ctx)
	defer pool.Close()

	store := postgres.NewMembershipStore(postgres.NewTxManager(pool.Pool))
	if err := store.Grant(ctx, userID, tenantID); err != nil {
		fail("%v", err)
	}
	fmt.Printf("Granted %s membership in %s\n", userID, tenantID)
}

func revoke(ctx context.Context) {
	flags := parseFlags("user", "tenant")
	userID := mustID("--user", flags["user"])
	tenantID := mustID("--tenant", flags["tenant"])

	pool := getPool(ctx)
	defer pool.Close()

	store := postgres.NewMembershipStore(postgres.NewTxManager(pool.Pool))
	if err := store.Revoke(ctx, userID, tenantID); err != nil {
		if errors.Is(err, postgres.ErrMembershipNotFound) {
			fail("%s is not a member of %s", userID, tenantID)
		}
		fail("%v", err)
	}
	fmt.Printf("Revoked %s membership in %s\n", userID, tenantID)
}

func issueToken() {
	flags := parseFlags("user", "role", "tenant", "ttl", "email", "name")

	userID := mustID("--user", flags["user"])
	role, ok := security.ParseRole(flags["role"])
	if !ok {
		fail("--role must be one of %v", security.Roles)
	}

	tenantID := flags["tenant"]
	if tenantID != "" {
		tenantID = mustID("--tenant", tenantID)
	}

	var ttl time.Duration
	if flags["ttl"] != "" {
		var err error
		if ttl, err = time.ParseDuration(flags["ttl"]); err != nil {
			fail("invalid --ttl: %v", err)
		}
	}

	secret := os.Getenv("AUTH_JWT_SECRET")
	if secret == "" {
		fail("AUTH_JWT_SECRET environment variable is required")
	}
	cfg := auth.DefaultJWTConfig(secret)
	if issuer := os.Getenv("AUTH_JWT_ISSUER"); issuer != "" {
		cfg.Issuer = issuer
	}

	token, exp, err := auth.NewJWTVerifier(cfg).Issue(auth.Principal{
		UserID:   userID,
		Email:    flags["email"],
		Name:     flags["name"],
		Role:     string(role),
		TenantID: tenantID,
	}, ttl)
	if err != nil {
		fail("%v", err)
	}

	fmt.Fprintf(os.Stderr, "expires %s\n", exp.Format(time.RFC3339))
	fmt.Println(token)
}
