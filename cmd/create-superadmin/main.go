// Command create-superadmin bootstraps the first SuperAdmin account, or
// promotes an existing account by email.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/madhava-poojari/academy-api/internal/config"
	"github.com/madhava-poojari/academy-api/internal/logger"
	"github.com/madhava-poojari/academy-api/internal/models"
	"github.com/madhava-poojari/academy-api/internal/service"
	"github.com/madhava-poojari/academy-api/internal/store"
	"github.com/madhava-poojari/academy-api/internal/utils"
)

func main() {
	email := flag.String("email", "", "account email (required)")
	password := flag.String("password", os.Getenv("SUPERADMIN_PASSWORD"), "password for a new account")
	name := flag.String("name", "Super Admin", "full name for a new account")
	force := flag.Bool("force", false, "create another super admin when one already exists")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load")
	}
	logger.Configure(logger.Config{Level: cfg.LogLevel, Pretty: true})

	if *email == "" {
		flag.Usage()
		os.Exit(2)
	}

	st, err := store.NewGormStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("store init")
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	existing, err := st.GetUserByEmail(ctx, utils.NormalizeEmail(*email))
	switch {
	case err == nil:
		if existing.IsSuperAdmin() {
			log.Info().Str("user_id", existing.ID).Msg("already a super admin")
			return
		}
		if err := st.ChangeUserRole(ctx, existing.ID, models.RoleSuperAdmin); err != nil {
			log.Fatal().Err(err).Msg("promote user")
		}
		log.Info().Str("user_id", existing.ID).Msg("promoted to super admin")
	case store.IsNotFound(err):
		n, err := st.CountSuperAdmins(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("count super admins")
		}
		if n > 0 && !*force {
			log.Fatal().Int64("existing", n).Msg("a super admin already exists; pass -force to add another")
		}
		if len(*password) < 6 {
			log.Fatal().Msg("a password of at least 6 characters is required for a new account")
		}
		u, err := service.NewUserService(st).CreateUser(ctx, *email, *password, *name, models.RoleSuperAdmin)
		if err != nil {
			log.Fatal().Err(err).Msg("create user")
		}
		log.Info().Str("user_id", u.ID).Str("email", u.Email).Msg("super admin created")
	default:
		log.Fatal().Err(err).Msg("lookup user")
	}
}
