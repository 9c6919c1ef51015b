package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/predict-it/predict-it/app/shared/identity"
)

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "mint a bearer token for a student or admin",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Required: true},
			&cli.StringFlag{Name: "role", Aliases: []string{"r"}, Value: string(identity.RoleStudent)},
			&cli.DurationFlag{Name: "ttl", Usage: "token lifetime, defaults to jwt.default_ttl"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			role := identity.Role(c.String("role"))
			if !role.IsValid() {
				return fmt.Errorf("invalid role %q", role)
			}
			ttl := c.Duration("ttl")
			if ttl <= 0 {
				ttl = cfg.JWT.DefaultTTL
			}

			provider := identity.NewProvider(cfg.JWT.Secret, cfg.JWT.Issuer)
			token, err := provider.GenerateToken(identity.Identity{UserID: c.String("user"), Role: role}, ttl)
			if err != nil {
				return fmt.Errorf("failed to generate token: %w", err)
			}
			fmt.Println(token)
			return nil
		},
	}
}
