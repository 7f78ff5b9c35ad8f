package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/atvirokodosprendimai/webbudget/internal/adapters/view"
	"github.com/atvirokodosprendimai/webbudget/internal/domain"
	"github.com/urfave/cli/v3"
)

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "output raw JSON"}
}

func listFlags(withStatus bool) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "filter", Usage: "case-insensitive text filter"},
		&cli.IntFlag{Name: "page", Usage: "zero-based page number"},
		&cli.IntFlag{Name: "size", Usage: "page size (max 500)"},
		&cli.StringSliceFlag{Name: "sort", Usage: "property[,asc|desc], repeatable"},
		jsonFlag(),
	}
	if withStatus {
		flags = append(flags, &cli.StringFlag{Name: "status", Usage: "ALL, ACTIVE or INACTIVE"})
	}
	return flags
}

func listOptionsFrom(c *cli.Command) listOptions {
	return listOptions{
		Filter: c.String("filter"),
		Status: c.String("status"),
		Page:   int(c.Int("page")),
		Size:   int(c.Int("size")),
		Sort:   c.StringSlice("sort"),
	}
}

// output prints v as JSON when --json is set and with pretty otherwise.
func output[T any](c *cli.Command, v T, pretty func(T)) error {
	if c.Bool("json") {
		return printJSON(v)
	}
	pretty(v)
	return nil
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authentication commands",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Login and store CLI token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "transport", Value: transportUDS, Usage: "uds or http"},
					&cli.StringFlag{Name: "server", Value: defaultServer},
					&cli.StringFlag{Name: "socket", Value: defaultSocket},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					transport := strings.ToLower(c.String("transport"))
					if transport != transportUDS && transport != transportHTTP {
						return fmt.Errorf("unknown transport %q", transport)
					}
					cfg := cliConfig{Transport: transport, Server: c.String("server"), Socket: c.String("socket")}
					var out struct {
						Token string    `json:"token"`
						User  view.User `json:"user"`
					}
					if err := doLogin(ctx, cfg, c.String("email"), c.String("password"), &out); err != nil {
						return err
					}
					cfg.Token = out.Token
					if err := saveConfig(cfg); err != nil {
						return err
					}
					fmt.Printf("logged in as %s\n", out.User.Email)
					return nil
				},
			},
			{
				Name:  "whoami",
				Usage: "Show current authenticated user",
				Flags: []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out view.User
					if err := doWhoAmI(ctx, cfg, &out); err != nil {
						return err
					}
					return output(c, out, printUser)
				},
			},
			{
				Name:  "logout",
				Usage: "Clear local CLI auth token",
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					cfg.Token = ""
					if err := saveConfig(cfg); err != nil {
						return err
					}
					fmt.Println("logged out")
					return nil
				},
			},
		},
	}
}

func costCentersCommand() *cli.Command {
	formFlags := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{Name: "description", Required: true},
			&cli.BoolFlag{Name: "active", Value: true},
			jsonFlag(),
		}
	}
	form := func(c *cli.Command) map[string]any {
		return map[string]any{"description": c.String("description"), "active": c.Bool("active")}
	}

	return &cli.Command{
		Name:  "cost-centers",
		Usage: "Manage cost centers",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List cost centers",
				Flags: listFlags(true),
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.Page[view.CostCenter]
					if err := costCenters.list(ctx, cfg, listOptionsFrom(c), &out); err != nil {
						return err
					}
					return output(c, out, printCostCenters)
				},
			},
			{
				Name:      "get",
				Usage:     "Show one cost center",
				ArgsUsage: "ID",
				Flags:     []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					id, cfg, err := idAndConfig(c)
					if err != nil {
						return err
					}
					var out view.CostCenter
					if err := costCenters.get(ctx, cfg, id, &out); err != nil {
						return err
					}
					return output(c, out, printCostCenter)
				},
			},
			{
				Name:  "create",
				Usage: "Create a cost center",
				Flags: formFlags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out view.CostCenter
					if err := costCenters.create(ctx, cfg, form(c), &out); err != nil {
						return err
					}
					return output(c, out, printCostCenter)
				},
			},
			{
				Name:      "update",
				Usage:     "Replace a cost center",
				ArgsUsage: "ID",
				Flags:     formFlags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					id, cfg, err := idAndConfig(c)
					if err != nil {
						return err
					}
					var out view.CostCenter
					if err := costCenters.update(ctx, cfg, id, form(c), &out); err != nil {
						return err
					}
					return output(c, out, printCostCenter)
				},
			},
			deleteCommand("cost center", costCenters),
		},
	}
}

func usersCommand() *cli.Command {
	formFlags := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{Name: "name", Required: true},
			&cli.StringFlag{Name: "email", Required: true},
			&cli.BoolFlag{Name: "active", Value: true},
			&cli.StringSliceFlag{Name: "authority", Required: true, Usage: "authority name, repeatable"},
			jsonFlag(),
		}
	}
	form := func(c *cli.Command) map[string]any {
		return map[string]any{
			"name":   c.String("name"),
			"email":  c.String("email"),
			"active": c.Bool("active"),
			"roles":  c.StringSlice("authority"),
		}
	}

	return &cli.Command{
		Name:  "users",
		Usage: "Manage users and their grants",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List users",
				Flags: listFlags(true),
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.Page[view.User]
					if err := users.list(ctx, cfg, listOptionsFrom(c), &out); err != nil {
						return err
					}
					return output(c, out, printUsers)
				},
			},
			{
				Name:      "get",
				Usage:     "Show one user",
				ArgsUsage: "ID",
				Flags:     []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					id, cfg, err := idAndConfig(c)
					if err != nil {
						return err
					}
					var out view.User
					if err := users.get(ctx, cfg, id, &out); err != nil {
						return err
					}
					return output(c, out, printUser)
				},
			},
			{
				Name:  "create",
				Usage: "Create a user",
				Flags: append([]cli.Flag{&cli.StringFlag{Name: "password", Required: true}}, formFlags()...),
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					in := form(c)
					in["password"] = c.String("password")
					var out view.User
					if err := users.create(ctx, cfg, in, &out); err != nil {
						return err
					}
					return output(c, out, printUser)
				},
			},
			{
				Name:      "update",
				Usage:     "Replace a user's profile and authorities",
				ArgsUsage: "ID",
				Flags:     formFlags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					id, cfg, err := idAndConfig(c)
					if err != nil {
						return err
					}
					var out view.User
					if err := users.update(ctx, cfg, id, form(c), &out); err != nil {
						return err
					}
					return output(c, out, printUser)
				},
			},
			deleteCommand("user", users),
			{
				Name:      "password",
				Usage:     "Set a user's password",
				ArgsUsage: "ID",
				Flags:     []cli.Flag{&cli.StringFlag{Name: "password", Required: true}},
				Action: func(ctx context.Context, c *cli.Command) error {
					id, cfg, err := idAndConfig(c)
					if err != nil {
						return err
					}
					if err := doChangePassword(ctx, cfg, id, c.String("password")); err != nil {
						return err
					}
					fmt.Println("password changed")
					return nil
				},
			},
			{
				Name:      "grants",
				Usage:     "List a user's grants",
				ArgsUsage: "ID",
				Flags:     []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					id, cfg, err := idAndConfig(c)
					if err != nil {
						return err
					}
					var out []view.Grant
					if err := doListGrants(ctx, cfg, id, &out); err != nil {
						return err
					}
					return output(c, out, printGrants)
				},
			},
			{
				Name:      "grant",
				Usage:     "Grant an authority",
				ArgsUsage: "ID AUTHORITY",
				Action: func(ctx context.Context, c *cli.Command) error {
					id, cfg, err := idAndConfig(c)
					if err != nil {
						return err
					}
					authority := c.Args().Get(1)
					if authority == "" {
						return fmt.Errorf("authority argument is required")
					}
					if err := doGrant(ctx, cfg, id, authority); err != nil {
						return err
					}
					fmt.Printf("granted %s\n", strings.ToUpper(authority))
					return nil
				},
			},
			{
				Name:      "revoke",
				Usage:     "Revoke an authority",
				ArgsUsage: "ID AUTHORITY",
				Action: func(ctx context.Context, c *cli.Command) error {
					id, cfg, err := idAndConfig(c)
					if err != nil {
						return err
					}
					authority := c.Args().Get(1)
					if authority == "" {
						return fmt.Errorf("authority argument is required")
					}
					if err := doRevoke(ctx, cfg, id, authority); err != nil {
						return err
					}
					fmt.Printf("revoked %s\n", strings.ToUpper(authority))
					return nil
				},
			},
		},
	}
}

func authoritiesCommand() *cli.Command {
	return &cli.Command{
		Name:  "authorities",
		Usage: "Manage the authorities lookup table",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List authorities",
				Flags: listFlags(false),
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.Page[view.Authority]
					if err := authorities.list(ctx, cfg, listOptionsFrom(c), &out); err != nil {
						return err
					}
					return output(c, out, printAuthorities)
				},
			},
			{
				Name:      "get",
				Usage:     "Show one authority",
				ArgsUsage: "ID",
				Flags:     []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					id, cfg, err := idAndConfig(c)
					if err != nil {
						return err
					}
					var out view.Authority
					if err := authorities.get(ctx, cfg, id, &out); err != nil {
						return err
					}
					return output(c, out, printAuthority)
				},
			},
			{
				Name:  "create",
				Usage: "Create an authority",
				Flags: []cli.Flag{&cli.StringFlag{Name: "name", Required: true}},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out view.Authority
					if err := authorities.create(ctx, cfg, map[string]any{"name": c.String("name")}, &out); err != nil {
						return err
					}
					fmt.Printf("created %s (%s)\n", out.Name, out.ID)
					return nil
				},
			},
			{
				Name:      "rename",
				Usage:     "Rename a custom authority",
				ArgsUsage: "ID",
				Flags:     []cli.Flag{&cli.StringFlag{Name: "name", Required: true}, jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					id, cfg, err := idAndConfig(c)
					if err != nil {
						return err
					}
					var out view.Authority
					if err := authorities.update(ctx, cfg, id, map[string]any{"name": c.String("name")}, &out); err != nil {
						return err
					}
					return output(c, out, printAuthority)
				},
			},
			deleteCommand("authority", authorities),
		},
	}
}

func auditCommand() *cli.Command {
	return &cli.Command{
		Name:  "audit",
		Usage: "Audit log commands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent audit logs",
				Flags: []cli.Flag{&cli.IntFlag{Name: "limit", Value: 100}, jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out []domain.AuditRecord
					if err := doAuditList(ctx, cfg, int(c.Int("limit")), &out); err != nil {
						return err
					}
					return output(c, out, printAuditRecords)
				},
			},
		},
	}
}

func deleteCommand(noun string, r resource) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a " + noun,
		ArgsUsage: "ID",
		Action: func(ctx context.Context, c *cli.Command) error {
			id, cfg, err := idAndConfig(c)
			if err != nil {
				return err
			}
			if err := r.delete(ctx, cfg, id); err != nil {
				return err
			}
			fmt.Printf("deleted %s %s\n", noun, id)
			return nil
		},
	}
}

func idAndConfig(c *cli.Command) (string, cliConfig, error) {
	id := strings.TrimSpace(c.Args().First())
	if id == "" {
		return "", cliConfig{}, fmt.Errorf("ID argument is required")
	}
	cfg, err := loadConfig()
	return id, cfg, err
}
