package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "webbudget",
		Usage: "Budget management server and CLI",
		Commands: []*cli.Command{
			serverCommand(),
			migrateCommand(),
			authCommand(),
			costCentersCommand(),
			usersCommand(),
			authoritiesCommand(),
			auditCommand(),
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		log.Fatal(err)
	}
}

func jsonMarshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
