package main

import "github.com/pkg/errors"

var errMigrationsNeedSQL = errors.New("migrations need the postgres database engine")

func (cli *commandLine) migrate(args []string) error {
	if cli.repos.DB == nil {
		return errMigrationsNeedSQL
	}
	if err := runMigrationsFunc(cli.repos.DB.DB, args[0], args[1:]...); err != nil {
		return err
	}
	cli.printf("migrate %s: done\n", args[0])
	return nil
}
