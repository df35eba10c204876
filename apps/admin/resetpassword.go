package main

import (
	"context"

	"github.com/trezcool/dojang/core"
	"github.com/trezcool/dojang/core/user"
)

func (cli *commandLine) resetPassword(ctx context.Context, uname, pwd string) error {
	filter := user.GetFilter{UsernameOrEmail: []string{core.CleanString(uname, true /* lower */)}}
	usr, err := cli.repos.User.GetUser(ctx, filter)
	if err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = core.NowFunc()
	if _, err = cli.repos.User.UpdateUser(ctx, usr); err != nil {
		return err
	}
	cli.printf("password of %q reset\n", usr.Username)
	return nil
}
