package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/dojang/core"
	"github.com/trezcool/dojang/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(ctx context.Context, name, uname, email, pwd string, isAdmin bool) (user.User, error) {
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.repos.User.GetUser(ctx, user.GetFilter{UsernameOrEmail: []string{uname, email}})
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return user.User{}, err
		}
		now := core.NowFunc()
		usr = user.User{
			Username:  uname,
			Email:     email,
			CreatedAt: now,
		}
	}
	if name = core.CleanString(name); name != "" {
		usr.Name = name
	}
	if isAdmin {
		usr.Roles = user.AllRoles
	}
	usr.SetActive(true)
	usr.UpdatedAt = core.NowFunc()
	if err = usr.SetPassword(pwd); err != nil {
		return user.User{}, err
	}
	return cli.repos.User.UpdateOrCreateUser(ctx, usr)
}
