package main

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trezcool/dojang/core/rank"
	"github.com/trezcool/dojang/core/user"
	logsvc "github.com/trezcool/dojang/services/logger"
	"github.com/trezcool/dojang/storage"
	"github.com/trezcool/dojang/tests"
)

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	t.Helper()

	conf := testutil.NewConfig()
	logger := logsvc.NewRollbarLogger(zap.NewNop(), conf)
	logger.Enable(false)

	var out bytes.Buffer
	cli := newCommandLine(conf, logger)
	cli.out = &out
	cli.repos = storage.NewInMem()
	return cli, &out
}

// run executes the admin command line with args (without program name).
func run(cli *commandLine, out *bytes.Buffer, args ...string) (string, error) {
	out.Reset()
	root := cli.rootCmd()
	root.SetArgs(args)
	root.SetErr(io.Discard)
	err := root.Execute()
	return out.String(), err
}

func mockPassword(t *testing.T, pwd string) {
	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
	wantOut    string
}

func (tt cliTest) check(t *testing.T, out string, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, errors.Cause(err))
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	default:
		require.NoError(t, err)
		if tt.wantOut != "" {
			assert.Contains(t, out, tt.wantOut)
		}
	}
}

func Test_commandLine_root(t *testing.T) {
	cli, out := setup(t)

	_, err := run(cli, out, "lol")
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), `unknown command "lol" for "admin"`)
	}

	help, err := run(cli, out, "--help")
	require.NoError(t, err)
	for _, cmd := range []string{"migrate", "adduser", "resetpassword", "seedranks"} {
		assert.Contains(t, help, cmd)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, out := setup(t)

	t.Run("inmem engine", func(t *testing.T) {
		_, err := run(cli, out, "migrate", "up")
		assert.Equal(t, errMigrationsNeedSQL, err)
	})

	type call struct {
		command string
		args    []string
	}
	var calls []call
	orig := runMigrationsFunc
	runMigrationsFunc = func(_ *sql.DB, command string, args ...string) error {
		if command == "lol" {
			return errors.Errorf("%q: no such command", command)
		}
		calls = append(calls, call{command: command, args: args})
		return nil
	}
	t.Cleanup(func() { runMigrationsFunc = orig })
	cli.repos.DB = &sqlx.DB{}

	tests := []cliTest{
		{name: "no command", args: []string{"migrate"}, wantErrStr: "requires at least 1 arg(s), only received 0"},
		{name: "unknown command", args: []string{"migrate", "lol"}, wantErrStr: `"lol": no such command`},
		{name: "up", args: []string{"migrate", "up"}, wantOut: "migrate up: done"},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}, wantOut: "migrate up-to: done"},
		{name: "status", args: []string{"migrate", "status"}, wantOut: "migrate status: done"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run(cli, out, tt.args...)
			tt.check(t, got, err)
		})
	}

	assert.Equal(t, []call{{command: "up", args: []string{}}, {command: "up-to", args: []string{"2"}}, {command: "status", args: []string{}}}, calls)
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, out := setup(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, cli.repos.User, "User", "awe", "awe@test.cd", "mdr", nil, true)

	tests := []cliTest{
		{name: "no username", args: []string{"resetpassword"}, pwd: "lol", wantErrStr: `required flag(s) "username" not set`},
		{name: "no password", args: []string{"resetpassword", "-u", usr.Username}, wantErr: errNoPassword},
		{name: "user not found", args: []string{"resetpassword", "-u", "lol"}, pwd: "lol", wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "--username", usr.Username}, pwd: "lol", wantOut: `password of "awe" reset`},
		{name: "reset with email", args: []string{"resetpassword", "-u", " AWE@test.cd "}, pwd: "lmao", wantOut: `password of "awe" reset`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(t, tt.pwd)
			got, err := run(cli, out, tt.args...)
			tt.check(t, got, err)
			if err != nil {
				return
			}
			refreshed, err := cli.repos.User.GetUser(ctx, user.GetFilter{ID: usr.ID})
			require.NoError(t, err)
			assert.NoError(t, refreshed.CheckPassword(tt.pwd))
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli, out := setup(t)
	ctx := context.Background()

	existing := testutil.CreateUser(t, cli.repos.User, "Coach", "coach", "coach@test.cd", "mdr", []string{user.RoleCoach}, false)

	tests := []cliTest{
		{name: "no username or email", args: []string{"adduser", "-n", "Lol"}, pwd: "lol", wantErrStr: "one of --username or --email is required"},
		{name: "no password", args: []string{"adduser", "-u", "admin"}, wantErr: errNoPassword},
		{name: "unknown flag", args: []string{"adduser", "--lol"}, pwd: "lol", wantErrStr: "unknown flag: --lol"},
		{name: "created", args: []string{"adduser", "-u", " Admin ", "-e", "admin@test.cd", "-n", "Admin", "--admin"}, pwd: "s3cret", wantOut: "saved"},
		{name: "updated", args: []string{"adduser", "--email", "COACH@test.cd", "--name", "Head Coach"}, pwd: "n3w", wantOut: "user " + `"` + existing.ID + `" saved`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(t, tt.pwd)
			got, err := run(cli, out, tt.args...)
			tt.check(t, got, err)
		})
	}

	admin, err := cli.repos.User.GetUser(ctx, user.GetFilter{Username: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "Admin", admin.Name)
	assert.Equal(t, "admin@test.cd", admin.Email)
	assert.ElementsMatch(t, user.AllRoles, admin.Roles)
	assert.True(t, admin.Active())
	assert.NoError(t, admin.CheckPassword("s3cret"))

	coach, err := cli.repos.User.GetUser(ctx, user.GetFilter{ID: existing.ID})
	require.NoError(t, err)
	assert.Equal(t, "Head Coach", coach.Name)
	assert.Equal(t, []string{user.RoleCoach}, coach.Roles)
	assert.True(t, coach.Active(), "saved users are activated")
	assert.NoError(t, coach.CheckPassword("n3w"))
}

func Test_commandLine_seedRanks(t *testing.T) {
	cli, out := setup(t)
	ctx := context.Background()

	dir := t.TempDir()
	ladder := filepath.Join(dir, "ranks.yaml")
	require.NoError(t, os.WriteFile(ladder, []byte(`ranks:
  - {order: 1, name: "10th Gup", color: WHITE, kind: gup, description: "Beginner"}
  - {order: 20, name: "1st Poom", color: red-black, kind: poom}
`), 0o600))
	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("ranks: []\n"), 0o600))

	tests := []cliTest{
		{name: "default ladder", args: []string{"seedranks"}, wantOut: "ranks: 13 created, 0 updated"},
		{name: "seeded twice", args: []string{"seedranks"}, wantOut: "ranks: 0 created, 0 updated"},
		{name: "from file", args: []string{"seedranks", "-f", ladder}, wantOut: "ranks: 1 created, 1 updated"},
		{name: "empty file", args: []string{"seedranks", "--file", empty}, wantErrStr: "no ranks found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run(cli, out, tt.args...)
			tt.check(t, got, err)
		})
	}

	t.Run("invalid ranks", func(t *testing.T) {
		for name, content := range map[string]string{
			"blank name":   "ranks:\n  - {order: 30, name: \"  \", kind: dan}\n",
			"unknown kind": "ranks:\n  - {order: 30, name: \"4th Dan\", kind: dan}\n  - {order: 31, name: \"5th Dan\", kind: belt}\n",
		} {
			t.Run(name, func(t *testing.T) {
				file := filepath.Join(dir, "invalid.yaml")
				require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

				_, err := run(cli, out, "seedranks", "-f", file)
				require.Error(t, err)
				_, ok := errors.Cause(err).(validator.ValidationErrors)
				assert.True(t, ok, "got %v", err)

				_, err = cli.repos.Rank.GetRankByOrder(ctx, 30)
				assert.Equal(t, rank.ErrNotFound, errors.Cause(err), "nothing saved")
			})
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := run(cli, out, "seedranks", "-f", filepath.Join(dir, "lol.yaml"))
		assert.True(t, os.IsNotExist(errors.Cause(err)))
	})

	white, err := cli.repos.Rank.GetRankByOrder(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "white", white.Color)
	assert.Equal(t, "Beginner", white.Description)

	ranks, err := cli.repos.Rank.QueryRanks(ctx, nil)
	require.NoError(t, err)
	require.Len(t, ranks, 14)
	assert.Equal(t, rank.KindPoom, ranks[13].Kind)
}
