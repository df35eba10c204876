package main

import (
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/dojang/core"
	"github.com/trezcool/dojang/core/rank"
	"github.com/trezcool/dojang/storage"
	"github.com/trezcool/dojang/storage/database"
)

var (
	readPasswordFunc  = term.ReadPassword       // mockable
	runMigrationsFunc = database.RunMigrations // mockable

	errNoPassword = errors.New("password cannot be empty")
)

type commandLine struct {
	conf   *core.Config
	logger core.Logger
	out    io.Writer

	repos     *storage.Repositories
	openRepos func(conf *core.Config) (*storage.Repositories, error)
}

func newCommandLine(conf *core.Config, logger core.Logger) *commandLine {
	return &commandLine{conf: conf, logger: logger, out: os.Stdout, openRepos: openRepos}
}

// openRepos opens the configured storage without applying migrations.
func openRepos(conf *core.Config) (*storage.Repositories, error) {
	if conf.Database.Engine == core.DBEngineInMem {
		return storage.NewInMem(), nil
	}
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	return storage.NewSQL(db), nil
}

func (cli *commandLine) close() {
	if cli.repos == nil {
		return
	}
	if err := cli.repos.Close(); err != nil {
		cli.logger.Error("closing storage", err)
	}
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Dojang administration commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cli.repos != nil {
				return nil
			}
			repos, err := cli.openRepos(cli.conf)
			if err != nil {
				return errors.Wrap(err, "opening storage")
			}
			cli.repos = repos
			return nil
		},
	}
	root.SetOut(cli.out)
	root.AddCommand(
		cli.migrateCmd(),
		cli.addUserCmd(),
		cli.resetPasswordCmd(),
		cli.seedRanksCmd(),
	)
	return root
}

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate {command} [args]",
		Short: "Run a goose migration command (up, up-by-one, up-to, down, down-to, redo, reset, status, version)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.migrate(args)
		},
	}
}

func (cli *commandLine) addUserCmd() *cobra.Command {
	var (
		name, uname, email string
		isAdmin            bool
	)
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a user or update an existing one, the password is prompted",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if uname == "" && email == "" {
				return errors.New("one of --username or --email is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			pwd, err := cli.promptPassword(cmd)
			if err != nil {
				return err
			}
			usr, err := cli.addUser(cmd.Context(), name, uname, email, pwd, isAdmin)
			if err != nil {
				return err
			}
			cmd.Printf("user %q saved\n", usr.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&uname, "username", "u", "", "the user's username")
	cmd.Flags().StringVarP(&email, "email", "e", "", "the user's email")
	cmd.Flags().StringVarP(&name, "name", "n", "", "the user's full name")
	cmd.Flags().BoolVar(&isAdmin, "admin", false, "grant every role to the user")
	return cmd
}

func (cli *commandLine) resetPasswordCmd() *cobra.Command {
	var uname string
	cmd := &cobra.Command{
		Use:   "resetpassword",
		Short: "Reset a user's password, the new password is prompted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pwd, err := cli.promptPassword(cmd)
			if err != nil {
				return err
			}
			return cli.resetPassword(cmd.Context(), uname, pwd)
		},
	}
	cmd.Flags().StringVarP(&uname, "username", "u", "", "the user's username or email")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func (cli *commandLine) seedRanksCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seedranks",
		Short: "Create or update the belt ladder from a YAML file (the embedded default ladder when no file is given)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			created, updated, err := cli.seedRanks(cmd.Context(), file)
			if err != nil {
				return err
			}
			cmd.Printf("ranks: %d created, %d updated\n", created, updated)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to a YAML belt ladder")
	return cmd
}

func (cli *commandLine) promptPassword(cmd *cobra.Command) (string, error) {
	cmd.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	cmd.Println()
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	if len(pwd) == 0 {
		return "", errNoPassword
	}
	return string(pwd), nil
}

func (cli *commandLine) rankSvc() rank.Service {
	return rank.NewService(cli.repos.Rank)
}

func (cli *commandLine) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cli.out, format, args...)
}
