// Command admin manages groups, administrators and the page cache from the
// terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"yatube/internal/bootstrap"
	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/repository"
	"yatube/internal/service"

	"github.com/spf13/cobra"
)

// env is what every subcommand works against.
type env struct {
	groups *service.GroupService
	users  *service.UserService
	pages  cache.PageStore
	out    io.Writer
	close  func()
}

// opener builds the env lazily so that --help works without a database.
type opener func(ctx context.Context) (*env, error)

func main() {
	root := newRootCmd(openRuntime, os.Stdout)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("✗ ")+err.Error())
		os.Exit(1)
	}
}

func openRuntime(context.Context) (*env, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	db, rdb, err := bootstrap.InitRuntime(cfg, bootstrap.Options{SkipSchema: true})
	if err != nil {
		return nil, err
	}
	pages, closePages := cache.NewPageStore(cfg, rdb)
	return &env{
		groups: service.NewGroupService(repository.NewGroupRepository(db)),
		users:  service.NewUserService(repository.NewUserRepository(db)),
		pages:  pages,
		out:    os.Stdout,
		close: func() {
			_ = closePages()
			if rdb != nil {
				_ = rdb.Close()
			}
			_ = database.Close(db)
		},
	}, nil
}

func newRootCmd(open opener, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Yatube administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	// run opens the env for one command and always releases it.
	run := func(fn func(cmd *cobra.Command, e *env, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			e, err := open(cmd.Context())
			if err != nil {
				return err
			}
			if e.close != nil {
				defer e.close()
			}
			if e.out == nil {
				e.out = cmd.OutOrStdout()
			}
			return fn(cmd, e, args)
		}
	}

	root.AddCommand(newGroupsCmd(run), newUsersCmd(run), newCacheCmd(run))
	return root
}

type runner func(fn func(cmd *cobra.Command, e *env, args []string) error) func(*cobra.Command, []string) error
