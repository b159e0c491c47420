package main

import (
	"fmt"
	"strconv"

	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/spf13/cobra"
)

func newGroupsCmd(run runner) *cobra.Command {
	cmd := &cobra.Command{Use: "groups", Short: "Manage groups"}

	var query string
	list := &cobra.Command{
		Use:   "list",
		Short: "List groups, optionally filtered by title",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, e *env, _ []string) error {
			groups, err := e.groups.List(cmd.Context(), query)
			if err != nil {
				return err
			}
			if len(groups) == 0 {
				warning(e.out, "No groups found")
				return nil
			}
			rows := make([][]string, 0, len(groups))
			for _, g := range groups {
				rows = append(rows, []string{strconv.FormatUint(uint64(g.ID), 10), g.Slug, g.Title})
			}
			table(e.out, []string{"ID", "SLUG", "TITLE"}, rows)
			return nil
		}),
	}
	list.Flags().StringVarP(&query, "query", "q", "", "Title substring")

	var in service.GroupInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a group",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, e *env, _ []string) error {
			g, err := e.groups.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			success(e.out, "Created group %s (/group/%s/)", g.Title, g.Slug)
			return nil
		}),
	}
	create.Flags().StringVar(&in.Title, "title", "", "Group title")
	create.Flags().StringVar(&in.Slug, "slug", "", "URL slug")
	create.Flags().StringVar(&in.Description, "description", "", "Description")
	_ = create.MarkFlagRequired("title")
	_ = create.MarkFlagRequired("slug")

	del := &cobra.Command{
		Use:   "delete <slug>",
		Short: "Delete a group; its posts stay without a group",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, e *env, args []string) error {
			if err := e.groups.DeleteBySlug(cmd.Context(), args[0]); err != nil {
				return err
			}
			success(e.out, "Deleted group %s", args[0])
			return nil
		}),
	}

	cmd.AddCommand(list, create, del)
	return cmd
}

func newUsersCmd(run runner) *cobra.Command {
	cmd := &cobra.Command{Use: "users", Short: "Manage administrators"}

	setAdmin := func(isAdmin bool) func(*cobra.Command, *env, []string) error {
		return func(cmd *cobra.Command, e *env, args []string) error {
			u, err := e.users.SetAdmin(cmd.Context(), args[0], isAdmin)
			if err != nil {
				if models.IsCode(err, models.CodeNotFound) {
					return fmt.Errorf("user %q not found", args[0])
				}
				return err
			}
			if isAdmin {
				success(e.out, "%s (ID: %d) is now an admin", u.Username, u.ID)
			} else {
				success(e.out, "%s (ID: %d) is no longer an admin", u.Username, u.ID)
			}
			return nil
		}
	}

	promote := &cobra.Command{
		Use:   "promote <username>",
		Short: "Grant admin rights",
		Args:  cobra.ExactArgs(1),
		RunE:  run(setAdmin(true)),
	}
	demote := &cobra.Command{
		Use:   "demote <username>",
		Short: "Revoke admin rights",
		Args:  cobra.ExactArgs(1),
		RunE:  run(setAdmin(false)),
	}
	listAdmins := &cobra.Command{
		Use:   "list-admins",
		Short: "List administrators",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, e *env, _ []string) error {
			admins, err := e.users.ListAdmins(cmd.Context())
			if err != nil {
				return err
			}
			if len(admins) == 0 {
				warning(e.out, "No admins found")
				return nil
			}
			rows := make([][]string, 0, len(admins))
			for _, a := range admins {
				rows = append(rows, []string{strconv.FormatUint(uint64(a.ID), 10), a.Username, a.Email})
			}
			table(e.out, []string{"ID", "USERNAME", "EMAIL"}, rows)
			return nil
		}),
	}

	cmd.AddCommand(promote, demote, listAdmins)
	return cmd
}

func newCacheCmd(run runner) *cobra.Command {
	cmd := &cobra.Command{Use: "cache", Short: "Manage the rendered page cache"}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop every cached page",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, e *env, _ []string) error {
			if err := e.pages.Clear(cmd.Context()); err != nil {
				return err
			}
			success(e.out, "Page cache cleared (%s)", e.pages.Backend())
			return nil
		}),
	})
	return cmd
}
