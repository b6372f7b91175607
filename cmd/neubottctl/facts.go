package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"neubott/internal/storage"
)

func newFactsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "facts",
		Short: "Add, look up and remove facts",
	}

	var global bool
	var author string
	add := &cobra.Command{
		Use:   "add <text...>",
		Short: "Add a fact to --guild, or to every chat with --global",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, store, err := opts.openService(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			f, err := svc.AddFact(cmd.Context(), strings.Join(args, " "), author, opts.guild, global)
			if errors.Is(err, storage.ErrDuplicateContent) {
				return errors.New("fact already exists")
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added #%d %s\n", f.ID, f.Content)
			return nil
		},
	}
	add.Flags().BoolVar(&global, "global", false, "make the fact visible in every chat")
	add.Flags().StringVar(&author, "author", "neubottctl", "recorded author ID")

	random := &cobra.Command{
		Use:   "random [exact text]",
		Short: "Print a random fact visible in --guild",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, store, err := opts.openService(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			f, err := svc.RandomFact(cmd.Context(), opts.guild, strings.Join(args, " "))
			if errors.Is(err, storage.ErrNotFound) {
				return errors.New("there aren't any facts for this search")
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), f.Content)
			return nil
		},
	}

	search := &cobra.Command{
		Use:   "search <substring...>",
		Short: "List facts visible in --guild containing the substring",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, store, err := opts.openService(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			found, err := svc.SearchFacts(cmd.Context(), opts.guild, strings.Join(args, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, f := range found {
				scope := f.GuildID
				if f.Global {
					scope = "global"
				}
				fmt.Fprintf(out, "#%d\t%s\t%s\n", f.ID, scope, f.Content)
			}
			fmt.Fprintf(out, "%d match(es)\n", len(found))
			return nil
		},
	}

	undo := &cobra.Command{
		Use:   "undo",
		Short: "Delete the most recently added fact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, store, err := opts.openService(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			f, err := svc.DeleteLast(cmd.Context(), opts.guild)
			if errors.Is(err, storage.ErrNotFound) {
				return errors.New("no facts to undo")
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted #%d %s\n", f.ID, f.Content)
			return nil
		},
	}

	count := &cobra.Command{
		Use:   "count",
		Short: "Print the total number of facts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, store, err := opts.openService(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			n, err := svc.CountFacts(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}

	cmd.AddCommand(add, random, search, undo, count)
	return cmd
}
