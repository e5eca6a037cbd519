package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/karunyatrust/cms/internal/config"
	"github.com/karunyatrust/cms/internal/records"
	"github.com/karunyatrust/cms/internal/tokens"
	"github.com/karunyatrust/cms/internal/users"
	"github.com/spf13/cobra"
)

type opener func(ctx context.Context) (*config.Config, *records.Collections, func(), error)

// errCorrupted is returned by check when any collection failed to load.
var errCorrupted = errors.New("one or more collections are unreadable")

func newRootCommand(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "cmsctl",
		Short:         "Administer the CMS record store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSeedCommand(open), newDumpCommand(open), newCheckCommand(open))
	return root
}

func newSeedCommand(open opener) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create an admin account",
		Long:  `Create an admin account in the users collection. Fails when the username is taken.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cols, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			iss, err := tokens.NewIssuer(cfg.JWT.Secret, cfg.JWT.TokenTTL)
			if err != nil {
				return err
			}
			svc := users.NewService(cols, cfg.Records.Collections.Users, iss)
			sess, err := svc.Register(cmd.Context(), username, password)
			if err != nil {
				return fmt.Errorf("seed %s: %w", username, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", sess.Username, sess.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Admin username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Admin password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newDumpCommand(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <collection>",
		Short: "Print a collection as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cols, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			recs, err := cols.Read(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(recs)
		},
	}
}

func newCheckCommand(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "check [collection...]",
		Short: "Verify that collections can be read",
		Long:  `Read each collection (default: users, blogs and file logs) and report any that are corrupted or unreachable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cols, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			names := args
			if len(names) == 0 {
				n := cfg.Records.Collections
				names = []string{n.Users, n.Blogs, n.FileLogs}
			}
			out := cmd.OutOrStdout()
			failed := false
			for _, name := range names {
				recs, err := cols.Read(cmd.Context(), name)
				switch {
				case errors.Is(err, records.ErrCorrupted):
					failed = true
					fmt.Fprintf(out, "%-12s CORRUPTED %v\n", name, err)
				case err != nil:
					failed = true
					fmt.Fprintf(out, "%-12s ERROR %v\n", name, err)
				default:
					fmt.Fprintf(out, "%-12s ok (%d records)\n", name, len(recs))
				}
			}
			if failed {
				return errCorrupted
			}
			return nil
		},
	}
}
