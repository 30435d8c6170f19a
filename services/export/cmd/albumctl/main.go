package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"albumd/pkg/db"
	"albumd/pkg/render"
	"albumd/services/api"
	"albumd/services/export"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "albumctl",
		Short:         "Operator utility for album archives, invites, and migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newExportCommand())
	cmd.AddCommand(newInvitesCommand())
	cmd.AddCommand(newMigrateCommand())
	return cmd
}

func newExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Album archive build and verify operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newExportBuildCommand())
	cmd.AddCommand(newExportVerifyCommand())
	return cmd
}

func newExportBuildCommand() *cobra.Command {
	var (
		albumID   string
		albumName string
		mediaDir  string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Create a signed archive from an album media directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			signer, err := export.NewSignerFromEnv()
			if err != nil {
				return err
			}
			renderer, err := render.New()
			if err != nil {
				return err
			}
			_, err = export.Build(ctx, export.BuildConfig{
				AlbumID:   albumID,
				AlbumName: albumName,
				MediaDir:  mediaDir,
				Output:    output,
				Signer:    signer,
				Renderer:  renderer,
				Stdout:    os.Stdout,
			})
			return err
		},
	}

	cmd.Flags().StringVar(&albumID, "album-id", "", "Album ID the archive belongs to")
	cmd.Flags().StringVar(&albumName, "album-name", "", "Album name shown in the archive README")
	cmd.Flags().StringVar(&mediaDir, "media-dir", "", "Directory containing the album's media files")
	cmd.Flags().StringVar(&output, "output", "", "Destination archive file (tar.zst)")
	_ = cmd.MarkFlagRequired("album-id")
	_ = cmd.MarkFlagRequired("media-dir")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newExportVerifyCommand() *cobra.Command {
	var archiveFile string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the signature and digests of an album archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			signer, err := export.NewSignerFromEnv()
			if err != nil {
				return err
			}
			_, err = export.Verify(ctx, export.VerifyConfig{
				ArchivePath: archiveFile,
				Signer:      signer,
				Stdout:      os.Stdout,
			})
			return err
		},
	}

	cmd.Flags().StringVar(&archiveFile, "file", "", "Path to the archive tar.zst")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newInvitesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invites",
		Short: "Invite token operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newInvitesCreateCommand())
	return cmd
}

func newInvitesCreateCommand() *cobra.Command {
	var (
		albumID  string
		role     string
		ttlHours int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Mint an invite token directly against the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			parsedAlbumID, err := uuid.Parse(albumID)
			if err != nil {
				return fmt.Errorf("parse album id: %w", err)
			}

			dsn := os.Getenv("DB_DSN")
			if dsn == "" {
				return fmt.Errorf("DB_DSN must be set")
			}

			pool, err := db.Open(ctx, dsn)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer pool.Close()

			orm, err := db.ConnectORM(dsn)
			if err != nil {
				return fmt.Errorf("connect orm: %w", err)
			}
			defer db.CloseORM(orm)

			store, err := api.NewStore(pool, orm)
			if err != nil {
				return err
			}

			if _, err := store.GetAlbum(ctx, parsedAlbumID); err != nil {
				return err
			}

			invite, err := store.CreateInvite(ctx, api.InviteToken{
				AlbumID:   parsedAlbumID,
				Token:     uuid.NewString(),
				Role:      role,
				ExpiresAt: time.Now().UTC().Add(time.Duration(ttlHours) * time.Hour),
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "invite %s expires %s\n", invite.Token, invite.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&albumID, "album-id", "", "Album the invite grants access to")
	cmd.Flags().StringVar(&role, "role", "member", "Role granted when the invite is redeemed")
	cmd.Flags().IntVar(&ttlHours, "ttl-hours", 336, "Hours until the invite expires")
	_ = cmd.MarkFlagRequired("album-id")
	return cmd
}

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			dsn := os.Getenv("DB_DSN")
			if dsn == "" {
				return fmt.Errorf("DB_DSN must be set")
			}

			pool, err := db.Open(ctx, dsn)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer pool.Close()

			return db.Migrate(ctx, pool)
		},
	}
	return cmd
}
