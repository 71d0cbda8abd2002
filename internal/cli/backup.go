package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/backup"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/credential"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up and restore the task database",
	Long: `Snapshots hold every task, the hero, XP history and presets. They are
stored in Google Drive, or in a local directory with --dir.`,
}

var backupPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload a snapshot of the current data",
	Args:  cobra.NoArgs,
	RunE:  runBackupPush,
}

var backupPullCmd = &cobra.Command{
	Use:   "pull [id]",
	Short: "Replace local data with a snapshot (newest by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBackupPull,
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List remote snapshots",
	Args:  cobra.NoArgs,
	RunE:  runBackupList,
}

var backupLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize access to Google Drive",
	Args:  cobra.NoArgs,
	RunE:  runBackupLogin,
}

var backupLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored Google Drive token",
	Args:  cobra.NoArgs,
	RunE:  runBackupLogout,
}

func init() {
	backupCmd.AddCommand(backupPushCmd)
	backupCmd.AddCommand(backupPullCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupLoginCmd)
	backupCmd.AddCommand(backupLogoutCmd)

	backupPushCmd.Flags().String("dir", "", "Write the snapshot to a local directory")
	backupPullCmd.Flags().String("file", "", "Restore from a local snapshot file")
	backupPullCmd.Flags().Bool("yes", false, "Do not ask for confirmation")
}

// driveAuth loads the OAuth client config and the keyring token store.
func driveAuth(cfg model.BackupConfig) (*oauth2.Config, backup.KeyringTokens, error) {
	if cfg.ClientSecretsPath == "" {
		return nil, backup.KeyringTokens{}, fmt.Errorf("backup.client_secrets_path is not configured")
	}
	oauthCfg, err := backup.OAuthConfig(cfg.ClientSecretsPath)
	if err != nil {
		return nil, backup.KeyringTokens{}, err
	}
	creds, err := credential.Open()
	if err != nil {
		return nil, backup.KeyringTokens{}, err
	}
	return oauthCfg, backup.KeyringTokens{Creds: creds}, nil
}

// openDrive returns the configured Drive remote.
func openDrive(ctx context.Context, cfg model.BackupConfig) (*backup.Drive, error) {
	oauthCfg, tokens, err := driveAuth(cfg)
	if err != nil {
		return nil, err
	}
	client, err := backup.Client(ctx, oauthCfg, tokens)
	if err != nil {
		return nil, err
	}
	return backup.NewDrive(ctx, client, cfg.Folder)
}

func runBackupPush(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	ctx := cmd.Context()

	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := backup.Take(ctx, s.store, s.svc.Now())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if dir != "" {
		path, err := backup.SaveFile(dir, snap)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved %d task(s) to %s\n", len(snap.Tasks), path)
		return nil
	}

	remote, err := openDrive(ctx, s.cfg.Backup)
	if err != nil {
		return err
	}
	file, err := backup.Push(ctx, remote, snap, s.cfg.Backup.Keep)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Uploaded %s (%d task(s))\n", file.Name, len(snap.Tasks))
	return nil
}

func runBackupPull(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	yes, _ := cmd.Flags().GetBool("yes")
	ctx := cmd.Context()

	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	var snap model.Snapshot
	if file != "" {
		snap, err = backup.LoadFile(file)
	} else {
		var remote *backup.Drive
		remote, err = openDrive(ctx, s.cfg.Backup)
		if err == nil {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			snap, err = backup.Pull(ctx, remote, id)
		}
	}
	if err != nil {
		return err
	}

	if !yes {
		ok, err := confirm(fmt.Sprintf("Replace local data with the snapshot from %s (%d tasks)?",
			snap.CreatedAt.Local().Format(dateLayout), len(snap.Tasks)))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	if err := backup.Restore(ctx, s.store, snap); err != nil {
		return err
	}
	if _, err := s.svc.Housekeep(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Restored %d task(s); %s is level %d.\n",
		len(snap.Tasks), snap.Hero.Name, snap.Hero.Level)
	return nil
}

func runBackupList(cmd *cobra.Command, args []string) error {
	cfg, err := model.LoadConfig(configPath())
	if err != nil {
		return err
	}
	remote, err := openDrive(cmd.Context(), cfg.Backup)
	if err != nil {
		return err
	}
	files, err := backup.Sorted(cmd.Context(), remote)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No backups.")
		return nil
	}

	t := newTable("ID", "Name", "Created", "Size")
	for _, f := range files {
		t.Row(f.ID, f.Name, f.CreatedAt.Local().Format(dateLayout), fmt.Sprintf("%d B", f.Size))
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.String())
	return nil
}

func runBackupLogin(cmd *cobra.Command, args []string) error {
	cfg, err := model.LoadConfig(configPath())
	if err != nil {
		return err
	}
	oauthCfg, tokens, err := driveAuth(cfg.Backup)
	if err != nil {
		return err
	}
	if err := backup.Login(cmd.Context(), oauthCfg, tokens, cmd.OutOrStdout()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged in to Google Drive.")
	return nil
}

func runBackupLogout(cmd *cobra.Command, args []string) error {
	creds, err := credential.Open()
	if err != nil {
		return err
	}
	if err := (backup.KeyringTokens{Creds: creds}).DeleteToken(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
	return nil
}
