package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/picset/picset/internal/config"
	"github.com/picset/picset/internal/storage"
)

var publishPrefix string

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Upload generated variants to object storage",
	Long: `Upload the generated-variant tree to the configured S3-compatible
bucket. Variant filenames embed a content digest, so objects that
already exist are skipped.`,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&publishPrefix, "prefix", "", "Object key prefix (default: output subdirectory name)")
}

func runPublish(cmd *cobra.Command, args []string) error {
	site, err := loadSite()
	if err != nil {
		return err
	}
	svc := config.LoadService()

	client, err := storage.NewClient(storage.Config{
		Endpoint: svc.Storage.Endpoint,
		Access:   svc.Storage.AccessKey,
		Secret:   svc.Storage.SecretKey,
		Bucket:   svc.Storage.Bucket,
		UseSSL:   svc.Storage.UseSSL,
	})
	if err != nil {
		return err
	}

	prefix := publishPrefix
	if prefix == "" {
		prefix = site.OutputSubdir
	}
	localDir := filepath.Join(site.OutputRoot, site.OutputSubdir)

	header := color.New(color.FgCyan, color.Bold)
	header.Printf("\n  PUBLISHING %s -> s3://%s/%s\n\n", localDir, client.Bucket(), prefix)

	if err := client.EnsureBucket(cmd.Context()); err != nil {
		return err
	}

	uploaded, skipped, err := client.UploadDir(cmd.Context(), localDir, prefix)
	if err != nil {
		return err
	}

	color.New(color.FgGreen).Printf("  ✓ Uploaded %d object(s), %d already present\n", uploaded, skipped)
	fmt.Println()
	return nil
}
