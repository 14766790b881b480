package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/shot02/face-identifier/internal/config"
	"github.com/shot02/face-identifier/internal/constants"
	"github.com/shot02/face-identifier/internal/detector"
	"github.com/shot02/face-identifier/internal/identify"
	"github.com/shot02/face-identifier/internal/registry"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll [images...]",
	Short: "Enroll face images into the record collection",
	Long: `Enroll one or more face images. Each image is sent to the embedding
service and the resulting descriptor is stored as a new record.

Images that yield only a synthetic fallback descriptor are skipped unless
--allow-synthetic is set.

Examples:
  # Enroll a single face with a label
  face-identifier enroll photo.jpg --label "Jan Novák"

  # Enroll a directory of faces, labeled by filename
  face-identifier enroll faces/*.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("label", "", "Label for the enrolled records (defaults to the image filename)")
	enrollCmd.Flags().Bool("allow-synthetic", false, "Store records even when detection falls back to a synthetic descriptor")
}

// labelForImage derives the record label from the flag or the filename.
func labelForImage(flagLabel, path string) string {
	if flagLabel != "" {
		return flagLabel
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func enrollImage(
	ctx context.Context,
	cfg *config.Config,
	handle *storeHandle,
	source *detector.Source,
	path, label string,
	allowSynthetic bool,
) (bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from CLI args
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}

	// Downscale oversized images before sending them to the detector.
	if resized, err := detector.PrepareImage(data, constants.MaxImageSize); err == nil {
		data = resized
	}

	detection := source.ObtainDescriptor(ctx, data)
	if detection.Provenance == detector.ProvenanceSynthetic && !allowSynthetic {
		return false, nil
	}

	record := registry.Record{
		FaceID:     uuid.NewString(),
		Descriptor: detection.Descriptor,
		Hash:       identify.Encode(detection.Descriptor, cfg.Matching.HashBits),
		Confidence: detection.Confidence,
		CreatedAt:  time.Now().Unix(),
		UserData:   registry.Payload{Label: label},
	}
	if err := handle.store.Insert(ctx, record); err != nil {
		return false, fmt.Errorf("storing record for %s: %w", path, err)
	}
	return true, nil
}

func runEnroll(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	flagLabel := mustGetString(cmd, "label")
	allowSynthetic := mustGetBool(cmd, "allow-synthetic")

	handle, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer handle.Close()

	source := newDescriptorSource(cfg)
	ctx := context.Background()

	bar := progressbar.NewOptions(len(args),
		progressbar.OptionSetDescription("Enrolling faces"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
	)

	enrolled := 0
	skipped := 0
	for _, path := range args {
		ok, err := enrollImage(ctx, cfg, handle, source, path, labelForImage(flagLabel, path), allowSynthetic)
		if err != nil {
			return err
		}
		if ok {
			enrolled++
		} else {
			skipped++
		}
		bar.Add(1)
	}

	fmt.Printf("\nEnrolled %d records", enrolled)
	if skipped > 0 {
		fmt.Printf(", skipped %d images without a confident detection", skipped)
	}
	fmt.Println()
	return nil
}
