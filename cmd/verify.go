package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shot02/face-identifier/internal/config"
	"github.com/shot02/face-identifier/internal/constants"
	"github.com/shot02/face-identifier/internal/detector"
	"github.com/shot02/face-identifier/internal/identify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <imageA> <imageB>",
	Short: "Check whether two face images show the same person",
	Long: `Verify two face images against each other. Both images are sent to the
embedding service and the descriptors are compared with cosine similarity.

Examples:
  # Compare two faces with the configured threshold
  face-identifier verify a.jpg b.jpg

  # Compare with an explicit threshold
  face-identifier verify a.jpg b.jpg --threshold 0.9`,
	Args: cobra.ExactArgs(2),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().Float64("threshold", -1, "Similarity threshold in [0,1] (defaults to MATCH_THRESHOLD)")
}

func descriptorFromFile(ctx context.Context, source *detector.Source, path string) (identify.Descriptor, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from CLI args
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if resized, err := detector.PrepareImage(data, constants.MaxImageSize); err == nil {
		data = resized
	}

	detection := source.ObtainDescriptor(ctx, data)
	if detection.Provenance == detector.ProvenanceSynthetic {
		fmt.Printf("Warning: no confident face detected in %s, using a synthetic descriptor\n", path)
	}
	return detection.Descriptor, nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	threshold := mustGetFloat64(cmd, "threshold")
	if threshold < 0 {
		threshold = cfg.Matching.MatchThreshold
	}
	if threshold > 1 {
		return fmt.Errorf("threshold must be in [0,1], got %g", threshold)
	}

	source := newDescriptorSource(cfg)
	ctx := context.Background()

	a, err := descriptorFromFile(ctx, source, args[0])
	if err != nil {
		return err
	}
	b, err := descriptorFromFile(ctx, source, args[1])
	if err != nil {
		return err
	}

	verification := identify.Verify(a, b, threshold)
	if verification.IsMatch {
		fmt.Printf("Match: similarity %.4f >= threshold %.2f\n", verification.Similarity, verification.Threshold)
	} else {
		fmt.Printf("No match: similarity %.4f < threshold %.2f\n", verification.Similarity, verification.Threshold)
	}
	return nil
}
