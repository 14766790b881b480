package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shot02/face-identifier/internal/config"
	"github.com/shot02/face-identifier/internal/constants"
	"github.com/shot02/face-identifier/internal/detector"
)

var identifyCmd = &cobra.Command{
	Use:   "identify <image>",
	Short: "Identify the face in an image against enrolled records",
	Long: `Identify a face. The image is sent to the embedding service and the
descriptor is matched against the record collection.

Examples:
  # Identify a face
  face-identifier identify unknown.jpg

  # Identify with a stricter threshold
  MATCH_THRESHOLD=0.9 face-identifier identify unknown.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runIdentify,
}

func init() {
	rootCmd.AddCommand(identifyCmd)
}

func runIdentify(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	handle, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer handle.Close()

	matcher, err := newMatcher(cfg)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0]) //nolint:gosec // path comes from CLI args
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	if resized, err := detector.PrepareImage(data, constants.MaxImageSize); err == nil {
		data = resized
	}

	ctx := context.Background()
	detection := newDescriptorSource(cfg).ObtainDescriptor(ctx, data)
	if detection.Provenance == detector.ProvenanceSynthetic {
		fmt.Println("Warning: no confident face detected, matching a synthetic descriptor")
	}

	records, err := handle.store.All(ctx)
	if err != nil {
		return fmt.Errorf("loading records: %w", err)
	}

	result := matcher.Identify(detection.Descriptor, detection.Confidence, records)

	if result.MatchFound {
		label := result.BestMatch.UserData.Label
		if label == "" {
			label = result.BestMatch.FaceID
		}
		fmt.Printf("Match: %s (similarity %.4f)\n", label, result.BestMatch.Similarity)
	} else {
		fmt.Printf("No match (best similarity %.4f, threshold %.2f)\n",
			result.Similarity, matcher.Options().MatchThreshold)
	}

	if len(result.Candidates) > 0 {
		fmt.Println("\nCandidates:")
		for _, c := range result.Candidates {
			label := c.UserData.Label
			if label == "" {
				label = c.FaceID
			}
			fmt.Printf("  %.4f  %s\n", c.Similarity, label)
		}
	}
	if result.TruncatedComparisons > 0 {
		fmt.Printf("\nWarning: %d records had a different descriptor length than the query\n",
			result.TruncatedComparisons)
	}
	return nil
}
