package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/shot02/face-identifier/internal/config"
	"github.com/shot02/face-identifier/internal/identify"
	"github.com/shot02/face-identifier/internal/registry"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Manage enrolled face records",
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled records",
	RunE:  runRecordsList,
}

var recordsDeleteCmd = &cobra.Command{
	Use:   "delete <faceID>",
	Short: "Delete a record by face ID",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordsDelete,
}

var recordsExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export all records to a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordsExport,
}

var recordsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import records from a JSON file",
	Long: `Import records exported by 'records export'. Hashes are re-encoded with
the configured hash width, so exports move cleanly between deployments
with different settings.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecordsImport,
}

func init() {
	rootCmd.AddCommand(recordsCmd)
	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsDeleteCmd)
	recordsCmd.AddCommand(recordsExportCmd)
	recordsCmd.AddCommand(recordsImportCmd)

	recordsListCmd.Flags().Bool("json", false, "Output as JSON")
	recordsListCmd.Flags().String("label", "", "Filter by label (normalized comparison)")
}

// exportedRecord is the portable JSON shape of a record. The hash is
// deliberately omitted; it is derived data and re-encoded on import.
type exportedRecord struct {
	FaceID     string          `json:"face_id"`
	Label      string          `json:"label,omitempty"`
	Descriptor []float32       `json:"descriptor"`
	Confidence float64         `json:"confidence"`
	CreatedAt  int64           `json:"created_at"`
	Data       json.RawMessage `json:"data,omitempty"`
}

func runRecordsList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	asJSON := mustGetBool(cmd, "json")
	label := mustGetString(cmd, "label")

	handle, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer handle.Close()

	ctx := context.Background()
	var records []registry.Record
	if label != "" {
		records, err = handle.store.FindByLabel(ctx, label)
	} else {
		records, err = handle.store.All(ctx)
	}
	if err != nil {
		return fmt.Errorf("loading records: %w", err)
	}

	if asJSON {
		out := make([]exportedRecord, 0, len(records))
		for _, r := range records {
			out = append(out, toExportedRecord(r))
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FACE ID\tLABEL\tDIM\tCONFIDENCE\tENROLLED")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%s\n",
			r.FaceID,
			r.UserData.Label,
			len(r.Descriptor),
			r.Confidence,
			time.Unix(r.CreatedAt, 0).Format(time.RFC3339),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d records\n", len(records))
	return nil
}

func runRecordsDelete(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	handle, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer handle.Close()

	if err := handle.store.Delete(context.Background(), args[0]); err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	fmt.Printf("Deleted %s\n", args[0])
	return nil
}

func toExportedRecord(r registry.Record) exportedRecord {
	return exportedRecord{
		FaceID:     r.FaceID,
		Label:      r.UserData.Label,
		Descriptor: r.Descriptor,
		Confidence: r.Confidence,
		CreatedAt:  r.CreatedAt,
		Data:       r.UserData.Data,
	}
}

func runRecordsExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	handle, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer handle.Close()

	records, err := handle.store.All(context.Background())
	if err != nil {
		return fmt.Errorf("loading records: %w", err)
	}

	out := make([]exportedRecord, 0, len(records))
	for _, r := range records {
		out = append(out, toExportedRecord(r))
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}
	if err := os.WriteFile(args[0], data, 0600); err != nil {
		return fmt.Errorf("writing export file: %w", err)
	}

	fmt.Printf("Exported %d records to %s\n", len(out), args[0])
	return nil
}

func runRecordsImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0]) //nolint:gosec // path comes from CLI args
	if err != nil {
		return fmt.Errorf("reading import file: %w", err)
	}

	var exported []exportedRecord
	if err := json.Unmarshal(data, &exported); err != nil {
		return fmt.Errorf("decoding import file: %w", err)
	}

	handle, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer handle.Close()

	ctx := context.Background()
	for _, e := range exported {
		if len(e.Descriptor) == 0 {
			return fmt.Errorf("record %s has no descriptor", e.FaceID)
		}
		descriptor := identify.Descriptor(e.Descriptor)
		record := registry.Record{
			FaceID:     e.FaceID,
			Descriptor: descriptor,
			Hash:       identify.Encode(descriptor, cfg.Matching.HashBits),
			Confidence: e.Confidence,
			CreatedAt:  e.CreatedAt,
			UserData:   registry.Payload{Label: e.Label, Data: e.Data},
		}
		if err := handle.store.Insert(ctx, record); err != nil {
			return fmt.Errorf("importing record %s: %w", e.FaceID, err)
		}
	}

	fmt.Printf("Imported %d records from %s\n", len(exported), args[0])
	return nil
}
