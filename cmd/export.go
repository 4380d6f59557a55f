package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iksnae/cursor-chat-browser/internal"
	"github.com/iksnae/cursor-chat-browser/internal/export"
	"github.com/spf13/cobra"
)

var (
	exportFormat    string
	exportOutputDir string
	exportKind      string
	exportWorkspace string
	exportAll       bool
	exportStdout    bool
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [id]",
	Short: "Export conversations to files",
	Long: `Export chat tabs, composers or global conversations as md, html, pdf, json,
jsonl or yaml.

With an id one transcript is exported; --kind and --workspace work as for
show. With --all every chat tab and composer is exported, limited to one
workspace by --workspace, or every global conversation with --kind
conversation.

Examples:
  cursor-chat-browser export 3f2a... --format html
  cursor-chat-browser export tab1 --kind chat --workspace <workspace-id> --stdout
  cursor-chat-browser export --all --format md --out ./exports
  cursor-chat-browser export --all --kind conversation --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportAll == (len(args) == 1) {
			return errors.New("give either an id or --all")
		}
		if exportStdout && exportAll {
			return errors.New("--stdout exports a single transcript")
		}
		format := exportFormat
		if format == "" {
			format = cfg.Export.Format
		}
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		var refs []internal.TranscriptRef
		if exportAll {
			refs, err = exportRefs(ctx)
			if err != nil {
				return err
			}
		} else {
			kind := exportKind
			if kind == "" {
				kind = internal.KindConversation
			}
			refs = []internal.TranscriptRef{{Kind: kind, ID: args[0], WorkspaceID: exportWorkspace}}
		}

		if exportStdout {
			t, err := loadTranscript(cmd, refs[0])
			if err != nil {
				return err
			}
			if err := exporter.Export(t, cmd.OutOrStdout()); err != nil {
				return &internal.ExportError{Format: format, Path: "-", Err: err}
			}
			return nil
		}

		dir := exportOutputDir
		if dir == "" {
			dir = cfg.Export.Dir
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		var written, failed, duplicates int
		err = internal.ShowProgress(ctx, fmt.Sprintf("Exporting %d transcript(s) to %s", len(refs), dir), func() error {
			var transcripts []*internal.Transcript
			for _, ref := range refs {
				if err := ctx.Err(); err != nil {
					return err
				}
				t, err := loadTranscript(cmd, ref)
				if err != nil {
					if !exportAll {
						return err
					}
					internal.LogError("Failed to load %s %s: %v", ref.Kind, ref.ID, err)
					failed++
					continue
				}
				transcripts = append(transcripts, t)
			}
			if exportAll {
				unique := internal.DeduplicateTranscripts(transcripts)
				duplicates = len(transcripts) - len(unique)
				transcripts = unique
			}

			used := map[string]bool{}
			for _, t := range transcripts {
				path := uniquePath(dir, export.Filename(t, exporter), t.ID, used)
				if err := writeExport(exporter, t, path, format); err != nil {
					if !exportAll {
						return err
					}
					internal.LogError("%v", err)
					failed++
					continue
				}
				internal.LogDebug("wrote %s", path)
				written++
			}
			return nil
		})
		if err != nil {
			return err
		}
		if duplicates > 0 {
			internal.LogInfo("Skipped %d duplicate transcript(s)", duplicates)
		}

		internal.PrintSuccess(fmt.Sprintf("Export complete: %d transcript(s) exported to %s", written, dir))
		if failed > 0 {
			return fmt.Errorf("%d transcript(s) could not be exported", failed)
		}
		return nil
	},
}

// exportRefs lists what --all exports.
func exportRefs(ctx context.Context) ([]internal.TranscriptRef, error) {
	if exportKind == internal.KindConversation {
		store, err := internal.OpenRecordStore(ctx, cfg.GlobalDBPath())
		if err != nil {
			return nil, err
		}
		defer store.Close()
		history, err := internal.LoadHistory(ctx, store, now())
		if err != nil {
			return nil, err
		}
		refs := make([]internal.TranscriptRef, 0, history.Groups.Len())
		for _, id := range history.Groups.Order {
			refs = append(refs, internal.TranscriptRef{Kind: internal.KindConversation, ID: id})
		}
		return refs, nil
	}

	logs, err := internal.Logs(ctx, cfg.WorkspacePath)
	if err != nil {
		return nil, err
	}
	var refs []internal.TranscriptRef
	for _, l := range logs {
		if exportWorkspace != "" && l.WorkspaceID != exportWorkspace {
			continue
		}
		if exportKind != "" && l.Type != exportKind {
			continue
		}
		refs = append(refs, internal.TranscriptRef{Kind: l.Type, ID: l.ID, WorkspaceID: l.WorkspaceID})
	}
	return refs, nil
}

// uniquePath joins dir and name, adding the short id when an earlier
// transcript of this run took the name.
func uniquePath(dir, name, id string, used map[string]bool) string {
	if used[name] {
		ext := filepath.Ext(name)
		name = fmt.Sprintf("%s-%s%s", strings.TrimSuffix(name, ext), shortID(id), ext)
	}
	used[name] = true
	return filepath.Join(dir, name)
}

func writeExport(exporter export.Exporter, t *internal.Transcript, path, format string) error {
	var buf bytes.Buffer
	if err := exporter.Export(t, &buf); err != nil {
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Export format: "+strings.Join(export.Formats, ", ")+" (default from config)")
	exportCmd.Flags().StringVarP(&exportOutputDir, "out", "o", "", "Output directory (default from config)")
	exportCmd.Flags().StringVarP(&exportKind, "kind", "k", "", "chat, composer or conversation")
	exportCmd.Flags().StringVarP(&exportWorkspace, "workspace", "w", "", "Workspace id")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "Export every chat tab and composer, or every conversation with --kind conversation")
	exportCmd.Flags().BoolVar(&exportStdout, "stdout", false, "Write a single transcript to stdout")
}
