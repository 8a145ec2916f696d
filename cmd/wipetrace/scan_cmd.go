package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/forensix-labs/wipetrace/internal/config"
	"github.com/forensix-labs/wipetrace/internal/engine/orchestrator"
	"github.com/forensix-labs/wipetrace/internal/forensics/evidence"
	"github.com/forensix-labs/wipetrace/internal/forensics/hashing"
	"github.com/forensix-labs/wipetrace/internal/forensics/resultdoc"
	"github.com/forensix-labs/wipetrace/internal/utils/logger"
)

// Allow tests to inject a fake orchestrator run.
var runOrchestrator = orchestrator.Run

var (
	scanOutputFormat string = "text"
	scanOutputPath   string
	scanConfigPath   string
	scanSealKeyring  string
	scanSealSigPath  string
)

func createScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [flags] IMAGE_PATH SESSION_ID [SHA256]",
		Short: "scan a disk image for deliberate wipe evidence",
		Args:  cobra.RangeArgs(2, 3),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			switch scanOutputFormat {
			case "text", "json", "yaml":
				return nil
			default:
				return fmt.Errorf("unsupported --format %q (supported: text, json, yaml)", scanOutputFormat)
			}
		},
		RunE: executeScan,
	}

	cmd.Flags().StringVar(&scanOutputFormat, "format", "text", "output format: text, json, or yaml")
	cmd.Flags().StringVar(&scanOutputPath, "out", "", "write the result document to this path instead of uploads/analysis_<session_id>.json")
	cmd.Flags().StringVar(&scanConfigPath, "config", "", "YAML file overriding default thresholds")
	cmd.Flags().StringVar(&scanSealKeyring, "seal-key", "", "OpenPGP private keyring to detached-sign the result document with")
	cmd.Flags().StringVar(&scanSealSigPath, "seal-out", "", "path for the detached signature; defaults to <result document>.asc")

	return cmd
}

func executeScan(cmd *cobra.Command, args []string) error {
	imagePath := args[0]
	id := args[1]
	log := logger.Logger()

	cfg := config.Default()
	if scanConfigPath != "" {
		loaded, err := config.Load(scanConfigPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	var (
		sha string
		err error
	)
	if len(args) > 2 {
		sha = args[2]
	} else {
		log.Infof("hashing %s", imagePath)
		sha, err = hashing.HashFile(imagePath, cfg.IO.HashChunk, nil)
		if err != nil {
			return fmt.Errorf("hash image: %w", err)
		}
	}

	var bar *progressbar.ProgressBar
	out, err := runOrchestrator(context.Background(), imagePath, cfg, orchestrator.Options{
		Progress: func(done, total int64) {
			if total <= 0 {
				return
			}
			if bar == nil {
				bar = progressbar.Default(total, "classifying blocks")
			}
			bar.Set64(done)
		},
	})
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	if out == nil {
		return fmt.Errorf("scan was cancelled")
	}

	fi, err := statSize(imagePath)
	if err != nil {
		return fmt.Errorf("stat image: %w", err)
	}

	doc := resultdoc.Build(id, imagePath, sha, fi, time.Now(), out)

	outPath := scanOutputPath
	if outPath == "" {
		outPath = fmt.Sprintf("uploads/analysis_%s.json", id)
	}
	if err := resultdoc.WriteJSON(outPath, doc); err != nil {
		return fmt.Errorf("write result document: %w", err)
	}

	if scanSealKeyring != "" {
		if err := sealResultDocument(outPath, scanSealKeyring, scanSealSigPath); err != nil {
			return fmt.Errorf("seal result document: %w", err)
		}
		log.Infof("sealed %s", outPath)
	}

	return renderDocument(cmd, doc, scanOutputFormat)
}

// sealResultDocument detached-signs the written result document in place so
// downstream custody checks can call evidence.Verify against the same path.
func sealResultDocument(docPath, keyringPath, sigPath string) error {
	if sigPath == "" {
		sigPath = docPath + ".asc"
	}
	docData, err := os.ReadFile(docPath)
	if err != nil {
		return fmt.Errorf("read result document: %w", err)
	}
	return evidence.Seal(docData, keyringPath, sigPath)
}

func renderDocument(cmd *cobra.Command, doc resultdoc.Document, format string) error {
	out := cmd.OutOrStdout()

	switch format {
	case "text":
		fmt.Fprintf(out, "session:   %s\n", doc.SessionID)
		fmt.Fprintf(out, "image:     %s (%s)\n", doc.Filename, doc.SizeHuman)
		fmt.Fprintf(out, "sha256:    %s\n", doc.SHA256)
		fmt.Fprintf(out, "verdict:   %s (intent score %d)\n", doc.Stats.Verdict, doc.Stats.IntentScore)
		fmt.Fprintf(out, "regions:   %d suspicious of %d blocks (%.2f%%)\n",
			doc.Stats.RegionsCount, doc.Stats.TotalBlocks, doc.Stats.SuspiciousPct)
		return nil

	case "json":
		b, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal json: %w", err)
		}
		fmt.Fprintln(out, string(b))
		return nil

	case "yaml":
		b, err := resultdoc.ToYAML(doc)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		fmt.Fprintln(out, string(b))
		return nil

	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
