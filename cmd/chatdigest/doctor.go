package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatdigest/internal/index"
	"github.com/Zuo-Peng/chatdigest/internal/scan"
)

func doctorCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify config, chat dir, DB, FTS5, and show stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := a.load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			fmt.Println("=== Config ===")
			start, end := cfg.Window(time.Now())
			fmt.Printf("  Teacher: %s  Student: %s\n", cfg.Teacher, cfg.Student)
			fmt.Printf("  Known senders: %v\n", cfg.KnownSenders)
			fmt.Printf("  Window: %s .. %s\n", start, end)

			// check dirs
			fmt.Println("\n=== Directories ===")
			checkDir("Chat", cfg.ChatDir)
			checkDir("Docs", cfg.DocsDir)

			// scan file counts
			fmt.Println("\n=== File Scan ===")
			files, err := scan.ScanRoots(cfg.ChatDir)
			if err != nil {
				fmt.Printf("  scan error: %v\n", err)
			} else {
				counts := make(map[string]int)
				for _, f := range files {
					counts[f.Kind]++
				}
				for _, kind := range []string{"text", "html", "json", "mail"} {
					fmt.Printf("  %-5s files: %d\n", kind, counts[kind])
				}
			}

			// check DB
			fmt.Println("\n=== Database ===")
			fmt.Printf("  Path: %s\n", cfg.DBPath)
			if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
				fmt.Println("  Status: NOT FOUND (run 'chatdigest ingest' first)")
				return nil
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			msgCount, err := db.MessageCount()
			if err != nil {
				return fmt.Errorf("count messages: %w", err)
			}
			srcCount, err := db.SourceCount()
			if err != nil {
				return fmt.Errorf("count sources: %w", err)
			}
			fmt.Printf("  Messages: %d\n", msgCount)
			fmt.Printf("  Sources:  %d\n", srcCount)

			if run, err := db.LastRun(); err != nil {
				fmt.Printf("  last run error: %v\n", err)
			} else if run != nil {
				fmt.Printf("  Last run: %s at %s (window %s)\n", run.ID, run.FinishedAt, run.Window)
				fmt.Printf("    files=%d errors=%d parsed=%d duplicates=%d out_of_window=%d kept=%d\n",
					run.Files, run.Errors, run.Parsed, run.Duplicates, run.OutOfWindow, run.Kept)
			}

			if sources, err := db.Sources(); err == nil {
				for _, s := range sources {
					if s.Error != "" {
						fmt.Printf("  FAILED %s: %s\n", s.Path, s.Error)
					}
				}
			}

			// check FTS5
			fmt.Println("\n=== FTS5 ===")
			var ftsCount int
			err = db.Raw().QueryRow("SELECT COUNT(*) FROM messages_fts").Scan(&ftsCount)
			if err != nil {
				fmt.Printf("  FTS5 error: %v\n", err)
			} else {
				fmt.Printf("  FTS5 entries: %d\n", ftsCount)
				if ftsCount == msgCount {
					fmt.Println("  Status: OK (synced)")
				} else {
					fmt.Printf("  Status: MISMATCH (messages=%d, fts=%d)\n", msgCount, ftsCount)
				}
			}

			// check DB file size
			if info, err := os.Stat(cfg.DBPath); err == nil {
				sizeMB := float64(info.Size()) / 1024 / 1024
				fmt.Printf("\n=== DB Size: %.1f MB ===\n", sizeMB)
			}

			return nil
		},
	}
}

func checkDir(name, path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Printf("  %s: %s (NOT FOUND)\n", name, path)
	} else if !info.IsDir() {
		fmt.Printf("  %s: %s (NOT A DIRECTORY)\n", name, path)
	} else {
		fmt.Printf("  %s: %s (OK)\n", name, path)
	}
}
