package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pbaille/rolodex/internal/ai"
	"github.com/pbaille/rolodex/internal/domain"
	"github.com/pbaille/rolodex/internal/fetch"
	"github.com/pbaille/rolodex/internal/ingest"
	"github.com/pbaille/rolodex/internal/vfs"
	"github.com/spf13/cobra"
)

func ingestCmd() *cobra.Command {
	var (
		person  string
		dateStr string
		context string
	)

	cmd := &cobra.Command{
		Use:   "ingest [file-or-url]",
		Short: "Ingest a recording, transcript file, or web page",
		Long: `Ingest runs the full pipeline on a conversation source: transcription
(for audio/video), speaker diarization, takeaway extraction, tagging,
state-of-play update, and follow-up extraction.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := args[0]
			personName := vfs.SlugToName(person)

			var date time.Time
			if dateStr != "" {
				d, err := time.Parse("2006-01-02", dateStr)
				if err != nil {
					return fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrInvalidInput)
				}
				date = d
			}

			s, cfg, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			llm, err := ai.New(cfg.Model, cfg.Temperature, cfg.AnalysisTokens)
			if err != nil {
				return err
			}

			switch {
			case fetch.IsURL(source):
				text, err := fetch.Fetch(source)
				if err != nil {
					return err
				}
				pipeline := ingest.New(s, llm, nil, os.Stdout)
				_, err = pipeline.IngestText(text, personName, date, context)
				return err

			case isRecording(source):
				transcriber, err := ai.NewTranscriber(cfg.AudioSampleRate)
				if err != nil {
					return err
				}
				pipeline := ingest.New(s, llm, transcriber, os.Stdout)
				_, err = pipeline.IngestRecording(source, personName, date, context)
				return err

			default:
				pipeline := ingest.New(s, llm, nil, os.Stdout)
				_, err = pipeline.IngestTranscript(source, personName, date, context)
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&person, "person", "p", "", "person the conversation is with (required)")
	cmd.Flags().StringVarP(&dateStr, "date", "d", "", "interaction date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&context, "context", "", "extra context for speaker identification")
	cmd.MarkFlagRequired("person")
	return cmd
}

func isRecording(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3", ".mp4", ".m4a", ".wav", ".mov", ".webm", ".ogg", ".flac":
		return true
	}
	return false
}
