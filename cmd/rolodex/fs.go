package main

import (
	"fmt"
	"os"

	"github.com/pbaille/rolodex/internal/ai"
	"github.com/pbaille/rolodex/internal/config"
	"github.com/pbaille/rolodex/internal/ingest"
	"github.com/pbaille/rolodex/internal/shell"
	"github.com/pbaille/rolodex/internal/store"
	"github.com/pbaille/rolodex/internal/vfs"
	"github.com/spf13/cobra"
)

func lsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [path]",
		Short: "List a virtual directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/"
			if len(args) > 0 {
				path = vfs.ResolvePath("/", args[0])
			}

			s, _, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			node, err := vfs.New(s).Resolve(path)
			if err != nil {
				return err
			}
			if node == nil {
				return fmt.Errorf("no such path: %s", path)
			}
			if !node.IsDir {
				fmt.Println(node.Name)
				return nil
			}
			for _, child := range node.Children {
				fmt.Println(child)
			}
			return nil
		},
	}
}

func catCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat [path]",
		Short: "Print a virtual file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := vfs.ResolvePath("/", args[0])

			s, _, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			node, err := vfs.New(s).Resolve(path)
			if err != nil {
				return err
			}
			if node == nil {
				return fmt.Errorf("no such path: %s", path)
			}
			if node.IsDir {
				return fmt.Errorf("is a directory: %s", path)
			}
			fmt.Println(node.Content)
			return nil
		},
	}
}

func treeCmd() *cobra.Command {
	var depth int

	cmd := &cobra.Command{
		Use:   "tree [path]",
		Short: "Show the rolodex as a directory tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/"
			if len(args) > 0 {
				path = vfs.ResolvePath("/", args[0])
			}

			s, _, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			out, err := vfs.New(s).Tree(path, depth)
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}

	cmd.Flags().IntVarP(&depth, "depth", "L", vfs.DefaultTreeDepth, "max tree depth")
	return cmd
}

func shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive shell over the rolodex",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cfg, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			return shell.New(s, shellPipeline(s, cfg)).Run()
		},
	}
}

// shellPipeline builds an ingestion pipeline for the shell when the
// Anthropic key is available; transcription is wired in only when the
// AssemblyAI key is also set. Returns nil when ingestion cannot run at all.
func shellPipeline(s *store.Store, cfg config.Config) *ingest.Pipeline {
	llm, err := ai.New(cfg.Model, cfg.Temperature, cfg.AnalysisTokens)
	if err != nil {
		return nil
	}
	transcriber, err := ai.NewTranscriber(cfg.AudioSampleRate)
	if err != nil {
		return ingest.New(s, llm, nil, os.Stdout)
	}
	return ingest.New(s, llm, transcriber, os.Stdout)
}
