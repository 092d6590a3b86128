package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"answerpath-backend/internal/chunker"
	"answerpath-backend/internal/documents"
	"answerpath-backend/internal/extract"
	"answerpath-backend/internal/shared/util"
)

var chunksCmd = &cobra.Command{
	Use:   "chunks [file]",
	Short: "Preview how a local file is segmented and chunked",
	Long:  `Runs the content extractor and chunker on a local file without touching storage or the model.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runChunks,
}

var (
	chunkSize    int
	chunkOverlap int
)

func init() {
	chunksCmd.Flags().IntVar(&chunkSize, "size", chunker.DefaultChunkSize, "Chunk size in characters")
	chunksCmd.Flags().IntVar(&chunkOverlap, "overlap", chunker.DefaultChunkOverlap, "Overlap between chunks in characters")
	rootCmd.AddCommand(chunksCmd)
}

func runChunks(cmd *cobra.Command, args []string) error {
	path := args[0]
	fileType, err := documents.ParseFileType(util.FileExt(path))
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	segments, err := extract.New(nil).ExtractBytes(cmd.Context(), data, fileType)
	if err != nil {
		return err
	}
	chunks, err := chunker.New(chunker.WithChunkSize(chunkSize), chunker.WithOverlap(chunkOverlap)).Split(segments)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d segments, %d chunks\n", filepath.Base(path), len(segments), len(chunks))
	for _, c := range chunks {
		pos := "-"
		if c.Position != nil {
			pos = fmt.Sprint(*c.Position)
		}
		fmt.Fprintf(out, "[%d] position=%s runes=%d-%d %s\n", c.Index, pos, c.Start, c.End, preview(c.Text))
	}
	return nil
}

func preview(text string) string {
	line := strings.Join(strings.Fields(text), " ")
	r := []rune(line)
	if len(r) > 60 {
		return string(r[:60]) + "..."
	}
	return line
}
