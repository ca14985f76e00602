package transcript

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const twoExchangeDoc = "**What is 2+2?**\n\nIt is 4.\n\n-----\n\n**Thanks**\n\nYou're welcome.\n\n"

func TestSplitMarkdown_TwoExchanges(t *testing.T) {
	t.Parallel()

	prompts, responses, stats := SplitMarkdown(twoExchangeDoc)
	require.Equal(t, "What is 2+2?\n\n-----\n\nThanks\n\n", prompts)
	require.Equal(t, "It is 4.\n\n-----\n\nYou're welcome.\n\n", responses)
	require.Equal(t, SplitStats{Exchanges: 2, Delimiters: 1}, stats)
}

func TestSplitMarkdown_SegmentWithoutBoldContributesOnlyDelimiter(t *testing.T) {
	t.Parallel()

	doc := "intro text\n\n---\n\n**Q**\n\nA\n\n----\n\ntrailing note"
	prompts, responses, stats := SplitMarkdown(doc)
	require.Equal(t, "---\n\nQ\n\n----\n\n", prompts)
	require.Equal(t, "---\n\nA\n\n----\n\n", responses)
	require.Equal(t, SplitStats{Exchanges: 1, Delimiters: 2}, stats)
}

func TestSplitMarkdown_NoDelimiters(t *testing.T) {
	t.Parallel()

	prompts, responses, stats := SplitMarkdown("**Q** A")
	require.Equal(t, "Q\n\n", prompts)
	require.Equal(t, "A\n\n", responses)
	require.Equal(t, 0, stats.Delimiters)

	prompts, responses, stats = SplitMarkdown("nothing to see")
	require.Empty(t, prompts)
	require.Empty(t, responses)
	require.Equal(t, SplitStats{}, stats)
}

func TestSplitMarkdown_HyphenRunInsideResponseIsADelimiter(t *testing.T) {
	t.Parallel()

	// Table rules split the exchange too; the tail after the rule has no prompt.
	doc := "**Q**\n\n| a |\n|---|\n| 1 |\n\n"
	prompts, responses, stats := SplitMarkdown(doc)
	require.Equal(t, "Q\n\n---\n\n", prompts)
	require.Equal(t, "| a |\n|\n\n---\n\n", responses)
	require.Equal(t, 1, stats.Delimiters)
}

func TestSplitMarkdown_PreservesDelimiterCountAndOrder(t *testing.T) {
	t.Parallel()

	docs := []string{
		"",
		"---",
		"------\n\n---",
		twoExchangeDoc,
		"# Title\n\n**a**\n\nb\n\n-----------------------------------\n\n**c**\n\nd\n\n-----------------------------------\n\n",
		"**x** y --- **z** w ---- ----- tail",
	}

	for _, doc := range docs {
		want := delimiterPattern.FindAllString(doc, -1)
		prompts, responses, _ := SplitMarkdown(doc)
		require.Equal(t, want, delimiterPattern.FindAllString(prompts, -1), "prompts for %q", doc)
		require.Equal(t, want, delimiterPattern.FindAllString(responses, -1), "responses for %q", doc)
	}
}

func TestSplitMarkdown_KeepsAllPromptAndResponseText(t *testing.T) {
	t.Parallel()

	doc := "**first question**\n\nfirst answer\n\n---\n\n**second question**\n\nsecond answer"
	prompts, responses, _ := SplitMarkdown(doc)
	for _, want := range []string{"first question", "second question"} {
		require.Contains(t, prompts, want)
		require.NotContains(t, responses, want)
	}
	for _, want := range []string{"first answer", "second answer"} {
		require.Contains(t, responses, want)
		require.NotContains(t, prompts, want)
	}
}

func TestSplitMarkdownFile_EndToEnd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "chat.md")
	require.NoError(t, os.WriteFile(in, []byte(twoExchangeDoc), 0o644))

	res, err := SplitMarkdownFile(context.Background(), in, SplitFileOptions{})
	require.NoError(t, err)

	require.Equal(t, filepath.Join(dir, "chat_prompts_4_words.md"), res.PromptsPath)
	require.Equal(t, 4, res.PromptsWords)
	require.Equal(t, filepath.Join(dir, "chat_responses_5_words.md"), res.ResponsesPath)
	require.Equal(t, 5, res.ResponsesWords)
	require.Equal(t, 2, res.Exchanges)
	require.Equal(t, 1, res.Delimiters)

	requireFileContent(t, res.PromptsPath, "What is 2+2?\n\n-----\n\nThanks\n\n")
	requireFileContent(t, res.ResponsesPath, "It is 4.\n\n-----\n\nYou're welcome.\n\n")

	// Intermediate names are gone after finalization.
	require.NoFileExists(t, filepath.Join(dir, "chat_prompts.md"))
	require.NoFileExists(t, filepath.Join(dir, "chat_responses.md"))
	requireNoTempFiles(t, dir)
}

func TestSplitMarkdownFile_OutputDir(t *testing.T) {
	t.Parallel()

	in := filepath.Join(t.TempDir(), "session.md")
	require.NoError(t, os.WriteFile(in, []byte("**hi**\n\nhello there\n\n"), 0o644))

	outDir := filepath.Join(t.TempDir(), "split")
	res, err := SplitMarkdownFile(context.Background(), in, SplitFileOptions{OutputDir: outDir})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(outDir, "session_prompts_1_words.md"), res.PromptsPath)
	require.Equal(t, filepath.Join(outDir, "session_responses_2_words.md"), res.ResponsesPath)
}

func TestSplitMarkdownFile_OnlyFinalExtensionIsReplaced(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "notes.md.md")
	require.NoError(t, os.WriteFile(in, []byte("no prompts here"), 0o644))

	res, err := SplitMarkdownFile(context.Background(), in, SplitFileOptions{})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "notes.md_prompts_0_words.md"), res.PromptsPath)
	require.Equal(t, filepath.Join(dir, "notes.md_responses_0_words.md"), res.ResponsesPath)
	requireFileContent(t, res.PromptsPath, "")
}

func TestSplitMarkdownFile_RefusesToReplaceExistingOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "chat.md")
	require.NoError(t, os.WriteFile(in, []byte(twoExchangeDoc), 0o644))

	_, err := SplitMarkdownFile(context.Background(), in, SplitFileOptions{})
	require.NoError(t, err)

	_, err = SplitMarkdownFile(context.Background(), in, SplitFileOptions{})
	require.ErrorIs(t, err, fs.ErrExist)

	// The second run stopped at the rename, leaving the un-counted prompts file behind.
	require.FileExists(t, filepath.Join(dir, "chat_prompts.md"))

	res, err := SplitMarkdownFile(context.Background(), in, SplitFileOptions{Overwrite: true})
	require.NoError(t, err)
	requireFileContent(t, res.PromptsPath, "What is 2+2?\n\n-----\n\nThanks\n\n")
}

func TestSplitMarkdownFile_MissingInput(t *testing.T) {
	t.Parallel()

	_, err := SplitMarkdownFile(context.Background(), filepath.Join(t.TempDir(), "missing.md"), SplitFileOptions{})
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestSplitMarkdownFile_CanceledContext(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "chat.md")
	require.NoError(t, os.WriteFile(in, []byte(twoExchangeDoc), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := SplitMarkdownFile(ctx, in, SplitFileOptions{})
	require.ErrorIs(t, err, context.Canceled)
	require.NoFileExists(t, filepath.Join(dir, "chat_prompts.md"))
}

func requireFileContent(t *testing.T, path, want string) {
	t.Helper()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, want, string(b))
}

func requireNoTempFiles(t *testing.T, dir string) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		require.False(t, strings.HasPrefix(e.Name(), ".tmp_"), "leftover temp file %s", e.Name())
	}
}
