package transcript

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/theimaginaryfoundation/chat-transcripts/transcript/fileutils"
)

// ArchiveOptions controls ConvertChatGPTArchive.
type ArchiveOptions struct {
	// ArrayField is the JSON field name that contains the conversation array,
	// when the top-level JSON value is an object.
	//
	// If empty, the first array-valued field is used.
	ArrayField string

	// Overwrite controls whether existing markdown files may be replaced.
	Overwrite bool

	// FileMode is used when creating output files (defaults to 0o644).
	FileMode fs.FileMode
}

// ArchiveResult contains basic stats from an archive conversion.
type ArchiveResult struct {
	ConversationsWritten int
	TurnsWritten         int
	Paths                []string
}

// ConvertChatGPTArchive reads an OpenAI conversations.json export and writes one markdown
// transcript per conversation into outputDir, in the same shape ConvertExport produces:
// each user message in bold, followed by the assistant/tool replies and a delimiter.
//
// The input is either a top-level JSON array of conversations or an object holding such an
// array. It is decoded as a stream; only one conversation is in memory at a time.
func ConvertChatGPTArchive(ctx context.Context, inputPath, outputDir string, opts ArchiveOptions) (ArchiveResult, error) {
	if ctx == nil {
		return ArchiveResult{}, errors.New("ConvertChatGPTArchive: ctx is nil")
	}
	if inputPath == "" {
		return ArchiveResult{}, errors.New("ConvertChatGPTArchive: inputPath is empty")
	}
	if outputDir == "" {
		return ArchiveResult{}, errors.New("ConvertChatGPTArchive: outputDir is empty")
	}
	if opts.FileMode == 0 {
		opts.FileMode = 0o644
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return ArchiveResult{}, fmt.Errorf("ConvertChatGPTArchive: mkdir outputDir: %w", err)
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return ArchiveResult{}, fmt.Errorf("ConvertChatGPTArchive: open input: %w", err)
	}
	defer f.Close()

	// Exports are typically one huge line.
	dec := json.NewDecoder(bufio.NewReaderSize(f, 1<<20))

	tok, err := dec.Token()
	if err != nil {
		return ArchiveResult{}, fmt.Errorf("ConvertChatGPTArchive: read first token: %w", err)
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return ArchiveResult{}, fmt.Errorf("ConvertChatGPTArchive: expected JSON array/object, got %T", tok)
	}

	w := archiveWriter{outputDir: outputDir, opts: opts, seen: make(map[string]int)}

	switch delim {
	case '[':
		if err := w.convertArray(ctx, dec); err != nil {
			return ArchiveResult{}, err
		}
		return w.res, nil
	case '{':
		found := false
		for dec.More() {
			if err := ctx.Err(); err != nil {
				return ArchiveResult{}, err
			}
			keyTok, err := dec.Token()
			if err != nil {
				return ArchiveResult{}, fmt.Errorf("ConvertChatGPTArchive: read object key: %w", err)
			}
			key, _ := keyTok.(string)

			valTok, err := dec.Token()
			if err != nil {
				return ArchiveResult{}, fmt.Errorf("ConvertChatGPTArchive: read value for key %q: %w", key, err)
			}
			d, isArray := valTok.(json.Delim)
			isArray = isArray && d == '['

			target := !found && (key == opts.ArrayField || (opts.ArrayField == "" && isArray))
			if !target {
				if err := skipValue(dec, valTok); err != nil {
					return ArchiveResult{}, fmt.Errorf("ConvertChatGPTArchive: skip key %q: %w", key, err)
				}
				continue
			}
			if !isArray {
				return ArchiveResult{}, fmt.Errorf("ConvertChatGPTArchive: key %q is not an array", key)
			}
			found = true
			if err := w.convertArray(ctx, dec); err != nil {
				return ArchiveResult{}, err
			}
		}
		if !found {
			return ArchiveResult{}, errors.New("ConvertChatGPTArchive: no conversations array found in top-level object")
		}
		return w.res, nil
	default:
		return ArchiveResult{}, fmt.Errorf("ConvertChatGPTArchive: unsupported top-level delimiter %q", delim)
	}
}

type archiveWriter struct {
	outputDir string
	opts      ArchiveOptions
	seen      map[string]int
	res       ArchiveResult
}

// convertArray consumes array elements up to and including the closing ']'.
func (w *archiveWriter) convertArray(ctx context.Context, dec *json.Decoder) error {
	for dec.More() {
		if err := ctx.Err(); err != nil {
			return err
		}

		var conv chatGPTConversation
		if err := dec.Decode(&conv); err != nil {
			return fmt.Errorf("ConvertChatGPTArchive: decode conversation: %w", err)
		}
		if err := w.write(conv); err != nil {
			return err
		}
	}
	if tok, err := dec.Token(); err != nil {
		return fmt.Errorf("ConvertChatGPTArchive: read closing array token: %w", err)
	} else if d, ok := tok.(json.Delim); !ok || d != ']' {
		return fmt.Errorf("ConvertChatGPTArchive: expected closing ']', got %v", tok)
	}
	return nil
}

func (w *archiveWriter) write(conv chatGPTConversation) error {
	id := conv.ConversationID
	if id == "" {
		id = conv.ID
	}

	msgs, err := linearizeMessages(conv.Mapping, conv.CurrentNode)
	if err != nil {
		return fmt.Errorf("ConvertChatGPTArchive: linearize messages (id=%q): %w", id, err)
	}
	doc, turns := renderChatGPTMarkdown(conv.Title, msgs)

	base := sanitizeFilenameComponent(id)
	if base == "" {
		base = "conversation"
	}
	n := w.seen[base]
	w.seen[base] = n + 1
	if n > 0 {
		base = fmt.Sprintf("%s-%d", base, n+1)
	}
	outPath := filepath.Join(w.outputDir, base+markdownExt)

	if err := fileutils.WriteFileNoClobber(outPath, []byte(doc), w.opts.FileMode, w.opts.Overwrite); err != nil {
		return fmt.Errorf("ConvertChatGPTArchive: write %s: %w", outPath, err)
	}
	w.res.ConversationsWritten++
	w.res.TurnsWritten += turns
	w.res.Paths = append(w.res.Paths, outPath)
	return nil
}

// renderChatGPTMarkdown groups messages into user-led turns. Messages before the first user
// message have no prompt to attach to and are dropped.
func renderChatGPTMarkdown(title string, msgs []chatMessage) (string, int) {
	var (
		b      strings.Builder
		turns  int
		inTurn bool
	)
	if title = fileutils.SingleLine(title); title != "" {
		fmt.Fprintf(&b, "# %s\n\n", title)
	}

	closeTurn := func() {
		if inTurn {
			b.WriteString(ExchangeDelimiter)
			b.WriteString(blankLine)
			turns++
		}
	}

	for _, m := range msgs {
		if m.Role == "user" {
			closeTurn()
			fmt.Fprintf(&b, "**%s**\n\n", m.Text)
			inTurn = true
			continue
		}
		if !inTurn {
			continue
		}
		b.WriteString(m.Text)
		b.WriteString(blankLine)
	}
	closeTurn()
	return b.String(), turns
}

type chatGPTConversation struct {
	ConversationID string                    `json:"conversation_id"`
	ID             string                    `json:"id"`
	Title          string                    `json:"title"`
	CurrentNode    string                    `json:"current_node"`
	Mapping        map[string]chatGPTMapNode `json:"mapping"`
}

type chatGPTMapNode struct {
	Message  *chatGPTMessage `json:"message"`
	Parent   *string         `json:"parent"`
	Children []string        `json:"children"`
}

type chatGPTMessage struct {
	Author struct {
		Role string `json:"role"`
	} `json:"author"`
	CreateTime *float64        `json:"create_time"`
	Content    json.RawMessage `json:"content"`
	Metadata   map[string]any  `json:"metadata"`
}

type chatMessage struct {
	Role string
	Text string
}

func linearizeMessages(mapping map[string]chatGPTMapNode, currentNode string) ([]chatMessage, error) {
	if len(mapping) == 0 {
		return nil, nil
	}

	start := currentNode
	if start == "" {
		start = pickBestLeaf(mapping)
	}
	if start == "" {
		return nil, errors.New("no current_node and no leaf node found")
	}

	visited := make(map[string]struct{}, len(mapping))
	var reversed []chatMessage
	for {
		n, ok := mapping[start]
		if !ok {
			return nil, fmt.Errorf("missing node %q in mapping", start)
		}
		if _, ok := visited[start]; ok {
			return nil, fmt.Errorf("cycle detected at node %q", start)
		}
		visited[start] = struct{}{}

		if n.Message != nil {
			if m, ok := chatMessageFrom(*n.Message); ok {
				reversed = append(reversed, m)
			}
		}
		if n.Parent == nil || *n.Parent == "" {
			break
		}
		start = *n.Parent
	}

	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	return reversed, nil
}

func pickBestLeaf(mapping map[string]chatGPTMapNode) string {
	var (
		bestID   string
		bestTime float64
		hasBest  bool
	)
	for id, n := range mapping {
		if len(n.Children) != 0 || n.Message == nil {
			continue
		}
		ct := 0.0
		if n.Message.CreateTime != nil {
			ct = *n.Message.CreateTime
		}
		// Ties go to the smaller id so the pick does not depend on map order.
		if !hasBest || ct > bestTime || (ct == bestTime && id < bestID) {
			bestID = id
			bestTime = ct
			hasBest = true
		}
	}
	return bestID
}

// chatMessageFrom keeps text-bearing user/assistant/tool messages. System prompts and
// messages hidden from the conversation view are dropped.
func chatMessageFrom(m chatGPTMessage) (chatMessage, bool) {
	role := strings.TrimSpace(m.Author.Role)
	switch role {
	case "user", "assistant", "tool":
	default:
		return chatMessage{}, false
	}
	if hidden, _ := m.Metadata["is_visually_hidden_from_conversation"].(bool); hidden {
		return chatMessage{}, false
	}

	text := strings.TrimSpace(contentText(m.Content))
	if text == "" {
		return chatMessage{}, false
	}
	return chatMessage{Role: role, Text: text}, true
}

func contentText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	// { "content_type": "text", "parts": ["..."] } or { "content_type": "...", "text": "..." }
	var probe struct {
		Parts []any  `json:"parts"`
		Text  string `json:"text"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	var parts []string
	for _, p := range probe.Parts {
		if s, ok := p.(string); ok && s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "\n")
	}
	return probe.Text
}

func sanitizeFilenameComponent(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "._-")
}

func skipValue(dec *json.Decoder, first json.Token) error {
	d, ok := first.(json.Delim)
	if !ok {
		// Primitive (string/number/bool/null): already fully consumed.
		return nil
	}
	if d != '{' && d != '[' {
		return fmt.Errorf("skipValue: unexpected delimiter %q", d)
	}

	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		if dd, ok := tok.(json.Delim); ok {
			switch dd {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}
