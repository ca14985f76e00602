package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/responses"

	"github.com/theimaginaryfoundation/chat-transcripts/transcript/fileutils"
)

const maxTitleInputChars = 2000

const sessionTitlePrompt = `You name chat sessions.

You will be given the first message a user sent to a coding assistant.

Return a short title for the session:
- at most 8 words,
- plain text, no markdown, no quotes, no trailing punctuation,
- describe the task, not the user.

Return only JSON matching the schema.`

// OpenAITitler suggests session headings with a structured-output Responses call.
// It satisfies transcript.Titler.
type OpenAITitler struct {
	client ResponsesClient
	model  string
}

// NewOpenAITitler builds a titler around client's Responses service.
func NewOpenAITitler(client *openai.Client, model string) OpenAITitler {
	return NewOpenAITitlerWithClient(NewResponsesClient(client), model)
}

// NewOpenAITitlerWithClient is NewOpenAITitler for an arbitrary ResponsesClient.
func NewOpenAITitlerWithClient(client ResponsesClient, model string) OpenAITitler {
	return OpenAITitler{client: client, model: model}
}

type titleResponse struct {
	Title string `json:"title"`
}

var titleSchema = GenerateSchema[titleResponse]()

func (t OpenAITitler) SuggestTitle(ctx context.Context, firstMessage string) (string, error) {
	if t.client == nil {
		return "", errors.New("OpenAITitler: client is nil")
	}
	if t.model == "" {
		return "", errors.New("OpenAITitler: model is empty")
	}

	resp, err := CallWithRetry(ctx, t.client, t.params(firstMessage))
	if err != nil {
		return "", err
	}

	var out titleResponse
	if err := fileutils.DecodeModelJSON(resp.OutputText(), &out); err != nil {
		return "", fmt.Errorf("OpenAITitler: decode title: %w", err)
	}
	return fileutils.SingleLine(out.Title), nil
}

func (t OpenAITitler) params(firstMessage string) responses.ResponseNewParams {
	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        "SessionTitle",
			Schema:      titleSchema,
			Strict:      openai.Bool(true),
			Description: openai.String("Session title JSON"),
			Type:        "json_schema",
		},
	}

	input := []responses.ResponseInputItemUnionParam{
		responses.ResponseInputItemParamOfMessage(fileutils.Truncate(firstMessage, maxTitleInputChars), responses.EasyInputMessageRoleUser),
	}
	return responses.ResponseNewParams{
		Model:           t.model,
		MaxOutputTokens: openai.Int(200),
		Instructions:    openai.String(sessionTitlePrompt),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: input,
		},
		Text: responses.ResponseTextConfigParam{
			Format: format,
		},
	}
}
