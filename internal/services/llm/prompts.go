package llm

import (
	"strings"

	"yt2text/internal/language"
)

const paragraphPromptBase = `You are a transcript editor. The user message is one paragraph of raw speech recognition output with little or no punctuation.

First decide whether the paragraph is a conversation between several speakers (interview, podcast, chat) or a single speaker (talk, vlog, lecture).

For a conversation:
1. Label speakers as **Speaker A:**, **Speaker B:** and so on, or by name when the text makes the name clear.
2. Start a new line at every change of speaker.

For a single speaker:
1. Add punctuation and split long runs into sentences.
2. Keep the text as one paragraph.

Always:
1. Do not change, remove or add any content. Fix only punctuation and obvious recognition spacing.
2. Do not add headings or commentary.
3. Output plain Markdown text only. Do not wrap the reply in a code block.`

const chineseRules = `
4. Convert every traditional Chinese character to simplified Chinese. This is the only permitted change to the wording.
5. Use full-width Chinese punctuation.`

// ParagraphPrompt returns the system instruction used to clean one
// paragraph of transcript in the given language.
func ParagraphPrompt(lang string) string {
	prompt := paragraphPromptBase
	if language.IsChinese(lang) {
		prompt += chineseRules
	}
	if strings.TrimSpace(lang) != "" {
		prompt += "\n\nThe transcript language is " + language.DisplayName(lang) + ". Reply in the same language."
	}
	return prompt
}

// StructurePrompt is the system instruction for chapter headings. The user
// message is a numbered listing of paragraph previews.
const StructurePrompt = `You divide a transcript into chapters. The user message lists the paragraphs of a document, one per line, as "number: opening text".

Choose the paragraphs where a new topic begins and give each a short chapter title in the language of the transcript. Paragraph 1 should usually start a chapter.

Reply with one line per chapter in the form "number:title" and nothing else. Do not number chapters separately, do not add Markdown, and do not wrap the reply in a code block.`

// StripCodeFence removes a Markdown code fence wrapped around the whole
// reply, including an optional language tag on the opening fence.
func StripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := trimmed[3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		tag := strings.TrimSpace(body[:nl])
		if !strings.ContainsAny(tag, " \t") {
			body = body[nl+1:]
		}
	} else {
		body = strings.TrimLeft(body, " \t")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}
