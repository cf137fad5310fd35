package llm

import (
	"fmt"
	"strings"
)

// DefaultRubric is the grading scale used when no custom rubric is
// configured. It mirrors the fifteen-point CET-4/6 writing band, split into
// the four dimensions the grader scores.
const DefaultRubric = `Content (0-4): how fully the essay addresses the topic. 4 = all required
points covered with relevant development; 2 = topic addressed but thin or
partly off the brief; 0 = off topic.
Organization (0-3): paragraphing and progression. 3 = clear three-part
structure with logical flow; 1 = ideas present but jumbled; 0 = no
discernible structure.
Language proficiency (0-5): range and accuracy of grammar and vocabulary.
5 = varied structures with only slips; 3 = frequent errors that rarely block
meaning; 1 = errors obscure meaning throughout.
Clarity (0-3): how easily a reader follows the essay, including legibility
cues such as consistent spelling and punctuation. 3 = effortless to read;
0 = constant re-reading required.`

func levelLabel(level string) string {
	if strings.EqualFold(level, "cet6") {
		return "CET-6"
	}
	return "CET-4"
}

// BrainstormPrompt asks for essay angles and an outline for a topic.
func BrainstormPrompt(topic, level string) Request {
	system := "You are an experienced " + levelLabel(level) + " writing coach. Respond with a JSON object only: " +
		`{"ideas": [{"angle": string, "thesis": string, "points": [string]}], "outline": [string]}. ` +
		"Offer three distinct angles a student could argue and a paragraph-by-paragraph outline for the strongest one. " +
		"Keep every string in learner-friendly English."

	builder := strings.Builder{}
	builder.WriteString("# Topic\n")
	builder.WriteString(topic)
	builder.WriteString("\n\n# Exam\n")
	builder.WriteString(levelLabel(level))
	builder.WriteString("\nReturn JSON.")

	return Request{System: system, User: builder.String(), ForceJSON: true}
}

// ScaffoldPrompt asks for vocabulary, collocations and sentence frames a
// student can lean on while drafting. Exemplar snippets from high-scoring
// essays on similar topics, when available, steer the suggestions.
func ScaffoldPrompt(topic, level string, exemplars []string) Request {
	system := "You are an experienced " + levelLabel(level) + " writing coach. Respond with a JSON object only: " +
		`{"vocabulary": [{"word": string, "gloss": string, "example": string}], ` +
		`"collocations": [string], "frames": [string], "connectors": [string]}. ` +
		"Gloss vocabulary in simplified Chinese. Frames are reusable sentence skeletons with ___ gaps. " +
		"Suggest only language a " + levelLabel(level) + " candidate could plausibly produce."

	builder := strings.Builder{}
	builder.WriteString("# Topic\n")
	builder.WriteString(topic)
	if len(exemplars) > 0 {
		builder.WriteString("\n\n# Excerpts from strong essays on similar topics\n")
		for _, ex := range exemplars {
			builder.WriteString("- ")
			builder.WriteString(ex)
			builder.WriteString("\n")
		}
	}
	builder.WriteString("\nReturn JSON.")

	return Request{System: system, User: builder.String(), ForceJSON: true}
}

// GradePrompt asks for a full grading report against the rubric.
func GradePrompt(rubric, topic, level, essay string, wordCount int) Request {
	system := "You are a strict but encouraging " + levelLabel(level) + " writing examiner. Respond with a JSON object only: " +
		`{"scores": {"content": number, "organization": number, "proficiency": number, "clarity": number}, ` +
		`"issues": [{"severity": "critical"|"major"|"minor", "category": "grammar"|"vocabulary"|"structure"|"content", ` +
		`"excerpt": string, "advice": string}], "suggestions": [string], "summary": string}. ` +
		"Score strictly by the rubric below. Quote each issue's excerpt verbatim from the essay. " +
		"Mark an issue critical only when it would cost points on the real exam.\n\n# Rubric\n" + rubric

	builder := strings.Builder{}
	builder.WriteString("# Topic\n")
	builder.WriteString(topic)
	builder.WriteString("\n\n# Essay\n")
	builder.WriteString(essay)
	builder.WriteString(fmt.Sprintf("\n\n# Word count\n%d", wordCount))
	builder.WriteString("\nReturn JSON.")

	return Request{System: system, User: builder.String(), ForceJSON: true, MaxTokens: 2048}
}

// PolishPrompt asks for a corrected rewrite of the essay with change notes.
func PolishPrompt(essay, level string) Request {
	system := "You are an experienced " + levelLabel(level) + " writing coach. Respond with a JSON object only: " +
		`{"polished": string, "notes": [string]}. ` +
		"Rewrite the essay at a level the same student could realistically reach: fix errors, tighten structure, " +
		"upgrade a handful of words, but keep the student's ideas and voice. Notes name the most instructive changes."

	builder := strings.Builder{}
	builder.WriteString("# Essay\n")
	builder.WriteString(essay)
	builder.WriteString("\nReturn JSON.")

	return Request{System: system, User: builder.String(), ForceJSON: true, MaxTokens: 2048}
}

// DrillPrompt asks for practice exercises targeting a student's weak spots.
// focus names the dimension to train; issues quotes recent grading findings.
func DrillPrompt(level, focus string, issues []string) Request {
	system := "You are an experienced " + levelLabel(level) + " writing coach. Respond with a JSON object only: " +
		`{"items": [{"type": "rewrite"|"fill_blank"|"vocabulary", "prompt": string, "hint": string, "answer": string}]}. ` +
		"Write five short exercises that drill the stated weakness. Every item must be answerable in one or two sentences. " +
		"The answer field holds a model solution, not the only acceptable one."

	builder := strings.Builder{}
	builder.WriteString("# Weakness to drill\n")
	builder.WriteString(focus)
	if len(issues) > 0 {
		builder.WriteString("\n\n# Recent issues from this student's essays\n")
		for _, issue := range issues {
			builder.WriteString("- ")
			builder.WriteString(issue)
			builder.WriteString("\n")
		}
	}
	builder.WriteString("\nReturn JSON.")

	return Request{System: system, User: builder.String(), ForceJSON: true}
}

// DrillFeedbackPrompt asks for per-item feedback on a student's drill
// answers. Items and answers are passed through as the JSON documents the
// drill set already stores.
func DrillFeedbackPrompt(itemsJSON, answersJSON string) Request {
	system := "You are an experienced CET writing coach reviewing a student's answers to practice exercises. " +
		"Respond with a JSON object only: " +
		`{"feedback": [{"correct": boolean, "comment": string}]}. ` +
		"Return exactly one feedback entry per item, in item order. Accept any answer that solves the exercise, " +
		"not just the model solution. Comments are one or two sentences, concrete and encouraging."

	builder := strings.Builder{}
	builder.WriteString("# Items\n")
	builder.WriteString(itemsJSON)
	builder.WriteString("\n\n# Student answers\n")
	builder.WriteString(answersJSON)
	builder.WriteString("\nReturn JSON.")

	return Request{System: system, User: builder.String(), ForceJSON: true}
}
