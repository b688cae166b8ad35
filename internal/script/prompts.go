package script

import (
	"strings"

	"papercast/internal/models"
)

const (
	opIsRelevantPaper  = "is_relevant_paper"
	opSummarizeSection = "summarize_section"
	opWriteScript      = "write_script"
	opEvaluateScript   = "evaluate_script"
)

const relevancePromptTemplate = `You screen research papers for a technical podcast about
machine learning and systems. Decide whether the paper below fits the show.
Answer with the single word "yes" or "no" and nothing else.

Title: %TITLE%
Authors: %AUTHORS%
Abstract: %ABSTRACT%`

const summarizePromptTemplate = `You prepare material for a two-host technical podcast.
Summarize the following section of the paper "%TITLE%" for a listener who has
not read it. Keep the summary self-contained and concrete.

Return STRICT JSON: {"summary": "..."}

Section: %SECTION%

Text:
%TEXT%`

const composePromptTemplate = `You write dialogue scripts for a two-host technical podcast.
Speakers are "Speaker1" and "Speaker2"; every line starts with the speaker
name and a colon. Cover the paper from introduction to conclusion using the
section summaries below. Keep the tone conversational but precise.

Return STRICT JSON: {"script": "..."}

Title: %TITLE%
Authors: %AUTHORS%
Abstract: %ABSTRACT%

%SUMMARIES%%FEEDBACK%`

const evaluatePromptTemplate = `You review podcast scripts before recording. Judge whether the
script below is faithful to the paper, flows as a dialogue, and is free of
filler. If it is not ready, explain what to fix.

Return STRICT JSON: {"is_valid": true|false, "feedback_message": "..."}

Title: %TITLE%

Script:
%SCRIPT%`

func buildRelevancePrompt(p models.Paper) string {
	return fillPaper(relevancePromptTemplate, p)
}

func buildSummarizePrompt(p models.Paper, sec models.Section, text string) string {
	out := strings.ReplaceAll(summarizePromptTemplate, "%TITLE%", p.Title)
	out = strings.ReplaceAll(out, "%SECTION%", sec.Key())
	return strings.ReplaceAll(out, "%TEXT%", text)
}

func buildComposePrompt(p models.Paper, summaries *SummaryList, feedback []string) string {
	var b strings.Builder
	b.WriteString("Section summaries:\n")
	for _, s := range summaries.Entries() {
		b.WriteString("## ")
		b.WriteString(s.Section.Key())
		b.WriteString("\n")
		b.WriteString(s.Summary)
		b.WriteString("\n\n")
	}

	fb := ""
	if len(feedback) > 0 {
		var f strings.Builder
		f.WriteString("Feedback on earlier drafts, address every point:\n")
		for _, msg := range feedback {
			f.WriteString("- ")
			f.WriteString(msg)
			f.WriteString("\n")
		}
		fb = f.String()
	}

	out := fillPaper(composePromptTemplate, p)
	out = strings.ReplaceAll(out, "%SUMMARIES%", b.String())
	return strings.ReplaceAll(out, "%FEEDBACK%", fb)
}

func buildEvaluatePrompt(p models.Paper, draft string) string {
	out := strings.ReplaceAll(evaluatePromptTemplate, "%TITLE%", p.Title)
	return strings.ReplaceAll(out, "%SCRIPT%", draft)
}

func fillPaper(template string, p models.Paper) string {
	out := strings.ReplaceAll(template, "%TITLE%", p.Title)
	out = strings.ReplaceAll(out, "%AUTHORS%", strings.Join(p.Authors, ", "))
	return strings.ReplaceAll(out, "%ABSTRACT%", p.Abstract)
}
