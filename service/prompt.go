package service

import "fmt"

const noMatchDisclaimer = "⚠️ There were no direct matches to this question. Below are general HOA rules that might still help you respond.<br><br>"

const promptTemplate = `You are an HOA policy assistant. Based on the provided Clause data, answer the resident’s question in clear, friendly, and accurate language.

Resident Question:
%s

%s
Below are relevant Clause matches:
%s

Write your response in this format:
1. Brief summary of each Clause that might apply
2. State whether the rules clearly answer the question
3. If unclear, suggest checking with the ARC
4. Always close with: “If you have any other questions, feel free to ask!”

Use HTML for citations like this: <a href="link" target="_blank">Art. VI</a>

---

Final Answer:
`

// BuildPrompt assembles the generation prompt. noMatches adds a disclaimer
// that the clauses are general rules rather than direct matches.
func BuildPrompt(question, clauseBlock string, noMatches bool) string {
	disclaimer := ""
	if noMatches {
		disclaimer = noMatchDisclaimer
	}
	return fmt.Sprintf(promptTemplate, question, disclaimer, clauseBlock)
}
