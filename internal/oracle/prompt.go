// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package oracle

import (
	"bytes"
	"text/template"
)

// planPromptTmpl asks the model for a research plan. Per prd013-oracle R2.1.
var planPromptTmpl = template.Must(template.New("plan").Parse(`You are an expert biomedical researcher specializing in drug target discovery.
Create a research plan for identifying the best protein targets for: {{.Disease}}

Consider:
1. Disease type (genetic, autoimmune, infectious, metabolic, neurodegenerative, etc.)
2. Known biology and mechanisms
3. Which databases would be most valuable for THIS specific disease
4. What hypotheses to test

Available databases:
{{.Catalog}}

Respond with a JSON object only:
{"disease_name": "standardized disease name", "disease_type": "category", "key_hypotheses": ["..."], "priority_pathways": ["..."], "search_strategy": "overall strategy", "source_sequence": [{"source": "tag", "rationale": "why", "expected_outcome": "what to learn"}], "rationale": "overall rationale"}
`))

// selectPromptTmpl asks the model to pick the next source. Per R3.1.
var selectPromptTmpl = template.Must(template.New("select").Parse(`You are deciding which biomedical database to query next for protein target discovery.

Current research state:
{{.StateSummary}}

Sources already used: {{.Used}}
Available sources: {{.Available}}

Consider what information gaps remain and whether to go deeper on current
candidates or broaden the search.

Respond with a JSON object only:
{"source": "tag", "rationale": "why this source", "expected_outcome": "what you expect to learn"}

If you have enough information, respond:
{"source": "DONE", "rationale": "why no more searches are needed"}
`))

// analyzePromptTmpl asks the model to assess one result batch. Per R4.1.
var analyzePromptTmpl = template.Must(template.New("analyze").Parse(`You are analyzing search results from {{.Source}} for protein target discovery.

Disease: {{.Disease}}
Research hypotheses: {{.Hypotheses}}

Search results summary:
{{.ResultsSummary}}

Top results:
{{.TopResults}}

Analyze: which proteins/genes were identified, how confident you are, what
gaps remain, and whether to continue searching.

Respond with a JSON object only:
{"results_summary": "brief summary", "key_proteins_found": ["GENE1", "GENE2"], "confidence_level": "low|medium|high", "gaps_identified": ["..."], "next_steps": ["..."], "should_continue": true, "reasoning": "detailed reasoning"}
`))

// synthesizePromptTmpl asks for a per-target narrative. Per R4.5.
var synthesizePromptTmpl = template.Must(template.New("synthesize").Parse(`You are synthesizing evidence for protein target: {{.Gene}}

Disease: {{.Disease}}

Evidence from multiple sources:
{{.Evidence}}

Write a concise assessment (one paragraph) covering the strength of
evidence, the mechanistic link to the disease, and druggability. Plain
text, no JSON.
`))

// concludePromptTmpl asks for the final run narrative. Per R4.6.
var concludePromptTmpl = template.Must(template.New("conclude").Parse(`You are providing a final synthesis of protein target discovery for: {{.Disease}}

Research journey:
{{.Trace}}

Top targets identified:
{{.TopTargets}}

Summarize the key findings, why the top targets were selected, the
biological rationale, limitations, and suggested validation steps.
Write 2-3 paragraphs of plain text.
`))

// render executes a prompt template against its input.
func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
