// Package agent orchestrates the dispatch pipeline: solar forecast,
// grounded-knowledge retrieval and MILP dispatch optimization, narrated by a
// language model through a tool-calling loop. When no language model is
// configured the agent runs the same pipeline offline and renders a plain
// text analysis.
package agent
