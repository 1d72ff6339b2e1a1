package driven

// PromptProvider renders a named template against a set of variables into
// the system/user halves of an LLM completion request.
// Implementations may load templates from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptProvider interface {
	// Render looks up templateID and executes it against vars, returning
	// the optional system prompt and the required user prompt.
	Render(templateID string, vars map[string]any) (system string, user string, err error)

	// Reload clears any cached templates, forcing fresh loads on next access.
	// Useful when templates may have been edited on disk.
	Reload()
}

// RagSynthesisTemplate is the built-in template id for the retrieval
// synthesis prompt rendered during ask. Its variables are {query, context,
// low_confidence}.
const RagSynthesisTemplate = "rag-synthesis"
