package prompt

// Built-in default templates, used when the template store has no matching
// active row. Kept deliberately small: one answering template per audience
// and one summary template.

var defaultHybridNormal = &Template{
	Name:     NameHybridRAG,
	UserType: UserTypeNormal,
	Required: []string{"query", "context"},
	Content: `You are a legal assistant helping a member of the public understand legal matters. Explain in plain language, avoid jargon where possible, and remind the user that this is general information rather than legal advice.

{context}
{conversation_history}
QUESTION: {query}

Answer clearly and concisely based on the sources above. If the sources do not cover the question, say so and give general guidance.`,
}

var defaultHybridLawyer = &Template{
	Name:     NameHybridRAG,
	UserType: UserTypeLawyer,
	Required: []string{"query", "context"},
	Content: `You are a legal research assistant for a practicing lawyer. Be precise and thorough: cite the relevant sources from the context, note applicable provisions and their interaction, and flag any gaps or ambiguities in the available material.

{context}
{conversation_history}
QUESTION: {query}

Provide a structured professional analysis grounded in the sources above.`,
}

var defaultSummary = &Template{
	Name:     NameDocumentSummary,
	UserType: UserTypeAll,
	Required: []string{"document_text"},
	Content: `Please provide a concise summary of the following document, covering its purpose, the parties involved, and its key provisions:

{document_text}

Summary:`,
}

func defaultTemplate(name string, userType UserType) (*Template, bool) {
	switch name {
	case NameHybridRAG:
		if userType == UserTypeLawyer {
			return defaultHybridLawyer, true
		}
		return defaultHybridNormal, true
	case NameDocumentSummary:
		return defaultSummary, true
	}
	return nil, false
}
