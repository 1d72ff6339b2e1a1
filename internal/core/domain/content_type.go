package domain

// ProgrammingLanguage is the closed set of languages the code splitter and
// content detector recognise.
type ProgrammingLanguage string

const (
	LangUnknown    ProgrammingLanguage = "unknown"
	LangRust       ProgrammingLanguage = "rust"
	LangTypeScript ProgrammingLanguage = "typescript"
	LangJavaScript ProgrammingLanguage = "javascript"
	LangPython     ProgrammingLanguage = "python"
	LangGo         ProgrammingLanguage = "go"
)

// ContentTypeKind is the discriminant of a ContentType variant.
type ContentTypeKind string

const (
	ContentText     ContentTypeKind = "text"
	ContentMarkdown ContentTypeKind = "markdown"
	ContentHTML     ContentTypeKind = "html"
	ContentPDF      ContentTypeKind = "pdf"
	ContentCode     ContentTypeKind = "code"
	ContentJSON     ContentTypeKind = "json"
	ContentYAML     ContentTypeKind = "yaml"
	ContentUnknown  ContentTypeKind = "unknown"
)

// ContentType is a closed variant: Kind discriminates the case, and Lang is
// populated only when Kind == ContentCode.
type ContentType struct {
	Kind ContentTypeKind
	Lang ProgrammingLanguage
}

// Code constructs a ContentType for a code file in the given language.
func Code(lang ProgrammingLanguage) ContentType {
	return ContentType{Kind: ContentCode, Lang: lang}
}

// String renders a ContentType for logging and metadata, e.g. "code(go)".
func (c ContentType) String() string {
	if c.Kind == ContentCode {
		return "code(" + string(c.Lang) + ")"
	}
	return string(c.Kind)
}

// Language is the natural-language tag used for filtering, independent from
// ContentType's programming-language tag.
type Language string

const (
	LanguagePortuguese Language = "portuguese"
	LanguageEnglish    Language = "english"
	LanguageSpanish    Language = "spanish"
	LanguageUnknown    Language = "unknown"
)
