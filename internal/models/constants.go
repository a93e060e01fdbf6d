package models

// Pipeline defaults. MaxTokens is tuned down from the embedding model's
// 8191-token context because Arabic text expands in tokens.
const (
	MaxTokens       = 4000
	EmbedBatchSize  = 10
	DefaultTopK     = 5
	MaxContextChars = 24000

	ChatTemperature = 0.7
	ChatMaxTokens   = 1000
)

// Metadata keys of a stored chunk record.
const (
	MetaFilename        = "filename"
	MetaPageNumbers     = "page_numbers"
	MetaTitle           = "title"
	MetaLanguage        = "language"
	MetaArabicCharCount = "arabic_char_count"
	MetaChunkQuality    = "chunk_quality"
)

var (
	SystemPromptTemplate = `You are a helpful report analyst assistant that answers questions based on the ingested report.
Use only the information from the provided context to answer questions. If you're unsure or the context
doesn't contain the relevant information, say so.

Context from the report:
%s

Remember to respond in the same language as the user's query.`

	SystemPromptTemplateArabic = `أنت مساعد ذكي متخصص في تحليل التقارير. أجب على الأسئلة بناءً على المعلومات المقدمة في السياق.
استخدم فقط المعلومات من السياق المقدم للإجابة على الأسئلة. إذا لم تكن متأكداً أو لم يحتوي السياق على المعلومات ذات الصلة، قل ذلك.

السياق من التقرير:
%s

تذكر أن تجيب باللغة العربية إذا كان السؤال بالعربية.`
)
