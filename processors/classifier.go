package processors

import "strings"

// Classification labels the retrieval strategy for a question.
type Classification string

const (
	ClassVideoContent      Classification = "video_content"
	ClassExternalKnowledge Classification = "external_knowledge"
)

// Classifier maps a question to a Classification. The phrase matcher below is
// the default; a model-based classifier can be swapped in without touching the
// orchestrator.
type Classifier interface {
	Classify(question string) Classification
}

// Phrases that indicate the question is about the video itself. Checked first
// and win over external indicators.
var videoIndicators = []string{
	"in this video", "in the video", "speaker says", "speaker mentions",
	"what does the speaker", "according to the video", "video explains",
	"video discusses", "mentioned in", "talked about", "presenter says",
	"host says", "in this episode", "in this conversation",
}

// Phrases that indicate the question needs knowledge beyond the video.
var externalIndicators = []string{
	"is this correct", "is this true", "compare with", "real-world examples",
	"how does this compare", "what are other", "alternative to",
	"in general", "scientific evidence", "scientifically", "research shows",
	"according to experts", "fact check", "verify", "true or false",
}

// PhraseClassifier classifies by case-insensitive substring match against
// fixed phrase lists. Deterministic and side-effect free.
type PhraseClassifier struct{}

func NewPhraseClassifier() *PhraseClassifier {
	return &PhraseClassifier{}
}

func (c *PhraseClassifier) Classify(question string) Classification {
	lower := strings.ToLower(question)

	for _, indicator := range videoIndicators {
		if strings.Contains(lower, indicator) {
			return ClassVideoContent
		}
	}
	for _, indicator := range externalIndicators {
		if strings.Contains(lower, indicator) {
			return ClassExternalKnowledge
		}
	}
	return ClassVideoContent
}
