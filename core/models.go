package core

// ========== Chunk and retrieval types ==========

// ChunkKind tags where a chunk's text came from.
type ChunkKind string

const (
	ChunkTranscript ChunkKind = "transcript"
	ChunkMetadata   ChunkKind = "metadata"
	ChunkWeb        ChunkKind = "web"
)

// Chunk is one indexed fragment of transcript or metadata text.
// ChunkIndex is -1 for chunks that have no position in the transcript
// (metadata chunks); StartTime is nil when the chunk carries no timestamp.
type Chunk struct {
	Text        string    `json:"text"`
	ChunkIndex  int       `json:"chunk_index"`
	TotalChunks int       `json:"total_chunks"`
	Kind        ChunkKind `json:"kind"`
	Source      string    `json:"source"`
	StartTime   *float64  `json:"start_time,omitempty"`
}

// SourceRecord is the per-chunk provenance entry returned with an answer.
type SourceRecord struct {
	Text      string `json:"text"`
	Type      string `json:"type"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp,omitempty"`
}

// WebDocument is one piece of externally retrieved web content: either a
// search result (title + snippet) or fetched page text.
type WebDocument struct {
	Text   string `json:"text"`
	URL    string `json:"url"`
	Source string `json:"source"` // "web_search" or "webpage"
}

// ========== Conversation types ==========

type ConversationMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ========== Transcript and summary types ==========

// TranscriptSnippet is one caption line with its timing.
type TranscriptSnippet struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Segment is a time-bounded grouping of transcript text, the unit of
// summarization.
type Segment struct {
	StartTime float64 `json:"start_time"`
	Text      string  `json:"text"`
}

type Highlight struct {
	Timestamp string   `json:"timestamp"`
	MainPoint string   `json:"main_point"`
	SubPoints []string `json:"sub_points"`
}

// ========== Video bookkeeping types ==========

type VideoMetadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ChannelName string   `json:"channel_name"`
	PublishDate string   `json:"publish_date,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Category    string   `json:"category,omitempty"`
	ViewCount   int64    `json:"view_count"`
	LikeCount   int64    `json:"like_count"`
}

type VideoInfo struct {
	Title            string `json:"title"`
	TranscriptLength int    `json:"transcript_length"`
	ChunksCreated    int    `json:"chunks_created"`
	URL              string `json:"url"`
	Channel          string `json:"channel"`
	PublishDate      string `json:"publish_date"`
	Description      string `json:"description"`
}

// ========== Request and response types ==========

type ProcessVideoRequest struct {
	VideoURL string `json:"video_url"`
}

type ProcessVideoResponse struct {
	VideoID          string `json:"video_id"`
	Title            string `json:"title"`
	TranscriptLength int    `json:"transcript_length"`
	ChunksCreated    int    `json:"chunks_created"`
	Status           string `json:"status"`
	Channel          string `json:"channel,omitempty"`
	PublishDate      string `json:"publish_date,omitempty"`
}

type QuestionRequest struct {
	Question            string                `json:"question"`
	VideoID             string                `json:"video_id,omitempty"`
	ConversationHistory []ConversationMessage `json:"conversation_history,omitempty"`
}

// AnswerResult is the unit returned to the caller; never persisted.
type AnswerResult struct {
	Question     string            `json:"question"`
	Answer       string            `json:"answer"`
	Context      []string          `json:"context"`
	Sources      []SourceRecord    `json:"sources"`
	VideoID      string            `json:"video_id"`
	AnswerType   string            `json:"answer_type"` // "video_content" or "hybrid"
	MetadataUsed map[string]string `json:"metadata_used,omitempty"`
}

type SummaryResult struct {
	VideoID        string      `json:"video_id"`
	OverallSummary string      `json:"overall_summary"`
	Highlights     []Highlight `json:"highlights"`
	Status         string      `json:"status"`
}

type ConversationResponse struct {
	VideoID      string                `json:"video_id"`
	Conversation []ConversationMessage `json:"conversation"`
}

type VideoListEntry struct {
	VideoID   string    `json:"video_id"`
	Info      VideoInfo `json:"info"`
	Processed bool      `json:"processed"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
