package storage

import (
	"sort"
	"sync"

	"videoAssistant/core"
)

// VideoRegistry owns all per-video state for the process lifetime: info,
// metadata, timestamped transcripts, and conversation history. Everything
// goes through one lock so concurrent requests for the same video cannot
// interleave read-modify-write sequences.
type VideoRegistry struct {
	mu         sync.RWMutex
	info       map[string]core.VideoInfo
	metadata   map[string]core.VideoMetadata
	transcript map[string][]core.TranscriptSnippet
	sessions   map[string][]core.ConversationMessage
	processing map[string]struct{}
	order      []string // processed video ids, oldest first

	maxHistory int
}

func NewVideoRegistry(maxHistory int) *VideoRegistry {
	if maxHistory < 1 {
		maxHistory = 10
	}
	return &VideoRegistry{
		info:       map[string]core.VideoInfo{},
		metadata:   map[string]core.VideoMetadata{},
		transcript: map[string][]core.TranscriptSnippet{},
		sessions:   map[string][]core.ConversationMessage{},
		processing: map[string]struct{}{},
		maxHistory: maxHistory,
	}
}

// Claim atomically marks a video as being processed. It returns false when
// the video is already processed or another request is processing it, so
// concurrent process calls collapse into one index build.
func (r *VideoRegistry) Claim(videoID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.info[videoID]; ok {
		return false
	}
	if _, ok := r.processing[videoID]; ok {
		return false
	}
	r.processing[videoID] = struct{}{}
	return true
}

// Unclaim releases a claim after a failed build so the video can be retried.
func (r *VideoRegistry) Unclaim(videoID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.processing, videoID)
}

// Complete records the build result and releases the claim.
func (r *VideoRegistry) Complete(videoID string, info core.VideoInfo, metadata core.VideoMetadata, snippets []core.TranscriptSnippet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.processing, videoID)
	r.info[videoID] = info
	r.metadata[videoID] = metadata
	r.transcript[videoID] = snippets
	r.order = append(r.order, videoID)
}

func (r *VideoRegistry) IsProcessed(videoID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.info[videoID]
	return ok
}

// LatestVideoID returns the most recently processed video id.
func (r *VideoRegistry) LatestVideoID() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return "", false
	}
	return r.order[len(r.order)-1], true
}

func (r *VideoRegistry) Info(videoID string) (core.VideoInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.info[videoID]
	return info, ok
}

func (r *VideoRegistry) Metadata(videoID string) (core.VideoMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	metadata, ok := r.metadata[videoID]
	return metadata, ok
}

func (r *VideoRegistry) Transcript(videoID string) ([]core.TranscriptSnippet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snippets, ok := r.transcript[videoID]
	if !ok {
		return nil, false
	}
	out := make([]core.TranscriptSnippet, len(snippets))
	copy(out, snippets)
	return out, true
}

// AppendConversation appends turns and evicts the oldest entries past the
// stored-history bound in one critical section, preserving the FIFO
// invariant under concurrent askers.
func (r *VideoRegistry) AppendConversation(videoID string, messages ...core.ConversationMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session := append(r.sessions[videoID], messages...)
	if len(session) > r.maxHistory {
		session = session[len(session)-r.maxHistory:]
	}
	r.sessions[videoID] = session
}

func (r *VideoRegistry) Conversation(videoID string) ([]core.ConversationMessage, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[videoID]
	if !ok {
		return nil, false
	}
	out := make([]core.ConversationMessage, len(session))
	copy(out, session)
	return out, true
}

// ClearConversation empties a video's history. Returns false when no
// conversation exists for the id.
func (r *VideoRegistry) ClearConversation(videoID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[videoID]; !ok {
		return false
	}
	r.sessions[videoID] = nil
	return true
}

// Delete removes every trace of a video. Returns false when the id is
// unknown.
func (r *VideoRegistry) Delete(videoID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.info[videoID]; !ok {
		return false
	}
	delete(r.info, videoID)
	delete(r.metadata, videoID)
	delete(r.transcript, videoID)
	delete(r.sessions, videoID)
	for i, id := range r.order {
		if id == videoID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns all processed videos sorted by id for stable output.
func (r *VideoRegistry) List() []core.VideoListEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]core.VideoListEntry, 0, len(r.info))
	for id, info := range r.info {
		entries = append(entries, core.VideoListEntry{VideoID: id, Info: info, Processed: true})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].VideoID < entries[j].VideoID })
	return entries
}
