package post

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/campusconnect/forum/internal/domain"
)

// buildHashFields converts a domain Post into a flat map[string]string for HSET.
// Vote counts are derived from the vote sets, never stored on the hash.
func buildHashFields(p *domain.Post) map[string]string {
	tags, _ := json.Marshal(p.Tags)
	return map[string]string{
		"author_id":       p.AuthorID,
		"author_name":     p.AuthorName,
		"title":           p.Title,
		"content":         p.Content,
		"department":      p.Department,
		"summary":         p.Summary,
		"sentiment_score": strconv.FormatFloat(p.Sentiment.Score, 'f', -1, 64),
		"sentiment_label": p.Sentiment.Label,
		"tags":            string(tags),
		"vector":          vectorToBytes(p.Embedding),
		"comment_count":   strconv.Itoa(p.CommentCount),
		"created_at":      strconv.FormatInt(p.CreatedAt.UnixNano(), 10),
		"updated_at":      strconv.FormatInt(p.UpdatedAt.UnixNano(), 10),
	}
}

// parseHashFields converts a flat hash map back into a domain Post.
func parseHashFields(id string, m map[string]string) domain.Post {
	p := domain.Post{
		ID:         id,
		AuthorID:   m["author_id"],
		AuthorName: m["author_name"],
		Title:      m["title"],
		Content:    m["content"],
		Department: m["department"],
		Summary:    m["summary"],
		Embedding:  bytesToVector(m["vector"]),
	}
	p.Sentiment.Label = m["sentiment_label"]
	if f, err := strconv.ParseFloat(m["sentiment_score"], 64); err == nil {
		p.Sentiment.Score = f
	}
	if m["tags"] != "" {
		_ = json.Unmarshal([]byte(m["tags"]), &p.Tags)
	}
	if n, err := strconv.Atoi(m["comment_count"]); err == nil {
		p.CommentCount = n
	}
	if ns, err := strconv.ParseInt(m["created_at"], 10, 64); err == nil {
		p.CreatedAt = time.Unix(0, ns)
	}
	if ns, err := strconv.ParseInt(m["updated_at"], 10, 64); err == nil {
		p.UpdatedAt = time.Unix(0, ns)
	}
	return p
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
