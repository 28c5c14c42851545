package shared

import "fmt"

// LikeCountKey builds redis keys for cached like counts.
func LikeCountKey(postID string) string {
	return fmt.Sprintf("post:%s:likes", postID)
}
