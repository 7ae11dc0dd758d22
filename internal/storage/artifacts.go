// ABOUTME: Artifact filename conventions, current and legacy
// ABOUTME: The scanner tries each convention in a fixed priority order
package storage

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ArtifactKind classifies what a log file holds.
type ArtifactKind string

const (
	ArtifactChapterOutline ArtifactKind = "chapter_outline"
	ArtifactChapterContent ArtifactKind = "chapter_content"
	ArtifactChapterFull    ArtifactKind = "chapter_full"
	ArtifactSceneOutline   ArtifactKind = "scene_outline"
	ArtifactSceneContent   ArtifactKind = "scene_content"
	ArtifactRawOutline     ArtifactKind = "raw_outline"
)

// Current filenames written by this version of the generator.

// ChapterOutlineFile names the chapter outline artifact.
func ChapterOutlineFile(chapter int) string {
	return fmt.Sprintf("chapter_outline_%d.md", chapter)
}

// ChapterContentFile names the assembled chapter prose artifact.
func ChapterContentFile(chapter int) string {
	return fmt.Sprintf("chapter_content_%d.md", chapter)
}

// ChapterFile names the structured chapter artifact.
func ChapterFile(chapter int) string {
	return fmt.Sprintf("chapter_%d.json", chapter)
}

// SceneOutlineFile names a scene outline artifact.
func SceneOutlineFile(chapter, scene int) string {
	return fmt.Sprintf("scene_outline_%d_%d.md", chapter, scene)
}

// SceneContentFile names a scene prose artifact.
func SceneContentFile(chapter, scene int) string {
	return fmt.Sprintf("scene_content_%d_%d.md", chapter, scene)
}

// RawOutlineFile names the raw outline text artifact.
func RawOutlineFile() string {
	return "outline_raw.md"
}

// classification is the result of matching a filename against the known
// conventions.
type classification struct {
	Kind    ArtifactKind
	Chapter int
	Scene   int
}

// timestampSuffix matches legacy timestamp-suffixed variants, e.g.
// chapter_outline_3_20240101120000.
var timestampSuffix = regexp.MustCompile(`_\d{8,14}$`)

// conventions, in priority order: the current direct-numeric-suffix
// names first, then the legacy keyword-split names. Timestamp suffixes
// are stripped before matching, which makes each convention also accept
// its timestamped variant.
var conventions = []struct {
	re   *regexp.Regexp
	kind ArtifactKind
	args int // number of captured indices: 1 = chapter, 2 = chapter+scene
}{
	// Current convention: direct numeric suffix.
	{regexp.MustCompile(`^chapter_outline_(\d+)$`), ArtifactChapterOutline, 1},
	{regexp.MustCompile(`^chapter_content_(\d+)$`), ArtifactChapterContent, 1},
	{regexp.MustCompile(`^chapter_(\d+)$`), ArtifactChapterFull, 1},
	{regexp.MustCompile(`^scene_outline_(\d+)_(\d+)$`), ArtifactSceneOutline, 2},
	{regexp.MustCompile(`^scene_content_(\d+)_(\d+)$`), ArtifactSceneContent, 2},
	{regexp.MustCompile(`^outline_raw$|^outline$`), ArtifactRawOutline, 0},
	// Legacy convention: prefix/number split on the chapter/scene keyword.
	{regexp.MustCompile(`^outline_chapter_?(\d+)$`), ArtifactChapterOutline, 1},
	{regexp.MustCompile(`^content_chapter_?(\d+)$`), ArtifactChapterContent, 1},
	{regexp.MustCompile(`^outline_chapter_?(\d+)_scene_?(\d+)$`), ArtifactSceneOutline, 2},
	{regexp.MustCompile(`^content_chapter_?(\d+)_scene_?(\d+)$`), ArtifactSceneContent, 2},
}

// classifyArtifact resolves a log filename to an artifact kind and its
// chapter/scene numbers, tolerating every naming convention the project
// has used over its lifetime. The first matching convention wins.
func classifyArtifact(name string) (classification, bool) {
	base := name
	for _, ext := range []string{".md", ".txt", ".json", ".log"} {
		if strings.HasSuffix(base, ext) {
			base = strings.TrimSuffix(base, ext)
			break
		}
	}
	stripped := timestampSuffix.ReplaceAllString(base, "")

	for _, candidate := range []string{stripped, base} {
		for _, conv := range conventions {
			m := conv.re.FindStringSubmatch(candidate)
			if m == nil {
				continue
			}
			c := classification{Kind: conv.kind}
			if conv.args >= 1 {
				c.Chapter, _ = strconv.Atoi(m[1])
			}
			if conv.args >= 2 {
				c.Scene, _ = strconv.Atoi(m[2])
			}
			return c, true
		}
	}
	return classification{}, false
}
