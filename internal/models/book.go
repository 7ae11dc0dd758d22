// ABOUTME: Book, Chapter, Scene, and Content types filled in during generation
// ABOUTME: Content is written exactly once; regeneration never overwrites it
package models

import (
	"fmt"
	"strings"
)

// Content is the generated prose for a single scene.
type Content struct {
	Text          string `json:"text"`
	ChapterNumber int    `json:"chapter_number"`
	SceneNumber   int    `json:"scene_number"`
}

// IsEmpty reports whether the scene has no generated prose yet.
func (c *Content) IsEmpty() bool {
	return strings.TrimSpace(c.Text) == ""
}

// Scene is a single scene of a chapter with its outline and prose.
type Scene struct {
	Title   string       `json:"title"`
	Outline SceneOutline `json:"outline"`
	Content Content      `json:"content"`
}

// Chapter is one chapter of the book. Content fields fill incrementally
// across the Chapters, Scenes, and Prose phases.
type Chapter struct {
	Number  int            `json:"number"`
	Title   string         `json:"title"`
	Outline ChapterOutline `json:"outline"`
	Scenes  []Scene        `json:"scenes,omitempty"`
	Prose   string         `json:"prose,omitempty"`
}

// Scene returns the scene with the given 1-based number, or nil.
func (c *Chapter) Scene(number int) *Scene {
	for i := range c.Scenes {
		if c.Scenes[i].Outline.Number == number {
			return &c.Scenes[i]
		}
	}
	return nil
}

// AssembleProse concatenates scene prose in scene order into the chapter
// prose field and returns it.
func (c *Chapter) AssembleProse() string {
	var parts []string
	for i := range c.Scenes {
		if !c.Scenes[i].Content.IsEmpty() {
			parts = append(parts, c.Scenes[i].Content.Text)
		}
	}
	c.Prose = strings.Join(parts, "\n\n")
	return c.Prose
}

// Book is the assembled work in progress.
type Book struct {
	Title    string     `json:"title"`
	Chapters []*Chapter `json:"chapters,omitempty"`
}

// AddChapter appends a chapter, rejecting duplicate titles. A duplicate
// title across chapter numbers signals a generator malfunction; the book
// is left unmodified in that case.
func (b *Book) AddChapter(ch *Chapter) error {
	for _, existing := range b.Chapters {
		if existing.Title == ch.Title && existing.Number != ch.Number {
			return fmt.Errorf("%w: %q already used by chapter %d", ErrDuplicateChapterTitle, ch.Title, existing.Number)
		}
	}
	b.Chapters = append(b.Chapters, ch)
	return nil
}

// Chapter returns the chapter with the given number, or nil.
func (b *Book) Chapter(number int) *Chapter {
	for _, ch := range b.Chapters {
		if ch.Number == number {
			return ch
		}
	}
	return nil
}
