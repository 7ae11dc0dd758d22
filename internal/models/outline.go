// ABOUTME: Outline types for the chapter/scene tree of a book project
// ABOUTME: Canonical internal representation every other component relies on
package models

// SceneOutline describes one planned scene within a chapter.
type SceneOutline struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ChapterOutline describes one planned chapter and its scenes.
type ChapterOutline struct {
	Number      int            `json:"number"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Scenes      []SceneOutline `json:"scenes,omitempty"`
}

// Outline is the ordered chapter plan for a whole book.
// Chapter numbers are contiguous from 1; scene numbers are contiguous
// from 1 within their chapter. Chapters and scenes are append-only once
// numbered.
type Outline struct {
	Chapters []ChapterOutline `json:"chapters"`
}

// ChapterCount returns the number of planned chapters.
func (o *Outline) ChapterCount() int {
	return len(o.Chapters)
}

// IsEmpty reports whether the outline has no chapters.
func (o *Outline) IsEmpty() bool {
	return len(o.Chapters) == 0
}

// Chapter returns the chapter outline with the given 1-based number, or nil.
func (o *Outline) Chapter(number int) *ChapterOutline {
	for i := range o.Chapters {
		if o.Chapters[i].Number == number {
			return &o.Chapters[i]
		}
	}
	return nil
}

// Normalize assigns 1-based positional numbers to any chapter or scene
// left with number 0, then renumbers everything positionally if the
// resulting sequence is not contiguous from 1. Legacy outline formats did
// not track numbers explicitly, and free-form generator output sometimes
// numbers chapters out of sequence.
func (o *Outline) Normalize() {
	contiguous := true
	for i := range o.Chapters {
		ch := &o.Chapters[i]
		if ch.Number == 0 {
			ch.Number = i + 1
		}
		if ch.Number != i+1 {
			contiguous = false
		}
		ch.normalizeScenes()
	}
	if !contiguous {
		for i := range o.Chapters {
			o.Chapters[i].Number = i + 1
		}
	}
}

func (c *ChapterOutline) normalizeScenes() {
	contiguous := true
	for i := range c.Scenes {
		sc := &c.Scenes[i]
		if sc.Number == 0 {
			sc.Number = i + 1
		}
		if sc.Number != i+1 {
			contiguous = false
		}
	}
	if !contiguous {
		for i := range c.Scenes {
			c.Scenes[i].Number = i + 1
		}
	}
}
