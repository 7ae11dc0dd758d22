// ABOUTME: Phase sequence and GenerationContext carried through one run
// ABOUTME: The context is owned by the orchestrator and mutated in place
package models

import "time"

// Phase is one sequential stage of the generation pipeline.
type Phase string

const (
	PhasePremise  Phase = "premise"
	PhaseGenre    Phase = "genre"
	PhaseStyle    Phase = "style"
	PhaseCast     Phase = "cast"
	PhaseSynopsis Phase = "synopsis"
	PhaseOutline  Phase = "outline"
	PhaseChapters Phase = "chapters"
	PhaseScenes   Phase = "scenes"
	PhaseProse    Phase = "prose"
	PhaseDone     Phase = "done"
)

// PhaseOrder is the fixed, linear phase sequence. There is no branching
// and no skipping except reuse of persisted results.
var PhaseOrder = []Phase{
	PhasePremise,
	PhaseGenre,
	PhaseStyle,
	PhaseCast,
	PhaseSynopsis,
	PhaseOutline,
	PhaseChapters,
	PhaseScenes,
	PhaseProse,
	PhaseDone,
}

// Next returns the phase after p, or PhaseDone at the end.
func (p Phase) Next() Phase {
	for i, phase := range PhaseOrder {
		if phase == p && i+1 < len(PhaseOrder) {
			return PhaseOrder[i+1]
		}
	}
	return PhaseDone
}

// Genre names and describes the book's genre.
type Genre struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// HistoryEntry records one prior phase output, append-only.
type HistoryEntry struct {
	Phase     Phase     `json:"phase"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// GenerationContext carries everything upstream phases produced. It is
// owned exclusively by the orchestrator for the duration of one run.
type GenerationContext struct {
	Title       string
	Premise     string
	Genre       Genre
	Style       string
	Cast        []string
	Synopsis    string
	Outline     Outline
	LastSummary *TemporarySummary
	History     []HistoryEntry
}

// AppendHistory records a completed phase output.
func (g *GenerationContext) AppendHistory(phase Phase, text string) {
	g.History = append(g.History, HistoryEntry{
		Phase:     phase,
		Text:      text,
		CreatedAt: time.Now(),
	})
}

// HasPhase reports whether a phase output is already present in the
// context (used for resume decisions on the text phases).
func (g *GenerationContext) HasPhase(phase Phase) bool {
	switch phase {
	case PhasePremise:
		return g.Premise != ""
	case PhaseGenre:
		return g.Genre.Name != ""
	case PhaseStyle:
		return g.Style != ""
	case PhaseCast:
		return len(g.Cast) > 0
	case PhaseSynopsis:
		return g.Synopsis != ""
	case PhaseOutline:
		return !g.Outline.IsEmpty()
	}
	return false
}
