// ABOUTME: ProjectStore owns the on-disk layout of one book project
// ABOUTME: metadata.md/.json, logs/, cache/, outline.json, completion marker
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/AuthorWorks/bookforge/internal/models"
)

const (
	metadataMDFile   = "metadata.md"
	metadataJSONFile = "metadata.json"
	outlineFile      = "outline.json"
	completeMarker   = ".complete"
	logsDirName      = "logs"
	cacheDirName     = "cache"
)

// MetadataEntry is one timestamped phase output.
type MetadataEntry struct {
	Text      string    `json:"text"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Metadata is the per-project record of phase outputs. metadata.json is
// the machine-readable source; metadata.md mirrors it for humans.
type Metadata struct {
	Title   string                   `json:"title"`
	Entries map[string]MetadataEntry `json:"entries"`
}

// ProjectStore reads and writes a single project directory. Resumption
// depends on this layout, so it is a stable contract.
type ProjectStore struct {
	dir string
}

// Open prepares a project directory, creating the layout if needed.
func Open(dir string) (*ProjectStore, error) {
	for _, sub := range []string{dir, filepath.Join(dir, logsDirName), filepath.Join(dir, cacheDirName)} {
		if err := os.MkdirAll(sub, 0755); err != nil {
			return nil, fmt.Errorf("creating project directory %s: %w", sub, err)
		}
	}
	return &ProjectStore{dir: dir}, nil
}

// Dir returns the project root.
func (p *ProjectStore) Dir() string { return p.dir }

// LogsDir returns the artifact log directory.
func (p *ProjectStore) LogsDir() string { return filepath.Join(p.dir, logsDirName) }

// CacheDir returns the summary cache directory.
func (p *ProjectStore) CacheDir() string { return filepath.Join(p.dir, cacheDirName) }

// writeFileAtomic replaces path with data in one rename so the store
// survives being killed between any two writes.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// SaveMetadata persists both the JSON record and its markdown mirror.
func (p *ProjectStore) SaveMetadata(meta *Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(p.dir, metadataJSONFile), data); err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(p.dir, metadataMDFile), []byte(renderMetadataMD(meta)))
}

// LoadMetadata reads metadata.json, falling back to parsing the markdown
// mirror when the JSON is missing or corrupt. A project with neither
// returns an empty record.
func (p *ProjectStore) LoadMetadata() (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(p.dir, metadataJSONFile))
	if err == nil {
		var meta Metadata
		if jsonErr := json.Unmarshal(data, &meta); jsonErr == nil {
			if meta.Entries == nil {
				meta.Entries = map[string]MetadataEntry{}
			}
			return &meta, nil
		}
	}

	mdData, mdErr := os.ReadFile(filepath.Join(p.dir, metadataMDFile))
	if mdErr != nil {
		if os.IsNotExist(mdErr) && (err == nil || os.IsNotExist(err)) {
			return &Metadata{Entries: map[string]MetadataEntry{}}, nil
		}
		return nil, fmt.Errorf("%w: metadata unreadable: %v", models.ErrSerialization, mdErr)
	}
	return parseMetadataMD(string(mdData)), nil
}

// SetPhaseResult records one phase output in the metadata store.
func (p *ProjectStore) SetPhaseResult(phase models.Phase, text string) error {
	meta, err := p.LoadMetadata()
	if err != nil {
		meta = &Metadata{Entries: map[string]MetadataEntry{}}
	}
	meta.Entries[string(phase)] = MetadataEntry{Text: text, UpdatedAt: time.Now()}
	return p.SaveMetadata(meta)
}

// PhaseResult returns a previously persisted phase output, if any.
func (p *ProjectStore) PhaseResult(phase models.Phase) (string, bool) {
	meta, err := p.LoadMetadata()
	if err != nil {
		return "", false
	}
	entry, ok := meta.Entries[string(phase)]
	if !ok || strings.TrimSpace(entry.Text) == "" {
		return "", false
	}
	return entry.Text, true
}

// SaveOutline serializes the outline as the fallback source of truth.
func (p *ProjectStore) SaveOutline(outline *models.Outline) error {
	data, err := json.MarshalIndent(outline, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling outline: %w", err)
	}
	return writeFileAtomic(filepath.Join(p.dir, outlineFile), data)
}

// LoadOutline reads outline.json. Missing or corrupt files report an
// ErrSerialization the caller downgrades to "treat as missing".
func (p *ProjectStore) LoadOutline() (*models.Outline, error) {
	data, err := os.ReadFile(filepath.Join(p.dir, outlineFile))
	if err != nil {
		return nil, fmt.Errorf("%w: outline.json: %v", models.ErrSerialization, err)
	}
	var outline models.Outline
	if err := json.Unmarshal(data, &outline); err != nil {
		return nil, fmt.Errorf("%w: outline.json: %v", models.ErrSerialization, err)
	}
	return &outline, nil
}

// WriteArtifact persists one generation-call artifact under logs/.
func (p *ProjectStore) WriteArtifact(name, text string) error {
	return writeFileAtomic(filepath.Join(p.LogsDir(), name), []byte(text))
}

// ReadArtifact reads one artifact from logs/.
func (p *ProjectStore) ReadArtifact(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(p.LogsDir(), name))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SaveChapter persists the structured chapter artifact.
func (p *ProjectStore) SaveChapter(ch *models.Chapter) error {
	data, err := json.MarshalIndent(ch, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling chapter %d: %w", ch.Number, err)
	}
	return writeFileAtomic(filepath.Join(p.LogsDir(), ChapterFile(ch.Number)), data)
}

// MarkComplete drops the completion marker that short-circuits all
// regeneration.
func (p *ProjectStore) MarkComplete() error {
	marker := fmt.Sprintf("completed %s\n", time.Now().Format(time.RFC3339))
	return writeFileAtomic(filepath.Join(p.dir, completeMarker), []byte(marker))
}

// IsComplete reports whether the completion marker exists.
func (p *ProjectStore) IsComplete() bool {
	_, err := os.Stat(filepath.Join(p.dir, completeMarker))
	return err == nil
}

// renderMetadataMD renders the human-readable mirror, one timestamped
// section per phase output, in stable order.
func renderMetadataMD(meta *Metadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", meta.Title)

	keys := make([]string, 0, len(meta.Entries))
	for k := range meta.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		entry := meta.Entries[k]
		fmt.Fprintf(&b, "\n## %s — %s\n\n%s\n", k, entry.UpdatedAt.Format(time.RFC3339), entry.Text)
	}
	return b.String()
}

// parseMetadataMD best-effort recovers phase outputs from the markdown
// mirror when metadata.json is unusable.
func parseMetadataMD(text string) *Metadata {
	meta := &Metadata{Entries: map[string]MetadataEntry{}}
	var (
		key   string
		when  time.Time
		lines []string
	)
	flush := func() {
		if key != "" {
			meta.Entries[key] = MetadataEntry{
				Text:      strings.TrimSpace(strings.Join(lines, "\n")),
				UpdatedAt: when,
			}
		}
		lines = nil
	}
	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "# "):
			meta.Title = strings.TrimSpace(strings.TrimPrefix(line, "# "))
		case strings.HasPrefix(line, "## "):
			flush()
			header := strings.TrimSpace(strings.TrimPrefix(line, "## "))
			key = header
			when = time.Time{}
			if name, stamp, ok := strings.Cut(header, " — "); ok {
				key = strings.TrimSpace(name)
				if t, err := time.Parse(time.RFC3339, strings.TrimSpace(stamp)); err == nil {
					when = t
				}
			}
		default:
			if key != "" {
				lines = append(lines, line)
			}
		}
	}
	flush()
	return meta
}
