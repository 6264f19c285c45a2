package migration

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"text/template"
	"time"
)

const versionLayout = "20060102150405"

var (
	upTemplate = template.Must(template.New("up").Parse(`-- {{.Name}}
-- Created: {{.Timestamp}}
{{- if .Description}}
-- {{.Description}}
{{- end}}

`))
	downTemplate = template.Must(template.New("down").Parse(`-- Rollback {{.Name}}
-- Created: {{.Timestamp}}

`))

	// ErrEmptyName is returned when a name sanitizes to nothing.
	ErrEmptyName = errors.New("migration name is empty")

	unsafeChars = regexp.MustCompile(`[^a-z0-9_]+`)
	separators  = regexp.MustCompile(`[\s\-_]+`)
	fileName    = regexp.MustCompile(`^(\d+)_([a-z0-9_]+)\.(up|down)\.sql$`)
)

// MigrationFile is a newly created up/down pair.
type MigrationFile struct {
	Version     string
	Name        string
	Description string
	Timestamp   string
	UpPath      string
	DownPath    string
}

// MigrationInfo describes a migration found on disk.
type MigrationInfo struct {
	Version string
	Name    string
	HasUp   bool
	HasDown bool
}

// BaseName returns the file prefix shared by the up and down scripts.
func (i MigrationInfo) BaseName() string {
	return i.Version + "_" + i.Name
}

// CreateMigration writes an empty up/down pair versioned by the current time.
func CreateMigration(migrationsDir, name, description string) (*MigrationFile, error) {
	return createMigrationAt(migrationsDir, name, description, time.Now())
}

func createMigrationAt(migrationsDir, name, description string, now time.Time) (*MigrationFile, error) {
	safe := sanitizeName(name)
	if safe == "" {
		return nil, ErrEmptyName
	}
	if err := os.MkdirAll(migrationsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	version := now.UTC().Format(versionLayout)
	base := filepath.Join(migrationsDir, version+"_"+safe)
	mf := &MigrationFile{
		Version:     version,
		Name:        safe,
		Description: description,
		Timestamp:   now.UTC().Format(time.RFC3339),
		UpPath:      base + ".up.sql",
		DownPath:    base + ".down.sql",
	}

	if err := writeTemplate(mf.UpPath, upTemplate, mf); err != nil {
		return nil, err
	}
	if err := writeTemplate(mf.DownPath, downTemplate, mf); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, err
	}
	return mf, nil
}

func writeTemplate(path string, tmpl *template.Template, data *MigrationFile) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", filepath.Base(path), err)
	}
	return nil
}

// sanitizeName lowercases name and collapses separators to single underscores.
func sanitizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = separators.ReplaceAllString(s, "_")
	s = unsafeChars.ReplaceAllString(s, "")
	return strings.Trim(s, "_")
}

// ListMigrations returns the migrations in dir ordered by version. Files that
// do not follow the <version>_<name>.(up|down).sql pattern are ignored.
func ListMigrations(migrationsDir string) ([]MigrationInfo, error) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []MigrationInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	byBase := make(map[string]*MigrationInfo)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := fileName.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		key := m[1] + "_" + m[2]
		info, ok := byBase[key]
		if !ok {
			info = &MigrationInfo{Version: m[1], Name: m[2]}
			byBase[key] = info
		}
		if m[3] == "up" {
			info.HasUp = true
		} else {
			info.HasDown = true
		}
	}

	out := make([]MigrationInfo, 0, len(byBase))
	for _, info := range byBase {
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].Version) != len(out[j].Version) {
			return len(out[i].Version) < len(out[j].Version)
		}
		return out[i].Version < out[j].Version
	})
	return out, nil
}

// Unpaired returns the base names of migrations missing an up or down script.
func Unpaired(migrations []MigrationInfo) []string {
	var out []string
	for _, m := range migrations {
		if !m.HasUp || !m.HasDown {
			out = append(out, m.BaseName())
		}
	}
	return out
}
