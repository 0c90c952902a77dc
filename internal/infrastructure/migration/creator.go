package migration

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
)

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
)

var (
	// ErrEmptyName is returned when a migration name has no usable characters.
	ErrEmptyName = errors.New("migration name is empty after sanitizing")
	// ErrMissingDown is returned by Validate when an up file has no rollback.
	ErrMissingDown = errors.New("migration has no down file")
	// ErrDuplicateVersion is returned by Validate when two migrations share a version.
	ErrDuplicateVersion = errors.New("duplicate migration version")
)

var (
	upTemplate = template.Must(template.New("up").Parse(`-- {{.Name}}
-- Created: {{.Timestamp}}
{{- if .Description}}
-- {{.Description}}
{{- end}}

`))
	downTemplate = template.Must(template.New("down").Parse(`-- {{.Name}} (rollback)
-- Created: {{.Timestamp}}

`))
)

// MigrationFile describes a freshly scaffolded up/down pair.
type MigrationFile struct {
	Version     string
	Name        string
	Description string
	Timestamp   string
	UpPath      string
	DownPath    string
}

// Entry is one migration found on disk.
type Entry struct {
	Version uint64
	Base    string
	HasDown bool
}

// Creator scaffolds migration pairs named <yyyymmddhhmmss>_<name>.
type Creator struct {
	dir string
	now func() time.Time
}

// NewCreator returns a Creator writing into dir.
func NewCreator(dir string) *Creator {
	return &Creator{dir: dir, now: time.Now}
}

// CreateMigration scaffolds a pair in dir using the wall clock.
func CreateMigration(dir, name, description string) (*MigrationFile, error) {
	return NewCreator(dir).Create(name, description)
}

// Create writes the up and down files. Existing files are never overwritten.
func (c *Creator) Create(name, description string) (*MigrationFile, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, ErrEmptyName
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	now := c.now().UTC()
	version := now.Format("20060102150405")
	base := version + "_" + slug

	mf := &MigrationFile{
		Version:     version,
		Name:        name,
		Description: description,
		Timestamp:   now.Format(time.RFC3339),
		UpPath:      filepath.Join(c.dir, base+upSuffix),
		DownPath:    filepath.Join(c.dir, base+downSuffix),
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
		return fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}
	if err := tmpl.Execute(f, data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to render %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// sanitizeName lowercases name and collapses separators into single underscores.
func sanitizeName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			pendingSep = true
		}
	}
	return b.String()
}

// ListMigrations returns the migrations in dir ordered by version. A missing
// directory yields an empty list.
func ListMigrations(dir string) ([]Entry, error) {
	files, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	downs := make(map[string]bool)
	for _, f := range files {
		if !f.IsDir() && strings.HasSuffix(f.Name(), downSuffix) {
			downs[strings.TrimSuffix(f.Name(), downSuffix)] = true
		}
	}

	entries := make([]Entry, 0, len(files)/2)
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), upSuffix) {
			continue
		}
		base := strings.TrimSuffix(f.Name(), upSuffix)
		version, ok := parseVersion(base)
		if !ok {
			continue
		}
		entries = append(entries, Entry{Version: version, Base: base, HasDown: downs[base]})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Version < entries[j].Version })
	return entries, nil
}

// Validate checks that every migration in dir has a rollback and a unique version.
func Validate(dir string) error {
	entries, err := ListMigrations(dir)
	if err != nil {
		return err
	}
	var errs []error
	for i, e := range entries {
		if !e.HasDown {
			errs = append(errs, fmt.Errorf("%s: %w", e.Base, ErrMissingDown))
		}
		if i > 0 && entries[i-1].Version == e.Version {
			errs = append(errs, fmt.Errorf("%s and %s: %w", entries[i-1].Base, e.Base, ErrDuplicateVersion))
		}
	}
	return errors.Join(errs...)
}

func parseVersion(base string) (uint64, bool) {
	prefix, _, found := strings.Cut(base, "_")
	if !found {
		return 0, false
	}
	v, err := strconv.ParseUint(prefix, 10, 64)
	return v, err == nil
}
