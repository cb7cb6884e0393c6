package bmeta

import (
	"fmt"
	"io"
	"os"
)

const defaultBuildMeta = "N/A" // Значение по умолчанию

// Meta версия, дата и коммит сборки.
type Meta struct {
	Version string
	Date    string
	Commit  string
}

// New подставляет N/A вместо пустых значений.
func New(version, date, commit string) Meta {
	return Meta{
		Version: orDefault(version),
		Date:    orDefault(date),
		Commit:  orDefault(commit),
	}
}

// Write распечатывает метаданные сборки в w.
func (m Meta) Write(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Build version: %s\nBuild date: %s\nBuild commit: %s\n", m.Version, m.Date, m.Commit)
	return err //nolint:wrapcheck
}

// Print Распечатывает версию, дату и комит сборки в stdout.
func Print(version, date, commit string) {
	_ = New(version, date, commit).Write(os.Stdout)
}

func orDefault(v string) string {
	if v == "" {
		return defaultBuildMeta
	}
	return v
}
