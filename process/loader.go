package process

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// A Program is a parsed program file.
type Program struct {
	Name     string
	Priority int
	Code     []Instruction
}

// ReadProgram reads and parses the program at path. The program is named
// after the file.
func ReadProgram(path string) (Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return Program{}, errors.Wrap(err, "loading program")
	}
	defer f.Close()

	priority, code, err := ParseProgram(f)
	if err != nil {
		return Program{}, errors.Wrapf(err, "parsing %s", path)
	}

	return Program{
		Name:     filepath.Base(path),
		Priority: priority,
		Code:     code,
	}, nil
}
