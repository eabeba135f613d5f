package journal

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const maxIncludeDepth = 16

// ParseFile reads the journal at path, splicing in `include` files
// (relative to the including file), and parses the result.
func ParseFile(path, self string) (*History, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read journal %v", path)
	}
	data, err = expandIncludes(filepath.Dir(path), data, 0)
	if err != nil {
		return nil, err
	}
	h, err := Parse(bytes.NewReader(data), self)
	if err != nil {
		return nil, errors.Wrapf(err, "journal %v", path)
	}
	return h, nil
}

func expandIncludes(dir string, data []byte, depth int) ([]byte, error) {
	if depth > maxIncludeDepth {
		return nil, errors.Errorf("includes nested deeper than %d", maxIncludeDepth)
	}
	var out bytes.Buffer
	s := bufio.NewScanner(bytes.NewReader(data))
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	for s.Scan() {
		line := s.Text()
		if !strings.HasPrefix(line, "include ") {
			out.WriteString(line)
			out.WriteByte('\n')
			continue
		}
		fname := strings.Trim(line[8:], " \t\r\n")
		if !filepath.IsAbs(fname) {
			fname = filepath.Join(dir, fname)
		}
		include, err := os.ReadFile(fname)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to read included file %v", fname)
		}
		include, err = expandIncludes(filepath.Dir(fname), include, depth+1)
		if err != nil {
			return nil, err
		}
		// Keep the included transactions apart from whatever surrounds them.
		out.WriteByte('\n')
		out.Write(include)
		out.WriteByte('\n')
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, "unable to scan journal")
	}
	return out.Bytes(), nil
}
