package artifact

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"exoscope/config"
)

type LocalSource struct {
	dir string
}

func init() {
	Register("local", func(_ context.Context, cfg config.ModelConfig) (Source, error) {
		return NewLocalSource(cfg.Dir)
	})
}

func NewLocalSource(dir string) (*LocalSource, error) {
	if dir == "" {
		return nil, fmt.Errorf("local artifact dir is required")
	}
	return &LocalSource{dir: dir}, nil
}

func (s *LocalSource) Name() string {
	return "local:" + s.dir
}

func (s *LocalSource) Dir() string {
	return s.dir
}

func (s *LocalSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("invalid artifact name %q", name)
	}
	return os.Open(filepath.Join(s.dir, name))
}
