package submitter

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/lightrelay/lightrelay/bridge"
	"github.com/lightrelay/lightrelay/libs/log"
	tmos "github.com/lightrelay/lightrelay/libs/os"
)

// File drops every submission as a JSON file in a directory, for an
// external tool to sign and send. Submit returns as soon as the file is
// durable.
type File struct {
	dir    string
	logger log.Logger
}

var _ bridge.Submitter = (*File)(nil)

// NewFile returns a submitter writing under dir, creating it if needed.
func NewFile(dir string, logger log.Logger) (*File, error) {
	if err := tmos.EnsureDir(dir, 0700); err != nil {
		return nil, err
	}
	return &File{dir: dir, logger: logger}, nil
}

// Path returns the file the submission of epoch is written to.
func (f *File) Path(epoch uint64) string {
	return filepath.Join(f.dir, fmt.Sprintf("epoch-%d.json", epoch))
}

// Submit writes sub to Path(sub.Epoch), replacing any previous submission
// of the same epoch.
func (f *File) Submit(ctx context.Context, sub *bridge.Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bz, err := json.MarshalIndent(sub, "", "  ")
	if err != nil {
		return err
	}
	path := f.Path(sub.Epoch)
	if err := tmos.WriteFileAtomic(path, bz, 0600); err != nil {
		return fmt.Errorf("write submission: %w", err)
	}
	f.logger.Info("wrote committee submission", "epoch", sub.Epoch, "path", path)
	return nil
}
