package os

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
)

const atomicWriteFilePrefix = ".write-file-atomic-"

type logger interface {
	Info(msg string, keyvals ...interface{})
}

// TrapSignal catches the SIGTERM and SIGINT and executes the clean up
// function before exiting with a value that is greater than 128.
func TrapSignal(logger logger, cleanupFunc func()) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigs
		logger.Info("signal trapped", "msg", fmt.Sprintf("captured %v, exiting...", sig))

		if cleanupFunc != nil {
			cleanupFunc()
		}

		exitCode := 128

		switch sig {
		case syscall.SIGINT:
			exitCode += int(syscall.SIGINT)
		case syscall.SIGTERM:
			exitCode += int(syscall.SIGTERM)
		}

		os.Exit(exitCode)
	}()
}

func EnsureDir(dir string, mode os.FileMode) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		err := os.MkdirAll(dir, mode)
		if err != nil {
			return fmt.Errorf("could not create directory %v: %w", dir, err)
		}
	}
	return nil
}

func FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !os.IsNotExist(err)
}

// WriteFileAtomic replaces filePath with contents so that a crash leaves
// either the old or the new contents in place, never a mix. The data is
// written to a temporary file in the same directory and fsynced before it is
// renamed over filePath; the rename is then flushed with SyncDir.
func WriteFileAtomic(filePath string, contents []byte, mode os.FileMode) (err error) {
	dir, name := filepath.Split(filePath)
	f, err := os.CreateTemp(filepath.Clean(dir), atomicWriteFilePrefix+name+"-")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	if err = f.Chmod(mode); err != nil {
		return err
	}
	if n, werr := f.Write(contents); werr != nil {
		return werr
	} else if n < len(contents) {
		return io.ErrShortWrite
	}
	if err = f.Sync(); err != nil {
		return err
	}
	// Close the file before renaming it, otherwise it will cause "The process
	// cannot access the file because it is being used by another process." on windows.
	if err = f.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmp, filePath); err != nil {
		return err
	}
	return SyncDir(filepath.Clean(dir))
}

// SyncDir flushes directory metadata, making a preceding rename durable.
func SyncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
