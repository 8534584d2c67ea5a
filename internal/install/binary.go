package install

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"servus/internal/global"
)

func installBinary() (err error) {
	selfPath, err := os.Executable()
	if err != nil {
		return
	}

	err = copyExecutable(selfPath, global.DefaultBinaryPath)
	if err != nil {
		return
	}

	fmt.Printf("Successfully installed binary to '%s'\n", global.DefaultBinaryPath)
	return
}

// Destination is replaced atomically through a temp file in its own directory
func copyExecutable(source, destination string) (err error) {
	if filepath.Clean(source) == filepath.Clean(destination) {
		return
	}

	in, err := os.Open(source)
	if err != nil {
		err = fmt.Errorf("failed to open %s: %w", source, err)
		return
	}
	defer in.Close()

	out, err := os.CreateTemp(filepath.Dir(destination), ".servus-install-*")
	if err != nil {
		err = fmt.Errorf("failed to create temp binary: %w", err)
		return
	}
	tmpPath := out.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	_, err = io.Copy(out, in)
	if err == nil {
		err = out.Chmod(0755)
	}
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		err = fmt.Errorf("failed to write binary: %w", err)
		return
	}

	err = os.Rename(tmpPath, destination)
	if err != nil {
		err = fmt.Errorf("failed to move binary into place: %w", err)
	}
	return
}

func uninstallBinary() (err error) {
	err = removeIfPresent(global.DefaultBinaryPath)
	if err != nil {
		return
	}
	fmt.Printf("Successfully removed binary from '%s'\n", global.DefaultBinaryPath)
	return
}

func removeIfPresent(path string) (err error) {
	err = os.Remove(path)
	if os.IsNotExist(err) {
		err = nil
	}
	return
}
