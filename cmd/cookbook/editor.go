// ABOUTME: Opens $EDITOR on a temp file and watches it for writes.
// ABOUTME: Each save in the editor is reported back so autosave can pick it up.

package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const editorDebounce = 300 * time.Millisecond

// editText opens $EDITOR on initial and returns the final contents. onChange
// is called with the file contents after each write while the editor runs.
func editText(ctx context.Context, initial string, onChange func(string)) (string, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vim"
	}

	dir, err := os.MkdirTemp("", "cookbook-*")
	if err != nil {
		return "", err
	}
	defer func() {
		_ = os.RemoveAll(dir) // Best-effort cleanup
	}()

	path := filepath.Join(dir, "instructions.md")
	if err := os.WriteFile(path, []byte(initial), 0600); err != nil {
		return "", fmt.Errorf("failed to write initial content: %w", err)
	}

	stopWatch := watchFile(dir, path, onChange)
	defer stopWatch()

	cmd := exec.CommandContext(ctx, editor, path) //nolint:gosec // Launching $EDITOR is expected CLI behavior
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to open editor: %w", err)
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is our own temp file
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// watchFile reports writes to path, debounced. Editors that save by rename
// show up as Create, so the directory is watched rather than the file.
// Watching is best effort; the returned func stops it.
func watchFile(dir, path string, onChange func(string)) func() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return func() {}
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)

		var debounce *time.Timer
		defer func() {
			if debounce != nil {
				debounce.Stop()
			}
		}()

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(editorDebounce, func() {
					if data, err := os.ReadFile(path); err == nil { //nolint:gosec // our temp file
						onChange(string(data))
					}
				})
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return func() {
		_ = watcher.Close()
		<-done
	}
}
