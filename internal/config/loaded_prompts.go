package config

import (
	"sync"
)

// The loaded prompt store is written at startup and rewritten by the
// prompt watcher in serve mode, so reads take the lock too.
var (
	loadedPromptsMu sync.RWMutex
	loadedPrompts   AllLoadedPrompts
)

// LoadedPrompts holds the content of prompts loaded from files
type LoadedPrompts struct {
	SystemPrompts LoadedSystemPrompts
	UserPrompts   LoadedUserPrompts
}

// LoadedSystemPrompts contains loaded system-level instructions
type LoadedSystemPrompts struct {
	Enhance string
	Reparse string
}

// LoadedUserPrompts contains loaded user-level prompt templates
type LoadedUserPrompts struct {
	Enhance string
	Reparse string
}

// OperationLoadedPrompts holds loaded prompts for a specific operation
type OperationLoadedPrompts struct {
	SystemPrompts LoadedSystemPrompts
	UserPrompts   LoadedUserPrompts
}

// AllLoadedPrompts holds all loaded prompts for all operations
type AllLoadedPrompts struct {
	Global  LoadedPrompts
	Enhance OperationLoadedPrompts
	Reparse OperationLoadedPrompts
}

// snapshotLoadedPrompts returns a copy of the current loaded prompt store.
func snapshotLoadedPrompts() AllLoadedPrompts {
	loadedPromptsMu.RLock()
	defer loadedPromptsMu.RUnlock()
	return loadedPrompts
}

// setLoadedPrompts atomically replaces the loaded prompt store.
func setLoadedPrompts(all AllLoadedPrompts) {
	loadedPromptsMu.Lock()
	defer loadedPromptsMu.Unlock()
	loadedPrompts = all
}

// GetPromptsForOperation returns a copy of the loaded prompts for an operation type
func GetPromptsForOperation(operationType string) OperationLoadedPrompts {
	all := snapshotLoadedPrompts()

	switch operationType {
	case "enhance":
		return all.Enhance
	case "reparse":
		return all.Reparse
	default:
		return OperationLoadedPrompts{
			SystemPrompts: all.Global.SystemPrompts,
			UserPrompts:   all.Global.UserPrompts,
		}
	}
}
