package internal

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
)

// StoragePaths holds the detected paths for Cursor storage
type StoragePaths struct {
	WorkspaceStorage string // workspaceStorage directory
	GlobalStorage    string // globalStorage directory
	BasePath         string // Base Cursor User directory
}

// DetectStoragePaths detects the Cursor storage paths based on the operating
// system. Under WSL the Windows user profile is used.
func DetectStoragePaths(ctx context.Context) (StoragePaths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return StoragePaths{}, fmt.Errorf("failed to get home directory: %w", err)
	}

	var basePath string
	switch runtime.GOOS {
	case "darwin":
		basePath = filepath.Join(home, "Library/Application Support/Cursor/User")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		basePath = filepath.Join(appData, "Cursor", "User")
	case "linux":
		basePath = filepath.Join(home, ".config/Cursor/User")
		if IsWSL(ctx) {
			basePath = filepath.Join("/mnt/c/Users", Username(ctx), "AppData/Roaming/Cursor/User")
		}
	default:
		return StoragePaths{}, fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}

	return StoragePathsFromBase(basePath), nil
}

// StoragePathsFromBase derives storage paths from a Cursor User directory.
func StoragePathsFromBase(basePath string) StoragePaths {
	return StoragePaths{
		WorkspaceStorage: filepath.Join(basePath, "workspaceStorage"),
		GlobalStorage:    filepath.Join(basePath, "globalStorage"),
		BasePath:         basePath,
	}
}

// GetGlobalStorageDBPath returns the path to the globalStorage state.vscdb file
func (sp StoragePaths) GetGlobalStorageDBPath() string {
	return filepath.Join(sp.GlobalStorage, stateDBName)
}

// GlobalStorageExists checks if the globalStorage database exists
func (sp StoragePaths) GlobalStorageExists() bool {
	_, err := os.Stat(sp.GetGlobalStorageDBPath())
	return err == nil
}

// GlobalDBForWorkspaceRoot returns the global store that sits next to a
// workspaceStorage directory.
func GlobalDBForWorkspaceRoot(root string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(root)), "globalStorage", stateDBName)
}

// IsWSL reports whether the kernel identifies as Windows Subsystem for Linux.
func IsWSL(ctx context.Context) bool {
	if runtime.GOOS != "linux" {
		return false
	}
	release, err := host.KernelVersionWithContext(ctx)
	if err != nil {
		LogDebug("kernel version unavailable: %v", err)
		return false
	}
	release = strings.ToLower(release)
	return strings.Contains(release, "microsoft") || strings.Contains(release, "wsl")
}

// Username returns the user whose profile holds Cursor data. Under WSL that
// is the Windows user.
func Username(ctx context.Context) string {
	if IsWSL(ctx) {
		out, err := exec.CommandContext(ctx, "cmd.exe", "/c", "echo %USERNAME%").Output()
		if err == nil {
			if name := strings.TrimSpace(string(out)); name != "" && name != "%USERNAME%" {
				return name
			}
		}
	}
	if runtime.GOOS == "windows" {
		if name := os.Getenv("USERNAME"); name != "" {
			return name
		}
	}
	if u, err := user.Current(); err == nil {
		return filepath.Base(u.Username)
	}
	return "YOUR_USERNAME"
}

// Environment describes the host as far as storage discovery is concerned.
type Environment struct {
	OS                   string `json:"os"`
	IsWSL                bool   `json:"isWSL"`
	Username             string `json:"username"`
	DefaultWorkspacePath string `json:"defaultWorkspacePath,omitempty"`
	DefaultGlobalDB      string `json:"defaultGlobalDb,omitempty"`
}

// DetectEnvironment reports the OS, WSL status, username and default paths.
func DetectEnvironment(ctx context.Context) Environment {
	env := Environment{
		OS:       runtime.GOOS,
		IsWSL:    IsWSL(ctx),
		Username: Username(ctx),
	}
	if paths, err := DetectStoragePaths(ctx); err == nil {
		env.DefaultWorkspacePath = paths.WorkspaceStorage
		env.DefaultGlobalDB = paths.GetGlobalStorageDBPath()
	}
	return env
}

// ExpandHome expands a leading ~/ to the home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
