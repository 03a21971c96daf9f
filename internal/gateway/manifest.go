package gateway

// DefaultShell lists the app-shell assets precached at install time. The
// offline page must be part of the shell so navigation fallback works with
// no network at all.
func DefaultShell(offlinePath, iconPath, badgePath string) []string {
	shell := []string{
		"/",
		"/index.html",
		"/manifest.json",
	}
	if offlinePath != "" {
		shell = append(shell, offlinePath)
	}
	if iconPath != "" {
		shell = append(shell, iconPath)
	}
	if badgePath != "" {
		shell = append(shell, badgePath)
	}
	return shell
}
