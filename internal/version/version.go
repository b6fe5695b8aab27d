package version

import (
	"fmt"
	"runtime"
)

// Version is the ecmd release.
const Version = "0.4.0"

// Banner is the line printed by the ver command.
func Banner() string {
	return fmt.Sprintf("ecmd version %s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH)
}

// Header is printed when an interactive session starts.
func Header() []string {
	return []string{
		Banner(),
		"Type EXIT to quit; Ctrl+F12 edits the screen.",
	}
}
