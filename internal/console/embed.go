// ABOUTME: Embeds HTML templates for the debug console.
// ABOUTME: Uses go:embed to bundle templates into the binary.

package console

import "embed"

//go:embed templates/*.html
var templateFS embed.FS
